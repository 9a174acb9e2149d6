package wordfreq

// Row is one line of the results table.
type Row struct {
	Word      string `json:"word"`
	Frequency int    `json:"frequency"`
}

// Result is the display model of a finished upload. Rows keep the service's
// order, duplicates included. Unpaired counts entries dropped because the
// service's lists had different lengths.
type Result struct {
	Rows     []Row `json:"rows"`
	Unpaired int   `json:"unpaired,omitempty"`
}

// PairRows zips words and frequencies index by index. When the lengths differ
// the extra entries are dropped and a *MismatchError describes them; the rows
// that could be paired are still returned.
func PairRows(words []string, frequencies []int) ([]Row, *MismatchError) {
	n := min(len(words), len(frequencies))
	rows := make([]Row, n)
	for i := 0; i < n; i++ {
		rows[i] = Row{Word: words[i], Frequency: frequencies[i]}
	}
	if len(words) != len(frequencies) {
		return rows, &MismatchError{Words: len(words), Frequencies: len(frequencies)}
	}
	return rows, nil
}
