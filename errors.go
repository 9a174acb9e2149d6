package wordfreq

import (
	"errors"
	"fmt"
)

// Submission fields named by a ValidationError.
const (
	FieldFile = "file"
	FieldK    = "k"
)

// ErrJobActive is returned by Submit while another upload is in progress.
// Nothing about the active upload changes; callers are expected to drop the
// submission without telling the user.
var ErrJobActive = errors.New("an upload is already in progress")

// ValidationError reports a submission that was refused before any request
// was made. Message is meant to be shown to the user as is.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ChunkError reports the chunk at which an upload was abandoned. Err is
// usually a *backend.TransportError.
type ChunkError struct {
	Number int64
	Offset int64
	Err    error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("chunk %d at offset %d: %v", e.Number, e.Offset, e.Err)
}

func (e *ChunkError) Unwrap() error {
	return e.Err
}

// MismatchError reports an analysis whose word and frequency lists differ in
// length. It does not fail an upload.
type MismatchError struct {
	Words       int
	Frequencies int
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("analysis has %d words but %d frequencies", e.Words, e.Frequencies)
}

// Unpaired returns how many entries of the longer list have no partner.
func (e *MismatchError) Unpaired() int {
	if e.Words > e.Frequencies {
		return e.Words - e.Frequencies
	}
	return e.Frequencies - e.Words
}
