package source

import "fmt"

// Chunk represents a single region of a file.
//
// Number is how many chunks into the file this chunk is, starting at 0
// Offset is the index of the first byte of the file included in Data
// Size is the length of Data
// Data is a slice of the original file of length Size
type Chunk struct {
	Number int64
	Offset int64
	Size   int64
	Data   []byte
}

// Range returns the half-open byte range [start, end) covered by this chunk.
func (c Chunk) Range() (start, end int64) {
	return c.Offset, c.Offset + c.Size
}

// String describes the chunk without its data.
func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d [%d, %d)", c.Number, c.Offset, c.Offset+c.Size)
}
