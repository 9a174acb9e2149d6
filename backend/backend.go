package backend

import (
	"context"
	"io"
)

// ProgressFunc receives the fraction of the current request's body that has
// been handed to the transport. Values are in [0, 1] and never decrease within
// one request. They say nothing about what the service has stored.
type ProgressFunc func(fraction float64)

// ChunkUpload is one chunk of a file together with the metadata the service
// expects alongside it.
type ChunkUpload struct {
	Name   string
	Data   io.Reader
	Size   int64
	K      int
	Offset int64
}

// FileUpload is a whole file sent for final analysis.
type FileUpload struct {
	Name string
	Data io.Reader
	Size int64
	K    int
}

// Analysis is the service's answer to a FileUpload. Words and Frequencies are
// parallel: Words[i] occurred Frequencies[i] times.
type Analysis struct {
	Words       []string `json:"words"`
	Frequencies []int    `json:"frequencies"`
}

// Backend defines a valid destination for word frequency uploads.
type Backend interface {
	// UploadChunk sends a single chunk. It must not be called concurrently
	// for chunks of the same file.
	UploadChunk(ctx context.Context, chunk ChunkUpload, progress ProgressFunc) error
	// Finalize sends the whole file and returns the service's analysis.
	Finalize(ctx context.Context, file FileUpload, progress ProgressFunc) (Analysis, error)
}
