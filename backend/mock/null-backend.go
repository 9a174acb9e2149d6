package mock

import (
	"context"
	"io"

	"github.com/hamedshahidi/word-frequency/backend"
)

// NullBackend implements the Backend interface, consumes every request body
// and returns zero values.
type NullBackend struct{}

func NewNullBackend() NullBackend {
	return NullBackend{}
}

// UploadChunk reads the chunk and reports it fully sent.
func (n NullBackend) UploadChunk(ctx context.Context, chunk backend.ChunkUpload, progress backend.ProgressFunc) error {
	return drain(chunk.Data, progress)
}

// Finalize reads the file and returns an empty analysis.
func (n NullBackend) Finalize(ctx context.Context, file backend.FileUpload, progress backend.ProgressFunc) (backend.Analysis, error) {
	return backend.Analysis{}, drain(file.Data, progress)
}

func drain(r io.Reader, progress backend.ProgressFunc) error {
	if r != nil {
		if _, err := io.Copy(io.Discard, r); err != nil {
			return err
		}
	}
	if progress != nil {
		progress(1)
	}
	return nil
}

// Ensure that NullBackend implements the Backend interface at compile-time
var _ backend.Backend = NullBackend{}
