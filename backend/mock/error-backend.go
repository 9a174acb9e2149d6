package mock

import (
	"context"
	"fmt"

	"github.com/hamedshahidi/word-frequency/backend"
)

// ErrorBackend implements the Backend interface but always fails with a
// TransportError.
type ErrorBackend struct{}

// NewErrorBackend creates a backend that always errors out.
func NewErrorBackend() ErrorBackend {
	return ErrorBackend{}
}

// UploadChunk always returns a TransportError.
func (e ErrorBackend) UploadChunk(ctx context.Context, chunk backend.ChunkUpload, progress backend.ProgressFunc) error {
	return &backend.TransportError{Op: backend.OpUploadChunk, Err: fmt.Errorf("connection refused")}
}

// Finalize always returns a TransportError.
func (e ErrorBackend) Finalize(ctx context.Context, file backend.FileUpload, progress backend.ProgressFunc) (backend.Analysis, error) {
	return backend.Analysis{}, &backend.TransportError{Op: backend.OpFinalize, Err: fmt.Errorf("connection refused")}
}

// Ensure that ErrorBackend implements the Backend interface at compile-time
var _ backend.Backend = ErrorBackend{}
