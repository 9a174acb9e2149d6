package backend

import (
	"fmt"
	"net/http"
)

// Operation names used in TransportError.
const (
	OpUploadChunk = "upload-chunk"
	OpFinalize    = "upload"
)

// TransportError reports a failed request to the service. Status is the HTTP
// status code when a response arrived, and 0 otherwise. A chunk whose upload
// produced a TransportError counts as not received at all.
type TransportError struct {
	Op     string
	Status int
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: unexpected status %d %s", e.Op, e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
