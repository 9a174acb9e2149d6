package backend

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// HTTPBackend implements the Backend interface over the service's multipart
// HTTP API.
type HTTPBackend struct {
	client  *http.Client
	baseURL string
}

// NewHTTPBackend creates a backend for the service rooted at baseURL. A nil
// client means http.DefaultClient. Timeouts, if any, are the client's.
func NewHTTPBackend(baseURL string, client *http.Client) (*HTTPBackend, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid backend url %q: %w", baseURL, err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must use http or https", baseURL)
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPBackend{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
	}, nil
}

// URL returns the address the backend sends requests to.
func (h *HTTPBackend) URL() string {
	return h.baseURL
}

// UploadChunk posts one chunk to /upload-chunk. The response body is read and
// discarded.
func (h *HTTPBackend) UploadChunk(ctx context.Context, chunk ChunkUpload, progress ProgressFunc) error {
	fields := []field{
		{name: "k", value: strconv.Itoa(chunk.K)},
		{name: "offset", value: strconv.FormatInt(chunk.Offset, 10)},
	}
	resp, err := h.post(ctx, OpUploadChunk, "/upload-chunk", fields, chunk.Name, chunk.Data, chunk.Size, progress)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if _, err := io.Copy(io.Discard, resp.Body); err != nil {
		return &TransportError{Op: OpUploadChunk, Err: fmt.Errorf("failed to read response: %w", err)}
	}
	return nil
}

// Finalize posts the whole file to /upload and decodes the analysis.
func (h *HTTPBackend) Finalize(ctx context.Context, file FileUpload, progress ProgressFunc) (Analysis, error) {
	fields := []field{
		{name: "k", value: strconv.Itoa(file.K)},
	}
	resp, err := h.post(ctx, OpFinalize, "/upload", fields, file.Name, file.Data, file.Size, progress)
	if err != nil {
		return Analysis{}, err
	}
	defer resp.Body.Close()
	var analysis Analysis
	if err := json.NewDecoder(resp.Body).Decode(&analysis); err != nil {
		return Analysis{}, &TransportError{Op: OpFinalize, Err: fmt.Errorf("failed to decode analysis: %w", err)}
	}
	return analysis, nil
}

// post sends a multipart form and returns the response only for 2xx statuses.
func (h *HTTPBackend) post(ctx context.Context, op, path string, fields []field, name string,
	data io.Reader, size int64, progress ProgressFunc) (*http.Response, error) {
	body, err := newForm(fields, name, data, size)
	if err != nil {
		return nil, &TransportError{Op: op, Err: fmt.Errorf("failed to build form: %w", err)}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.baseURL+path,
		io.NopCloser(newProgressReader(body.body, body.length, progress)))
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	req.ContentLength = body.length
	req.Header.Set("Content-Type", body.contentType)

	resp, err := h.client.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		return nil, &TransportError{Op: op, Status: resp.StatusCode}
	}
	return resp, nil
}

// Ensure that HTTPBackend implements the Backend interface at compile-time
var _ Backend = &HTTPBackend{}
