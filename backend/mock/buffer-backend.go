package mock

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sync"

	"github.com/hamedshahidi/word-frequency/backend"
)

// Request is one call observed by a BufferBackend.
type Request struct {
	Op     string
	Name   string
	K      int
	Offset int64
	Data   []byte
}

// BufferBackend implements the Backend interface and keeps every observed
// request, data included, for later inspection. It answers Finalize with the
// Analysis it was created with. It is safe for concurrent use.
type BufferBackend struct {
	mu           sync.Mutex
	requests     []Request
	analysis     backend.Analysis
	failChunk    int
	failFinalize bool
	hold         chan struct{}
	started      chan struct{}
	ticks        []float64
}

// NewBufferBackend creates a backend that answers Finalize with analysis.
func NewBufferBackend(analysis backend.Analysis) *BufferBackend {
	return &BufferBackend{
		analysis:  analysis,
		failChunk: -1,
		started:   make(chan struct{}, 64),
		ticks:     []float64{0.5},
	}
}

// Ticks sets the progress fractions every request reports before it signals
// Started and waits out any hold. The final report of 1 is always sent.
func (b *BufferBackend) Ticks(fractions ...float64) *BufferBackend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.ticks = append([]float64(nil), fractions...)
	return b
}

// FailChunk makes the chunk upload with the given zero-based index fail with
// a 500 TransportError. Earlier chunks succeed.
func (b *BufferBackend) FailChunk(index int) *BufferBackend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failChunk = index
	return b
}

// FailFinalize makes Finalize fail with a 500 TransportError.
func (b *BufferBackend) FailFinalize() *BufferBackend {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failFinalize = true
	return b
}

// Hold blocks every request until the returned release function is called or
// the request's context ends.
func (b *BufferBackend) Hold() (release func()) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hold := make(chan struct{})
	b.hold = hold
	var once sync.Once
	return func() {
		once.Do(func() { close(hold) })
	}
}

// Started receives a value every time a request has reported its ticks.
func (b *BufferBackend) Started() <-chan struct{} {
	return b.started
}

// Requests returns a copy of every request observed so far, in order.
func (b *BufferBackend) Requests() []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]Request(nil), b.requests...)
}

// ChunkRequests returns only the observed chunk uploads.
func (b *BufferBackend) ChunkRequests() []Request {
	return b.filter(backend.OpUploadChunk)
}

// FinalizeRequests returns only the observed Finalize calls.
func (b *BufferBackend) FinalizeRequests() []Request {
	return b.filter(backend.OpFinalize)
}

func (b *BufferBackend) filter(op string) []Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.filterLocked(op)
}

// record reads the request data, stores it and waits out any hold.
func (b *BufferBackend) record(ctx context.Context, req Request, data io.Reader, progress backend.ProgressFunc) (int, error) {
	if data != nil {
		contents, err := io.ReadAll(data)
		if err != nil {
			return 0, &backend.TransportError{Op: req.Op, Err: err}
		}
		req.Data = contents
	}
	b.mu.Lock()
	index := len(b.filterLocked(req.Op))
	b.requests = append(b.requests, req)
	hold := b.hold
	ticks := b.ticks
	b.mu.Unlock()

	if progress != nil {
		for _, fraction := range ticks {
			progress(fraction)
		}
	}
	select {
	case b.started <- struct{}{}:
	default:
	}
	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			return index, &backend.TransportError{Op: req.Op, Err: ctx.Err()}
		}
	}
	if progress != nil {
		progress(1)
	}
	return index, nil
}

func (b *BufferBackend) filterLocked(op string) []Request {
	out := make([]Request, 0)
	for _, r := range b.requests {
		if r.Op == op {
			out = append(out, r)
		}
	}
	return out
}

// UploadChunk records the chunk, failing if it is the configured failing index.
func (b *BufferBackend) UploadChunk(ctx context.Context, chunk backend.ChunkUpload, progress backend.ProgressFunc) error {
	index, err := b.record(ctx, Request{
		Op:     backend.OpUploadChunk,
		Name:   chunk.Name,
		K:      chunk.K,
		Offset: chunk.Offset,
	}, chunk.Data, progress)
	if err != nil {
		return err
	}
	b.mu.Lock()
	fail := index == b.failChunk
	b.mu.Unlock()
	if fail {
		return &backend.TransportError{
			Op:     backend.OpUploadChunk,
			Status: http.StatusInternalServerError,
			Err:    fmt.Errorf("chunk %d rejected", index),
		}
	}
	return nil
}

// Finalize records the file and returns the configured analysis.
func (b *BufferBackend) Finalize(ctx context.Context, file backend.FileUpload, progress backend.ProgressFunc) (backend.Analysis, error) {
	if _, err := b.record(ctx, Request{
		Op:   backend.OpFinalize,
		Name: file.Name,
		K:    file.K,
	}, file.Data, progress); err != nil {
		return backend.Analysis{}, err
	}
	b.mu.Lock()
	fail := b.failFinalize
	analysis := b.analysis
	b.mu.Unlock()
	if fail {
		return backend.Analysis{}, &backend.TransportError{
			Op:     backend.OpFinalize,
			Status: http.StatusInternalServerError,
		}
	}
	return analysis, nil
}

// Ensure that BufferBackend implements the Backend interface at compile-time
var _ backend.Backend = &BufferBackend{}
