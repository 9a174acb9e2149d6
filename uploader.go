package wordfreq

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/google/uuid"

	"github.com/hamedshahidi/word-frequency/backend"
	"github.com/hamedshahidi/word-frequency/source"
)

// File is a chunkable file opened for upload.
type File interface {
	Name() string
	Size() int64
	Count() int64
	Next(offset int64) (source.Chunk, bool, error)
	Reader() io.Reader
	Close() error
}

// Opener opens the file at path for upload in chunkSize pieces.
type Opener func(path string, chunkSize int64) (File, error)

func openFile(path string, chunkSize int64) (File, error) {
	file, err := source.Open(path, chunkSize)
	if err != nil {
		return nil, err
	}
	return file, nil
}

// Submission is the raw input of the upload form.
type Submission struct {
	File string `json:"file"`
	K    string `json:"k"`
}

// Option configures an Uploader.
type Option func(*Uploader)

// WithChunkSize sets the size of each uploaded chunk in bytes.
func WithChunkSize(size int64) Option {
	return func(u *Uploader) {
		u.chunkSize = size
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(logger log.Logger) Option {
	return func(u *Uploader) {
		u.logger = logger
	}
}

// WithOpener replaces the function used to open submitted files.
func WithOpener(open Opener) Option {
	return func(u *Uploader) {
		u.open = open
	}
}

// Uploader sends files to the analysis service one chunk at a time and then
// requests the final analysis. It runs at most one upload at a time.
type Uploader struct {
	backend   backend.Backend
	chunkSize int64
	logger    log.Logger
	open      Opener
	tracker   *tracker

	mu      sync.Mutex
	active  *Job
	results Result
}

// NewUploader creates an Uploader that talks to b. Call Close when done.
func NewUploader(b backend.Backend, opts ...Option) (*Uploader, error) {
	if b == nil {
		return nil, fmt.Errorf("unable to upload without a backend")
	}
	u := &Uploader{
		backend:   b,
		chunkSize: source.DefaultChunkSize,
		logger:    log.NewNopLogger(),
		open:      openFile,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.chunkSize < 1 {
		return nil, fmt.Errorf("chunk size must be at least 1 byte, got %d", u.chunkSize)
	}
	u.tracker = newTracker()
	return u, nil
}

// Job is a single upload started by Submit.
type Job struct {
	ID        string
	K         int
	ChunkSize int64
	TotalSize int64

	file   File
	offset atomic.Int64
	done   chan struct{}
	result Result
	err    error
}

// Offset returns how many bytes of the file the service has acknowledged.
func (j *Job) Offset() int64 {
	return j.offset.Load()
}

// Done is closed once the upload has finished, successfully or not.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the upload has finished and returns its outcome.
func (j *Job) Wait() (Result, error) {
	<-j.done
	return j.result, j.err
}

// validate turns the raw form input into a K value, refusing empty fields.
func validate(sub Submission) (int, error) {
	if strings.TrimSpace(sub.File) == "" {
		return 0, &ValidationError{Field: FieldFile, Message: "Please select a file."}
	}
	text := strings.TrimSpace(sub.K)
	if text == "" {
		return 0, &ValidationError{Field: FieldK, Message: "Please enter a value for K."}
	}
	k, err := strconv.Atoi(text)
	if err != nil || k < 1 {
		return 0, &ValidationError{Field: FieldK, Message: "K must be a positive whole number."}
	}
	return k, nil
}

// Submit starts uploading the submitted file. Invalid input is reported as a
// *ValidationError before anything is sent. While another upload is running
// Submit returns ErrJobActive and has no other effect. ctx bounds the whole
// upload, not just the call.
func (u *Uploader) Submit(ctx context.Context, sub Submission) (*Job, error) {
	if active := u.activeID(); active != "" {
		level.Debug(u.logger).Log("msg", "submission dropped", "active_job", active)
		return nil, ErrJobActive
	}
	k, err := validate(sub)
	if err != nil {
		return nil, err
	}
	// Opening may block on the filesystem, so it happens outside the lock.
	file, err := u.open(sub.File, u.chunkSize)
	if err != nil {
		return nil, &ValidationError{Field: FieldFile, Message: fmt.Sprintf("Unable to read %s.", sub.File), Err: err}
	}

	u.mu.Lock()
	defer u.mu.Unlock()
	if u.active != nil {
		level.Debug(u.logger).Log("msg", "submission dropped", "active_job", u.active.ID)
		file.Close()
		return nil, ErrJobActive
	}

	job := &Job{
		ID:        uuid.New().String(),
		K:         k,
		ChunkSize: u.chunkSize,
		TotalSize: file.Size(),
		file:      file,
		done:      make(chan struct{}),
	}
	u.active = job
	u.tracker.begin(Snapshot{
		JobID:      job.ID,
		Phase:      PhaseUploading,
		Chunks:     file.Count(),
		TotalBytes: job.TotalSize,
		Started:    time.Now(),
	})
	level.Info(u.logger).Log("msg", "upload started", "job", job.ID, "file", file.Name(),
		"size", job.TotalSize, "chunks", file.Count(), "k", k)

	go u.run(ctx, job)
	return job, nil
}

func (u *Uploader) run(ctx context.Context, job *Job) {
	if err := u.uploadChunks(ctx, job); err != nil {
		level.Error(u.logger).Log("msg", "chunk upload failed", "job", job.ID, "offset", job.Offset(), "err", err)
		u.finish(job, Result{}, err)
		return
	}
	result, err := u.finalize(ctx, job)
	if err != nil {
		level.Error(u.logger).Log("msg", "finalize failed", "job", job.ID, "err", err)
		u.finish(job, Result{}, err)
		return
	}
	level.Info(u.logger).Log("msg", "upload finished", "job", job.ID, "rows", len(result.Rows))
	u.finish(job, result, nil)
}

// uploadChunks sends every chunk in order, waiting for each to be acknowledged
// before reading the next. The first failure ends the loop.
func (u *Uploader) uploadChunks(ctx context.Context, job *Job) error {
	base := Snapshot{
		JobID:      job.ID,
		Phase:      PhaseUploading,
		Chunks:     job.file.Count(),
		TotalBytes: job.TotalSize,
		Started:    time.Now(),
	}
	for offset := int64(0); offset < job.TotalSize; {
		chunk, ok, err := job.file.Next(offset)
		if err != nil {
			return &ChunkError{Number: chunk.Number, Offset: offset, Err: err}
		}
		if !ok {
			break
		}
		seq := u.tracker.begin(base)
		err = u.backend.UploadChunk(ctx, backend.ChunkUpload{
			Name:   job.file.Name(),
			Data:   bytes.NewReader(chunk.Data),
			Size:   chunk.Size,
			K:      job.K,
			Offset: chunk.Offset,
		}, func(fraction float64) {
			sent := chunk.Offset + int64(clamp(fraction)*float64(chunk.Size))
			u.tracker.edit(seq, func(s *Snapshot) {
				if sent > s.BytesSent {
					s.BytesSent = sent
					s.Fraction = float64(sent) / float64(job.TotalSize)
				}
			})
		})
		if err != nil {
			return &ChunkError{Number: chunk.Number, Offset: chunk.Offset, Err: err}
		}
		offset += chunk.Size
		job.offset.Store(offset)
		level.Debug(u.logger).Log("msg", "chunk acknowledged", "job", job.ID, "chunk", chunk.Number, "offset", chunk.Offset, "size", chunk.Size)

		base.Chunk = chunk.Number + 1
		base.BytesSent = offset
		base.Fraction = float64(offset) / float64(job.TotalSize)
	}
	u.tracker.begin(base)
	return nil
}

// finalize sends the whole file again and turns the analysis into rows.
func (u *Uploader) finalize(ctx context.Context, job *Job) (Result, error) {
	seq := u.tracker.begin(Snapshot{
		JobID:      job.ID,
		Phase:      PhaseFinalizing,
		Chunk:      job.file.Count(),
		Chunks:     job.file.Count(),
		TotalBytes: job.TotalSize,
		Started:    time.Now(),
	})
	analysis, err := u.backend.Finalize(ctx, backend.FileUpload{
		Name: job.file.Name(),
		Data: job.file.Reader(),
		Size: job.TotalSize,
		K:    job.K,
	}, func(fraction float64) {
		fraction = clamp(fraction)
		u.tracker.edit(seq, func(s *Snapshot) {
			if fraction > s.Fraction {
				s.Fraction = fraction
				s.BytesSent = int64(fraction * float64(s.TotalBytes))
			}
		})
	})
	if err != nil {
		return Result{}, err
	}
	rows, mismatch := PairRows(analysis.Words, analysis.Frequencies)
	result := Result{Rows: rows}
	if mismatch != nil {
		level.Warn(u.logger).Log("msg", "analysis lists differ in length", "job", job.ID, "err", mismatch)
		result.Unpaired = mismatch.Unpaired()
	}
	return result, nil
}

// finish returns the uploader to idle and releases the job's waiters.
func (u *Uploader) finish(job *Job, result Result, err error) {
	if cerr := job.file.Close(); cerr != nil {
		level.Warn(u.logger).Log("msg", "failed to close file", "job", job.ID, "err", cerr)
	}
	job.result, job.err = result, err

	u.mu.Lock()
	if err == nil {
		u.results = result
	}
	u.active = nil
	u.tracker.begin(Snapshot{Phase: PhaseIdle})
	u.mu.Unlock()

	close(job.done)
}

func clamp(fraction float64) float64 {
	if fraction < 0 {
		return 0
	}
	if fraction > 1 {
		return 1
	}
	return fraction
}

// Snapshot returns the current progress.
func (u *Uploader) Snapshot() Snapshot {
	return u.tracker.current()
}

// Subscribe returns a channel that receives the current progress right away
// and again after every change. A slow reader only misses intermediate
// snapshots, never the latest one. Call the returned function to stop.
func (u *Uploader) Subscribe() (<-chan Snapshot, func()) {
	return u.tracker.subscribeChan()
}

func (u *Uploader) activeID() string {
	u.mu.Lock()
	defer u.mu.Unlock()
	if u.active == nil {
		return ""
	}
	return u.active.ID
}

// Active reports whether an upload is running.
func (u *Uploader) Active() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.active != nil
}

// Results returns the rows of the last successful upload.
func (u *Uploader) Results() Result {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.results
}

// Close waits for any running upload to finish, then stops progress tracking
// and closes all subscriptions. Cancel the upload's context to end it sooner.
func (u *Uploader) Close() {
	u.mu.Lock()
	job := u.active
	u.mu.Unlock()
	if job != nil {
		<-job.done
	}
	u.tracker.close()
}
