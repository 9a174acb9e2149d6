package wordfreq

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// Phase is the uploader's current state.
type Phase uint8

const (
	PhaseIdle Phase = iota
	PhaseUploading
	PhaseFinalizing
)

// String returns the lower-case name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseUploading:
		return "uploading"
	case PhaseFinalizing:
		return "finalizing"
	default:
		return "unknown"
	}
}

// MarshalText encodes the phase by name.
func (p Phase) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Snapshot is the current progress of the uploader. There is only ever one
// current Snapshot; each progress event replaces it.
//
// In PhaseUploading, Fraction is the share of the file handed to the service
// so far across all chunks. In PhaseFinalizing it is the share of the final
// request's body sent. In PhaseIdle it is 0.
type Snapshot struct {
	JobID      string    `json:"job_id,omitempty"`
	Phase      Phase     `json:"phase"`
	Fraction   float64   `json:"fraction"`
	Chunk      int64     `json:"chunk"`
	Chunks     int64     `json:"chunks"`
	BytesSent  int64     `json:"bytes_sent"`
	TotalBytes int64     `json:"total_bytes"`
	Started    time.Time `json:"-"`

	seq uint64
}

// State is the progress readout shown to the user. At most one of the two
// fractions is non-zero.
type State struct {
	InFlight           bool    `json:"in_flight"`
	UploadFraction     float64 `json:"upload_fraction"`
	ProcessingFraction float64 `json:"processing_fraction"`
}

// State derives the user-facing progress readout from the snapshot.
func (s Snapshot) State() State {
	state := State{InFlight: s.Phase != PhaseIdle}
	switch s.Phase {
	case PhaseUploading:
		state.UploadFraction = s.Fraction
	case PhaseFinalizing:
		state.ProcessingFraction = s.Fraction
	}
	return state
}

// PercentComplete returns how much of the current phase is complete.
func (s Snapshot) PercentComplete() float64 {
	return s.Fraction * 100
}

// Rate computes the observed rate of the current phase in bytes per second.
func (s Snapshot) Rate() float64 {
	if s.Started.IsZero() {
		return 0.0
	}
	elapsed := time.Since(s.Started).Seconds()
	if elapsed <= 0 {
		return 0.0
	}
	return float64(s.BytesSent) / elapsed
}

// RateMBPS computes the observed rate in megabytes per second.
func (s Snapshot) RateMBPS() float64 {
	return s.Rate() / 1e6
}

// TimeRemaining estimates how long the current phase will take to finish
// at the observed rate.
func (s Snapshot) TimeRemaining() time.Duration {
	rate := s.Rate()
	if rate <= 0 {
		return 0
	}
	finishedIn := float64(s.TotalBytes-s.BytesSent) / rate
	return time.Duration(finishedIn) * time.Second
}

// String generates a status message out of the snapshot.
func (s Snapshot) String() string {
	switch s.Phase {
	case PhaseIdle:
		return "Idle"
	case PhaseUploading:
		return fmt.Sprintf(
			"%3.2f%% Uploaded (chunk %d/%d)\tAverage Upload Speed %03.2f MB/sec\t%s Remaining",
			s.PercentComplete(),
			s.Chunk,
			s.Chunks,
			s.RateMBPS(),
			s.TimeRemaining())
	default:
		return fmt.Sprintf(
			"%3.2f%% Processing\tAverage Upload Speed %03.2f MB/sec\t%s Remaining",
			s.PercentComplete(),
			s.RateMBPS(),
			s.TimeRemaining())
	}
}

// trackerUpdate either replaces the snapshot (apply is nil) or edits it in place
// if it still belongs to the same request.
type trackerUpdate struct {
	seq      uint64
	snapshot Snapshot
	apply    func(*Snapshot)
}

// tracker owns the current Snapshot on a single goroutine and fans every change
// out to subscribers. A subscriber only ever holds the latest snapshot; older
// ones it has not read yet are replaced.
type tracker struct {
	counter        atomic.Uint64
	updates        chan trackerUpdate
	requestCurrent chan chan Snapshot
	subscribe      chan chan Snapshot
	unsubscribe    chan chan Snapshot
	stop           chan struct{}
	stopOnce       sync.Once
}

func newTracker() *tracker {
	t := &tracker{
		updates:        make(chan trackerUpdate),
		requestCurrent: make(chan chan Snapshot),
		subscribe:      make(chan chan Snapshot),
		unsubscribe:    make(chan chan Snapshot),
		stop:           make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *tracker) run() {
	var current Snapshot
	subscribers := make(map[chan Snapshot]struct{})
	for {
		select {
		case <-t.stop:
			for sub := range subscribers {
				close(sub)
			}
			return
		case update := <-t.updates:
			if update.apply == nil {
				if update.seq < current.seq {
					continue
				}
				current = update.snapshot
				current.seq = update.seq
			} else {
				if update.seq != current.seq {
					continue
				}
				update.apply(&current)
			}
			for sub := range subscribers {
				deliver(sub, current)
			}
		case sendBack := <-t.requestCurrent:
			sendBack <- current
		case sub := <-t.subscribe:
			subscribers[sub] = struct{}{}
			deliver(sub, current)
		case sub := <-t.unsubscribe:
			if _, ok := subscribers[sub]; ok {
				delete(subscribers, sub)
				close(sub)
			}
		}
	}
}

// deliver replaces whatever the subscriber has not read yet with s.
func deliver(sub chan Snapshot, s Snapshot) {
	select {
	case sub <- s:
		return
	default:
	}
	select {
	case <-sub:
	default:
	}
	select {
	case sub <- s:
	default:
	}
}

// begin replaces the current snapshot and returns the sequence number that
// later edits of it must carry.
func (t *tracker) begin(s Snapshot) uint64 {
	seq := t.counter.Add(1)
	select {
	case t.updates <- trackerUpdate{seq: seq, snapshot: s}:
	case <-t.stop:
	}
	return seq
}

// edit changes the current snapshot if it still carries seq. Edits for a
// snapshot that has since been replaced are dropped.
func (t *tracker) edit(seq uint64, apply func(*Snapshot)) {
	select {
	case t.updates <- trackerUpdate{seq: seq, apply: apply}:
	case <-t.stop:
	}
}

// current retrieves a copy of the current snapshot.
func (t *tracker) current() Snapshot {
	sendBack := make(chan Snapshot, 1)
	select {
	case t.requestCurrent <- sendBack:
		return <-sendBack
	case <-t.stop:
		return Snapshot{}
	}
}

// subscribeChan registers a subscriber that immediately receives the current
// snapshot. The returned function unregisters it and closes the channel.
func (t *tracker) subscribeChan() (<-chan Snapshot, func()) {
	sub := make(chan Snapshot, 1)
	select {
	case t.subscribe <- sub:
	case <-t.stop:
		close(sub)
		return sub, func() {}
	}
	var once sync.Once
	return sub, func() {
		once.Do(func() {
			select {
			case t.unsubscribe <- sub:
			case <-t.stop:
			}
		})
	}
}

// close stops the tracker goroutine and closes every subscriber channel.
func (t *tracker) close() {
	t.stopOnce.Do(func() { close(t.stop) })
}
