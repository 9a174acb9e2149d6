// Package ui serves the uploader to a browser: a JSON API to submit files and
// read results, and a WebSocket stream of upload progress.
package ui

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	wordfreq "github.com/hamedshahidi/word-frequency"
	"github.com/hamedshahidi/word-frequency/internal/respond"
)

// Progress is the message sent to the progress endpoint and to WebSocket
// clients.
type Progress struct {
	Snapshot wordfreq.Snapshot `json:"snapshot"`
	State    wordfreq.State    `json:"state"`
	Status   string            `json:"status"`
}

func newProgress(s wordfreq.Snapshot) Progress {
	return Progress{Snapshot: s, State: s.State(), Status: s.String()}
}

// Server exposes an Uploader over HTTP. Uploads it starts run until they
// finish or the Server is closed.
type Server struct {
	uploader  *wordfreq.Uploader
	hub       *Hub
	logger    log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	stop      func()
	closeOnce sync.Once
}

// NewServer starts relaying the uploader's progress to WebSocket clients.
// Call Close to stop.
func NewServer(uploader *wordfreq.Uploader, logger log.Logger) *Server {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := &Server{
		uploader: uploader,
		hub:      NewHub(logger),
		logger:   logger,
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	if greeting, err := json.Marshal(newProgress(uploader.Snapshot())); err == nil {
		s.hub.last = greeting
	}
	go s.hub.Run()

	updates, stop := uploader.Subscribe()
	s.stop = stop
	go s.relay(updates)
	return s
}

// relay broadcasts every snapshot until the subscription ends.
func (s *Server) relay(updates <-chan wordfreq.Snapshot) {
	defer close(s.done)
	for snapshot := range updates {
		s.hub.BroadcastJSON(newProgress(snapshot))
	}
}

// Close cancels any upload the Server started, stops relaying progress and
// disconnects every WebSocket client.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.cancel()
		s.stop()
		<-s.done
		s.hub.Close()
	})
}

// Router returns the HTTP handler.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Post("/jobs", s.handleSubmit)
		r.Get("/progress", s.handleGetProgress)
		r.Get("/results", s.handleGetResults)
	})
	r.Get("/ws", s.hub.ServeWs)
	return r
}

type submitResponse struct {
	JobID string `json:"job_id"`
}

type validationResponse struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var sub wordfreq.Submission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	// The upload outlives the request.
	job, err := s.uploader.Submit(s.ctx, sub)
	if errors.Is(err, wordfreq.ErrJobActive) {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	var verr *wordfreq.ValidationError
	if errors.As(err, &verr) {
		respond.JSON(w, http.StatusBadRequest, validationResponse{Error: verr.Message, Field: verr.Field})
		return
	}
	if err != nil {
		level.Error(s.logger).Log("msg", "submit failed", "err", err)
		respond.Error(w, http.StatusInternalServerError, "Unable to start upload")
		return
	}
	respond.JSON(w, http.StatusAccepted, submitResponse{JobID: job.ID})
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	respond.JSON(w, http.StatusOK, newProgress(s.uploader.Snapshot()))
}

func (s *Server) handleGetResults(w http.ResponseWriter, r *http.Request) {
	rows := s.uploader.Results().Rows
	if rows == nil {
		rows = []wordfreq.Row{}
	}
	respond.JSON(w, http.StatusOK, rows)
}
