// Package refserver is a small implementation of the word frequency service
// that the uploader talks to. It answers /upload with the top K words of the
// submitted file and /upload-chunk with the top K words of a single chunk.
package refserver

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/hamedshahidi/word-frequency/backend"
	"github.com/hamedshahidi/word-frequency/internal/respond"
)

// maxMemory is how much of a multipart form is kept in memory before the
// rest spills to temporary files.
const maxMemory = 32 << 20

// Server serves the word frequency API. Results are cached per file name,
// file size, K and offset.
type Server struct {
	cache  *lru.Cache[string, backend.Analysis]
	logger log.Logger
}

// New creates a Server whose cache keeps at most cacheSize results.
func New(cacheSize int, logger log.Logger) (*Server, error) {
	cache, err := lru.New[string, backend.Analysis](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("unable to create cache: %w", err)
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Server{cache: cache, logger: logger}, nil
}

// Router returns the HTTP handler for the API.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.logger))
	r.Use(middleware.Recoverer)

	r.Post("/upload", s.handleUpload)
	r.Post("/upload-chunk", s.handleUploadChunk)
	return r
}

// Cached returns the number of results held in the cache.
func (s *Server) Cached() int {
	return s.cache.Len()
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, false)
}

func (s *Server) handleUploadChunk(w http.ResponseWriter, r *http.Request) {
	s.analyze(w, r, true)
}

// analyze reads the form shared by both endpoints and answers with the top K
// words of the file part. Only whole-file uploads refuse an empty file.
func (s *Server) analyze(w http.ResponseWriter, r *http.Request, chunk bool) {
	if err := r.ParseMultipartForm(maxMemory); err != nil {
		respond.Error(w, http.StatusBadRequest, "Expected a multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	k, err := strconv.Atoi(r.FormValue("k"))
	if err != nil || k < 1 {
		respond.Error(w, http.StatusBadRequest, "k must be a positive integer")
		return
	}
	var offset int64
	if chunk {
		offset, err = strconv.ParseInt(r.FormValue("offset"), 10, 64)
		if err != nil || offset < 0 {
			respond.Error(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "Missing file")
		return
	}
	defer file.Close()
	if !chunk && header.Size == 0 {
		respond.Error(w, http.StatusBadRequest, "File is empty")
		return
	}

	key := fmt.Sprintf("%s-%d-%d-%d", header.Filename, header.Size, k, offset)
	if analysis, ok := s.cache.Get(key); ok {
		level.Debug(s.logger).Log("msg", "cache hit", "key", key)
		respond.JSON(w, http.StatusOK, analysis)
		return
	}

	contents, err := io.ReadAll(file)
	if err != nil {
		level.Error(s.logger).Log("msg", "failed to read upload", "file", header.Filename, "err", err)
		respond.Error(w, http.StatusInternalServerError, "Failed to read file")
		return
	}
	analysis := Analyze(string(contents), k)
	s.cache.Add(key, analysis)
	respond.JSON(w, http.StatusOK, analysis)
}

// requestLogger logs every request with its status and duration.
func requestLogger(logger log.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				level.Info(logger).Log("method", r.Method, "path", r.URL.Path,
					"status", ww.Status(), "bytes", ww.BytesWritten(),
					"request_id", middleware.GetReqID(r.Context()), "took", time.Since(start))
			}()
			next.ServeHTTP(ww, r)
		})
	}
}
