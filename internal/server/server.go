// Package server exposes the export pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz                      liveness and version
//	POST /api/export                   multipart upload: chart, overlay; form fields
//	                                   format, mode, layers, with_filled, stem, scale,
//	                                   quality, transparent, refresh
//	GET  /api/exports/{id}/{name}      download one artifact of an export
//	POST /api/batch                    run a plan against the configured renderer
//
// Exports are held in memory; the oldest are evicted once the store is full.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/chartsnap/pkg/batch"
	"github.com/matzehuels/chartsnap/pkg/buildinfo"
	"github.com/matzehuels/chartsnap/pkg/cache"
	"github.com/matzehuels/chartsnap/pkg/errors"
	"github.com/matzehuels/chartsnap/pkg/observability"
	"github.com/matzehuels/chartsnap/pkg/pipeline"
)

const (
	// DefaultAddr is where serve listens unless told otherwise.
	DefaultAddr = "localhost:8080"

	// DefaultMaxExports bounds the in-memory export store.
	DefaultMaxExports = 64

	maxUploadSize = 64 << 20
)

// Server handles export requests.
type Server struct {
	cache      cache.Cache
	keyer      cache.Keyer
	defaults   pipeline.Options
	orch       *batch.Orchestrator
	store      *store
	logger     *log.Logger
	router     chi.Router
	maxExports int
}

// Option configures a [Server].
type Option func(*Server)

// WithCache sets the artifact cache shared by all requests.
func WithCache(c cache.Cache, k cache.Keyer) Option {
	return func(s *Server) {
		s.cache = c
		s.keyer = k
	}
}

// WithDefaults sets the export options used for omitted form fields.
func WithDefaults(o pipeline.Options) Option {
	return func(s *Server) { s.defaults = o }
}

// WithBatch enables POST /api/batch.
func WithBatch(o *batch.Orchestrator) Option {
	return func(s *Server) { s.orch = o }
}

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMaxExports bounds how many exports are kept for download.
func WithMaxExports(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxExports = n
		}
	}
}

// New creates a server.
func New(opts ...Option) *Server {
	s := &Server{logger: log.Default(), maxExports: DefaultMaxExports}
	for _, opt := range opts {
		opt(s)
	}
	s.store = newStore(s.maxExports)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", JSON(s.health))
	r.Route("/api", func(r chi.Router) {
		r.Post("/export", JSON(s.export))
		r.Get("/exports/{id}/{name}", s.download)
		r.Post("/batch", JSON(s.batch))
	})
	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is done.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	}
}

// =============================================================================
// Handlers
// =============================================================================

// HandlerFunc returns a value to encode as JSON, or an error.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) (any, error)

// JSON adapts h to an http.Handler. Errors are answered with the status
// their code maps to.
func JSON(h HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := h(w, r)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	writeJSON(w, errors.HTTPStatus(err), errorBody{Error: string(code), Message: errors.UserMessage(err)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) (any, error) {
	return map[string]string{"status": "ok", "version": buildinfo.Version}, nil
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		observability.HTTP().OnRequest(r.Context(), r.Method, r.Host, r.URL.Path)
		next.ServeHTTP(ww, r)
		observability.HTTP().OnResponse(r.Context(), r.Method, r.Host, r.URL.Path, ww.Status(), time.Since(start))
		s.logger.Debug("request", "method", r.Method, "path", r.URL.Path,
			"status", ww.Status(), "bytes", ww.BytesWritten(), "duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
