// Package api exposes the HTTP surface of the tracker: the ephemeris
// routes, the live stream, and the operational endpoints. Handlers
// stay thin; all trajectory logic lives in oem and locate.
package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/star/isstrack/internal/auth"
	"github.com/star/isstrack/internal/health"
	"github.com/star/isstrack/internal/httputil"
	"github.com/star/isstrack/internal/locate"
	"github.com/star/isstrack/internal/metrics"
	"github.com/star/isstrack/internal/oem"
	"github.com/star/isstrack/internal/stream"
)

// Server holds the HTTP server and its dependencies.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// Options carries the collaborators the route handlers compose.
type Options struct {
	Store    *oem.Store
	Resolver *locate.Resolver
	Stream   *stream.Handler
	Auth     auth.Config
	// Sidecar registers the /header, /metadata, and /comment routes.
	Sidecar bool
	// NowFunc is the clock for nearest-epoch lookups. Defaults to time.Now.
	NowFunc func() time.Time
}

// NewServer creates a configured HTTP server.
func NewServer(addr string, logger *slog.Logger, opts Options) *Server {
	if opts.NowFunc == nil {
		opts.NowFunc = time.Now
	}

	h := &handlers{
		store:    opts.Store,
		resolver: opts.Resolver,
		logger:   logger,
		nowFunc:  opts.NowFunc,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", health.Healthz)
	mux.HandleFunc("GET /readyz", health.Readyz(opts.Store))
	mux.Handle("GET /metrics", metrics.Handler())

	mux.HandleFunc("GET /epochs", h.epochs)
	mux.HandleFunc("GET /epochs/{epoch}", h.epoch)
	mux.HandleFunc("GET /epochs/{epoch}/speed", h.epochSpeed)
	mux.HandleFunc("GET /epochs/{epoch}/location", h.epochLocation)
	mux.HandleFunc("GET /now", h.now)

	if opts.Sidecar {
		mux.HandleFunc("GET /header", h.header)
		mux.HandleFunc("GET /metadata", h.metadata)
		mux.HandleFunc("GET /comment", h.comments)
	}

	if opts.Stream != nil {
		mux.HandleFunc("GET /api/v1/stream/now", opts.Stream.HandleNow)
	}

	// Build middleware chain: metrics -> logging -> auth -> mux.
	var handler http.Handler = mux
	handler = auth.Middleware(opts.Auth)(handler)
	handler = loggingMiddleware(logger)(handler)
	handler = metrics.Middleware(handler)

	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadTimeout:       10 * time.Second,
			ReadHeaderTimeout: 5 * time.Second,
			WriteTimeout:      0, // SSE connections outlive any fixed write deadline
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// HTTPServer returns the underlying *http.Server for external control (e.g. shutdown).
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe() error {
	return s.httpServer.ListenAndServe()
}

// probePath returns true for health/readiness probe paths that should not log at INFO.
func probePath(path string) bool {
	return path == "/healthz" || path == "/readyz"
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.statusCode = code
	sr.ResponseWriter.WriteHeader(code)
}

// Flush forwards to the wrapped writer so SSE handlers can still flush.
func (sr *statusRecorder) Flush() {
	if f, ok := sr.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func loggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sr := &statusRecorder{ResponseWriter: w, statusCode: http.StatusOK}

			next.ServeHTTP(sr, r)

			duration := time.Since(start)
			level := slog.LevelInfo
			if probePath(r.URL.Path) {
				level = slog.LevelDebug
			}

			logger.Log(r.Context(), level, "request",
				"component", "api",
				"method", r.Method,
				"path", r.URL.Path,
				"status", strconv.Itoa(sr.statusCode),
				"duration_ms", duration.Milliseconds(),
				"remote_ip", httputil.ClientIP(r, false),
			)
		})
	}
}
