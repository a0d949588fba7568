package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/world-risk-etl/internal/domain"
	"github.com/couchcryptid/world-risk-etl/internal/observability"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// ReadinessChecker reports whether the service is ready to serve traffic.
type ReadinessChecker interface {
	CheckReadiness(ctx context.Context) error
}

// SnapshotProvider returns the snapshot currently being served.
type SnapshotProvider interface {
	Latest() (domain.Snapshot, bool)
}

// Options configures the API.
type Options struct {
	Addr         string
	Schema       domain.Schema
	Names        *domain.CountryNames
	CacheTTL     time.Duration
	CacheSize    int
	RateLimitRPS int
	// Clock defaults to the real clock.
	Clock clockwork.Clock
}

// Server exposes the risk API alongside health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	snapshots  SnapshotProvider
	schema     domain.Schema
	names      *domain.CountryNames
	cache      *responseCache
	clock      clockwork.Clock
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewServer creates an HTTP server with the API, /healthz, /readyz, and /metrics routes.
func NewServer(opts Options, snapshots SnapshotProvider, ready ReadinessChecker, metrics *observability.Metrics, logger *slog.Logger) *Server {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Names == nil {
		opts.Names = domain.GermanCountryNames()
	}
	if len(opts.Schema.Metrics) == 0 {
		opts.Schema = domain.WorldRiskIndexSchema
	}
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 20
	}

	mux := http.NewServeMux()
	limiter := rate.NewLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitRPS)

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      rateLimit(limiter, mux),
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		snapshots: snapshots,
		schema:    opts.Schema,
		names:     opts.Names,
		cache:     newResponseCache(opts.CacheSize, opts.CacheTTL, opts.Clock),
		clock:     opts.Clock,
		metrics:   metrics,
		logger:    logger,
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", handleReady(ready))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/map-data", s.handleMapData)
	mux.HandleFunc("GET /api/countries/{name}", s.handleCountry)
	mux.HandleFunc("GET /api/dashboard", s.handleDashboard)
	mux.HandleFunc("GET /api/initiatives", s.handleInitiatives)
	mux.HandleFunc("GET /api/projections", s.handleProjections)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func handleReady(checker ReadinessChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := checker.CheckReadiness(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "not ready",
				"error":  err.Error(),
			})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client may have gone away
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeBody writes an already encoded JSON body.
func writeBody(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(body) //nolint:errcheck // client may have gone away
}
