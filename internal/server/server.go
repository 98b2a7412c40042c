// Package server assembles the HTTP router and runs the server with graceful
// shutdown.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	authhandler "ecc-auth/internal/auth/handler"
	"ecc-auth/internal/logging"
	"ecc-auth/internal/metrics"
)

// Deps holds the router's collaborators. Auth is required; the rest degrade
// gracefully when nil.
type Deps struct {
	// Auth serves the /api/auth and /api/user endpoints.
	Auth *authhandler.AuthHandler
	// Metrics feeds the request middleware. If nil, metrics are discarded.
	Metrics metrics.Recorder
	// Registry backs the /metrics scrape endpoint. If nil, /metrics is not mounted.
	Registry *prometheus.Registry
	// RateLimiter guards all API routes. If nil, no rate limiting is applied.
	RateLimiter *RateLimiter
	// TracerProvider backs the tracing middleware. If nil, spans are no-ops.
	TracerProvider trace.TracerProvider
	// HealthPinger is used by /healthz for readiness (e.g. *sql.DB). If nil,
	// /healthz reports liveness only.
	HealthPinger Pinger
}

// Pinger is anything that can report backend reachability.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// NewRouter assembles the middleware chain and mounts all routes.
func NewRouter(deps Deps, log logging.Logger) http.Handler {
	rec := deps.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}
	tp := deps.TracerProvider
	if tp == nil {
		tp = noop.NewTracerProvider()
	}

	r := chi.NewRouter()
	r.Use(Recovery(log))
	r.Use(Tracing(tp))
	r.Use(RequestLog(log, rec))

	r.Get("/healthz", healthHandler(deps.HealthPinger))
	if deps.Registry != nil {
		r.Handle("/metrics", metrics.Handler(deps.Registry))
	}

	r.Route("/api", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Middleware())
		}
		r.Mount("/", deps.Auth.Routes())
	})
	return r
}

func healthHandler(pinger Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pinger != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pinger.PingContext(ctx); err != nil {
				http.Error(w, "database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	}
}

// Server wraps http.Server with graceful shutdown.
type Server struct {
	http *http.Server
	log  logging.Logger
}

// New returns a Server bound to addr serving handler.
func New(addr string, handler http.Handler, log logging.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
