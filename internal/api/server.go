// Package api serves the agent registry and runner over HTTP.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/thinky-dev/thinky/internal/agent"
	"github.com/thinky-dev/thinky/internal/metrics"
	"github.com/thinky-dev/thinky/internal/registry"
	"github.com/thinky-dev/thinky/internal/runner"
	"github.com/thinky-dev/thinky/internal/store"
)

const shutdownTimeout = 10 * time.Second

// AgentRunner runs one agent invocation.
type AgentRunner interface {
	Run(ctx context.Context, a *agent.Agent, input string, opts runner.Options) (*runner.Result, error)
}

// RunStore reads recorded runs.
type RunStore interface {
	Get(ctx context.Context, id string) (*store.AgentRun, error)
	ListByAgent(ctx context.Context, agentID string, limit int) ([]store.AgentRun, error)
}

// Server exposes the HTTP API.
type Server struct {
	registry *registry.Registry
	runner   AgentRunner
	runs     RunStore
	metrics  *metrics.Collector
	logger   *zap.Logger
	mux      *http.ServeMux
}

func NewServer(reg *registry.Registry, r AgentRunner, runs RunStore, m *metrics.Collector, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{
		registry: reg,
		runner:   r,
		runs:     runs,
		metrics:  m,
		logger:   logger.With(zap.String("component", "api")),
		mux:      http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /v1/agents", s.handleListAgents)
	s.mux.HandleFunc("POST /v1/agents/{id}/run", s.handleRunAgent)
	s.mux.HandleFunc("GET /v1/agents/{id}/runs", s.handleListRuns)
	s.mux.HandleFunc("GET /v1/traces/{id}", s.handleGetTrace)
	s.mux.HandleFunc("GET /v1/tools", s.handleListTools)

	// Singular paths kept for clients of the first API release.
	s.mux.HandleFunc("GET /v1/agent", s.handleListAgents)
	s.mux.HandleFunc("GET /v1/agent/{$}", s.handleListAgents)
	s.mux.HandleFunc("POST /v1/agent/{id}/run", s.handleRunAgent)
	if s.metrics != nil {
		s.mux.Handle("GET /metrics", s.metrics.Handler())
	}
}

// Handler returns the instrumented root handler.
func (s *Server) Handler() http.Handler {
	var h http.Handler = s.mux
	if s.metrics != nil {
		h = s.instrument(h)
	}
	return otelhttp.NewHandler(h, "thinky.api")
}

// instrument records request count and latency per route pattern.
func (s *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		pattern := r.Pattern
		if pattern == "" {
			pattern = "unmatched"
		}
		s.metrics.RecordHTTPRequest(r.Method, pattern, sw.status, time.Since(start))
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.logger.Info("listening", zap.String("addr", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		s.logger.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
