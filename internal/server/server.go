// Package server exposes the specifier queries over HTTP.
//
// Routes:
//
//	GET /                 service info
//	GET /{specs}          latest version per specifier
//	GET /versions/{specs} matching versions per specifier
//	GET /engines/{specs}  engines per matching version
//	GET /full/{specs}     normalized manifests
//
// {specs} is one or more specifiers joined by "+". Prometheus metrics are
// served on a separate listener so that no route can shadow a package name.
package server

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/npmmeta/internal/metrics"
	"github.com/matzehuels/npmmeta/pkg/service"
)

const shutdownTimeout = 10 * time.Second

// Server serves the HTTP API.
type Server struct {
	svc         *service.Service
	logger      *log.Logger
	metrics     *metrics.Metrics
	cacheMaxAge time.Duration
	docsURL     string
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(l *log.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics records request metrics and enables the metrics listener.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Server) { s.metrics = m }
}

// WithCacheMaxAge sets the max-age advertised on successful responses.
func WithCacheMaxAge(d time.Duration) Option {
	return func(s *Server) { s.cacheMaxAge = d }
}

// WithDocsURL sets the documentation link returned by the index route.
func WithDocsURL(url string) Option {
	return func(s *Server) { s.docsURL = url }
}

// New creates a Server answering queries with svc.
func New(svc *service.Service, opts ...Option) *Server {
	s := &Server{
		svc:         svc,
		logger:      log.Default(),
		cacheMaxAge: 15 * time.Minute,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.logRequests)
	r.Use(middleware.Recoverer)
	if s.metrics != nil {
		r.Use(s.recordMetrics)
	}

	r.Get("/", s.handleIndex)
	r.Get("/versions/*", s.handleVersions)
	r.Get("/engines/*", s.handleEngines)
	r.Get("/full/*", s.handleFull)
	r.Get("/*", s.handleLatest)

	return r
}

// Run serves the API on addr, and metrics on metricsAddr when it is set and
// metrics are enabled, until ctx is cancelled. In-flight requests get a
// grace period to finish.
func (s *Server) Run(ctx context.Context, addr, metricsAddr string) error {
	servers := []*http.Server{s.httpServer(addr, s.Handler())}
	if s.metrics != nil && metricsAddr != "" {
		servers = append(servers, s.httpServer(metricsAddr, s.metrics.Handler()))
	}

	errc := make(chan error, len(servers))
	for _, srv := range servers {
		go func(srv *http.Server) {
			s.logger.Info("listening", "addr", srv.Addr)
			if err := srv.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
				errc <- err
				return
			}
			errc <- nil
		}(srv)
	}

	var runErr error
	select {
	case <-ctx.Done():
		s.logger.Info("shutting down")
	case runErr = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
			runErr = err
		}
	}
	return runErr
}

func (s *Server) httpServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}
}
