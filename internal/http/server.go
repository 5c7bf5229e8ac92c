package http

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/goliatone/go-showcase/internal/logging"
	"github.com/goliatone/go-showcase/internal/media"
	"github.com/goliatone/go-showcase/internal/metrics"
	"github.com/goliatone/go-showcase/internal/packages"
	"github.com/goliatone/go-showcase/internal/preview"
	"github.com/goliatone/go-showcase/internal/runtimeconfig"
	"github.com/goliatone/go-showcase/pkg/interfaces"
)

// PreviewService renders preview routes and answers the package API.
type PreviewService interface {
	Render(ctx context.Context, base, rawPath string) (preview.Response, error)
	Inspect(ctx context.Context, base, slug, inner string) (preview.Status, error)
	Warm(ctx context.Context, base, slug string) (preview.WarmResult, error)
}

// Server registers every route of the preview server.
type Server struct {
	base        string
	apiBase     string
	metricsPath string
	publicHost  string
	packages    packages.Repository
	previews    PreviewService
	media       *media.Server
	metrics     *metrics.Recorder
	logger      interfaces.Logger
	config      runtimeconfig.ServerConfig
}

// Option mutates the Server configuration.
type Option func(*Server)

// WithBase sets the preview namespace segment (defaults to "demo").
func WithBase(base string) Option {
	return func(s *Server) {
		if trimmed := strings.Trim(strings.TrimSpace(base), "/"); trimmed != "" {
			s.base = trimmed
		}
	}
}

// WithAPIBase overrides the package API path (defaults to "/api/packages").
func WithAPIBase(path string) Option {
	return func(s *Server) {
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			s.apiBase = joinPath(trimmed, "")
		}
	}
}

// WithMetrics exposes the recorder at path and counts every request.
func WithMetrics(recorder *metrics.Recorder, path string) Option {
	return func(s *Server) {
		s.metrics = recorder
		if trimmed := strings.TrimSpace(path); trimmed != "" {
			s.metricsPath = joinPath(trimmed, "")
		}
	}
}

// WithPublicHost prefixes preview URLs in API responses.
func WithPublicHost(host string) Option {
	return func(s *Server) {
		s.publicHost = strings.TrimRight(strings.TrimSpace(host), "/")
	}
}

func WithMediaServer(m *media.Server) Option {
	return func(s *Server) {
		if m != nil {
			s.media = m
		}
	}
}

func WithLogger(logger interfaces.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithServerConfig sets listener address and timeouts used by Run.
func WithServerConfig(cfg runtimeconfig.ServerConfig) Option {
	return func(s *Server) {
		s.config = cfg
	}
}

// NewServer constructs a Server over the package repository and preview service.
func NewServer(repo packages.Repository, previews PreviewService, opts ...Option) *Server {
	s := &Server{
		base:        "demo",
		apiBase:     "/api/packages",
		metricsPath: "/metrics",
		packages:    repo,
		previews:    previews,
		media:       media.NewServer(),
		logger:      logging.NoOp(),
		config:      runtimeconfig.DefaultConfig().Server,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Register mounts every route on mux.
func (s *Server) Register(mux *http.ServeMux) {
	if mux == nil {
		return
	}
	mux.Handle("GET /healthz", s.instrument(routeHealth, http.HandlerFunc(s.handleHealth)))
	if s.metrics != nil {
		mux.Handle("GET "+s.metricsPath, s.metrics.Handler())
	}
	s.registerAPIRoutes(mux)
	s.registerPreviewRoutes(mux)
}

// Handler returns the routes wrapped in request logging and panic recovery.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.Register(mux)
	return s.recoverPanics(mux)
}

// Run listens until ctx is done, then shuts down within the configured timeout.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  s.config.ReadTimeout,
		WriteTimeout: s.config.WriteTimeout,
		BaseContext:  func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		logging.WithFields(s.logger, map[string]any{"addr": s.config.Addr}).Info("http.server.listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	timeout := s.config.ShutdownTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
	defer cancel()
	s.logger.Info("http.server.shutting_down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
