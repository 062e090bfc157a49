package server

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthPath = "/healthz"

var landingPage = template.Must(template.New("landing").Parse(`<html>
<head><title>Router Metrics</title></head>
<body>
<h1>Router Metrics</h1>
<p><a href="{{.}}">Metrics</a></p>
</body>
</html>
`))

// Server serves the metrics gathered from a prometheus.Gatherer. Every
// request to the metrics path triggers a gather, so each scrape runs its own
// collection pass.
type Server struct {
	cfg      Config
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// NewServer creates a new Server. Config defaults are applied automatically.
func NewServer(cfg Config, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	cfg.ApplyDefaults()
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		gatherer: gatherer,
		logger:   logger.With("component", "server"),
	}
}

// Handler returns the HTTP handler. It reads the token file if one is
// configured.
func (s *Server) Handler() (http.Handler, error) {
	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	var metrics http.Handler = promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(s.logger.Handler(), slog.LevelError),
		ErrorHandling: promhttp.HTTPErrorOnError,
	})
	if s.cfg.TokenFile != "" {
		token, err := readTokenFile(s.cfg.TokenFile)
		if err != nil {
			return nil, fmt.Errorf("server: read token file: %w", err)
		}
		metrics = BearerAuthMiddleware(token)(metrics)
	}

	mux := http.NewServeMux()
	mux.Handle(s.cfg.MetricsPath, metrics)
	mux.HandleFunc(healthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := landingPage.Execute(w, s.cfg.MetricsPath); err != nil {
			s.logger.Debug("write landing page", "error", err)
		}
	})
	return mux, nil
}

// Start listens on the configured address and serves until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := s.cfg.Validate(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", s.cfg.Listen)
	if err != nil {
		return fmt.Errorf("server: listen tcp %s: %w", s.cfg.Listen, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully. It
// takes ownership of ln. The returned error is ctx.Err() after a clean
// shutdown.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	handler, err := s.Handler()
	if err != nil {
		ln.Close()
		return err
	}

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: s.cfg.ReadHeaderTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}

	s.logger.Info("server started",
		"listen", ln.Addr().String(),
		"metrics_path", s.cfg.MetricsPath,
		"auth", s.cfg.TokenFile != "",
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("server shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("graceful shutdown failed", "error", err)
		srv.Close()
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("server error", "error", err)
	}

	s.logger.Info("server stopped")
	return ctx.Err()
}
