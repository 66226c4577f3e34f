// Package webserver runs the HTTP API for ranking problems and browsing
// saved outcomes.
package webserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/spboyer/topsis/internal/statistics"
	"github.com/spboyer/topsis/internal/webapi"
)

const shutdownTimeout = 5 * time.Second

// Config holds the HTTP server configuration.
type Config struct {
	Host       string
	Port       int
	ResultsDir string
	// ResultsDB, when set, keeps saved outcomes in a SQLite database and
	// ResultsDir is ignored.
	ResultsDB string
	// RateLimit is the sustained request rate per second; zero disables
	// limiting. Burst is the token bucket size.
	RateLimit      float64
	Burst          int
	AllowedOrigins []string
	Sensitivity    statistics.Options
	// MemoSize bounds the in-memory reports of seeded sensitivity runs;
	// zero disables the memo.
	MemoSize int
	Logger   *slog.Logger
}

// Server wraps the HTTP server with configuration.
type Server struct {
	cfg     Config
	srv     *http.Server
	store   webapi.ResultStore
	metrics *webapi.Metrics
	logger  *slog.Logger
}

// New creates a new HTTP server with the given configuration.
func New(cfg Config) (*Server, error) {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 3000
	}
	if cfg.Port < 0 || cfg.Port > 65535 {
		return nil, fmt.Errorf("invalid port %d", cfg.Port)
	}
	if cfg.ResultsDir == "" {
		cfg.ResultsDir = "results"
	}
	if cfg.RateLimit < 0 {
		return nil, fmt.Errorf("rate limit must not be negative, got %g", cfg.RateLimit)
	}

	var store webapi.ResultStore
	if cfg.ResultsDB != "" {
		db, err := webapi.OpenSQLiteStore(cfg.ResultsDB)
		if err != nil {
			return nil, err
		}
		store = db
	} else {
		store = webapi.NewFileStore(cfg.ResultsDir)
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		metrics: webapi.NewMetrics(),
		logger:  cfg.Logger,
	}
	handler, err := buildHandler(cfg, s.store, s.metrics)
	if err != nil {
		s.Close() //nolint:errcheck
		return nil, err
	}
	s.srv = &http.Server{
		Addr:              net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(cfg.Logger.Handler(), slog.LevelWarn),
	}
	return s, nil
}

// Close releases the result store. Serve calls it after shutting down.
func (s *Server) Close() error {
	if c, ok := s.store.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Addr is the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// ListenAndServe listens on the configured address and serves until ctx is
// canceled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("HTTP server listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve accepts connections on ln until ctx is canceled, then shuts down
// gracefully, letting in-flight requests finish.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	defer s.Close() //nolint:errcheck
	if s.cfg.ResultsDB != "" {
		s.logger.Info("HTTP server starting", "address", ln.Addr().String(), "results_db", s.cfg.ResultsDB)
	} else {
		s.logger.Info("HTTP server starting", "address", ln.Addr().String(), "results_dir", s.cfg.ResultsDir)
	}

	errCh := make(chan error, 1)
	go func() { errCh <- s.srv.Serve(ln) }()

	select {
	case err := <-errCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("HTTP server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server error: %w", err)
	}
	return nil
}

// Handler returns the underlying http.Handler (useful for testing).
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}
