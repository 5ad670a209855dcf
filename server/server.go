// Package server provides the HTTP server for rosterd.
//
// The server owns the activity roster and exposes it over a small JSON API
// together with a static web UI.
//
// # Endpoints
//
//   - GET / - Redirects to the web UI at /static/index.html
//   - GET /static/ - Web UI assets
//   - GET /activities - Every activity with its roster
//   - POST /activities/{name}/signup?email= - Adds a student to a roster
//   - DELETE /activities/{name}/unregister?email= - Removes a student from a roster
//   - GET /report - Summary of every roster
//   - GET /health - Simple health check, returns "ok"
//   - GET /version - Build information
//   - GET /config - Effective configuration as YAML
//   - GET /loglevel, PUT /loglevel?level= - Reads or changes the log level
//   - GET /metrics - Prometheus metrics
//
// # Example
//
//	cfg, err := config.LoadConfig("/etc/rosterd/config.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	srv, err := server.New(cfg)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := srv.Run(ctx); err != nil {
//	    log.Fatal(err)
//	}
package server

import (
	"context"
	"crypto/tls"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/nomis52/rosterd/buildinfo"
	"github.com/nomis52/rosterd/config"
	"github.com/nomis52/rosterd/logging"
	"github.com/nomis52/rosterd/metrics"
	"github.com/nomis52/rosterd/report"
	"github.com/nomis52/rosterd/roster"
	"github.com/nomis52/rosterd/server/cron"
	"github.com/nomis52/rosterd/server/handlers"
	"github.com/nomis52/rosterd/server/types"
)

//go:embed static
var staticFiles embed.FS

const (
	defaultReadTimeout     = 10 * time.Second
	defaultWriteTimeout    = 10 * time.Second
	defaultShutdownTimeout = 5 * time.Second
)

// ErrLogLevelFixed is returned when changing the level of a logger supplied
// through WithLogger.
var ErrLogLevelFixed = errors.New("log level is fixed by the injected logger")

// Server is the rosterd HTTP server.
type Server struct {
	cfg         *config.Config
	logger      *slog.Logger
	ownLogger   *logging.Logger // nil when the logger came from WithLogger
	seed        []roster.Seed
	store       *roster.Store
	registry    *metrics.ScrapeRegistry
	reporter    *report.Reporter
	cronTrigger *cron.CronTrigger
	certLoader  *CertLoader
	httpServer  *http.Server
	startedAt   time.Time
	hostname    string
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger replaces the logger built from the logging config.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		s.logger = logger
		return nil
	}
}

// WithSeed replaces the configured seed activities.
func WithSeed(seed []roster.Seed) Option {
	return func(s *Server) error {
		s.seed = seed
		return nil
	}
}

// New creates a new Server from cfg. It builds the roster, metrics and, when
// configured, the report schedule and TLS certificate loader. Close releases
// the log file when the logging config names one.
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:       cfg,
		startedAt: time.Now(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	if s.logger == nil {
		logger, err := logging.New(logging.Config{
			Level:     cfg.Logging.Level,
			Format:    cfg.Logging.Format,
			Output:    cfg.Logging.Output,
			AddSource: cfg.Logging.AddSource,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to initialize logger: %w", err)
		}
		s.logger = logger.Logger
		s.ownLogger = logger
	}

	if err := s.build(); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) build() error {
	cfg := s.cfg
	hostname, err := os.Hostname()
	if err != nil {
		return fmt.Errorf("getting hostname: %w", err)
	}
	s.hostname = hostname

	if err := s.buildRoster(); err != nil {
		return err
	}

	var reportOpts []report.Option
	if url := cfg.Monitoring.RemoteWriteURL; url != "" {
		reportOpts = append(reportOpts, report.WithPusher(metrics.NewPusher(metrics.PushConfig{
			URL:      url,
			Prefix:   cfg.Monitoring.MetricsPrefix,
			Job:      cfg.Monitoring.JobName,
			Instance: hostname,
		})))
	}
	s.reporter = report.New(s.store, s.logger, reportOpts...)

	if cfg.Report.Schedule != "" {
		trigger, err := cron.NewCronTrigger(cfg.Report.Schedule, s.reporter, s.logger)
		if err != nil {
			return fmt.Errorf("creating report trigger: %w", err)
		}
		s.cronTrigger = trigger
	}

	if cfg.Listener.TLS.Enabled() {
		loader, err := NewCertLoader(cfg.Listener.TLS.CertFile, cfg.Listener.TLS.KeyFile, s.logger)
		if err != nil {
			return err
		}
		s.certLoader = loader
	}

	return nil
}

func (s *Server) buildRoster() error {
	seed := s.seed
	if seed == nil && s.cfg.Roster.SeedFile != "" {
		loaded, err := roster.LoadSeed(s.cfg.Roster.SeedFile)
		if err != nil {
			return err
		}
		seed = loaded
	}
	if seed == nil {
		seed = roster.DefaultSeed()
	}

	registry, err := metrics.NewScrapeRegistry(s.cfg.Monitoring.MetricsPrefix)
	if err != nil {
		return fmt.Errorf("creating metrics registry: %w", err)
	}
	rosterMetrics, err := metrics.NewRosterMetrics(registry)
	if err != nil {
		return fmt.Errorf("creating roster metrics: %w", err)
	}

	storeOpts := []roster.Option{roster.WithObserver(rosterMetrics)}
	if s.cfg.Roster.EnforceCapacity {
		storeOpts = append(storeOpts, roster.WithCapacityEnforcement())
	}
	store, err := roster.NewStore(seed, storeOpts...)
	if err != nil {
		return fmt.Errorf("creating roster: %w", err)
	}
	rosterMetrics.Reset(store.Activities())

	s.registry = registry
	s.store = store
	s.logger.Info("roster loaded",
		"activities", len(store.Names()),
		"seed_file", s.cfg.Roster.SeedFile,
		"enforce_capacity", s.cfg.Roster.EnforceCapacity,
	)
	return nil
}

// Logger returns the server's logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// LogLevel returns the current minimum log level.
func (s *Server) LogLevel() (slog.Level, error) {
	if s.ownLogger == nil {
		return 0, ErrLogLevelFixed
	}
	return s.ownLogger.Level(), nil
}

// SetLogLevel changes the server's log level at runtime.
func (s *Server) SetLogLevel(level slog.Level) error {
	if s.ownLogger == nil {
		return ErrLogLevelFixed
	}
	s.ownLogger.SetLevel(level)
	s.logger.Info("log level changed", "level", level)
	return nil
}

// Close releases the server's log file, if any.
func (s *Server) Close() error {
	if s.ownLogger == nil {
		return nil
	}
	return s.ownLogger.Close()
}

// Store returns the roster store.
func (s *Server) Store() *roster.Store {
	return s.store
}

// Config returns the server configuration.
func (s *Server) Config() *config.Config {
	return s.cfg
}

// Properties describes the running server.
func (s *Server) Properties() types.ServerProperties {
	return types.ServerProperties{
		Build:      buildinfo.Get(),
		StartedAt:  s.startedAt,
		Hostname:   s.hostname,
		Activities: len(s.store.Names()),
	}
}

// Handler returns the server's routes wrapped in request middleware.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.registerRoutes(mux)
	return requestLogger(s.logger, mux)
}

// Run starts the HTTP server and blocks until the context is cancelled.
// It performs a graceful shutdown when the context is done.
// If a report schedule is configured, it will be started automatically.
func (s *Server) Run(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:         s.cfg.Listener.Addr,
		Handler:      s.Handler(),
		ReadTimeout:  defaultReadTimeout,
		WriteTimeout: defaultWriteTimeout,
	}
	if s.certLoader != nil {
		s.httpServer.TLSConfig = &tls.Config{
			MinVersion:     tls.VersionTLS12,
			GetCertificate: s.certLoader.GetCertificate,
		}
	}

	if s.cronTrigger != nil {
		s.logger.Info("starting report trigger",
			"schedule", s.cronTrigger.Spec(),
			"next_run", s.cronTrigger.NextRun(),
		)
		s.cronTrigger.Start(ctx)
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"addr", s.cfg.Listener.Addr,
			"tls", s.certLoader != nil,
		)
		var err error
		if s.certLoader != nil {
			err = s.httpServer.ListenAndServeTLS("", "")
		} else {
			err = s.httpServer.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), defaultShutdownTimeout)
		defer cancel()
		return s.httpServer.Shutdown(shutdownCtx)
	}
}

func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", handlers.HandleRoot)
	mux.Handle("GET /activities", handlers.NewActivitiesHandler(s.store))
	mux.Handle("POST /activities/{name}/signup", handlers.NewSignupHandler(s.logger, s.store))
	mux.Handle("DELETE /activities/{name}/unregister", handlers.NewUnregisterHandler(s.logger, s.store))

	mux.HandleFunc("GET /health", handlers.HandleHealth)
	mux.Handle("GET /version", handlers.NewVersionHandler(s))
	mux.Handle("GET /config", handlers.NewConfigHandler(s))
	mux.Handle("GET /report", handlers.NewReportHandler(s.reporter))
	logLevel := handlers.NewLogLevelHandler(s)
	mux.Handle("GET /loglevel", logLevel)
	mux.Handle("PUT /loglevel", logLevel)
	mux.Handle("GET /metrics", s.registry.Handler())

	staticFS, err := fs.Sub(staticFiles, "static")
	if err != nil {
		s.logger.Error("failed to create static file system", "error", err)
		return
	}
	mux.Handle("GET /static/", http.StripPrefix("/static", staticHandler(staticFS)))
}
