package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/okian/teammatch/internal/adapters/http/api"
	"github.com/okian/teammatch/internal/adapters/http/swagger"
	"github.com/okian/teammatch/internal/adapters/repository"
	app "github.com/okian/teammatch/internal/app"
	"github.com/okian/teammatch/internal/config"
	"github.com/okian/teammatch/pkg/logger"
)

// HTTP server timeout constants.
const (
	readTimeout            = 10 * time.Second
	writeTimeout           = 10 * time.Second
	idleTimeout            = 60 * time.Second
	readHeaderTimeout      = 5 * time.Second
	shutdownTimeout        = 30 * time.Second
	serviceMetricsInterval = 5 * time.Second
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not available yet.
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.Init(cfg.LogFormat); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()

	// Apply configured log level (fallback to info on invalid input)
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "teammatch stopped with error", logger.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	src, err := buildSource(ctx, cfg)
	if err != nil {
		return err
	}

	svc := newService(cfg, src, log)
	if err := svc.Start(ctx); err != nil {
		return err
	}
	defer svc.Stop()

	go startServiceMetricsUpdater(ctx, svc)

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newHandler(ctx, cfg, svc),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info(ctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		return err
	}
	log.Info(ctx, "shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(ctx, "server shutdown failed", logger.Error(err))
	}
	log.Info(ctx, "server stopped")
	return nil
}

// buildSource picks the roster source: PostgreSQL when database_url is set,
// otherwise the roster file, otherwise none (roster arrives via PUT /roster).
func buildSource(ctx context.Context, cfg *config.Config) (repository.Source, error) {
	switch {
	case cfg.DatabaseURL != "":
		pg, err := repository.NewPostgresSource(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.RoleSeparator)
		if err != nil {
			return nil, err
		}
		return pg, nil
	case cfg.RosterFile != "":
		return repository.NewFileSource(cfg.RosterFile, cfg.RoleSeparator), nil
	default:
		return nil, nil
	}
}

func newService(cfg *config.Config, src repository.Source, log logger.Logger) *app.Service {
	opts := []app.Option{
		app.WithLogger(log.Named("service")),
		app.WithWorkerCount(cfg.WorkerCount),
		app.WithQueueSize(cfg.QueueSize),
		app.WithDedupeSize(cfg.DedupeSize),
		app.WithDefaultLimit(cfg.DefaultLimit),
		app.WithMaxLimit(cfg.MaxLimit),
	}
	if src != nil {
		opts = append(opts, app.WithSource(src))
		// Files are static between restarts; only the database is polled.
		if cfg.DatabaseURL != "" {
			opts = append(opts, app.WithRosterRefresh(time.Duration(cfg.RosterRefreshSeconds)*time.Second))
		}
	}
	return app.New(opts...)
}

func newHandler(ctx context.Context, cfg *config.Config, svc *app.Service) http.Handler {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, api.WithRoleSeparator(cfg.RoleSeparator)).Register(ctx, mux)
	return mux
}

// startServiceMetricsUpdater refreshes the gauges derived from GetStats.
func startServiceMetricsUpdater(ctx context.Context, svc *app.Service) {
	ticker := time.NewTicker(serviceMetricsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = svc.GetStats()
		}
	}
}
