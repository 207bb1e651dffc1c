package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/patrickjmorris/therunclub-sub001/internal/config"
	"github.com/patrickjmorris/therunclub-sub001/internal/infrastructure/htmltext"
	"github.com/patrickjmorris/therunclub-sub001/internal/infrastructure/httpapi"
	"github.com/patrickjmorris/therunclub-sub001/internal/infrastructure/queueworker"
	"github.com/patrickjmorris/therunclub-sub001/internal/infrastructure/scheduler"
	"github.com/patrickjmorris/therunclub-sub001/internal/infrastructure/storage"
	"github.com/patrickjmorris/therunclub-sub001/internal/metrics"
	"github.com/patrickjmorris/therunclub-sub001/internal/usecase"
)

const shutdownGrace = 10 * time.Second

// Application wires configs to use cases and lifecycle orchestration.
type Application struct {
	cfg      config.Config
	logger   *slog.Logger
	db       *sql.DB
	repo     *storage.PostgresRepository
	detector *usecase.Detector
	registry *prometheus.Registry
}

// New opens the database and builds the detection stack. The fuzzy flag
// overrides the configured matcher behavior when non-nil (the reprocess CLI
// defaults to exact-only).
func New(cfg config.Config, logger *slog.Logger, fuzzy *bool) (*Application, error) {
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	repo := storage.NewPostgresRepository(db)
	registry := prometheus.NewRegistry()

	fuzzyEnabled := cfg.Detection.FuzzyEnabled()
	if fuzzy != nil {
		fuzzyEnabled = *fuzzy
	}

	detector := usecase.NewDetector(usecase.DetectorDeps{
		Directory:    repo,
		Content:      repo,
		Mentions:     repo,
		SanitizeBody: htmltext.Plain,
		Metrics:      metrics.New(registry),
		Logger:       logger.With("component", "detector"),
		Fuzzy:        fuzzyEnabled,
	})

	return &Application{
		cfg:      cfg,
		logger:   logger,
		db:       db,
		repo:     repo,
		detector: detector,
		registry: registry,
	}, nil
}

// Detector exposes the orchestrator for one-shot commands.
func (a *Application) Detector() *usecase.Detector {
	return a.detector
}

// Repository exposes the Postgres-backed stores.
func (a *Application) Repository() *storage.PostgresRepository {
	return a.repo
}

// Close releases the database handle.
func (a *Application) Close() error {
	return a.db.Close()
}

// Run starts the HTTP API, the worker pool, and the interval batch
// scheduler, then blocks until ctx is canceled.
func (a *Application) Run(ctx context.Context) error {
	queue := queueworker.NewQueue(a.cfg.Worker.QueueSize)
	pool := queueworker.NewPool(queue, a.detector,
		queueworker.WithWorkers(a.cfg.Worker.Workers),
		queueworker.WithAttempts(a.cfg.Worker.Attempts),
		queueworker.WithLimiter(rate.NewLimiter(
			rate.Limit(a.cfg.Worker.RatePerSecond), a.cfg.Worker.RatePerSecond)),
		queueworker.WithLogger(a.logger.With("component", "worker")),
	)
	pool.Start(ctx)

	batchScheduler := usecase.NewBatchScheduler(
		scheduler.NewIntervalScheduler(a.cfg.Detection.Interval()),
		a.detector,
		usecase.BatchRequest{
			Limit:       a.cfg.Detection.BatchSize,
			MaxAgeHours: a.cfg.Detection.MaxAgeHours,
		},
		a.logger.With("component", "scheduler"),
	)
	if err := batchScheduler.Start(ctx); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	api := httpapi.New(a.detector, queue, a.logger.With("component", "http"), a.registry)
	server := &http.Server{Addr: a.cfg.Server.Addr, Handler: api.Handler()}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("http server listening", "addr", a.cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	a.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("http shutdown", "error", err)
	}
	_ = batchScheduler.Stop(shutdownCtx)
	queue.Close()
	pool.Wait()

	return nil
}
