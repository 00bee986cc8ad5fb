// Package maintenance provides adapters for running the queue maintenance sweeps.
package maintenance

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/target/translation-queue/config"
	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/data"
	"github.com/target/translation-queue/internal/observability/statsd"
	"github.com/target/translation-queue/internal/service"
)

// Runner provides a simple adapter to run the maintenance loop.
// It constructs the maintenance service and runs its sweeps.
type Runner struct {
	service *service.MaintenanceService
	logger  *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB         *sql.DB
	Config     config.MaintenanceConfig
	MaxRetries int
	Logger     *slog.Logger

	// Redis, when set, lets sweeps invalidate the cached state counts.
	Redis          redis.UniversalClient
	KeyPrefix      string
	CountsCacheTTL time.Duration

	// Optional dependency injection for testing/decoupling
	Repo    core.JobRepository
	Metrics statsd.Sink
}

// NewRunner creates a new maintenance runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	svc, err := wireMaintenanceService(opts)
	if err != nil {
		return nil, fmt.Errorf("wire maintenance service: %w", err)
	}

	return &Runner{service: svc, logger: opts.Logger}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil && opts.Repo == nil {
		return errors.New("database connection is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

// wireMaintenanceService wires up all dependencies for the maintenance service.
func wireMaintenanceService(opts RunnerOptions) (*service.MaintenanceService, error) {
	repo := opts.Repo
	if repo == nil {
		repo = data.NewJobRepo(opts.DB, data.RepoConfig{Logger: opts.Logger})
	}

	var queue *service.QueueService
	if opts.Redis != nil {
		q, err := service.NewQueueService(service.QueueServiceOptions{
			Repo:      repo,
			Cache:     data.NewRedisCacheRepo(opts.Redis, opts.KeyPrefix),
			CountsTTL: opts.CountsCacheTTL,
			Logger:    opts.Logger,
		})
		if err != nil {
			return nil, err
		}
		queue = q
	}

	return service.NewMaintenanceService(service.MaintenanceServiceOptions{
		Repo:       repo,
		Config:     opts.Config,
		MaxRetries: opts.MaxRetries,
		Queue:      queue,
		Logger:     opts.Logger,
		Metrics:    opts.Metrics,
	})
}

// Run starts the maintenance loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting maintenance runner")
	return r.service.Run(ctx)
}

// Service exposes the wired service for one-off sweeps.
func (r *Runner) Service() *service.MaintenanceService {
	return r.service
}
