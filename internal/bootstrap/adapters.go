package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/translation-queue/config"
	"github.com/target/translation-queue/internal/adapters/maintenance"
	"github.com/target/translation-queue/internal/adapters/processor"
	"github.com/target/translation-queue/internal/observability/statsd"
)

// ProcessorConfig contains configuration for the processor service.
type ProcessorConfig struct {
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Config      *config.AppConfig
	Logger      *slog.Logger
	Metrics     statsd.Sink
}

// NewProcessorRunner wires a processor runner from the application config.
func NewProcessorRunner(cfg ProcessorConfig) (*processor.Runner, error) {
	runner, err := processor.NewRunner(processor.RunnerOptions{
		DB:      cfg.DB,
		Config:  cfg.Config,
		Logger:  cfg.Logger,
		Redis:   cfg.RedisClient,
		Metrics: cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create processor runner: %w", err)
	}
	return runner, nil
}

// RunProcessor starts the processor loop.
func RunProcessor(ctx context.Context, cfg ProcessorConfig) error {
	runner, err := NewProcessorRunner(cfg)
	if err != nil {
		return err
	}
	return runner.Run(ctx)
}

// MaintenanceConfig contains configuration for the maintenance service.
type MaintenanceConfig struct {
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Config      *config.AppConfig
	Logger      *slog.Logger
	Metrics     statsd.Sink
}

// NewMaintenanceRunner wires a maintenance runner from the application config.
func NewMaintenanceRunner(cfg MaintenanceConfig) (*maintenance.Runner, error) {
	if cfg.Config == nil {
		return nil, errors.New("create maintenance runner: configuration is required")
	}
	runner, err := maintenance.NewRunner(maintenance.RunnerOptions{
		DB:             cfg.DB,
		Config:         cfg.Config.Maintenance,
		MaxRetries:     cfg.Config.Queue.MaxRetries,
		Logger:         cfg.Logger,
		Redis:          cfg.RedisClient,
		KeyPrefix:      cfg.Config.Redis.KeyPrefix,
		CountsCacheTTL: cfg.Config.Queue.CountsCacheTTL,
		Metrics:        cfg.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create maintenance runner: %w", err)
	}
	return runner, nil
}

// RunMaintenance starts the maintenance loop.
func RunMaintenance(ctx context.Context, cfg MaintenanceConfig) error {
	runner, err := NewMaintenanceRunner(cfg)
	if err != nil {
		return err
	}
	return runner.Run(ctx)
}
