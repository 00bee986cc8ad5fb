package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/target/translation-queue/config"
	"github.com/target/translation-queue/internal/observability/statsd"
)

const (
	// shutdownWaitTimeout is the maximum time to wait for services to stop gracefully.
	shutdownWaitTimeout = 15 * time.Second
)

// BuildMetricsSink returns the StatsD client when metrics are enabled, nil otherwise.
// A client that fails to initialise is logged and treated as disabled.
//
//nolint:ireturn // Callers hold the Sink interface so a disabled sink is a true nil.
func BuildMetricsSink(logger *slog.Logger, cfg config.ObservabilityConfig) statsd.Sink {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Metrics.IsEnabled() {
		return nil
	}

	client, err := statsd.NewClient(statsd.Config{
		Address:    cfg.Metrics.StatsdAddress,
		Prefix:     cfg.Metrics.Prefix,
		Logger:     logger,
		GlobalTags: cfg.Metrics.Tags,
	})
	if err != nil {
		logger.Error("failed to initialise statsd client", "error", err)
		return nil
	}
	return client
}

// ServiceOrchestrationConfig contains configuration for service orchestration.
type ServiceOrchestrationConfig struct {
	Config      *config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
	Metrics     statsd.Sink
}

// backgroundService describes a startable background component.
type backgroundService struct {
	mode  config.ServiceMode
	name  string
	start func(context.Context) error
}

func newProcessorBackgroundService(cfg *ServiceOrchestrationConfig, logger *slog.Logger) backgroundService {
	return backgroundService{
		mode: config.ServiceModeProcessor,
		name: "processor",
		start: func(ctx context.Context) error {
			return RunProcessor(ctx, ProcessorConfig{
				DB:          cfg.DB,
				RedisClient: cfg.RedisClient,
				Config:      cfg.Config,
				Logger:      logger,
				Metrics:     cfg.Metrics,
			})
		},
	}
}

func newMaintenanceBackgroundService(cfg *ServiceOrchestrationConfig, logger *slog.Logger) backgroundService {
	return backgroundService{
		mode: config.ServiceModeMaintenance,
		name: "maintenance",
		start: func(ctx context.Context) error {
			return RunMaintenance(ctx, MaintenanceConfig{
				DB:          cfg.DB,
				RedisClient: cfg.RedisClient,
				Config:      cfg.Config,
				Logger:      logger,
				Metrics:     cfg.Metrics,
			})
		},
	}
}

// enabledBackgroundServices returns the descriptors of every enabled mode.
func enabledBackgroundServices(
	cfg *ServiceOrchestrationConfig,
	enabled map[config.ServiceMode]bool,
	logger *slog.Logger,
) []backgroundService {
	all := []backgroundService{
		newProcessorBackgroundService(cfg, logger),
		newMaintenanceBackgroundService(cfg, logger),
	}
	out := make([]backgroundService, 0, len(all))
	for _, svc := range all {
		if enabled[svc.mode] {
			out = append(out, svc)
		}
	}
	return out
}

// RunServicesWithShutdown starts all enabled services and manages their lifecycle.
// This function blocks until a shutdown signal is received or a service fails.
func RunServicesWithShutdown(cfg *ServiceOrchestrationConfig) error {
	if cfg == nil {
		return errors.New("service orchestration config is required")
	}
	if cfg.Config == nil {
		return errors.New("service orchestration config missing AppConfig")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	enabled, err := cfg.Config.GetEnabledServices()
	if err != nil {
		return fmt.Errorf("determine enabled services: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runServices(ctx, enabledBackgroundServices(cfg, enabled, logger), logger)
}

// runServices runs every service until ctx is cancelled or one of them fails.
// A failure cancels the others; shutdown waits at most shutdownWaitTimeout.
func runServices(ctx context.Context, services []backgroundService, logger *slog.Logger) error {
	if len(services) == 0 {
		return errors.New("no services enabled")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, svc := range services {
		g.Go(func() error {
			logger.InfoContext(gctx, "background service started", "service", svc.name, "mode", svc.mode)
			err := svc.start(gctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("%s failed: %w", svc.name, err)
			}
			logger.InfoContext(gctx, svc.name+" stopped")
			return nil
		})
	}

	done := make(chan error, 1)
	go func() { done <- g.Wait() }()

	select {
	case err := <-done:
		if err != nil {
			logger.Error("service error", "error", err)
		}
		return err
	case <-gctx.Done():
		logger.Info("shutting down services...")
	}

	select {
	case err := <-done:
		if err != nil {
			logger.Error("service error", "error", err)
		}
		return err
	case <-time.After(shutdownWaitTimeout):
		logger.Warn("timeout waiting for services to stop")
		return errors.New("timeout waiting for services to stop")
	}
}
