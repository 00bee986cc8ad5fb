package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/target/translation-queue/config"
	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/domain/model"
	apperrors "github.com/target/translation-queue/internal/errors"
	obserrors "github.com/target/translation-queue/internal/observability/errors"
	"github.com/target/translation-queue/internal/observability/metrics"
	"github.com/target/translation-queue/internal/observability/statsd"
)

// MaintenanceServiceOptions groups dependencies for MaintenanceService.
type MaintenanceServiceOptions struct {
	Repo       core.JobRepository       // Required: job repository
	Config     config.MaintenanceConfig // Required: maintenance configuration
	MaxRetries int                      // Required: retry ceiling for failed jobs
	Queue      *QueueService            // Optional: invalidates cached state counts after a sweep
	Logger     *slog.Logger             // Optional: structured logger
	Metrics    statsd.Sink              // Optional: metrics sink (StatsD-compatible)
}

// MaintenanceService keeps the queue healthy between processor runs.
//
// This service manages:
// - Requeueing failed jobs that are still under the retry ceiling.
// - Returning outdated jobs to pending.
// - Deleting old terminal jobs to prevent database bloat.
type MaintenanceService struct {
	repo       core.JobRepository
	config     config.MaintenanceConfig
	maxRetries int
	queue      *QueueService
	logger     *slog.Logger
	metrics    statsd.Sink
}

// NewMaintenanceService constructs a new MaintenanceService.
func NewMaintenanceService(opts MaintenanceServiceOptions) (*MaintenanceService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.MaxRetries < 1 {
		return nil, errors.New("MaxRetries must be positive")
	}

	var logger *slog.Logger
	if opts.Logger != nil {
		logger = opts.Logger.With("component", "maintenance_service")
		logger.Debug("MaintenanceService initialized",
			"interval", opts.Config.Interval,
			"retention_days", opts.Config.RetentionDays,
			"cleanup_states", opts.Config.CleanupStates,
			"max_retries", opts.MaxRetries,
		)
	}

	return &MaintenanceService{
		repo:       opts.Repo,
		config:     opts.Config,
		maxRetries: opts.MaxRetries,
		queue:      opts.Queue,
		logger:     logger,
		metrics:    opts.Metrics,
	}, nil
}

// Run starts the maintenance loop and runs until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (s *MaintenanceService) Run(ctx context.Context) error {
	if s.config.Interval <= 0 {
		return errors.New("maintenance interval must be positive")
	}
	if s.logger != nil {
		s.logger.InfoContext(ctx, "starting maintenance service", "interval", s.config.Interval)
	}

	waitWithJitter(ctx, s.config.Interval, s.logger)

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	if err := s.RunOnce(ctx); err != nil {
		s.logSweepError(err, "initial sweep")
	}

	for {
		select {
		case <-ctx.Done():
			if s.logger != nil {
				s.logger.InfoContext(ctx, "maintenance service stopping", "reason", ctx.Err())
			}
			return loopExit(ctx)
		case <-ticker.C:
			if err := s.RunOnce(ctx); err != nil {
				s.logSweepError(err, "sweep")
			}
		}
	}
}

// RunOnce performs every maintenance operation once. Each step runs even when
// an earlier one failed.
func (s *MaintenanceService) RunOnce(ctx context.Context) error {
	start := time.Now()
	var (
		errs               []error
		allContextCanceled = true
		sweep              = sweepMetrics{}
	)

	steps := []sweepStep{
		{fn: s.RetryFailedJobs, label: "retry failed jobs", count: &sweep.RetriedCount, metricErr: &sweep.RetriedErr},
		{fn: s.ResyncOutdatedJobs, label: "resync outdated jobs", count: &sweep.ResyncedCount, metricErr: &sweep.ResyncedErr},
		{fn: s.cleanupConfigured, label: "cleanup old jobs", count: &sweep.DeletedCount, metricErr: &sweep.DeletedErr},
	}

	for _, step := range steps {
		count, err := step.fn(ctx)
		*step.count = count
		*step.metricErr = suppressContextCancellation(err)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", step.label, err))
			allContextCanceled = allContextCanceled && isContextCancellation(err)
		}
	}

	sweep.Elapsed = time.Since(start)
	s.emitSweepMetrics(sweep)
	if sweep.RetriedCount+sweep.ResyncedCount+sweep.DeletedCount > 0 && s.queue != nil {
		s.queue.InvalidateCounts(ctx)
	}

	if len(errs) > 0 {
		joined := errors.Join(errs...)
		if allContextCanceled && isContextCancellation(joined) {
			return context.Canceled
		}
		return fmt.Errorf("maintenance sweep failed: %w", joined)
	}
	return nil
}

type sweepFunc func(context.Context) (int64, error)

type sweepStep struct {
	fn        sweepFunc
	label     string
	count     *int64
	metricErr *error
}

// RetryFailedJobs moves failed jobs whose retry count is below the ceiling back
// to pending. Loops until no more rows are affected to handle large datasets in batches.
func (s *MaintenanceService) RetryFailedJobs(ctx context.Context) (int64, error) {
	total, err := s.drain(ctx, func(ctx context.Context) (int64, error) {
		return s.repo.RequeueFailed(ctx, core.RequeueFailedParams{
			MaxRetries: s.maxRetries,
			Limit:      s.config.BatchSize,
		})
	})
	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "requeued failed jobs", "count", total, "max_retries", s.maxRetries)
	}
	return total, err
}

// ResyncOutdatedJobs moves outdated jobs back to pending.
func (s *MaintenanceService) ResyncOutdatedJobs(ctx context.Context) (int64, error) {
	total, err := s.drain(ctx, func(ctx context.Context) (int64, error) {
		return s.repo.ResyncOutdated(ctx, s.config.BatchSize)
	})
	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "resynced outdated jobs", "count", total)
	}
	return total, err
}

// CleanupOldJobs deletes jobs in the given states not updated for retentionDays days.
func (s *MaintenanceService) CleanupOldJobs(ctx context.Context, states []model.JobState, retentionDays int) (int64, error) {
	if len(states) == 0 {
		return 0, apperrors.ValidationField("states", "at least one job state is required")
	}
	if retentionDays < 1 {
		return 0, apperrors.ValidationField("retention_days", "retention must be at least one day")
	}

	maxAge := time.Duration(retentionDays) * 24 * time.Hour
	total, err := s.drain(ctx, func(ctx context.Context) (int64, error) {
		return s.repo.DeleteOlderThan(ctx, core.DeleteOldJobsParams{
			States:    states,
			MaxAge:    maxAge,
			BatchSize: s.config.BatchSize,
		})
	})
	if total > 0 && s.logger != nil {
		s.logger.InfoContext(ctx, "deleted old jobs",
			"count", total,
			"states", states,
			"retention_days", retentionDays,
		)
	}
	return total, err
}

func (s *MaintenanceService) cleanupConfigured(ctx context.Context) (int64, error) {
	return s.CleanupOldJobs(ctx, s.config.CleanupStates, s.config.RetentionDays)
}

// drain repeats one batched operation until it affects no rows.
func (s *MaintenanceService) drain(ctx context.Context, batch sweepFunc) (int64, error) {
	var total int64
	for {
		count, err := batch(ctx)
		if err != nil {
			return total, err
		}
		total += count
		if count == 0 {
			return total, nil
		}
		// Check context between batches
		if ctx.Err() != nil {
			return total, ctx.Err()
		}
	}
}

type sweepMetrics struct {
	RetriedCount  int64
	RetriedErr    error
	ResyncedCount int64
	ResyncedErr   error
	DeletedCount  int64
	DeletedErr    error
	Elapsed       time.Duration
}

func (s *MaintenanceService) emitSweepMetrics(m sweepMetrics) {
	if s.metrics == nil {
		return
	}

	totalCount := m.RetriedCount + m.ResyncedCount + m.DeletedCount
	firstErr := firstError(m.RetriedErr, m.ResyncedErr, m.DeletedErr)

	result := metrics.ResultSuccess
	if firstErr != nil {
		result = metrics.ResultError
	} else if totalCount == 0 {
		result = metrics.ResultNoop
	}

	tags := map[string]string{statsd.TagResult: result}
	if firstErr != nil {
		if class := obserrors.Classify(firstErr); class != "" {
			tags[statsd.TagErrorClass] = class
		}
	}

	s.metrics.Count(statsd.MetricSweep, 1, tags)
	if m.Elapsed > 0 {
		s.metrics.Timing(statsd.MetricSweepDuration, m.Elapsed, metrics.CloneTags(tags))
	}

	s.emitOperationMetric("retry_failed", m.RetriedCount, m.RetriedErr)
	s.emitOperationMetric("resync_outdated", m.ResyncedCount, m.ResyncedErr)
	s.emitOperationMetric("cleanup", m.DeletedCount, m.DeletedErr)

	if firstErr == nil {
		s.metrics.Gauge(statsd.MetricSweepLastSuccess, float64(time.Now().Unix()), nil)
	}
}

func (s *MaintenanceService) emitOperationMetric(operation string, count int64, err error) {
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	} else if count == 0 {
		result = metrics.ResultNoop
	}

	tags := map[string]string{
		statsd.TagOperation: operation,
		statsd.TagResult:    result,
	}
	if err != nil {
		if class := obserrors.Classify(err); class != "" {
			tags[statsd.TagErrorClass] = class
		}
	}

	s.metrics.Count(statsd.MetricSweepOperation, 1, tags)
	if err == nil && count > 0 {
		s.metrics.Count(statsd.MetricSweepAffected, count, metrics.CloneTags(tags))
	}
}

func (s *MaintenanceService) logSweepError(err error, label string) {
	if err == nil || s.logger == nil {
		return
	}
	if isContextCancellation(err) {
		s.logger.Debug(label+" cancelled by context", "error", err)
		return
	}
	s.logger.Error(label+" failed", "error", err)
}
