package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/domain/model"
	"github.com/target/translation-queue/internal/domain/translate"
	"github.com/target/translation-queue/internal/observability/metrics"
	"github.com/target/translation-queue/internal/observability/statsd"
)

const defaultClaimLimit = 5

// ValueTranslator translates one field value against its current translation.
type ValueTranslator interface {
	Translate(ctx context.Context, req translate.Request) (translate.Result, error)
}

// ProcessorSettings holds the tunables of a Processor.
type ProcessorSettings struct {
	SourceLang  string
	TargetLangs []string
	// ClaimLimit is the number of jobs claimed per run.
	ClaimLimit int
	Priority   model.FieldPriority
	// BudgetCeiling caps characters sent per run; zero disables it.
	BudgetCeiling int
	// DryRun records previews and marks jobs skipped instead of writing.
	DryRun         bool
	CostPerMillion float64
	// Interval drives Run. After RunTimeout a run starts no new job; the job
	// in progress finishes and the rest of the batch returns to pending.
	Interval   time.Duration
	RunTimeout time.Duration
}

// ProcessorOptions groups dependencies for Processor.
type ProcessorOptions struct {
	Jobs       core.JobRepository     // Required: job repository
	Lock       core.RunLock           // Required: run lock
	Content    core.ContentStore      // Required: host content store
	Status     core.StatusRepository  // Required: field and entity status store
	Translator ValueTranslator        // Required: value translator
	Previews   core.PreviewRepository // Required when DryRun is set
	Events     core.EventPublisher    // Optional: receives a TranslatedEvent per persisted field
	Queue      *QueueService          // Optional: invalidates cached state counts after a run
	Settings   ProcessorSettings
	Logger     *slog.Logger // Optional: structured logger
	Metrics    statsd.Sink  // Optional: metrics sink (StatsD-compatible)
	Now        func() time.Time
}

// Processor drains the translation queue in bounded runs.
type Processor struct {
	jobs       core.JobRepository
	lock       core.RunLock
	content    core.ContentStore
	status     core.StatusRepository
	translator ValueTranslator
	previews   core.PreviewRepository
	events     core.EventPublisher
	queue      *QueueService
	settings   ProcessorSettings
	logger     *slog.Logger
	metrics    statsd.Sink
	now        func() time.Time
}

// NewProcessor constructs a new Processor.
func NewProcessor(opts ProcessorOptions) (*Processor, error) {
	switch {
	case opts.Jobs == nil:
		return nil, errors.New("JobRepository is required")
	case opts.Lock == nil:
		return nil, errors.New("RunLock is required")
	case opts.Content == nil:
		return nil, errors.New("ContentStore is required")
	case opts.Status == nil:
		return nil, errors.New("StatusRepository is required")
	case opts.Translator == nil:
		return nil, errors.New("ValueTranslator is required")
	case opts.Settings.DryRun && opts.Previews == nil:
		return nil, errors.New("PreviewRepository is required in dry-run mode")
	}

	settings := opts.Settings
	if len(settings.TargetLangs) == 0 {
		return nil, errors.New("at least one target language is required")
	}
	settings.TargetLangs = slices.Clone(settings.TargetLangs)
	if settings.ClaimLimit <= 0 {
		settings.ClaimLimit = defaultClaimLimit
	}
	if len(settings.Priority) == 0 {
		settings.Priority = model.DefaultFieldPriority()
	}
	settings.BudgetCeiling = translate.ClampBudgetCeiling(settings.BudgetCeiling)

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Processor{
		jobs:       opts.Jobs,
		lock:       opts.Lock,
		content:    opts.Content,
		status:     opts.Status,
		translator: opts.Translator,
		previews:   opts.Previews,
		events:     opts.Events,
		queue:      opts.Queue,
		settings:   settings,
		logger:     logger.With("component", "processor"),
		metrics:    opts.Metrics,
		now:        now,
	}, nil
}

// RunQueue claims a batch of jobs and processes them one at a time until the
// batch or the character budget is exhausted. It returns model.ErrQueueLocked
// when another run holds the run lock.
func (p *Processor) RunQueue(ctx context.Context) (model.RunResult, error) {
	return p.runQueue(ctx, time.Time{})
}

// runQueue is RunQueue with a soft deadline. Past the deadline no new job is
// started and the rest of the batch goes back to pending; the job in progress
// always finishes. A zero deadline never expires.
func (p *Processor) runQueue(ctx context.Context, deadline time.Time) (model.RunResult, error) {
	start := p.now()
	res := model.RunResult{RunID: uuid.NewString()}
	logger := p.logger.With("run_id", res.RunID)

	acquired, err := p.lock.Acquire(ctx)
	if err != nil {
		return res, fmt.Errorf("acquire run lock: %w", err)
	}
	if !acquired {
		if p.metrics != nil {
			p.metrics.Count(statsd.MetricQueueRun, 1, map[string]string{statsd.TagResult: metrics.ResultLocked})
		}
		return res, model.ErrQueueLocked
	}
	defer func() {
		if relErr := p.lock.Release(context.WithoutCancel(ctx)); relErr != nil {
			logger.WarnContext(ctx, "failed to release run lock", "error", relErr)
		}
	}()

	res, err = p.drain(ctx, res, deadline, logger)
	res.Duration = p.now().Sub(start)
	metrics.EmitRun(p.metrics, res, err)
	if p.queue != nil {
		p.queue.InvalidateCounts(context.WithoutCancel(ctx))
	}
	if err != nil {
		return res, err
	}

	if res.Claimed > 0 {
		logger.InfoContext(ctx, "queue run finished",
			"claimed", res.Claimed,
			"processed", res.Processed,
			"skipped", res.Skipped,
			"errors", res.Errors,
			"reverted", res.Reverted,
			"characters", res.Characters,
			"budget_hit", res.BudgetHit,
			"duration", res.Duration,
		)
	}
	return res, nil
}

func (p *Processor) drain(ctx context.Context, res model.RunResult, deadline time.Time, logger *slog.Logger) (model.RunResult, error) {
	budget := translate.NewBudget(p.settings.BudgetCeiling)
	budget.Reset()

	jobs, err := p.jobs.Claim(ctx, core.ClaimJobsParams{
		Limit:    p.settings.ClaimLimit,
		Priority: p.settings.Priority,
	})
	if err != nil {
		return res, fmt.Errorf("claim jobs: %w", err)
	}
	res.Claimed = len(jobs)

	for i, job := range jobs {
		reason := ""
		switch {
		case ctx.Err() != nil:
			reason = "canceled"
		case budget.ShouldStop():
			reason = "budget"
			res.BudgetHit = true
		case !deadline.IsZero() && !p.now().Before(deadline):
			reason = "run_timeout"
		}
		if reason != "" {
			res.Reverted += p.revert(ctx, jobs[i:], reason, logger)
			break
		}

		switch p.processJob(ctx, job, budget) {
		case model.JobStateDone:
			res.Processed++
		case model.JobStateSkipped:
			res.Skipped++
		case model.JobStatePending:
			res.Reverted++
		default:
			res.Errors++
		}
	}

	res.Characters = budget.Total()
	return res, nil
}

// revert hands claimed jobs back to the queue without counting an attempt.
func (p *Processor) revert(ctx context.Context, jobs []*model.Job, reason string, logger *slog.Logger) int {
	ids := make([]string, 0, len(jobs))
	for _, j := range jobs {
		ids = append(ids, j.ID)
	}
	n, err := p.jobs.RevertToPending(context.WithoutCancel(ctx), ids)
	if err != nil {
		logger.ErrorContext(ctx, "failed to revert unprocessed jobs", "count", len(ids), "error", err)
		return 0
	}
	logger.InfoContext(ctx, "reverted unprocessed jobs to pending", "count", n, "reason", reason)
	return int(n)
}

// Run executes RunQueue every interval until the context is cancelled.
// Returns nil on graceful shutdown (context.Canceled), error otherwise.
func (p *Processor) Run(ctx context.Context) error {
	interval := p.settings.Interval
	if interval <= 0 {
		return errors.New("processor interval must be positive")
	}
	p.logger.InfoContext(ctx, "starting processor", "interval", interval, "dry_run", p.settings.DryRun)

	waitWithJitter(ctx, interval, p.logger)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		p.runOnce(ctx)

		select {
		case <-ctx.Done():
			p.logger.InfoContext(ctx, "processor stopping", "reason", ctx.Err())
			return loopExit(ctx)
		case <-ticker.C:
		}
	}
}

func (p *Processor) runOnce(ctx context.Context) {
	var deadline time.Time
	if p.settings.RunTimeout > 0 {
		deadline = p.now().Add(p.settings.RunTimeout)
	}

	_, err := p.runQueue(ctx, deadline)
	switch {
	case err == nil:
	case errors.Is(err, model.ErrQueueLocked):
		p.logger.DebugContext(ctx, "queue run skipped, lock held elsewhere")
	case isContextCancellation(err):
		p.logger.DebugContext(ctx, "queue run cancelled by context", "error", err)
	default:
		p.logger.ErrorContext(ctx, "queue run failed", "error", err)
	}
}
