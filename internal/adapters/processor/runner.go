// Package processor wires the queue processor from configuration.
package processor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/target/translation-queue/config"
	"github.com/target/translation-queue/internal/adapters/events"
	"github.com/target/translation-queue/internal/adapters/hoststore"
	"github.com/target/translation-queue/internal/adapters/provider"
	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/data"
	"github.com/target/translation-queue/internal/domain/diff"
	"github.com/target/translation-queue/internal/domain/model"
	"github.com/target/translation-queue/internal/domain/translate"
	"github.com/target/translation-queue/internal/observability/statsd"
	"github.com/target/translation-queue/internal/service"
)

// Runner runs the queue processor.
type Runner struct {
	processor *service.Processor
	queue     *service.QueueService
	lock      core.RunLock
	logger    *slog.Logger
}

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	DB     *sql.DB
	Config *config.AppConfig
	Logger *slog.Logger

	// Redis backs the run lock and the state counts cache. Without it the
	// lock is process-local and counts are not cached.
	Redis redis.UniversalClient

	// Optional dependency injection for testing/decoupling
	Content  core.ContentStore
	Provider core.Translator
	Events   core.EventPublisher
	Metrics  statsd.Sink
}

// NewRunner creates a new processor runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if err := validateRunnerOptions(&opts); err != nil {
		return nil, err
	}

	cfg := opts.Config
	jobs := data.NewJobRepo(opts.DB, data.RepoConfig{Logger: opts.Logger})

	var cache core.CacheRepository
	if opts.Redis != nil {
		cache = data.NewRedisCacheRepo(opts.Redis, cfg.Redis.KeyPrefix)
	}

	lock, err := newRunLock(cache, cfg.Queue, opts.Logger)
	if err != nil {
		return nil, fmt.Errorf("create run lock: %w", err)
	}

	queue, err := service.NewQueueService(service.QueueServiceOptions{
		Repo:      jobs,
		Cache:     cache,
		CountsTTL: cfg.Queue.CountsCacheTTL,
		Logger:    opts.Logger,
		Metrics:   opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create queue service: %w", err)
	}

	content, err := resolveContent(opts)
	if err != nil {
		return nil, err
	}
	translator, err := newValueTranslator(opts)
	if err != nil {
		return nil, err
	}
	publisher, err := resolveEvents(opts)
	if err != nil {
		return nil, err
	}

	runTimeout := cfg.Processor.RunTimeout
	if runTimeout <= 0 {
		runTimeout = cfg.Queue.LockTTL
	}

	proc, err := service.NewProcessor(service.ProcessorOptions{
		Jobs:       jobs,
		Lock:       lock,
		Content:    content,
		Status:     data.NewStatusRepo(opts.DB, nil),
		Translator: translator,
		Previews:   data.NewPreviewRepo(opts.DB),
		Events:     publisher,
		Queue:      queue,
		Settings: service.ProcessorSettings{
			SourceLang:     cfg.Translation.SourceLang,
			TargetLangs:    cfg.Translation.TargetLangs,
			ClaimLimit:     cfg.Queue.ClaimLimit(),
			Priority:       cfg.Queue.Priority(),
			BudgetCeiling:  cfg.Translation.BudgetCeiling,
			DryRun:         cfg.Translation.DryRun,
			CostPerMillion: cfg.Translation.CostPerMillion,
			Interval:       cfg.Processor.Interval,
			RunTimeout:     runTimeout,
		},
		Logger:  opts.Logger,
		Metrics: opts.Metrics,
	})
	if err != nil {
		return nil, fmt.Errorf("create processor: %w", err)
	}

	return &Runner{processor: proc, queue: queue, lock: lock, logger: opts.Logger}, nil
}

// validateRunnerOptions validates and sets defaults for RunnerOptions.
func validateRunnerOptions(opts *RunnerOptions) error {
	if opts.DB == nil {
		return errors.New("database connection is required")
	}
	if opts.Config == nil {
		return errors.New("configuration is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return nil
}

//nolint:ireturn // Returning the RunLock interface lets callers swap lock backends.
func newRunLock(cache core.CacheRepository, cfg config.QueueConfig, logger *slog.Logger) (core.RunLock, error) {
	lockOpts := data.RunLockOptions{Key: cfg.LockKey, TTL: cfg.LockTTL, Logger: logger}
	if cache == nil {
		logger.Warn("redis disabled; run lock only guards this process")
		return data.NewLocalRunLock(lockOpts), nil
	}
	lock, err := data.NewCacheRunLock(cache, lockOpts)
	if err != nil {
		return nil, err
	}
	return lock, nil
}

//nolint:ireturn // ContentStore is injected in tests.
func resolveContent(opts RunnerOptions) (core.ContentStore, error) {
	if opts.Content != nil {
		return opts.Content, nil
	}
	cfg := opts.Config.Translation
	store, err := hoststore.New(hoststore.Options{
		DB:             opts.DB,
		LegacyFallback: cfg.LegacySingleLanguage && len(cfg.TargetLangs) == 1,
	})
	if err != nil {
		return nil, fmt.Errorf("create content store: %w", err)
	}
	return store, nil
}

func newValueTranslator(opts RunnerOptions) (*translate.ValueTranslator, error) {
	cfg := opts.Config

	prov := opts.Provider
	if prov == nil {
		prompts, err := provider.LoadPrompts(cfg.Provider.PromptsFile)
		if err != nil {
			return nil, err
		}
		client, err := provider.NewClient(provider.Options{
			BaseURL: cfg.Provider.BaseURL,
			APIKey:  cfg.Provider.APIKey,
			Model:   cfg.Provider.Model,
			Timeout: cfg.Provider.Timeout,
			Prompts: prompts,
			OAuth: &provider.OAuthOptions{
				TokenURL:     cfg.Provider.OAuthTokenURL,
				ClientID:     cfg.Provider.OAuthClientID,
				ClientSecret: cfg.Provider.OAuthClientSecret,
				Scopes:       cfg.Provider.OAuthScopes,
			},
			Logger: opts.Logger,
		})
		if err != nil {
			return nil, fmt.Errorf("create provider client: %w", err)
		}
		prov = client
	}

	patterns, err := cfg.Translation.CompileProtectedPatterns()
	if err != nil {
		return nil, err
	}

	vt, err := translate.NewValueTranslator(translate.ValueTranslatorOptions{
		Diff:     diff.New(),
		Provider: prov,
		Retry: translate.NewRetryExecutor(translate.RetryOptions{
			MaxAttempts: cfg.Translation.RetryAttempts,
			Ceiling:     cfg.Translation.RetryCeiling,
			MaxJitter:   translate.DefaultMaxJitter,
		}, opts.Logger),
		Logger:             opts.Logger,
		ChunkLimit:         cfg.Translation.ChunkLimit,
		PayloadCeiling:     cfg.Translation.PayloadCeiling,
		ExcludedShortcodes: cfg.Translation.ExcludedShortcodes,
		Shortcodes:         cfg.Translation.Shortcodes,
		ProtectedPatterns:  patterns,
		Policy: translate.Policy{
			ForcedFullFields: cfg.Translation.ForcedFullFields,
			LongSourceMin:    cfg.Translation.StaleSourceMin,
			ShortTargetMax:   cfg.Translation.StaleTargetMax,
			LengthRatio:      cfg.Translation.StaleRatio,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create value translator: %w", err)
	}
	return vt, nil
}

//nolint:ireturn // EventPublisher is injected in tests.
func resolveEvents(opts RunnerOptions) (core.EventPublisher, error) {
	if opts.Events != nil {
		return opts.Events, nil
	}
	cfg := opts.Config.Events
	dispatcher := events.NewDispatcher(opts.Logger)
	if cfg.LogEvents {
		dispatcher.Register(events.NewLogListener(opts.Logger))
	}
	if cfg.WebhookEnabled() {
		hook, err := events.NewWebhookListener(events.WebhookOptions{
			URL:     cfg.WebhookURL,
			Filter:  cfg.WebhookFilter,
			Body:    cfg.WebhookBody,
			Timeout: cfg.WebhookTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("create webhook listener: %w", err)
		}
		dispatcher.Register(hook)
	}
	return dispatcher, nil
}

// Run starts the processor loop and runs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "starting processor runner")
	return r.processor.Run(ctx)
}

// RunOnce executes a single queue run.
func (r *Runner) RunOnce(ctx context.Context) (model.RunResult, error) {
	return r.processor.RunQueue(ctx)
}

// Queue returns the queue service shared with the processor.
func (r *Runner) Queue() *service.QueueService {
	return r.queue
}

// Lock returns the run lock guarding the processor.
//
//nolint:ireturn // The backend depends on whether Redis is configured.
func (r *Runner) Lock() core.RunLock {
	return r.lock
}
