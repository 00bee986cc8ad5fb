package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/target/translation-queue/internal/core"
	"github.com/target/translation-queue/internal/domain/model"
	"github.com/target/translation-queue/internal/observability/metrics"
	"github.com/target/translation-queue/internal/observability/statsd"
)

// StateCountsCacheKey is the cache key holding the serialized state counts.
const StateCountsCacheKey = "queue:state_counts"

// QueueServiceOptions groups dependencies for QueueService.
type QueueServiceOptions struct {
	Repo      core.JobRepository   // Required: job repository
	Cache     core.CacheRepository // Optional: shared cache for state counts
	CountsTTL time.Duration        // Optional: how long cached counts are served; zero disables caching
	Logger    *slog.Logger         // Optional: structured logger
	Metrics   statsd.Sink          // Optional: metrics sink (StatsD-compatible)
}

// QueueService is the producer-facing side of the translation queue.
type QueueService struct {
	repo      core.JobRepository
	cache     core.CacheRepository
	countsTTL time.Duration
	logger    *slog.Logger
	metrics   statsd.Sink
	counts    singleflight.Group
}

// NewQueueService constructs a new QueueService.
func NewQueueService(opts QueueServiceOptions) (*QueueService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &QueueService{
		repo:      opts.Repo,
		cache:     opts.Cache,
		countsTTL: opts.CountsTTL,
		logger:    logger.With("component", "queue_service"),
		metrics:   opts.Metrics,
	}, nil
}

// Enqueue queues one field of one entity for translation. Re-enqueueing an
// unchanged, already translated field is a no-op.
func (s *QueueService) Enqueue(ctx context.Context, req model.EnqueueRequest) (*model.Job, error) {
	job, err := s.repo.Enqueue(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("enqueue job: %w", err)
	}

	s.logger.DebugContext(ctx, "job enqueued",
		"id", job.ID,
		"object_type", job.ObjectType,
		"object_id", job.ObjectID,
		"field", job.Field,
		"state", job.State,
	)
	s.InvalidateCounts(ctx)
	return job, nil
}

// MarkOutdated flags every job of an entity as outdated and returns how many changed.
func (s *QueueService) MarkOutdated(ctx context.Context, objectType model.ObjectType, objectID string) (int64, error) {
	n, err := s.repo.MarkOutdated(ctx, objectType, objectID)
	if err != nil {
		return 0, fmt.Errorf("mark outdated: %w", err)
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "jobs marked outdated",
			"object_type", objectType,
			"object_id", objectID,
			"count", n,
		)
		s.InvalidateCounts(ctx)
	}
	return n, nil
}

// GetStateCounts returns the number of jobs in each state. Results may be up to
// the configured TTL old when a cache is configured.
func (s *QueueService) GetStateCounts(ctx context.Context) (model.StateCounts, error) {
	if counts, ok := s.cachedCounts(ctx); ok {
		return counts, nil
	}

	v, err, _ := s.counts.Do(StateCountsCacheKey, func() (any, error) {
		counts, err := s.repo.CountByState(ctx)
		if err != nil {
			return nil, err
		}
		s.storeCounts(ctx, counts)
		metrics.EmitStateCounts(s.metrics, counts)
		return counts, nil
	})
	if err != nil {
		return nil, fmt.Errorf("count jobs by state: %w", err)
	}

	shared, ok := v.(model.StateCounts)
	if !ok {
		return nil, fmt.Errorf("unexpected state counts type %T", v)
	}
	out := make(model.StateCounts, len(shared))
	for k, n := range shared {
		out[k] = n
	}
	return out, nil
}

// InvalidateCounts drops the cached state counts. Failures are logged only.
func (s *QueueService) InvalidateCounts(ctx context.Context) {
	if !s.cachingEnabled() {
		return
	}
	if _, err := s.cache.Delete(ctx, StateCountsCacheKey); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate state counts", "error", err)
	}
}

func (s *QueueService) cachingEnabled() bool {
	return s.cache != nil && s.countsTTL > 0
}

func (s *QueueService) cachedCounts(ctx context.Context) (model.StateCounts, bool) {
	if !s.cachingEnabled() {
		return nil, false
	}
	raw, err := s.cache.Get(ctx, StateCountsCacheKey)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to read cached state counts", "error", err)
		return nil, false
	}
	if raw == nil {
		return nil, false
	}

	counts := model.NewStateCounts()
	if err := json.Unmarshal(raw, &counts); err != nil {
		s.logger.WarnContext(ctx, "discarding malformed cached state counts", "error", err)
		return nil, false
	}
	return counts, true
}

func (s *QueueService) storeCounts(ctx context.Context, counts model.StateCounts) {
	if !s.cachingEnabled() {
		return
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		s.logger.WarnContext(ctx, "failed to encode state counts", "error", err)
		return
	}
	if err := s.cache.Set(ctx, StateCountsCacheKey, raw, s.countsTTL); err != nil {
		s.logger.WarnContext(ctx, "failed to cache state counts", "error", err)
	}
}
