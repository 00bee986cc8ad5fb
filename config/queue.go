package config

import (
	"strings"
	"time"

	"github.com/target/translation-queue/internal/domain/model"
)

// CapabilityTier sizes claim batches to the capacity of the host.
type CapabilityTier string

const (
	CapabilityLow    CapabilityTier = "low"
	CapabilityMedium CapabilityTier = "medium"
	CapabilityHigh   CapabilityTier = "high"
)

// BatchSize returns the claim size for the tier. Unknown tiers get the low size.
func (t CapabilityTier) BatchSize() int {
	switch CapabilityTier(strings.ToLower(strings.TrimSpace(string(t)))) {
	case CapabilityHigh:
		return 20
	case CapabilityMedium:
		return 10
	default:
		return 5
	}
}

// QueueConfig contains claim and locking configuration of the job queue.
type QueueConfig struct {
	// CapabilityTier picks the adaptive claim size when BatchSize is zero.
	CapabilityTier CapabilityTier `env:"QUEUE_CAPABILITY_TIER" envDefault:"low"`

	// BatchSize overrides the adaptive claim size when positive.
	BatchSize int `env:"QUEUE_BATCH_SIZE" envDefault:"0"`

	// MaxRetries is how many failed attempts a job gets before the retry sweep gives up on it.
	MaxRetries int `env:"QUEUE_MAX_RETRIES" envDefault:"5"`

	// FieldPriority orders claims. See model.FieldPriority for the pattern syntax.
	FieldPriority []string `env:"QUEUE_FIELD_PRIORITY" envDefault:"post_content,post_excerpt,post_title,*,*:*,meta:*"`

	// LockKey names the run lock in Redis, below the Redis key prefix.
	LockKey string `env:"QUEUE_LOCK_KEY" envDefault:"queue:run_lock"`

	// LockTTL bounds how long a crashed run can block the queue.
	LockTTL time.Duration `env:"LOCK_TTL" envDefault:"120s"`

	// CountsCacheTTL is how long state counts are served from cache. Zero disables caching.
	CountsCacheTTL time.Duration `env:"QUEUE_COUNTS_CACHE_TTL" envDefault:"10s"`
}

// Sanitize applies guardrails to queue configuration values.
func (q *QueueConfig) Sanitize() {
	if q.BatchSize < 0 {
		q.BatchSize = 0
	}
	if q.BatchSize > 100 {
		q.BatchSize = 100
	}
	if q.MaxRetries < 1 {
		q.MaxRetries = 1
	}
	q.LockKey = strings.TrimSpace(q.LockKey)
	if q.LockKey == "" {
		q.LockKey = "queue:run_lock"
	}
	if q.LockTTL < 10*time.Second {
		q.LockTTL = 10 * time.Second
	}
	if q.CountsCacheTTL < 0 {
		q.CountsCacheTTL = 0
	}

	cleaned := q.FieldPriority[:0]
	for _, p := range q.FieldPriority {
		if p = strings.TrimSpace(p); p != "" {
			cleaned = append(cleaned, p)
		}
	}
	q.FieldPriority = cleaned
	if len(q.FieldPriority) == 0 {
		q.FieldPriority = []string(model.DefaultFieldPriority())
	}
}

// ClaimLimit returns the number of jobs a run claims.
func (q QueueConfig) ClaimLimit() int {
	if q.BatchSize > 0 {
		return q.BatchSize
	}
	return q.CapabilityTier.BatchSize()
}

// Priority returns the configured field priority.
func (q QueueConfig) Priority() model.FieldPriority {
	return model.FieldPriority(q.FieldPriority)
}
