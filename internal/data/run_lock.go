package data

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/target/translation-queue/internal/core"
)

const (
	// DefaultRunLockKey is the cache key holding the processor run lock.
	DefaultRunLockKey = "queue:run_lock"
	// DefaultRunLockTTL bounds how long a crashed run can keep the queue locked.
	DefaultRunLockTTL = 120 * time.Second
)

// RunLockOptions configures a run lock.
type RunLockOptions struct {
	Key          string
	TTL          time.Duration
	Logger       *slog.Logger
	TimeProvider TimeProvider
}

func (o RunLockOptions) withDefaults() RunLockOptions {
	if o.Key == "" {
		o.Key = DefaultRunLockKey
	}
	if o.TTL <= 0 {
		o.TTL = DefaultRunLockTTL
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.TimeProvider == nil {
		o.TimeProvider = &RealTimeProvider{}
	}
	return o
}

// CacheRunLock is a TTL lock stored in a shared cache. Each Acquire writes a
// fresh token; Release only removes the key while it still holds that token,
// so a run whose lock expired cannot release a newer holder's lock.
type CacheRunLock struct {
	cache  core.CacheRepository
	opts   RunLockOptions
	logger *slog.Logger

	mu    sync.Mutex
	token string
}

// NewCacheRunLock creates a run lock backed by cache.
func NewCacheRunLock(cache core.CacheRepository, opts RunLockOptions) (*CacheRunLock, error) {
	if cache == nil {
		return nil, errors.New("cache repository is required")
	}
	opts = opts.withDefaults()
	return &CacheRunLock{
		cache:  cache,
		opts:   opts,
		logger: opts.Logger.With("component", "run_lock"),
	}, nil
}

// Acquire takes the lock when no one holds it.
func (l *CacheRunLock) Acquire(ctx context.Context) (bool, error) {
	token := uuid.NewString()
	ok, err := l.cache.SetIfNotExists(ctx, l.opts.Key, []byte(token), l.opts.TTL)
	if err != nil {
		return false, fmt.Errorf("acquire run lock: %w", err)
	}
	if !ok {
		return false, nil
	}

	l.mu.Lock()
	l.token = token
	l.mu.Unlock()
	l.logger.DebugContext(ctx, "run lock acquired", "token", token, "ttl", l.opts.TTL)
	return true, nil
}

// Release drops the lock if this instance still owns it.
func (l *CacheRunLock) Release(ctx context.Context) error {
	l.mu.Lock()
	token := l.token
	l.token = ""
	l.mu.Unlock()
	if token == "" {
		return nil
	}

	released, err := l.cache.CompareAndDelete(ctx, l.opts.Key, []byte(token))
	if err != nil {
		return fmt.Errorf("release run lock: %w", err)
	}
	if !released {
		l.logger.WarnContext(ctx, "run lock expired before release", "token", token)
	}
	return nil
}

// IsLocked reports whether any run holds the lock.
func (l *CacheRunLock) IsLocked(ctx context.Context) (bool, error) {
	ok, err := l.cache.Exists(ctx, l.opts.Key)
	if err != nil {
		return false, fmt.Errorf("check run lock: %w", err)
	}
	return ok, nil
}

// Holder returns the token of the current holder, or "" when unlocked.
func (l *CacheRunLock) Holder(ctx context.Context) (string, error) {
	v, err := l.cache.Get(ctx, l.opts.Key)
	if err != nil {
		return "", fmt.Errorf("read run lock: %w", err)
	}
	return string(v), nil
}

// ForceRelease deletes the lock regardless of owner.
func (l *CacheRunLock) ForceRelease(ctx context.Context) error {
	deleted, err := l.cache.Delete(ctx, l.opts.Key)
	if err != nil {
		return fmt.Errorf("force release run lock: %w", err)
	}
	l.mu.Lock()
	l.token = ""
	l.mu.Unlock()
	l.logger.InfoContext(ctx, "run lock force released", "was_held", deleted)
	return nil
}

// LocalRunLock is an in-process TTL lock for single-instance deployments
// without Redis.
type LocalRunLock struct {
	opts RunLockOptions

	mu        sync.Mutex
	expiresAt time.Time
}

// NewLocalRunLock creates an in-process run lock.
func NewLocalRunLock(opts RunLockOptions) *LocalRunLock {
	return &LocalRunLock{opts: opts.withDefaults()}
}

func (l *LocalRunLock) heldLocked() bool {
	return !l.expiresAt.IsZero() && l.opts.TimeProvider.Now().Before(l.expiresAt)
}

// Acquire takes the lock when it is free or expired.
func (l *LocalRunLock) Acquire(_ context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.heldLocked() {
		return false, nil
	}
	l.expiresAt = l.opts.TimeProvider.Now().Add(l.opts.TTL)
	return true, nil
}

// Release frees the lock.
func (l *LocalRunLock) Release(_ context.Context) error {
	l.mu.Lock()
	l.expiresAt = time.Time{}
	l.mu.Unlock()
	return nil
}

// IsLocked reports whether the lock is held and unexpired.
func (l *LocalRunLock) IsLocked(_ context.Context) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.heldLocked(), nil
}

// ForceRelease frees the lock.
func (l *LocalRunLock) ForceRelease(ctx context.Context) error {
	return l.Release(ctx)
}
