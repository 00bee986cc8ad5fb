package translate

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/target/translation-queue/internal/errors"
)

func fastRetry(attempts int) *RetryExecutor {
	return NewRetryExecutor(RetryOptions{
		MaxAttempts: attempts,
		Ceiling:     time.Second,
		BaseDelay:   time.Millisecond,
		MaxDelay:    2 * time.Millisecond,
	}, nil)
}

func TestRetryExecutor_Defaults(t *testing.T) {
	r := NewRetryExecutor(RetryOptions{MaxJitter: -1}, nil)
	opts := r.Options()
	assert.Equal(t, DefaultMaxAttempts, opts.MaxAttempts)
	assert.Equal(t, DefaultCeiling, opts.Ceiling)
	assert.Equal(t, DefaultBaseDelay, opts.BaseDelay)
	assert.Equal(t, DefaultMaxDelay, opts.MaxDelay)
	assert.Zero(t, opts.MaxJitter)
}

func TestRetryExecutor_SucceedsFirstTry(t *testing.T) {
	var calls atomic.Int32
	out, err := fastRetry(2).Attempt(context.Background(), func(_ context.Context, text string, d Domain) (string, error) {
		calls.Add(1)
		assert.Equal(t, DomainSEO, d)
		return "ok:" + text, nil
	}, "x", DomainSEO)

	require.NoError(t, err)
	assert.Equal(t, "ok:x", out)
	assert.Equal(t, int32(1), calls.Load())
}

func TestRetryExecutor_RetriesThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	out, err := fastRetry(2).Attempt(context.Background(), func(context.Context, string, Domain) (string, error) {
		if calls.Add(1) == 1 {
			return "", errors.New("503")
		}
		return "done", nil
	}, "x", DomainGeneral)

	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestRetryExecutor_Exhausted(t *testing.T) {
	boom := errors.New("remote failure")
	var calls atomic.Int32
	_, err := fastRetry(3).Attempt(context.Background(), func(context.Context, string, Domain) (string, error) {
		calls.Add(1)
		return "", boom
	}, "x", DomainGeneral)

	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
	assert.ErrorIs(t, err, boom)
	assert.True(t, apperrors.IsProvider(err))

	var pe *ProviderError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Attempts)
}

func TestRetryExecutor_RecoversPanic(t *testing.T) {
	_, err := fastRetry(1).Attempt(context.Background(), func(context.Context, string, Domain) (string, error) {
		panic("nil map write")
	}, "x", DomainGeneral)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderPanic)
	assert.Contains(t, err.Error(), "nil map write")
}

func TestRetryExecutor_CeilingShortCircuits(t *testing.T) {
	r := NewRetryExecutor(RetryOptions{
		MaxAttempts: 5,
		Ceiling:     30 * time.Millisecond,
		BaseDelay:   time.Millisecond,
	}, nil)

	var calls atomic.Int32
	start := time.Now()
	_, err := r.Attempt(context.Background(), func(ctx context.Context, _ string, _ Domain) (string, error) {
		calls.Add(1)
		<-ctx.Done()
		return "", ctx.Err()
	}, "x", DomainGeneral)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrProviderTimeout)
	assert.Equal(t, int32(1), calls.Load(), "no further attempts after the ceiling")
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetryExecutor_ParentCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := fastRetry(2).Attempt(ctx, func(ctx context.Context, _ string, _ Domain) (string, error) {
		return "", ctx.Err()
	}, "x", DomainGeneral)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, apperrors.IsProvider(err))
}

func TestRetryExecutor_Backoff(t *testing.T) {
	r := NewRetryExecutor(RetryOptions{BaseDelay: time.Second, MaxDelay: 5 * time.Second}, nil)

	assert.Equal(t, time.Second, r.backoff(1))
	assert.Equal(t, 2*time.Second, r.backoff(2))
	assert.Equal(t, 4*time.Second, r.backoff(3))
	assert.Equal(t, 5*time.Second, r.backoff(4))
	assert.Equal(t, 5*time.Second, r.backoff(30))
}

func TestJitterBounded(t *testing.T) {
	for range 50 {
		j := jitter(250 * time.Millisecond)
		assert.GreaterOrEqual(t, j, time.Duration(0))
		assert.Less(t, j, 250*time.Millisecond)
	}
	assert.Zero(t, jitter(0))
}
