package translate

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"log/slog"
	"time"

	apperrors "github.com/target/translation-queue/internal/errors"
)

// CallFunc performs one provider request.
type CallFunc func(ctx context.Context, text string, domain Domain) (string, error)

// RetryOptions configures a RetryExecutor. Zero values other than MaxJitter
// take the defaults.
type RetryOptions struct {
	MaxAttempts int
	// Ceiling bounds the whole attempt sequence, not each try.
	Ceiling   time.Duration
	BaseDelay time.Duration
	MaxDelay  time.Duration
	MaxJitter time.Duration
}

// Default retry settings.
const (
	DefaultMaxAttempts = 2
	DefaultCeiling     = 45 * time.Second
	DefaultBaseDelay   = time.Second
	DefaultMaxDelay    = 5 * time.Second
	DefaultMaxJitter   = 250 * time.Millisecond
)

func (o RetryOptions) withDefaults() RetryOptions {
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = DefaultMaxAttempts
	}
	if o.Ceiling <= 0 {
		o.Ceiling = DefaultCeiling
	}
	if o.BaseDelay <= 0 {
		o.BaseDelay = DefaultBaseDelay
	}
	if o.MaxDelay <= 0 {
		o.MaxDelay = DefaultMaxDelay
	}
	if o.MaxJitter < 0 {
		o.MaxJitter = 0
	}
	return o
}

// RetryExecutor invokes a provider call with bounded retries, exponential backoff
// and an overall wall-clock ceiling.
type RetryExecutor struct {
	opts   RetryOptions
	logger *slog.Logger
}

// NewRetryExecutor creates a RetryExecutor.
func NewRetryExecutor(opts RetryOptions, logger *slog.Logger) *RetryExecutor {
	if logger == nil {
		logger = slog.Default()
	}
	return &RetryExecutor{
		opts:   opts.withDefaults(),
		logger: logger.With("component", "retry_executor"),
	}
}

// Options returns the effective options.
func (r *RetryExecutor) Options() RetryOptions {
	return r.opts
}

type callResult struct {
	text string
	err  error
}

// Attempt runs fn until it succeeds, attempts are exhausted or the ceiling is hit.
// Failures are returned as a *ProviderError carrying the provider error code.
// Cancellation of the parent context is returned as is.
func (r *RetryExecutor) Attempt(ctx context.Context, fn CallFunc, text string, domain Domain) (string, error) {
	runCtx, cancel := context.WithTimeout(ctx, r.opts.Ceiling)
	defer cancel()

	var (
		lastErr  error
		attempts int
	)
	for attempts < r.opts.MaxAttempts {
		attempts++
		out, err := r.call(runCtx, fn, text, domain)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if runCtx.Err() != nil || attempts == r.opts.MaxAttempts {
			break
		}

		delay := r.backoff(attempts)
		r.logger.DebugContext(ctx, "provider call failed, retrying",
			"attempt", attempts, "delay", delay, "error", err)
		if !sleepCtx(runCtx, delay) {
			break
		}
	}

	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		lastErr = timeoutError(r.opts.Ceiling, lastErr)
	}
	return "", apperrors.Wrap(&ProviderError{Attempts: attempts, Err: lastErr}, apperrors.ErrCodeProvider, "provider call failed")
}

func timeoutError(ceiling time.Duration, cause error) error {
	if cause == nil || errors.Is(cause, context.DeadlineExceeded) {
		return fmt.Errorf("%w after %s", ErrProviderTimeout, ceiling)
	}
	return fmt.Errorf("%w after %s: %w", ErrProviderTimeout, ceiling, cause)
}

// call runs fn in its own goroutine so a hung provider cannot outlive the ceiling,
// and converts panics into errors.
func (r *RetryExecutor) call(ctx context.Context, fn CallFunc, text string, domain Domain) (string, error) {
	done := make(chan callResult, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- callResult{err: fmt.Errorf("%w: %v", ErrProviderPanic, p)}
			}
		}()
		out, err := fn(ctx, text, domain)
		done <- callResult{text: out, err: err}
	}()

	select {
	case res := <-done:
		return res.text, res.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// backoff doubles BaseDelay per attempt, capped at MaxDelay, plus jitter.
func (r *RetryExecutor) backoff(attempt int) time.Duration {
	d := r.opts.BaseDelay
	for i := 1; i < attempt && d < r.opts.MaxDelay; i++ {
		d *= 2
	}
	if d > r.opts.MaxDelay {
		d = r.opts.MaxDelay
	}
	return d + jitter(r.opts.MaxJitter)
}

func jitter(maxJitter time.Duration) time.Duration {
	if maxJitter <= 0 {
		return 0
	}
	var buf [8]byte
	if _, err := rand.Read(buf[:]); err != nil {
		return 0
	}
	n := binary.BigEndian.Uint64(buf[:]) % uint64(maxJitter)
	return time.Duration(int64(n)) // #nosec G115 - bounded by maxJitter
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-ctx.Done():
		return false
	}
}
