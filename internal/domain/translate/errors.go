package translate

import (
	"errors"
	"fmt"
)

var (
	// ErrPayloadTooLarge is returned before any provider call when the segments of
	// one value exceed the configured payload ceiling.
	ErrPayloadTooLarge = errors.New("translation payload too large")
	// ErrProviderTimeout is returned when the attempt sequence outlives its wall-clock ceiling.
	ErrProviderTimeout = errors.New("translation provider timed out")
	// ErrProviderPanic marks a provider call that panicked.
	ErrProviderPanic = errors.New("translation provider panicked")
)

// ProviderError is the typed failure of a RetryExecutor attempt sequence.
type ProviderError struct {
	Attempts int
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("translation failed after %d attempt(s): %v", e.Attempts, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
