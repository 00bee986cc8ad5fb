package translate

import "sync"

// MaxBudgetCeiling bounds the configurable per-run character ceiling.
const MaxBudgetCeiling = 1_000_000

// Budget accumulates the characters translated during one run.
// A zero ceiling disables it.
type Budget struct {
	mu      sync.Mutex
	ceiling int
	total   int
}

// NewBudget returns a Budget with the ceiling clamped to [0, MaxBudgetCeiling].
func NewBudget(ceiling int) *Budget {
	return &Budget{ceiling: ClampBudgetCeiling(ceiling)}
}

// ClampBudgetCeiling clamps a configured ceiling to the supported range.
func ClampBudgetCeiling(ceiling int) int {
	switch {
	case ceiling < 0:
		return 0
	case ceiling > MaxBudgetCeiling:
		return MaxBudgetCeiling
	default:
		return ceiling
	}
}

// Reset clears the running total.
func (b *Budget) Reset() {
	b.mu.Lock()
	b.total = 0
	b.mu.Unlock()
}

// Add records n translated characters. Non-positive values are ignored.
func (b *Budget) Add(n int) {
	if n <= 0 {
		return
	}
	b.mu.Lock()
	b.total += n
	b.mu.Unlock()
}

// ShouldStop reports whether the run reached its ceiling.
func (b *Budget) ShouldStop() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.ceiling > 0 && b.total >= b.ceiling
}

// Total returns the characters recorded since the last Reset.
func (b *Budget) Total() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

// Ceiling returns the effective ceiling.
func (b *Budget) Ceiling() int {
	return b.ceiling
}
