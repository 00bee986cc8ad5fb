package translate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClampBudgetCeiling(t *testing.T) {
	assert.Equal(t, 0, ClampBudgetCeiling(-10))
	assert.Equal(t, 0, ClampBudgetCeiling(0))
	assert.Equal(t, 2500, ClampBudgetCeiling(2500))
	assert.Equal(t, MaxBudgetCeiling, ClampBudgetCeiling(5_000_000))
}

func TestBudget_ShouldStop(t *testing.T) {
	b := NewBudget(100)
	assert.False(t, b.ShouldStop())

	b.Add(60)
	assert.False(t, b.ShouldStop())

	b.Add(40)
	assert.True(t, b.ShouldStop(), "reaching the ceiling exactly stops the run")
	assert.Equal(t, 100, b.Total())

	b.Reset()
	assert.False(t, b.ShouldStop())
	assert.Zero(t, b.Total())
}

func TestBudget_ZeroDisables(t *testing.T) {
	b := NewBudget(0)
	b.Add(MaxBudgetCeiling * 2)
	assert.False(t, b.ShouldStop())
}

func TestBudget_IgnoresNonPositive(t *testing.T) {
	b := NewBudget(10)
	b.Add(-5)
	b.Add(0)
	assert.Zero(t, b.Total())
	assert.Equal(t, 10, b.Ceiling())
}
