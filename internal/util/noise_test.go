package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoise2D_DeterministicAndBounded(t *testing.T) {
	a := NewNoise2D(42)
	b := NewNoise2D(42)

	for i := 0; i < 50; i++ {
		x := float64(i) * 0.37
		y := float64(-i) * 0.11
		va := a.At(x, y)
		assert.Equal(t, va, b.At(x, y), "одинаковый сид должен давать одинаковый шум")
		assert.GreaterOrEqual(t, va, 0.0)
		assert.LessOrEqual(t, va, 1.0)
	}
	assert.Equal(t, int64(42), a.Seed())
}
