package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 5.0, Clamp(5, 0, 10))
	assert.Equal(t, 0.0, Clamp(-3, 0, 10))
	assert.Equal(t, 10.0, Clamp(42, 0, 10))
}

func TestRoundTo(t *testing.T) {
	assert.InDelta(t, 3.14, RoundTo(3.14159, 2), 1e-12)
	assert.InDelta(t, 3.1416, RoundTo(3.14159, 4), 1e-12)
	assert.InDelta(t, -2.5, RoundTo(-2.49, 1), 1e-12)
}

func TestMean(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.0, Mean([]float64{1, 2, 3}), 1e-9)
}

func TestStdDev(t *testing.T) {
	assert.Equal(t, 0.0, StdDev(nil))
	assert.Equal(t, 0.0, StdDev([]float64{5, 5, 5}))
	// Population std dev of {2,4,4,4,5,5,7,9} is exactly 2.
	assert.InDelta(t, 2.0, StdDev([]float64{2, 4, 4, 4, 5, 5, 7, 9}), 1e-9)
}
