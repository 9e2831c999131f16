package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReturnsZeroPrior(t *testing.T) {
	rets := Returns([]float64{0, 100, 110})
	require.Len(t, rets, 3)
	assert.Equal(t, 0.0, rets[0])
	assert.Equal(t, 0.0, rets[1]) // prior price 0 must not divide
	assert.InDelta(t, 0.10, rets[2], 1e-12)
}

func TestRollingMeanWarmupIsNaN(t *testing.T) {
	m := RollingMean([]float64{1, 2, 3, 4}, 3)
	assert.True(t, math.IsNaN(m[0]))
	assert.True(t, math.IsNaN(m[1]))
	assert.InDelta(t, 2.0, m[2], 1e-12)
	assert.InDelta(t, 3.0, m[3], 1e-12)
}

func TestRollingStdDevFlatWindow(t *testing.T) {
	sd := RollingStdDev([]float64{5, 5, 5, 5, 5}, 3)
	assert.True(t, math.IsNaN(sd[1]))
	assert.Equal(t, 0.0, sd[2])
	assert.Equal(t, 0.0, sd[4])
}

func TestZScoreDegenerateInputs(t *testing.T) {
	assert.Equal(t, 0.0, ZScore(1.5, math.NaN(), 0.2))
	assert.Equal(t, 0.0, ZScore(1.5, 0.1, math.NaN()))
	assert.Equal(t, 0.0, ZScore(1.5, 0.1, 0))
	assert.InDelta(t, 2.0, ZScore(0.5, 0.1, 0.2), 1e-12)
}

func TestFlatSeriesNeverSignificant(t *testing.T) {
	vals := make([]float64, 50)
	for i := range vals {
		vals[i] = 0.01
	}
	mean := RollingMean(vals, 10)
	sd := RollingStdDev(vals, 10)
	for i := range vals {
		assert.Equal(t, 0.0, ZScore(vals[i], mean[i], sd[i]))
	}
}
