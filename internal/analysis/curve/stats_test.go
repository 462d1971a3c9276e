package curve

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	sum, err := Summarize(spreadOf(1, 2, 3, 4))
	require.NoError(t, err)
	assert.Equal(t, 4.0, sum.Current)
	assert.Equal(t, 2.5, sum.Mean)
	assert.Equal(t, 1.0, sum.Min)
	assert.Equal(t, 4.0, sum.Max)
	assert.Equal(t, 4, sum.Count)
	// Population: sqrt(5/4), not the sample sqrt(5/3).
	assert.InDelta(t, math.Sqrt(1.25), sum.StdDev, 1e-12)
}

func TestSummarize_Constant(t *testing.T) {
	for _, c := range []float64{0.1, -0.35, 1.17} {
		for _, n := range []int{1, 10, 250} {
			values := make([]float64, n)
			for i := range values {
				values[i] = c
			}
			sum, err := Summarize(spreadOf(values...))
			require.NoError(t, err)
			assert.Equal(t, c, sum.Mean, "c=%v n=%d", c, n)
			assert.Equal(t, 0.0, sum.StdDev, "c=%v n=%d", c, n)
			assert.Equal(t, c, sum.Min)
			assert.Equal(t, c, sum.Max)
		}
	}
}

func TestSummarize_Empty(t *testing.T) {
	_, err := Summarize(SpreadSeries{Name: "5s30s"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptySeries))
}
