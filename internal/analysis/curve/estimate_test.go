package curve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimateTwoYear_Interpolated(t *testing.T) {
	tbl, err := Align(series("3M", 0, 3.0), series("5Y", 0, 4.0))
	require.NoError(t, err)

	out, est, err := EstimateTwoYear(tbl, DefaultEstimatorParams())
	require.NoError(t, err)
	assert.Equal(t, RuleInterpolated, est.Rule)
	assert.False(t, est.Degraded)
	assert.Equal(t, EstimatedTwoYear, est.Label)

	v, ok := out.Value(0, EstimatedTwoYear)
	require.True(t, ok)
	assert.InDelta(t, 3.7, v, 1e-12)

	// Input table is not modified.
	assert.False(t, tbl.Has(EstimatedTwoYear))
}

func TestEstimateTwoYear_Rules(t *testing.T) {
	tests := []struct {
		name     string
		labels   [2]string
		want     Rule
		degraded bool
		value    float64
	}{
		{"direct 2Y wins", [2]string{"2Y", "5Y"}, RuleObserved, false, 3.0},
		{"proxy only", [2]string{"3M", "10Y"}, RuleProxy, true, 3.0},
		{"five year only", [2]string{"5Y", "10Y"}, RuleFiveYearOffset, false, 2.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tbl, err := Align(series(tt.labels[0], 0, 3.0), series(tt.labels[1], 0, 4.0))
			require.NoError(t, err)

			out, est, err := EstimateTwoYear(tbl, DefaultEstimatorParams())
			require.NoError(t, err)
			assert.Equal(t, tt.want, est.Rule)
			assert.Equal(t, tt.degraded, est.Degraded)
			v, ok := out.Value(0, est.Label)
			require.True(t, ok)
			assert.InDelta(t, tt.value, v, 1e-12)
		})
	}
}

func TestEstimateTwoYear_SkipDirect(t *testing.T) {
	tbl, err := Align(series("2Y", 0, 9.9), series("3M", 0, 3.0), series("5Y", 0, 4.0))
	require.NoError(t, err)

	p := DefaultEstimatorParams()
	p.SkipDirect = true
	_, est, err := EstimateTwoYear(tbl, p)
	require.NoError(t, err)
	assert.Equal(t, RuleInterpolated, est.Rule)
}

func TestEstimateTwoYear_CustomParams(t *testing.T) {
	tbl, err := Align(series("3M", 0, 2.0), series("5Y", 0, 4.0))
	require.NoError(t, err)

	out, est, err := EstimateTwoYear(tbl, EstimatorParams{TargetLabel: "2Y_alt", InterpolationWeight: 0.5})
	require.NoError(t, err)
	assert.Equal(t, "2Y_alt", est.Label)
	v, _ := out.Value(0, "2Y_alt")
	assert.InDelta(t, 3.0, v, 1e-12)
}

func TestEstimateTwoYear_ZeroOffsetKept(t *testing.T) {
	tbl, err := Align(series("5Y", 0, 4.0), series("10Y", 0, 4.5))
	require.NoError(t, err)

	p := DefaultEstimatorParams()
	p.FiveYearOffset = 0
	out, est, err := EstimateTwoYear(tbl, p)
	require.NoError(t, err)
	assert.Equal(t, RuleFiveYearOffset, est.Rule)
	v, ok := out.Value(0, EstimatedTwoYear)
	require.True(t, ok)
	assert.Equal(t, 4.0, v)
}

func TestEstimateTwoYear_NoBasis(t *testing.T) {
	tbl, err := Align(series("10Y", 0, 4.0), series("30Y", 0, 4.3))
	require.NoError(t, err)

	_, _, err = EstimateTwoYear(tbl, DefaultEstimatorParams())
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoMaturityData))

	var nme *NoMaturityDataError
	require.ErrorAs(t, err, &nme)
	assert.Equal(t, []string{"2Y", "3M", "5Y"}, nme.Tried)
}

func TestEstimateTwoYear_EveryRow(t *testing.T) {
	tbl, err := Align(series("3M", 0, 3.0, 3.1), series("5Y", 0, 4.0, 4.1), series("10Y", 0, 4.5, 4.6))
	require.NoError(t, err)

	out, _, err := EstimateTwoYear(tbl, DefaultEstimatorParams())
	require.NoError(t, err)
	col, ok := out.Column(EstimatedTwoYear)
	require.True(t, ok)
	require.Len(t, col, 2)
	assert.InDelta(t, 3.1+0.7*(4.1-3.1), col[1], 1e-12)
}

func TestDefaultEstimatorParams(t *testing.T) {
	p := DefaultEstimatorParams()
	assert.Equal(t, DefaultInterpolationWeight, p.InterpolationWeight)
	assert.Equal(t, DefaultFiveYearOffset, p.FiveYearOffset)
	assert.Equal(t, "3M", p.ProxyLabel)
	assert.Equal(t, "5Y", p.FiveYearLabel)
	assert.Equal(t, "2Y", p.DirectLabel)
}

func TestEstimateSeries(t *testing.T) {
	s, est, err := EstimateSeries(DefaultEstimatorParams(), series("3M", 0, 3.0, 3.0), series("5Y", 0, 4.0, 5.0))
	require.NoError(t, err)
	assert.Equal(t, RuleInterpolated, est.Rule)
	require.Len(t, s.Observations, 2)
	assert.InDelta(t, 4.4, s.Observations[1].Value, 1e-12)
}
