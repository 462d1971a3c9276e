package curve

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDetectInversions(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
		want   []InversionInterval
	}{
		{"empty", nil, []InversionInterval{}},
		{"all non-negative", []float64{0.5, 0, 1.2, 0.1}, []InversionInterval{}},
		{"zero is not inverted", []float64{0, 0, 0}, []InversionInterval{}},
		{
			"all negative",
			[]float64{-0.1, -0.5, -0.2},
			[]InversionInterval{{Start: day(0), End: day(2), StillActive: true}},
		},
		{
			"single inverted point",
			[]float64{-0.3},
			[]InversionInterval{{Start: day(0), End: day(0), StillActive: true}},
		},
		{
			"closed then open",
			[]float64{0.2, -0.1, -0.3, 0, 0.4, -0.2},
			[]InversionInterval{
				{Start: day(1), End: day(3)},
				{Start: day(5), End: day(5), StillActive: true},
			},
		},
		{
			"two closed",
			[]float64{-1, 1, -1, 1},
			[]InversionInterval{
				{Start: day(0), End: day(1)},
				{Start: day(2), End: day(3)},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DetectInversions(spreadOf(tt.values...))
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetectInversions_Scenario(t *testing.T) {
	tbl, err := Align(series("10Y", 0, 4.5, 4.0, 3.5), series("2Y", 0, 4.0, 4.2, 5.0))
	require.NoError(t, err)
	s, err := ComputeSpread(tbl, SpreadSpec{Name: "2s10s", Long: "10Y", Short: "2Y"})
	require.NoError(t, err)

	got := DetectInversions(s)
	require.Len(t, got, 1)
	assert.Equal(t, day(1), got[0].Start)
	assert.Equal(t, day(2), got[0].End)
	assert.True(t, got[0].StillActive)
	assert.Equal(t, 1, got[0].Days())
}

func TestCurrentStatus(t *testing.T) {
	st, err := CurrentStatus(spreadOf(0.3, -0.25))
	require.NoError(t, err)
	assert.Equal(t, day(1), st.Date)
	assert.Equal(t, -0.25, st.Value)
	assert.True(t, st.Inverted)

	st, err = CurrentStatus(spreadOf(-0.3, 0))
	require.NoError(t, err)
	assert.False(t, st.Inverted)
}

func TestCurrentStatus_Empty(t *testing.T) {
	_, err := CurrentStatus(SpreadSeries{Name: "2s10s"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmptySeries))
	var ese *EmptySeriesError
	require.ErrorAs(t, err, &ese)
	assert.Equal(t, "2s10s", ese.Series)
}
