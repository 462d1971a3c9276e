package report

import (
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seenimoa/yieldwatch/internal/analysis/curve"
)

func nan() float64 { return math.NaN() }

func TestSpreadChart(t *testing.T) {
	a := sampleAnalysis(t)
	sa, ok := a.Spread("2s10s")
	require.True(t, ok)

	svg := SpreadChart(sa.Series, sa.Intervals, ChartConfig{})
	assert.True(t, strings.HasPrefix(svg, "<svg"))
	assert.True(t, strings.HasSuffix(svg, "</svg>"))
	assert.Equal(t, 2, strings.Count(svg, `class="inversion"`))
	assert.Equal(t, 1, strings.Count(svg, `class="zero"`))
	assert.Contains(t, svg, "2s10s Spread (10Y - 2Y_est)")
	assert.Contains(t, svg, `width="800"`)
}

func TestSpreadChart_CustomTitleKeptWithDefaults(t *testing.T) {
	sa, _ := sampleAnalysis(t).Spread("5s30s")
	svg := SpreadChart(sa.Series, sa.Intervals, ChartConfig{Title: "Long end"})
	assert.Contains(t, svg, "Long end")
	assert.NotContains(t, svg, `class="inversion"`)
}

func TestSpreadChart_Empty(t *testing.T) {
	svg := SpreadChart(curve.SpreadSeries{}, nil, DefaultChartConfig())
	assert.Contains(t, svg, "No spread data")
}

func TestSnapshotRows(t *testing.T) {
	tests := []struct {
		name           string
		n, count, step int
		want           []int
	}{
		{"full history", 200, 5, 20, []int{119, 139, 159, 179, 199}},
		{"short history", 50, 5, 20, []int{9, 29, 49}},
		{"single", 10, 1, 20, []int{9}},
		{"empty", 0, 5, 20, nil},
		{"zero step", 3, 2, 0, []int{1, 2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, SnapshotRows(tt.n, tt.count, tt.step))
		})
	}
}

func TestCurveSnapshotChart(t *testing.T) {
	a := sampleAnalysis(t)
	svg := CurveSnapshotChart(a.Table, []string{"2Y", "5Y", "10Y", "30Y"}, 3, 2, DefaultChartConfig())

	assert.Equal(t, 3, strings.Count(svg, `class="snapshot"`))
	assert.Contains(t, svg, "2024-01-01")
	assert.Contains(t, svg, "2024-01-03")
	assert.Contains(t, svg, "2024-01-05")
	assert.Contains(t, svg, "Yield Curve Evolution")
}

func TestCurveSnapshotChart_NotEnoughTenors(t *testing.T) {
	a := sampleAnalysis(t)
	svg := CurveSnapshotChart(a.Table, []string{"10Y", "FFR"}, 5, 20, DefaultChartConfig())
	assert.Contains(t, svg, "Not enough maturities")

	assert.Contains(t, CurveSnapshotChart(nil, nil, 5, 20, ChartConfig{}), "No yield data")
}

func TestTenorYears(t *testing.T) {
	y, ok := tenorYears("2Y_est")
	assert.True(t, ok)
	assert.Equal(t, 2.0, y)

	y, ok = tenorYears("3M")
	assert.True(t, ok)
	assert.Equal(t, 0.25, y)

	_, ok = tenorYears("FFR")
	assert.False(t, ok)
}

func TestRampColor(t *testing.T) {
	assert.Equal(t, "#90caf9", rampColor(0, 5))
	assert.Equal(t, "#0d47a1", rampColor(4, 5))
	assert.Equal(t, "#0d47a1", rampColor(0, 1))
}

func TestEscapeXML(t *testing.T) {
	assert.Equal(t, "a &amp; &lt;b&gt; &quot;c&quot;", escapeXML(`a & <b> "c"`))
}

func TestWriteCharts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	paths, err := WriteCharts(dir, sampleAnalysis(t), DefaultConfig())
	require.NoError(t, err)
	require.Len(t, paths, 3)
	assert.Equal(t, filepath.Join(dir, "spread_2s10s.svg"), paths[0])
	assert.Equal(t, filepath.Join(dir, CurveChartFile), paths[2])

	b, err := os.ReadFile(paths[0])
	require.NoError(t, err)
	assert.Contains(t, string(b), `class="inversion"`)
}

func TestCharts_Names(t *testing.T) {
	charts, err := Charts(sampleAnalysis(t), DefaultConfig())
	require.NoError(t, err)
	require.Len(t, charts, 3)
	assert.Equal(t, "spread_2s10s.svg", charts[0].Name)
	assert.Equal(t, CurveChartFile, charts[2].Name)
	for _, c := range charts {
		assert.True(t, strings.HasPrefix(c.SVG, "<svg"), c.Name)
	}
}

func TestWriteCharts_Nil(t *testing.T) {
	_, err := WriteCharts(t.TempDir(), nil, DefaultConfig())
	assert.ErrorIs(t, err, ErrNoAnalysis)
}
