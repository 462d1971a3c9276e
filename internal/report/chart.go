// Package report renders analysis results: plain-text and JSON reports for
// the terminal, and SVG charts of spreads and yield curves.
package report

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/seenimoa/yieldwatch/internal/analysis/curve"
	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// SVG chart generator in pure Go
// ════════════════════════════════════════════════════════════════════

// ChartConfig holds rendering parameters for SVG charts.
type ChartConfig struct {
	Width        int    // SVG width in pixels (default: 800)
	Height       int    // SVG height in pixels (default: 400)
	MarginTop    int    // top margin (default: 40)
	MarginRight  int    // right margin (default: 60)
	MarginBottom int    // bottom margin (default: 50)
	MarginLeft   int    // left margin (default: 70)
	BgColor      string // background color (default: "#ffffff")
	GridColor    string // grid line color (default: "#e8e8e8")
	TextColor    string // axis label color (default: "#333333")
	FontSize     int    // axis label font size (default: 11)
	Title        string // chart title
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{
		Width:        800,
		Height:       400,
		MarginTop:    40,
		MarginRight:  60,
		MarginBottom: 50,
		MarginLeft:   70,
		BgColor:      "#ffffff",
		GridColor:    "#e8e8e8",
		TextColor:    "#333333",
		FontSize:     11,
	}
}

// withDefaults fills an unset config, keeping a caller-supplied title.
func (c ChartConfig) withDefaults(title string) ChartConfig {
	if c.Width == 0 {
		t := c.Title
		c = DefaultChartConfig()
		c.Title = t
	}
	if c.Title == "" {
		c.Title = title
	}
	return c
}

// plotArea returns the usable drawing area dimensions.
func (c ChartConfig) plotArea() (x, y, w, h int) {
	return c.MarginLeft, c.MarginTop,
		c.Width - c.MarginLeft - c.MarginRight,
		c.Height - c.MarginTop - c.MarginBottom
}

// scale maps data values onto plot pixels.
type scale struct {
	min, max float64
	lo, hi   float64 // pixel range; hi may be smaller than lo for Y
}

func (s scale) at(v float64) float64 {
	return s.lo + (v-s.min)/(s.max-s.min)*(s.hi-s.lo)
}

// padRange widens [lo, hi] by frac on both ends and guards a flat range.
func padRange(lo, hi, frac float64) (float64, float64) {
	r := hi - lo
	if r < 0.001 {
		r = 1
	}
	return lo - r*frac, hi + r*frac
}

// ════════════════════════════════════════════════════════════════════
// Spread Chart
// ════════════════════════════════════════════════════════════════════

// SpreadChart draws a spread over time with a dashed zero line and shaded
// bands for every inversion interval.
func SpreadChart(s curve.SpreadSeries, intervals []curve.InversionInterval, cfg ChartConfig) string {
	if len(s.Points) == 0 {
		return emptySVG(cfg, "No spread data")
	}
	cfg = cfg.withDefaults(fmt.Sprintf("%s Spread (%s - %s)", s.Name, s.Long, s.Short))
	px, py, pw, ph := cfg.plotArea()

	minV, maxV := 0.0, 0.0 // always include zero
	for _, p := range s.Points {
		minV = math.Min(minV, p.Value)
		maxV = math.Max(maxV, p.Value)
	}
	minV, maxV = padRange(minV, maxV, 0.1)

	first, last := s.Points[0].Date, s.Points[len(s.Points)-1].Date
	span := last.Sub(first).Seconds()
	if span <= 0 {
		span = 1
	}
	x := func(t time.Time) float64 {
		return float64(px) + t.Sub(first).Seconds()/span*float64(pw)
	}
	y := scale{min: minV, max: maxV, lo: float64(py + ph), hi: float64(py)}

	var sb strings.Builder
	writeFrame(&sb, cfg)

	// Inversion bands
	for _, iv := range intervals {
		x0, x1 := x(iv.Start), x(iv.End)
		if x1-x0 < 1 {
			x1 = x0 + 1
		}
		sb.WriteString(fmt.Sprintf(`<rect class="inversion" x="%.1f" y="%d" width="%.1f" height="%d" fill="#ef5350" opacity="0.15"/>`,
			x0, py, x1-x0, ph))
	}

	writeYGrid(&sb, cfg, y, 5, "%.2f")

	// Zero line
	zy := y.at(0)
	sb.WriteString(fmt.Sprintf(`<line class="zero" x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="#999" stroke-width="1" stroke-dasharray="4,4"/>`,
		px, zy, px+pw, zy))

	var path []string
	for i, p := range s.Points {
		cmd := "L"
		if i == 0 {
			cmd = "M"
		}
		path = append(path, fmt.Sprintf("%s%.1f,%.1f", cmd, x(p.Date), y.at(p.Value)))
	}
	sb.WriteString(fmt.Sprintf(`<path d="%s" fill="none" stroke="#2196f3" stroke-width="1.5"/>`,
		strings.Join(path, " ")))

	// X-axis date labels
	for i := 0; i <= 5; i++ {
		t := first.Add(time.Duration(float64(i) / 5 * span * float64(time.Second)))
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			x(t), py+ph+18, cfg.FontSize-1, cfg.TextColor, t.Format("Jan 06")))
	}

	sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="%s">%d inversion period(s); shaded</text>`,
		px+10, py+14, cfg.TextColor, len(intervals)))
	sb.WriteString("</svg>")
	return sb.String()
}

// ════════════════════════════════════════════════════════════════════
// Yield Curve Snapshots
// ════════════════════════════════════════════════════════════════════

// SnapshotRows returns the row indices of count snapshots taken every step
// rows back from the last row, oldest first. Indices before the first row
// are dropped.
func SnapshotRows(n, count, step int) []int {
	if n == 0 || count <= 0 {
		return nil
	}
	if step <= 0 {
		step = 1
	}
	var rows []int
	for k := count - 1; k >= 0; k-- {
		if i := n - 1 - k*step; i >= 0 {
			rows = append(rows, i)
		}
	}
	return rows
}

// CurveSnapshotChart plots the yield curve (yield against tenor) at the rows
// chosen by SnapshotRows. Labels without a known tenor are skipped.
func CurveSnapshotChart(t *curve.AlignedTable, labels []string, count, step int, cfg ChartConfig) string {
	if t == nil || t.Len() == 0 {
		return emptySVG(cfg, "No yield data")
	}
	cfg = cfg.withDefaults("Yield Curve Evolution")

	type tenor struct {
		label string
		years float64
	}
	var tenors []tenor
	for _, l := range labels {
		if yrs, ok := tenorYears(l); ok && t.Has(l) {
			tenors = append(tenors, tenor{l, yrs})
		}
	}
	if len(tenors) < 2 {
		return emptySVG(cfg, "Not enough maturities for a curve")
	}

	rows := SnapshotRows(t.Len(), count, step)
	minV, maxV := math.MaxFloat64, -math.MaxFloat64
	for _, r := range rows {
		for _, tn := range tenors {
			if v, ok := t.Value(r, tn.label); ok {
				minV = math.Min(minV, v)
				maxV = math.Max(maxV, v)
			}
		}
	}
	if minV > maxV {
		return emptySVG(cfg, "No yield data")
	}
	minV, maxV = padRange(minV, maxV, 0.05)

	px, py, pw, ph := cfg.plotArea()
	maxYears := 0.0
	for _, tn := range tenors {
		maxYears = math.Max(maxYears, tn.years)
	}
	x := scale{min: 0, max: maxYears, lo: float64(px), hi: float64(px + pw)}
	y := scale{min: minV, max: maxV, lo: float64(py + ph), hi: float64(py)}

	var sb strings.Builder
	writeFrame(&sb, cfg)
	writeYGrid(&sb, cfg, y, 5, "%.1f%%")

	for i, r := range rows {
		color := rampColor(i, len(rows))
		var path []string
		for _, tn := range tenors {
			v, ok := t.Value(r, tn.label)
			if !ok {
				continue
			}
			cmd := "L"
			if len(path) == 0 {
				cmd = "M"
			}
			cx, cy := x.at(tn.years), y.at(v)
			path = append(path, fmt.Sprintf("%s%.1f,%.1f", cmd, cx, cy))
			sb.WriteString(fmt.Sprintf(`<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>`, cx, cy, color))
		}
		if len(path) > 1 {
			sb.WriteString(fmt.Sprintf(`<path class="snapshot" d="%s" fill="none" stroke="%s" stroke-width="2"/>`,
				strings.Join(path, " "), color))
		}

		// Legend
		ly := py + 10 + i*16
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%d" x2="%d" y2="%d" stroke="%s" stroke-width="2"/>`,
			px+pw-110, ly, px+pw-90, ly, color))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%d" font-size="10" fill="%s">%s</text>`,
			px+pw-85, ly+4, cfg.TextColor, utils.FormatDate(t.Date(r))))
	}

	for _, tn := range tenors {
		sb.WriteString(fmt.Sprintf(`<text x="%.1f" y="%d" font-size="%d" fill="%s" text-anchor="middle">%s</text>`,
			x.at(tn.years), py+ph+18, cfg.FontSize-1, cfg.TextColor, escapeXML(tn.label)))
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// CurveChartFile is the file name WriteCharts uses for the curve snapshots.
const CurveChartFile = "yield_curve.svg"

// Chart is one rendered SVG and its file name.
type Chart struct {
	Name string
	SVG  string
}

// Charts renders one SVG per spread (spread_<name>.svg) followed by the curve
// snapshot chart.
func Charts(a *curve.Analysis, cfg Config) ([]Chart, error) {
	if a == nil || a.Table == nil {
		return nil, ErrNoAnalysis
	}
	out := make([]Chart, 0, len(a.Spreads)+1)
	for _, sa := range a.Spreads {
		out = append(out, Chart{
			Name: "spread_" + sa.Series.Name + ".svg",
			SVG:  SpreadChart(sa.Series, sa.Intervals, cfg.Chart),
		})
	}
	out = append(out, Chart{
		Name: CurveChartFile,
		SVG:  CurveSnapshotChart(a.Table, yieldOrder(a.Table, cfg.Maturities), cfg.Snapshots, cfg.Step, cfg.Chart),
	})
	return out, nil
}

// WriteCharts writes Charts into dir, creating it if needed. It returns the
// paths written.
func WriteCharts(dir string, a *curve.Analysis, cfg Config) ([]string, error) {
	charts, err := Charts(a, cfg)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating chart dir: %w", err)
	}

	paths := make([]string, 0, len(charts))
	for _, c := range charts {
		p := filepath.Join(dir, c.Name)
		if err := os.WriteFile(p, []byte(c.SVG), 0o644); err != nil {
			return paths, fmt.Errorf("writing %s: %w", c.Name, err)
		}
		paths = append(paths, p)
	}
	return paths, nil
}

// tenorYears resolves a column label to years, treating an estimated column
// such as "2Y_est" as its base maturity.
func tenorYears(label string) (float64, bool) {
	if yrs, ok := models.MaturityYears(label); ok {
		return yrs, true
	}
	if base, _, found := strings.Cut(label, "_"); found {
		return models.MaturityYears(base)
	}
	return 0, false
}

// rampColor spreads n colors from light (oldest) to dark (newest) blue.
func rampColor(i, n int) string {
	f := 1.0
	if n > 1 {
		f = float64(i) / float64(n-1)
	}
	lerp := func(a, b float64) int { return int(math.Round(a + (b-a)*f)) }
	return fmt.Sprintf("#%02x%02x%02x", lerp(0x90, 0x0d), lerp(0xca, 0x47), lerp(0xf9, 0xa1))
}

// ════════════════════════════════════════════════════════════════════
// SVG Helpers
// ════════════════════════════════════════════════════════════════════

func writeFrame(sb *strings.Builder, cfg ChartConfig) {
	sb.WriteString(svgHeader(cfg))
	sb.WriteString(fmt.Sprintf(`<rect x="0" y="0" width="%d" height="%d" fill="%s"/>`,
		cfg.Width, cfg.Height, cfg.BgColor))
	sb.WriteString(fmt.Sprintf(`<text x="%d" y="20" font-size="14" font-weight="bold" fill="%s" text-anchor="middle">%s</text>`,
		cfg.Width/2, cfg.TextColor, escapeXML(cfg.Title)))
}

func writeYGrid(sb *strings.Builder, cfg ChartConfig, y scale, lines int, format string) {
	px, _, pw, _ := cfg.plotArea()
	for i := 0; i <= lines; i++ {
		val := y.min + (y.max-y.min)*float64(i)/float64(lines)
		yy := y.at(val)
		sb.WriteString(fmt.Sprintf(`<line x1="%d" y1="%.1f" x2="%d" y2="%.1f" stroke="%s" stroke-dasharray="3,3"/>`,
			px, yy, px+pw, yy, cfg.GridColor))
		sb.WriteString(fmt.Sprintf(`<text x="%d" y="%.1f" font-size="%d" fill="%s" text-anchor="end">`+format+`</text>`,
			px-5, yy+4, cfg.FontSize, cfg.TextColor, val))
	}
}

func svgHeader(cfg ChartConfig) string {
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d" font-family="sans-serif">`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height)
}

func emptySVG(cfg ChartConfig, msg string) string {
	if cfg.Width == 0 {
		cfg.Width = 400
	}
	if cfg.Height == 0 {
		cfg.Height = 200
	}
	return fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d"><rect width="%d" height="%d" fill="#f5f5f5"/><text x="%d" y="%d" text-anchor="middle" fill="#999" font-size="14">%s</text></svg>`,
		cfg.Width, cfg.Height, cfg.Width, cfg.Height, cfg.Width/2, cfg.Height/2, escapeXML(msg))
}

func escapeXML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}
