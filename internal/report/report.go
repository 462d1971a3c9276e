package report

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/shopspring/decimal"

	"github.com/seenimoa/yieldwatch/internal/analysis/curve"
	"github.com/seenimoa/yieldwatch/pkg/models"
	"github.com/seenimoa/yieldwatch/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Report Generator
// ════════════════════════════════════════════════════════════════════

// Format specifies the output format.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatHTML Format = "html"
)

// ValidFormat reports whether s names a supported format.
func ValidFormat(s string) bool {
	switch Format(s) {
	case FormatText, FormatJSON, FormatHTML:
		return true
	}
	return false
}

// ContentType returns the MIME type of a rendered report.
func (f Format) ContentType() string {
	switch f {
	case FormatJSON:
		return "application/json"
	case FormatHTML:
		return "text/html; charset=utf-8"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Config controls report generation.
type Config struct {
	Format     Format
	Maturities []string    // row order of the yield table; defaults to table order
	Chart      ChartConfig // charts embedded in HTML reports
	Snapshots  int         // curve snapshots in HTML reports
	Step       int         // rows between snapshots
}

// DefaultConfig returns the text report defaults.
func DefaultConfig() Config {
	return Config{
		Format:    FormatText,
		Chart:     DefaultChartConfig(),
		Snapshots: 5,
		Step:      20,
	}
}

// Meta is run context shown alongside the analysis.
type Meta struct {
	RunID       string
	GeneratedAt time.Time
	Start, End  time.Time
	Sources     []string
	Outcome     string
	Synthetic   bool
	Missing     []string
	PolicyRate  models.RateSeries // optional
	Headlines   []models.Headline // optional
}

// ErrNoAnalysis is returned when there is nothing to render.
var ErrNoAnalysis = errors.New("analysis is nil")

// Generate writes the report in cfg.Format.
func Generate(w io.Writer, a *curve.Analysis, meta Meta, cfg Config) error {
	var (
		out string
		err error
	)
	switch cfg.Format {
	case FormatText, "":
		out, err = GenerateText(a, meta, cfg)
	case FormatJSON:
		out, err = GenerateJSON(a, meta, cfg)
	case FormatHTML:
		out, err = GenerateHTML(a, meta, cfg)
	default:
		return fmt.Errorf("unknown report format %q", cfg.Format)
	}
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, out)
	return err
}

// ════════════════════════════════════════════════════════════════════
// Document: the report content, shared by every renderer
// ════════════════════════════════════════════════════════════════════

// Document is the machine-readable report.
type Document struct {
	RunID        string            `json:"run_id,omitempty"`
	GeneratedAt  time.Time         `json:"generated_at"`
	Start        string            `json:"start"`
	End          string            `json:"end"`
	Observations int               `json:"observations"`
	Sources      []string          `json:"sources"`
	Outcome      string            `json:"outcome,omitempty"`
	Synthetic    bool              `json:"synthetic"`
	Missing      []string          `json:"missing,omitempty"`
	Estimate     EstimateDoc       `json:"estimate"`
	AsOf         string            `json:"as_of"`
	Yields       []YieldDoc        `json:"yields"`
	Spreads      []SpreadDoc       `json:"spreads"`
	Skipped      map[string]string `json:"skipped,omitempty"`
	PolicyRate   *PolicyDoc        `json:"policy_rate,omitempty"`
	Headlines    []models.Headline `json:"headlines,omitempty"`
}

// EstimateDoc describes how the 2-year column was produced.
type EstimateDoc struct {
	Label       string `json:"label"`
	Rule        string `json:"rule"`
	Description string `json:"description"`
	Degraded    bool   `json:"degraded"`
}

// YieldDoc is one current yield level.
type YieldDoc struct {
	Maturity string  `json:"maturity"`
	Yield    float64 `json:"yield"`
}

// SpreadDoc is the summary of one spread.
type SpreadDoc struct {
	Name       string          `json:"name"`
	Long       string          `json:"long"`
	Short      string          `json:"short"`
	Current    float64         `json:"current"`
	CurrentBP  decimal.Decimal `json:"current_bp"`
	Inverted   bool            `json:"inverted"`
	AsOf       string          `json:"as_of"`
	Summary    curve.Summary   `json:"summary"`
	Inversions []InversionDoc  `json:"inversions"`
}

// InversionDoc is one inversion interval.
type InversionDoc struct {
	Start       string `json:"start"`
	End         string `json:"end"`
	Days        int    `json:"days"`
	StillActive bool   `json:"still_active"`
}

// PolicyDoc is the latest policy rate reading.
type PolicyDoc struct {
	Value     float64 `json:"value"`
	Date      string  `json:"date"`
	Source    string  `json:"source"`
	Synthetic bool    `json:"synthetic"`
}

// BuildDocument flattens an analysis and its run context.
func BuildDocument(a *curve.Analysis, meta Meta, cfg Config) (*Document, error) {
	if a == nil || a.Table == nil {
		return nil, ErrNoAnalysis
	}
	t := a.Table

	d := &Document{
		RunID:        meta.RunID,
		GeneratedAt:  meta.GeneratedAt,
		Observations: t.Len(),
		Sources:      meta.Sources,
		Outcome:      meta.Outcome,
		Synthetic:    meta.Synthetic,
		Missing:      meta.Missing,
		Estimate: EstimateDoc{
			Label:       a.Estimate.Label,
			Rule:        string(a.Estimate.Rule),
			Description: a.Estimate.Rule.Description(),
			Degraded:    a.Estimate.Degraded,
		},
		Spreads:   []SpreadDoc{},
		Headlines: meta.Headlines,
	}
	if d.GeneratedAt.IsZero() {
		d.GeneratedAt = time.Now().UTC()
	}
	if t.Len() > 0 {
		d.Start = utils.FormatDate(firstNonZero(meta.Start, t.Date(0)))
		d.End = utils.FormatDate(firstNonZero(meta.End, t.Date(t.Len()-1)))
		d.AsOf = utils.FormatDate(t.Date(t.Len() - 1))
	}

	latest := a.Latest()
	for _, l := range yieldOrder(t, cfg.Maturities) {
		if v, ok := latest[l]; ok {
			d.Yields = append(d.Yields, YieldDoc{Maturity: l, Yield: v})
		}
	}

	for _, sa := range a.Spreads {
		sd := SpreadDoc{
			Name:       sa.Series.Name,
			Long:       sa.Series.Long,
			Short:      sa.Series.Short,
			Current:    sa.Status.Value,
			CurrentBP:  basisPoints(sa.Status.Value),
			Inverted:   sa.Status.Inverted,
			AsOf:       utils.FormatDate(sa.Status.Date),
			Summary:    sa.Summary,
			Inversions: []InversionDoc{},
		}
		for _, iv := range sa.Intervals {
			sd.Inversions = append(sd.Inversions, InversionDoc{
				Start:       utils.FormatDate(iv.Start),
				End:         utils.FormatDate(iv.End),
				Days:        iv.Days(),
				StillActive: iv.StillActive,
			})
		}
		d.Spreads = append(d.Spreads, sd)
	}

	if len(a.Skipped) > 0 {
		d.Skipped = make(map[string]string, len(a.Skipped))
		for name, err := range a.Skipped {
			d.Skipped[name] = err.Error()
		}
	}

	if last, ok := meta.PolicyRate.Last(); ok {
		d.PolicyRate = &PolicyDoc{
			Value:     last.Value,
			Date:      utils.FormatDate(last.Date),
			Source:    meta.PolicyRate.Source,
			Synthetic: meta.PolicyRate.Synthetic,
		}
	}
	return d, nil
}

// GenerateJSON renders the report as indented JSON.
func GenerateJSON(a *curve.Analysis, meta Meta, cfg Config) (string, error) {
	d, err := BuildDocument(a, meta, cfg)
	if err != nil {
		return "", err
	}
	raw, err := json.MarshalIndent(d, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return string(raw) + "\n", nil
}

// ════════════════════════════════════════════════════════════════════
// Plain-text renderer
// ════════════════════════════════════════════════════════════════════

// GenerateText renders a terminal-friendly report with tables.
func GenerateText(a *curve.Analysis, meta Meta, cfg Config) (string, error) {
	d, err := BuildDocument(a, meta, cfg)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	fmt.Fprintf(&buf, "\n%s\n  YIELD CURVE ANALYSIS\n", line)
	if d.RunID != "" {
		fmt.Fprintf(&buf, "  Run: %s | Generated: %s\n", d.RunID, d.GeneratedAt.Format(time.RFC3339))
	}
	fmt.Fprintf(&buf, "%s\n\n", line)

	fmt.Fprintf(&buf, "  Period:       %s to %s\n", d.Start, d.End)
	fmt.Fprintf(&buf, "  Observations: %d\n", d.Observations)
	if len(d.Sources) > 0 {
		fmt.Fprintf(&buf, "  Sources:      %s\n", strings.Join(d.Sources, ", "))
	}
	if len(d.Missing) > 0 {
		fmt.Fprintf(&buf, "  Unavailable:  %s\n", strings.Join(d.Missing, ", "))
	}
	if d.Synthetic {
		buf.WriteString("\n  !! SYNTHETIC DATA: real market data was unavailable.\n")
		buf.WriteString("  !! Figures below are simulated and must not be used for decisions.\n")
	}
	fmt.Fprintf(&buf, "  2-year:       %s (%s)\n", d.Estimate.Description, d.Estimate.Label)
	if d.Estimate.Degraded {
		buf.WriteString("  Note: the 2-year figure is a low-fidelity proxy; 2s10s readings are indicative only.\n")
	}
	buf.WriteString(thinLine + "\n")

	// Current yields
	fmt.Fprintf(&buf, "\n  ■ CURRENT YIELDS (as of %s)\n", d.AsOf)
	yt := tablewriter.NewWriter(&buf)
	yt.Header("Maturity", "Yield (%)")
	for _, y := range d.Yields {
		yt.Append(y.Maturity, percent(y.Yield))
	}
	if err := yt.Render(); err != nil {
		return "", fmt.Errorf("render yields: %w", err)
	}

	// Spread statistics
	buf.WriteString("\n  ■ SPREAD STATISTICS\n")
	st := tablewriter.NewWriter(&buf)
	st.Header("Spread", "Current (%)", "Current (bp)", "Mean (%)", "Min (%)", "Max (%)", "Std Dev (%)", "Obs")
	for _, s := range d.Spreads {
		st.Append(
			s.Name,
			percent(s.Current),
			s.CurrentBP.String(),
			percent(s.Summary.Mean),
			percent(s.Summary.Min),
			percent(s.Summary.Max),
			percent(s.Summary.StdDev),
			fmt.Sprintf("%d", s.Summary.Count),
		)
	}
	if err := st.Render(); err != nil {
		return "", fmt.Errorf("render statistics: %w", err)
	}

	// Inversions
	for _, s := range d.Spreads {
		fmt.Fprintf(&buf, "\n  ■ INVERSIONS: %s (%s - %s)\n", s.Name, s.Long, s.Short)
		if len(s.Inversions) == 0 {
			buf.WriteString("  No inversion periods in the window.\n")
			continue
		}
		it := tablewriter.NewWriter(&buf)
		it.Header("#", "Start", "End", "Days", "Status")
		for i, iv := range s.Inversions {
			status := "ended"
			if iv.StillActive {
				status = "still active"
			}
			it.Append(fmt.Sprintf("%d", i+1), iv.Start, iv.End, fmt.Sprintf("%d", iv.Days), status)
		}
		if err := it.Render(); err != nil {
			return "", fmt.Errorf("render inversions: %w", err)
		}
	}
	buf.WriteString(thinLine + "\n")

	// Status lines
	buf.WriteString("\n  ■ CURRENT STATUS\n")
	for _, s := range d.Spreads {
		state := "NORMAL"
		if s.Inverted {
			state = "INVERTED"
		}
		fmt.Fprintf(&buf, "  %s is %s at %s%% (%s bp) on %s\n", s.Name, state, percent(s.Current), s.CurrentBP.String(), s.AsOf)
	}
	for _, name := range sortedKeys(d.Skipped) {
		fmt.Fprintf(&buf, "  %s skipped: %s\n", name, d.Skipped[name])
	}
	if p := d.PolicyRate; p != nil {
		tag := ""
		if p.Synthetic {
			tag = " [synthetic]"
		}
		fmt.Fprintf(&buf, "  Fed funds rate: %s%% on %s (%s)%s\n", percent(p.Value), p.Date, p.Source, tag)
	}

	if len(d.Headlines) > 0 {
		buf.WriteString("\n  ■ RECENT FED RELEASES\n")
		for _, h := range d.Headlines {
			date := "          "
			if !h.Published.IsZero() {
				date = utils.FormatDate(h.Published)
			}
			fmt.Fprintf(&buf, "  %s  %s\n", date, h.Title)
		}
	}

	fmt.Fprintf(&buf, "\n%s\n  For information only. Not investment advice.\n%s\n", line, line)
	return buf.String(), nil
}

// ════════════════════════════════════════════════════════════════════
// Formatting helpers
// ════════════════════════════════════════════════════════════════════

// percent renders a percentage-point value with two decimals.
func percent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// basisPoints converts a percentage-point value to whole basis points.
func basisPoints(v float64) decimal.Decimal {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(v).Shift(2).Round(0)
}

// yieldOrder returns the yield-table rows: the configured maturities first,
// then any remaining table columns in table order.
func yieldOrder(t *curve.AlignedTable, maturities []string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, l := range append(append([]string(nil), maturities...), t.Labels()...) {
		if seen[l] || !t.Has(l) {
			continue
		}
		seen[l] = true
		out = append(out, l)
	}
	return out
}

func firstNonZero(a, b time.Time) time.Time {
	if !a.IsZero() {
		return a
	}
	return b
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// FormatDuration formats a duration for display.
func FormatDuration(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	if d < time.Hour {
		return fmt.Sprintf("%.1fm", d.Minutes())
	}
	return fmt.Sprintf("%.1fh", d.Hours())
}
