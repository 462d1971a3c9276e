package report

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/seenimoa/yieldwatch/internal/analysis/curve"
)

// htmlTemplate is the standalone HTML report. Charts are inline SVG, so the
// file has no external dependencies.
const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
<title>Yield Curve Analysis {{.Doc.End}}</title>
<style>
  :root {
    --bg: #ffffff;
    --text: #1a1a2e;
    --muted: #6b7280;
    --border: #e5e7eb;
    --accent: #2563eb;
    --green: #16a34a;
    --red: #dc2626;
    --section-bg: #f8fafc;
  }
  * { margin: 0; padding: 0; box-sizing: border-box; }
  body {
    font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif;
    color: var(--text);
    background: var(--bg);
    line-height: 1.6;
    max-width: 900px;
    margin: 0 auto;
    padding: 20px;
  }
  h1 { font-size: 1.5rem; margin-bottom: 4px; color: var(--accent); }
  h2 { font-size: 1.2rem; margin: 24px 0 12px; padding-bottom: 6px; border-bottom: 2px solid var(--accent); }
  .muted { color: var(--muted); font-size: 0.85rem; }
  .warning { background: #fef2f2; border: 1px solid var(--red); color: var(--red); padding: 10px; margin: 12px 0; font-weight: 600; }
  table { width: 100%; border-collapse: collapse; margin: 8px 0 16px; font-size: 0.9rem; }
  th, td { text-align: left; padding: 6px 8px; border-bottom: 1px solid var(--border); }
  th { background: var(--section-bg); }
  .inverted { color: var(--red); font-weight: 600; }
  .normal { color: var(--green); font-weight: 600; }
  .chart { margin: 12px 0; }
  .footer { margin-top: 32px; padding-top: 12px; border-top: 1px solid var(--border); color: var(--muted); font-size: 0.8rem; }
  @media print { .chart { page-break-inside: avoid; } }
</style>
</head>
<body>
{{with .Doc}}
<h1>Yield Curve Analysis</h1>
<p class="muted">{{.Start}} to {{.End}} · {{.Observations}} observations{{if .Sources}} · sources: {{join .Sources}}{{end}}{{if .RunID}} · run {{.RunID}}{{end}}</p>
{{if .Synthetic}}<div class="warning">SYNTHETIC DATA: real market data was unavailable. Figures are simulated.</div>{{end}}
<p>2-year: {{.Estimate.Description}} ({{.Estimate.Label}}){{if .Estimate.Degraded}} <span class="inverted">low fidelity</span>{{end}}</p>

<h2>Current Status</h2>
<table>
<tr><th>Spread</th><th>Value (%)</th><th>bp</th><th>State</th><th>As of</th></tr>
{{range .Spreads}}<tr><td>{{.Name}}</td><td>{{pct .Current}}</td><td>{{.CurrentBP}}</td><td>{{if .Inverted}}<span class="inverted">INVERTED</span>{{else}}<span class="normal">NORMAL</span>{{end}}</td><td>{{.AsOf}}</td></tr>
{{end}}</table>
{{with .PolicyRate}}<p>Fed funds rate: {{pct .Value}}% on {{.Date}} ({{.Source}}{{if .Synthetic}}, synthetic{{end}})</p>{{end}}

<h2>Current Yields ({{.AsOf}})</h2>
<table>
<tr><th>Maturity</th><th>Yield (%)</th></tr>
{{range .Yields}}<tr><td>{{.Maturity}}</td><td>{{pct .Yield}}</td></tr>
{{end}}</table>

<h2>Spread Statistics</h2>
<table>
<tr><th>Spread</th><th>Mean</th><th>Min</th><th>Max</th><th>Std Dev</th><th>Obs</th></tr>
{{range .Spreads}}<tr><td>{{.Name}}</td><td>{{pct .Summary.Mean}}</td><td>{{pct .Summary.Min}}</td><td>{{pct .Summary.Max}}</td><td>{{pct .Summary.StdDev}}</td><td>{{.Summary.Count}}</td></tr>
{{end}}</table>
{{end}}
{{range .Charts}}<div class="chart">{{.}}</div>
{{end}}
{{with .Doc}}
{{range .Spreads}}
<h2>Inversions: {{.Name}}</h2>
{{if .Inversions}}<table>
<tr><th>Start</th><th>End</th><th>Days</th><th>Status</th></tr>
{{range .Inversions}}<tr><td>{{.Start}}</td><td>{{.End}}</td><td>{{.Days}}</td><td>{{if .StillActive}}still active{{else}}ended{{end}}</td></tr>
{{end}}</table>{{else}}<p class="muted">No inversion periods in the window.</p>{{end}}
{{end}}
{{if .Headlines}}<h2>Recent Fed Releases</h2>
<ul>{{range .Headlines}}<li><a href="{{.Link}}">{{.Title}}</a></li>{{end}}</ul>{{end}}
<div class="footer">Generated {{.GeneratedAt.Format "2006-01-02 15:04 MST"}}. For information only. Not investment advice.</div>
{{end}}
</body>
</html>
`

var reportTmpl = template.Must(template.New("report").Funcs(template.FuncMap{
	"pct":  percent,
	"join": func(s []string) string { return strings.Join(s, ", ") },
}).Parse(htmlTemplate))

// GenerateHTML renders a standalone HTML report with the spread and curve
// charts inlined.
func GenerateHTML(a *curve.Analysis, meta Meta, cfg Config) (string, error) {
	d, err := BuildDocument(a, meta, cfg)
	if err != nil {
		return "", err
	}

	var charts []template.HTML
	for _, sa := range a.Spreads {
		charts = append(charts, template.HTML(SpreadChart(sa.Series, sa.Intervals, cfg.Chart)))
	}
	charts = append(charts, template.HTML(CurveSnapshotChart(a.Table, yieldOrder(a.Table, cfg.Maturities), cfg.Snapshots, cfg.Step, cfg.Chart)))

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, struct {
		Doc    *Document
		Charts []template.HTML
	}{d, charts}); err != nil {
		return "", fmt.Errorf("executing template: %w", err)
	}
	return buf.String(), nil
}
