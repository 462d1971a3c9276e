// Package treasury implements a provider that scrapes the U.S. Treasury's
// daily par yield curve rates from the home.treasury.gov TextView pages.
// One HTML page covers one calendar year and every maturity.
package treasury

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/seenimoa/yieldwatch/internal/infra"
	"github.com/seenimoa/yieldwatch/internal/provider"
	"github.com/seenimoa/yieldwatch/pkg/models"
)

const (
	providerName   = "treasury"
	defaultBaseURL = "https://home.treasury.gov/resource-center/data-chart-center/interest-rates/TextView"

	// Past years never change; the current year is refetched after this.
	pageTTL = 6 * time.Hour
)

// columns maps maturity labels to the Treasury table header text.
var columns = []struct {
	Label  string
	Header string
}{
	{models.Maturity3M, "3 Mo"},
	{models.Maturity2Y, "2 Yr"},
	{models.Maturity5Y, "5 Yr"},
	{models.Maturity10Y, "10 Yr"},
	{models.Maturity30Y, "30 Yr"},
}

// Maturities returns the labels served by this provider.
func Maturities() []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Label
	}
	return out
}

func headerFor(label string) (string, bool) {
	for _, c := range columns {
		if c.Label == label {
			return c.Header, true
		}
	}
	return "", false
}

// Provider implements provider.Provider for treasury.gov.
type Provider struct {
	provider.BaseProvider
	baseURL string
	pages   *infra.Cache // year → yearTable
}

// Option configures a Provider.
type Option func(*Provider)

// WithBaseURL points the provider at another page root, e.g. a test server.
func WithBaseURL(u string) Option {
	return func(p *Provider) { p.baseURL = u }
}

// New creates a treasury.gov provider.
func New(opts ...Option) *Provider {
	p := &Provider{
		BaseProvider: provider.NewBaseProvider(
			providerName,
			"U.S. Department of the Treasury - daily par yield curve rates",
			"https://home.treasury.gov",
			nil,
		),
		baseURL: defaultBaseURL,
		pages:   infra.NewCache(pageTTL),
	}
	for _, o := range opts {
		o(p)
	}
	p.RegisterFetcher(newParYieldFetcher(p))
	p.SetMaturities(Maturities())
	return p
}

// Ping fetches the current year's page.
func (p *Provider) Ping(ctx context.Context) error {
	if _, err := p.year(ctx, time.Now().Year()); err != nil {
		return fmt.Errorf("treasury ping: %w", err)
	}
	return nil
}

// yearTable holds one page's observations keyed by maturity label.
type yearTable map[string][]models.Observation

func (p *Provider) pageURL(year int) string {
	return fmt.Sprintf("%s?type=daily_treasury_yield_curve&field_tdr_date_value=%d", p.baseURL, year)
}

// year returns the parsed table for one calendar year, from cache if possible.
func (p *Provider) year(ctx context.Context, year int) (yearTable, error) {
	key := strconv.Itoa(year)
	if v, ok := p.pages.Get(key); ok {
		return v.(yearTable), nil
	}

	body, _, err := infra.DoGet(ctx, p.pageURL(year), map[string]string{"Accept": "text/html"})
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse treasury HTML: %w", err)
	}
	t, err := parseTable(doc)
	if err != nil {
		return nil, fmt.Errorf("treasury %d: %w", year, err)
	}
	p.pages.Set(key, t)
	return t, nil
}

// parseTable reads the first table whose header row has a "Date" column.
// Cells reading "N/A" or blank are skipped.
func parseTable(doc *goquery.Document) (yearTable, error) {
	var (
		found   bool
		dateCol = -1
		colIdx  = map[string]int{}
		out     = yearTable{}
	)

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		table.Find("thead th").Each(func(i int, th *goquery.Selection) {
			h := strings.TrimSpace(th.Text())
			if strings.EqualFold(h, "Date") {
				dateCol = i
			}
			for _, c := range columns {
				if h == c.Header {
					colIdx[c.Label] = i
				}
			}
		})
		if dateCol < 0 {
			colIdx = map[string]int{}
			return true
		}
		found = true

		table.Find("tbody tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td").Map(func(_ int, td *goquery.Selection) string {
				return strings.TrimSpace(td.Text())
			})
			if dateCol >= len(cells) {
				return
			}
			d, err := time.Parse("01/02/2006", cells[dateCol])
			if err != nil {
				return
			}
			for label, i := range colIdx {
				if i >= len(cells) {
					continue
				}
				v, err := strconv.ParseFloat(cells[i], 64)
				if err != nil {
					continue
				}
				out[label] = append(out[label], models.Observation{Date: d, Value: v})
			}
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("no yield table found")
	}
	return out, nil
}
