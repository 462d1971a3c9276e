package datasource

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/seenimoa/yieldwatch/internal/infra"
	"github.com/seenimoa/yieldwatch/pkg/models"
)

// DefaultFedFeedURL is the Federal Reserve monetary policy press release feed.
const DefaultFedFeedURL = "https://www.federalreserve.gov/feeds/press_monetary.xml"

// FedNews reads recent monetary-policy headlines from an RSS or Atom feed.
// Headlines are context for a report only; callers treat errors as non-fatal.
type FedNews struct {
	url     string
	cache   *infra.Cache
	limiter *infra.RateLimiter
	parser  *gofeed.Parser
}

// NewFedNews creates a headline source for feedURL, or the Fed feed if empty.
func NewFedNews(feedURL string) *FedNews {
	if feedURL == "" {
		feedURL = DefaultFedFeedURL
	}
	return &FedNews{
		url:     feedURL,
		cache:   infra.NewCache(10 * time.Minute),
		limiter: infra.NewRateLimiter(2, time.Second),
		parser:  gofeed.NewParser(),
	}
}

// Name returns the data source name.
func (n *FedNews) Name() string { return "Federal Reserve press releases" }

// Latest returns up to limit headlines, newest first. A limit <= 0 returns
// every item in the feed.
func (n *FedNews) Latest(ctx context.Context, limit int) ([]models.Headline, error) {
	all, err := n.headlines(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return append([]models.Headline(nil), all...), nil
}

func (n *FedNews) headlines(ctx context.Context) ([]models.Headline, error) {
	if cached, ok := n.cache.Get(n.url); ok {
		return cached.([]models.Headline), nil
	}
	if err := n.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	feed, err := n.parser.ParseURLWithContext(n.url, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", n.url, err)
	}

	out := make([]models.Headline, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := cleanHTML(item.Title)
		if title == "" {
			continue
		}
		h := models.Headline{Title: title, Link: item.Link}
		switch {
		case item.PublishedParsed != nil:
			h.Published = item.PublishedParsed.UTC()
		case item.UpdatedParsed != nil:
			h.Published = item.UpdatedParsed.UTC()
		}
		out = append(out, h)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Published.After(out[j].Published) })

	n.cache.Set(n.url, out)
	return out, nil
}

// cleanHTML strips tags and entities from feed text using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}
