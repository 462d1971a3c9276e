package datasource

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fedFeed = `<?xml version="1.0" encoding="utf-8"?>
<rss version="2.0">
<channel>
  <title>FRB: Monetary Policy</title>
  <item>
    <title>Federal Reserve issues FOMC statement</title>
    <link>https://www.federalreserve.gov/newsevents/pressreleases/monetary20240131a.htm</link>
    <pubDate>Wed, 31 Jan 2024 19:00:00 GMT</pubDate>
  </item>
  <item>
    <title><![CDATA[Minutes of the <b>FOMC</b> &amp; statement]]></title>
    <link>https://www.federalreserve.gov/minutes</link>
    <pubDate>Wed, 21 Feb 2024 19:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Older release</title>
    <link>https://www.federalreserve.gov/older</link>
    <pubDate>Wed, 13 Dec 2023 19:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

func TestFedNews_Latest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(fedFeed))
	}))
	defer srv.Close()

	n := NewFedNews(srv.URL)
	got, err := n.Latest(context.Background(), 2)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "Minutes of the FOMC & statement", got[0].Title)
	assert.Equal(t, "Federal Reserve issues FOMC statement", got[1].Title)
	assert.Equal(t, 2024, got[0].Published.Year())

	all, err := n.Latest(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)
	assert.Equal(t, "Older release", all[2].Title)
	assert.Equal(t, int32(1), hits.Load(), "second call is served from cache")
}

func TestFedNews_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewFedNews(srv.URL).Latest(context.Background(), 5)
	assert.Error(t, err)
}

func TestNewFedNews_DefaultURL(t *testing.T) {
	assert.Equal(t, DefaultFedFeedURL, NewFedNews("").url)
}

func TestCleanHTML(t *testing.T) {
	assert.Equal(t, "", cleanHTML(""))
	assert.Equal(t, "Rates held at 5.25%", cleanHTML("<p>Rates  held at\n 5.25%</p>"))
}
