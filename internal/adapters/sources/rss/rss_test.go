package rss_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/trendhub/internal/adapters/sources/rss"
	"github.com/okian/trendhub/internal/domain/model"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
  <title>Startup Wire</title>
  <item>
    <title>Orbital raises Series A to build satellite payments</title>
    <link>https://wire.example/orbital</link>
    <description><![CDATA[<p>Orbital <b>closed</b> a round.</p>]]></description>
    <pubDate>Sat, 31 May 2025 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Kubernetes operators keep getting better</title>
    <link>https://wire.example/k8s</link>
    <pubDate>Fri, 30 May 2025 10:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Jane Doe, co-founder of Orbital, on building in orbit</title>
    <link>https://wire.example/jane</link>
    <pubDate>Sat, 31 May 2025 11:00:00 GMT</pubDate>
  </item>
  <item>
    <title>Ancient history</title>
    <link>https://wire.example/old</link>
    <pubDate>Mon, 06 Jan 2025 10:00:00 GMT</pubDate>
  </item>
</channel>
</rss>`

var now = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func serve(t *testing.T) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/broken" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(feedXML))
	}))
	t.Cleanup(server.Close)
	return server.URL
}

func TestFetchTrends(t *testing.T) {
	base := serve(t)
	f := rss.New(rss.Config{Feeds: []string{base + "/feed", base + "/broken"}, Now: func() time.Time { return now }})

	records, err := f.Fetch(context.Background(), model.Trends, nil)
	require.NoError(t, err)
	require.Len(t, records, 3, "old items are dropped and a broken feed is skipped")

	assert.Equal(t, "Orbital raises", records[0].Name)
	assert.Equal(t, "fintech", records[0].Category)
	assert.Equal(t, "Orbital closed a round.", records[0].Data["description"])
	assert.Equal(t, "Startup Wire", records[0].Data["feed"])
	require.NotNil(t, records[0].CreatedAt)
	assert.Equal(t, 31, records[0].CreatedAt.Day())
}

func TestFetchDeals(t *testing.T) {
	base := serve(t)
	f := rss.New(rss.Config{Feeds: []string{base + "/feed"}, Now: func() time.Time { return now }})

	records, err := f.Fetch(context.Background(), model.Deals, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Orbital", records[0].CompanyName)
	assert.Equal(t, "Seed/Series A", records[0].FundingType)
}

func TestFetchAllFeedsBroken(t *testing.T) {
	base := serve(t)
	f := rss.New(rss.Config{Feeds: []string{base + "/broken"}})

	_, err := f.Fetch(context.Background(), model.Trends, nil)
	assert.Error(t, err)
}

func TestFetchNoFeeds(t *testing.T) {
	_, err := rss.New(rss.Config{}).Fetch(context.Background(), model.Trends, nil)
	assert.ErrorIs(t, err, rss.ErrNoFeeds)

	records, err := rss.New(rss.Config{}).Fetch(context.Background(), model.Capability("weather"), nil)
	assert.NoError(t, err)
	assert.Empty(t, records)
}

func TestFetchFounders(t *testing.T) {
	base := serve(t)
	f := rss.New(rss.Config{Feeds: []string{base + "/feed"}, Now: func() time.Time { return now }})

	records, err := f.Fetch(context.Background(), model.Founders, nil)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "Jane Doe", records[0].Name)
	assert.Equal(t, "Founder", records[0].Title)
	assert.Equal(t, model.Founders, records[0].Kind)
}
