package yc_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okian/trendhub/internal/adapters/sources/httpx"
	"github.com/okian/trendhub/internal/adapters/sources/yc"
	"github.com/okian/trendhub/internal/domain/model"
)

const directory = `<!doctype html>
<html><body>
<nav><a href="/companies">Companies</a><a href="/companies/industry/fintech">Fintech</a></nav>
<div class="results">
  <a href="/companies/ledgerly" class="card">
    <span class="company-name">Ledgerly</span>
    <span class="company-description">Payments infrastructure for marketplaces</span>
    <span class="batch">W25</span>
    <div class="founder"><span class="founder-name">Ada  Byron</span><span class="founder-title">CEO</span></div>
    <div class="founder"><span class="founder-name">Grace Hopper</span></div>
  </a>
  <a href="/companies/ledgerly" class="card"><span class="company-name">Ledgerly</span></a>
  <a href="/companies/qx"><span class="company-name">QX</span></a>
  <a href="/companies/tidepool">
    <span class="company-name">Tidepool</span>
    <span class="company-description">Carbon accounting</span>
  </a>
</div>
</body></html>`

func newFetcher(t *testing.T, maxItems int) *yc.Fetcher {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/companies", r.URL.Path)
		_, _ = w.Write([]byte(directory))
	}))
	t.Cleanup(server.Close)
	return yc.New(yc.Config{BaseURL: server.URL, MaxItems: maxItems, Client: httpx.New(httpx.WithMaxTries(1))})
}

func TestCompanies(t *testing.T) {
	companies, err := newFetcher(t, 0).Companies(context.Background())
	require.NoError(t, err)
	require.Len(t, companies, 2, "nav links, duplicates and short names are skipped")

	assert.Equal(t, "Ledgerly", companies[0].Name)
	assert.Equal(t, "W25", companies[0].Batch)
	require.Len(t, companies[0].Founders, 2)
	assert.Equal(t, yc.Founder{Name: "Ada Byron", Title: "CEO"}, companies[0].Founders[0])
	assert.Equal(t, "Founder", companies[0].Founders[1].Title)
	assert.Equal(t, "tidepool", companies[1].Slug)
}

func TestFetchDeals(t *testing.T) {
	records, err := newFetcher(t, 0).Fetch(context.Background(), model.Deals, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "yc_ledgerly", records[0].ID)
	assert.Equal(t, "YC Batch", records[0].FundingType)
	assert.Equal(t, "fintech", records[0].Category)
	assert.Equal(t, "climate", records[1].Category)
	assert.Contains(t, records[0].Data["url"], "/companies/ledgerly")
}

func TestFetchFounders(t *testing.T) {
	records, err := newFetcher(t, 0).Fetch(context.Background(), model.Founders, nil)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, "Ada Byron", records[0].Name)
	assert.Equal(t, "CEO", records[0].Title)
	assert.Equal(t, "Ledgerly", records[0].Data["company"])
}

func TestFetchRespectsLimit(t *testing.T) {
	records, err := newFetcher(t, 1).Fetch(context.Background(), model.Deals, nil)
	require.NoError(t, err)
	assert.Len(t, records, 1)
}

func TestFetchTrendsUnsupported(t *testing.T) {
	records, err := yc.New(yc.Config{}).Fetch(context.Background(), model.Trends, nil)
	assert.NoError(t, err)
	assert.Empty(t, records)
}
