package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/ramonehamilton/wildcard-tally/internal/fetcher"
	"github.com/ramonehamilton/wildcard-tally/internal/mtga/moxfield"
	"github.com/ramonehamilton/wildcard-tally/internal/mtga/wildcards"
	"github.com/ramonehamilton/wildcard-tally/internal/pagesource"
)

const testBase = "https://catalog.test"

// fakeCatalog serves canned JSON documents keyed by URL.
type fakeCatalog struct {
	mu    sync.Mutex
	pages map[string]string
	hits  map[string]int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{pages: make(map[string]string), hits: make(map[string]int)}
}

func (c *fakeCatalog) put(t *testing.T, url string, v any) {
	t.Helper()
	body, err := json.Marshal(v)
	require.NoError(t, err)
	c.pages[url] = pagesource.RenderJSONViewer(string(body))
}

func (c *fakeCatalog) NewSession(ctx context.Context) (fetcher.Session, error) {
	return c, nil
}

func (c *fakeCatalog) Fetch(ctx context.Context, url string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits[url]++
	page, ok := c.pages[url]
	if !ok {
		return "", &pagesource.ProviderError{URL: url, StatusCode: 404, Err: errors.New("not found")}
	}
	return page, nil
}

func (c *fakeCatalog) Close() error { return nil }

func qty(n int) *int { return &n }

func entry(id, rarity string, n int) moxfield.BoardEntry {
	return moxfield.BoardEntry{
		Quantity: qty(n),
		Card:     moxfield.CardInfo{UniqueCardID: id, Name: "card " + id, Rarity: rarity},
	}
}

func deck(name, format string, entries map[string]moxfield.BoardEntry) moxfield.Deck {
	return moxfield.Deck{
		Name:   name,
		Format: format,
		Boards: moxfield.Boards{Mainboard: moxfield.Board{Cards: entries}},
	}
}

func summary(id string) moxfield.DeckSummary {
	return moxfield.DeckSummary{ID: id, PublicID: id, PublicURL: "https://moxfield.test/decks/" + id}
}

func testOptions() Options {
	return Options{
		Owner:     "tester",
		StartPage: 1,
		EndPage:   2,
		Lister:    moxfield.ListerOptions{BaseURL: testBase, PageSize: 2},
		Fetch:     fetcher.Options{ChunkSize: 2, MaxWorkers: 3},
		Policy:    wildcards.PolicyOther,
	}
}

func searchURL(page int) string {
	return moxfield.SearchURL(testBase, "tester", page, 2)
}

func TestRun_TalliesAndMerges(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.put(t, searchURL(1), moxfield.SearchResult{Data: []moxfield.DeckSummary{summary("d1"), summary("d2")}})
	catalog.put(t, searchURL(2), moxfield.SearchResult{Data: []moxfield.DeckSummary{summary("d3"), summary("d1")}})

	catalog.put(t, moxfield.DeckURL(testBase, "d1"), deck("Brawl One", "historicBrawl", map[string]moxfield.BoardEntry{
		"x": entry("A", "common", 4),
		"y": entry("B", "mythic", 1),
	}))
	catalog.put(t, moxfield.DeckURL(testBase, "d2"), deck("Brawl Two", "HistoricBrawl", map[string]moxfield.BoardEntry{
		"x": entry("A", "common", 5),
	}))
	catalog.put(t, moxfield.DeckURL(testBase, "d3"), deck("Pioneer", "pioneer", map[string]moxfield.BoardEntry{
		"x": entry("C", "rare", 2),
	}))

	report, err := New(catalog, testOptions(), zap.NewNop()).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunStats{Listed: 3, Requested: 3, Tallied: 3}, report.Stats)
	assert.False(t, report.Interrupted)
	assert.Len(t, report.Tallies, 3)

	require.Len(t, report.Collections, 2)
	standard, brawl := report.Collections[0], report.Collections[1]
	assert.Equal(t, 0, standard.Len())

	a, ok := brawl.Get("A")
	require.True(t, ok)
	assert.Equal(t, 5, a.MaxQuantity)
	b, ok := brawl.Get("B")
	require.True(t, ok)
	assert.Equal(t, 1, b.MaxQuantity)
	_, ok = brawl.Get("C")
	assert.False(t, ok, "untracked formats are not collected")

	totals := report.Totals()
	assert.Equal(t, 5, totals[1].ByRarity[wildcards.RarityCommon])
	assert.Equal(t, 1, totals[1].ByRarity[wildcards.RarityMythic])

	// d1 is listed twice but fetched once.
	assert.Equal(t, 1, catalog.hits[moxfield.DeckURL(testBase, "d1")])
}

func TestRun_PartialFailures(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.put(t, searchURL(1), moxfield.SearchResult{Data: []moxfield.DeckSummary{summary("ok"), summary("missing"), summary("broken")}})
	// Page 2 is unreachable.

	catalog.put(t, moxfield.DeckURL(testBase, "ok"), deck("Good", "standard", map[string]moxfield.BoardEntry{
		"x": entry("A", "uncommon", 3),
	}))
	catalog.pages[moxfield.DeckURL(testBase, "broken")] = "<html><body>Just a moment...</body></html>"

	report, err := New(catalog, testOptions(), nil).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunStats{Listed: 3, Requested: 3, Tallied: 1, Failed: 2}, report.Stats)
	require.Len(t, report.Tallies, 1)
	assert.Equal(t, "Good", report.Tallies[0].DeckName)
	assert.Equal(t, 3, report.Tallies[0].Uncommon)
}

func TestRun_UnknownFormatPolicies(t *testing.T) {
	tests := []struct {
		policy    wildcards.UnknownFormatPolicy
		wantStats RunStats
	}{
		{wildcards.PolicyOther, RunStats{Listed: 1, Requested: 1, Tallied: 1}},
		{wildcards.PolicyDrop, RunStats{Listed: 1, Requested: 1, Skipped: 1}},
		{wildcards.PolicyError, RunStats{Listed: 1, Requested: 1, Failed: 1}},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			catalog := newFakeCatalog()
			catalog.put(t, searchURL(1), moxfield.SearchResult{Data: []moxfield.DeckSummary{summary("d1")}})
			catalog.put(t, moxfield.DeckURL(testBase, "d1"), deck("Odd", "oathbreaker", map[string]moxfield.BoardEntry{
				"x": entry("A", "rare", 1),
			}))

			opts := testOptions()
			opts.EndPage = 1
			opts.Policy = tt.policy

			report, err := New(catalog, opts, nil).Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.wantStats, report.Stats)
			if tt.policy == wildcards.PolicyOther {
				assert.Equal(t, wildcards.FormatOther, report.Tallies[0].Format)
			}
		})
	}
}

func TestRun_NoDecks(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	catalog := newFakeCatalog()
	catalog.put(t, searchURL(1), moxfield.SearchResult{})

	opts := testOptions()
	opts.EndPage = 1

	report, err := New(catalog, opts, zap.New(core)).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, RunStats{}, report.Stats)
	assert.NotNil(t, report.Tallies)
	assert.Empty(t, report.Tallies)
	assert.Len(t, report.Collections, 2)
	assert.Equal(t, 1, logs.FilterMessage("No decks found").Len())
	assert.Equal(t, 1, logs.FilterMessage("Run complete").Len())
}

func TestRun_InvalidOptions(t *testing.T) {
	opts := testOptions()
	opts.Owner = ""

	_, err := New(newFakeCatalog(), opts, nil).Run(context.Background())
	require.Error(t, err)
}

func TestRun_Cancelled(t *testing.T) {
	catalog := newFakeCatalog()
	for page := 1; page <= 2; page++ {
		catalog.put(t, searchURL(page), moxfield.SearchResult{Data: []moxfield.DeckSummary{summary(fmt.Sprintf("d%d", page))}})
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := New(catalog, testOptions(), nil).Run(ctx)
	require.NoError(t, err)
	assert.True(t, report.Interrupted)
	assert.Equal(t, 0, report.Stats.Tallied)
	assert.Empty(t, catalog.hits)
}

func TestRun_ReportsFetchMetrics(t *testing.T) {
	catalog := newFakeCatalog()
	catalog.put(t, searchURL(1), moxfield.SearchResult{Data: []moxfield.DeckSummary{summary("d1"), summary("gone")}})
	catalog.put(t, moxfield.DeckURL(testBase, "d1"), deck("One", "standard", map[string]moxfield.BoardEntry{
		"x": entry("A", "rare", 1),
	}))

	opts := testOptions()
	opts.EndPage = 1

	report, err := New(catalog, opts, nil).Run(context.Background())
	require.NoError(t, err)

	// One search page plus two deck pages were attempted; one deck page is missing.
	assert.Equal(t, uint64(2), report.Fetch.PagesFetched)
	assert.Equal(t, uint64(1), report.Fetch.FetchErrors)
	assert.Equal(t, 3, report.Fetch.PageLatency.Count)
}
