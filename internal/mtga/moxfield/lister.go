package moxfield

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ramonehamilton/wildcard-tally/internal/fetcher"
)

// ListerOptions configures deck listing.
type ListerOptions struct {
	BaseURL  string
	PageSize int
}

// DefaultListerOptions returns the default listing options.
func DefaultListerOptions() ListerOptions {
	return ListerOptions{
		BaseURL:  DefaultAPIBaseURL,
		PageSize: DefaultPageSize,
	}
}

// Lister discovers the decks that belong to an owner.
type Lister struct {
	fetcher *fetcher.Fetcher[SearchResult]
	opts    ListerOptions
	logger  *zap.Logger
}

// NewLister creates a Lister that fetches search pages through f.
func NewLister(f *fetcher.Fetcher[SearchResult], opts ListerOptions, logger *zap.Logger) *Lister {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultAPIBaseURL
	}
	if opts.PageSize <= 0 {
		opts.PageSize = DefaultPageSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Lister{fetcher: f, opts: opts, logger: logger}
}

// PageURLs returns the search URL of every page in [startPage, endPage].
func (l *Lister) PageURLs(owner string, startPage, endPage int) []string {
	urls := make([]string, 0, endPage-startPage+1)
	for page := startPage; page <= endPage; page++ {
		urls = append(urls, SearchURL(l.opts.BaseURL, owner, page, l.opts.PageSize))
	}
	return urls
}

// ListDeckSummaries returns the decks found on pages startPage..endPage of the
// owner's profile, in the order pages complete. Failed or empty pages are logged
// and skipped. A deck seen on more than one page is reported once.
func (l *Lister) ListDeckSummaries(ctx context.Context, owner string, startPage, endPage int) ([]DeckSummary, error) {
	if owner == "" {
		return nil, fmt.Errorf("owner is required")
	}
	if startPage < 1 || endPage < startPage {
		return nil, fmt.Errorf("invalid page range %d-%d", startPage, endPage)
	}

	urls := l.PageURLs(owner, startPage, endPage)
	pageOf := make(map[string]int, len(urls))
	for i, u := range urls {
		pageOf[u] = startPage + i
	}

	var summaries []DeckSummary
	seen := make(map[string]bool)

	for res := range l.fetcher.Stream(ctx, urls) {
		page := pageOf[res.URL]
		if res.Payload == nil {
			l.logger.Warn("No data returned for page", zap.Int("page", page), zap.Error(res.Err))
			continue
		}
		if len(res.Payload.Data) == 0 {
			l.logger.Info("Page has no decks", zap.Int("page", page))
			continue
		}

		for _, s := range res.Payload.Data {
			key := DeckID(s)
			if key == "" {
				key = s.ID
			}
			if key != "" {
				if seen[key] {
					continue
				}
				seen[key] = true
			}
			summaries = append(summaries, s)
		}
	}

	l.logger.Info("Fetched deck summaries",
		zap.String("owner", owner),
		zap.Int("pages", len(urls)),
		zap.Int("decks", len(summaries)))

	return summaries, nil
}

// DeckURLs maps summaries to their detail URLs, skipping any without an id.
func (l *Lister) DeckURLs(summaries []DeckSummary) []string {
	urls := make([]string, 0, len(summaries))
	for _, s := range summaries {
		id := DeckID(s)
		if id == "" {
			l.logger.Warn("Deck summary has no public id", zap.String("name", s.Name))
			continue
		}
		urls = append(urls, DeckURL(l.opts.BaseURL, id))
	}
	return urls
}
