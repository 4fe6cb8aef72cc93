// Package pipeline runs one wildcard tally: it lists an owner's decks, fetches each
// deck through the batched fetcher and folds the results into per-format collections.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"

	"github.com/ramonehamilton/wildcard-tally/internal/fetcher"
	"github.com/ramonehamilton/wildcard-tally/internal/metrics"
	"github.com/ramonehamilton/wildcard-tally/internal/mtga/moxfield"
	"github.com/ramonehamilton/wildcard-tally/internal/mtga/wildcards"
)

// Options configures a run.
type Options struct {
	Owner     string
	StartPage int
	EndPage   int

	Lister moxfield.ListerOptions
	Fetch  fetcher.Options
	Policy wildcards.UnknownFormatPolicy
}

// RunStats counts decks through each stage of a run.
type RunStats struct {
	Listed    int // deck summaries found on the search pages
	Requested int // deck detail URLs fetched
	Tallied   int // decks that produced a tally
	Failed    int // decks with no payload or a build error
	Skipped   int // decks left out by the unknown format policy
}

// Report is the result of a run.
type Report struct {
	RunID       uuid.UUID
	Owner       string
	StartedAt   time.Time
	FinishedAt  time.Time
	Interrupted bool

	Tallies     []wildcards.DeckTally
	Collections []*wildcards.Collection
	Stats       RunStats
	Builder     wildcards.BuilderStats
	Fetch       metrics.FetchStats
}

// Totals returns the wildcard totals of each collection.
func (r *Report) Totals() []wildcards.CollectionTotal {
	return lo.Map(r.Collections, func(c *wildcards.Collection, _ int) wildcards.CollectionTotal {
		return wildcards.CollectionTotals(c)
	})
}

// Averages returns the average rarity make-up of the tallied decks per format.
func (r *Report) Averages() []wildcards.FormatAverage {
	return wildcards.AverageByFormat(r.Tallies)
}

// Pipeline ties the lister, fetcher and builder together.
type Pipeline struct {
	provider fetcher.Provider
	opts     Options
	logger   *zap.Logger
}

// New creates a Pipeline that loads pages through provider.
func New(provider fetcher.Provider, opts Options, logger *zap.Logger) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Pipeline{provider: provider, opts: opts, logger: logger}
}

// Run performs one tally. Individual page or deck failures are logged and counted,
// never returned; only invalid options fail the run. A cancelled context yields a
// partial report with Interrupted set.
func (p *Pipeline) Run(ctx context.Context) (*Report, error) {
	collections := wildcards.NewCollections()
	report := &Report{
		RunID:       uuid.New(),
		Owner:       p.opts.Owner,
		StartedAt:   time.Now(),
		Tallies:     []wildcards.DeckTally{},
		Collections: collections.All(),
	}
	log := p.logger.With(zap.String("run_id", report.RunID.String()))

	log.Info("Starting run",
		zap.String("owner", p.opts.Owner),
		zap.Int("start_page", p.opts.StartPage),
		zap.Int("end_page", p.opts.EndPage),
		zap.Int("chunk_size", p.opts.Fetch.ChunkSize),
		zap.Int("max_workers", p.opts.Fetch.MaxWorkers))

	fetchOpts := p.opts.Fetch
	if fetchOpts.Metrics == nil {
		fetchOpts.Metrics = metrics.NewFetchMetrics()
	}

	search := fetcher.New[moxfield.SearchResult](p.provider, moxfield.ExtractSearchResult, fetchOpts, log.Named("search"))
	lister := moxfield.NewLister(search, p.opts.Lister, log.Named("lister"))

	summaries, err := lister.ListDeckSummaries(ctx, p.opts.Owner, p.opts.StartPage, p.opts.EndPage)
	if err != nil {
		return nil, fmt.Errorf("list decks: %w", err)
	}
	report.Stats.Listed = len(summaries)

	urls := lo.Uniq(lister.DeckURLs(summaries))
	report.Stats.Requested = len(urls)

	builder := wildcards.NewBuilder(collections, p.opts.Policy, log.Named("builder"))

	if len(urls) == 0 {
		log.Info("No decks found")
	} else {
		details := fetcher.New[moxfield.Deck](p.provider, moxfield.ExtractDeck, fetchOpts, log.Named("details"))

		// Single consumer: every tally and merge happens on this goroutine.
		for res := range details.Stream(ctx, urls) {
			if res.Payload == nil {
				report.Stats.Failed++
				continue
			}

			tally, err := builder.Build(res.Payload)
			switch {
			case errors.Is(err, wildcards.ErrFormatDropped):
				report.Stats.Skipped++
			case err != nil:
				report.Stats.Failed++
				log.Warn("Failed to tally deck", zap.String("url", res.URL), zap.Error(err))
			default:
				report.Tallies = append(report.Tallies, tally)
				report.Stats.Tallied++
			}
		}
	}

	report.Builder = builder.Stats()
	report.Fetch = fetchOpts.Metrics.Stats()
	report.FinishedAt = time.Now()
	if ctx.Err() != nil {
		report.Interrupted = true
		log.Warn("Run interrupted", zap.Error(ctx.Err()))
	}

	fields := []zap.Field{
		zap.Int("listed", report.Stats.Listed),
		zap.Int("requested", report.Stats.Requested),
		zap.Int("tallied", report.Stats.Tallied),
		zap.Int("failed", report.Stats.Failed),
		zap.Int("skipped", report.Stats.Skipped),
		zap.Int64("entries_skipped", report.Builder.EntriesSkipped),
		zap.Int64("unknown_rarities", report.Builder.UnknownRarities),
		zap.Duration("took", report.FinishedAt.Sub(report.StartedAt)),
		zap.Object("fetch", report.Fetch),
	}
	for _, c := range report.Collections {
		fields = append(fields, zap.Int(c.Format().String()+"_cards", c.Len()))
	}
	log.Info("Run complete", fields...)

	return report, nil
}
