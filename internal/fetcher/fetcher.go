// Package fetcher retrieves many pages through a bounded pool of workers.
//
// URLs are split into fixed-size batches. Each batch is handled by one worker that
// opens a single provider session and visits the batch's URLs in order, so session
// setup is paid once per batch rather than once per URL.
package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ramonehamilton/wildcard-tally/internal/metrics"
)

const (
	// DefaultChunkSize is the number of URLs a worker handles per session.
	DefaultChunkSize = 10
	// DefaultMaxWorkers is the number of batches in flight at once.
	DefaultMaxWorkers = 1
)

// Session renders pages. A session is used by one worker at a time.
type Session interface {
	Fetch(ctx context.Context, url string) (string, error)
	Close() error
}

// Provider opens page sessions.
type Provider interface {
	NewSession(ctx context.Context) (Session, error)
}

// ExtractFunc turns rendered page text into a payload.
type ExtractFunc[T any] func(page string) (*T, error)

// Options configures batching and concurrency.
type Options struct {
	// ChunkSize is the maximum number of URLs per batch. Values below 1 mean 1.
	ChunkSize int
	// MaxWorkers bounds the batches processed concurrently. Values below 1 mean 1.
	MaxWorkers int
	// Metrics receives page and batch counters. Nil means a private collector.
	Metrics *metrics.FetchMetrics
}

// DefaultOptions returns the default batching options.
func DefaultOptions() Options {
	return Options{
		ChunkSize:  DefaultChunkSize,
		MaxWorkers: DefaultMaxWorkers,
	}
}

// Result is the outcome for one requested URL. Payload is nil when the URL could
// not be fetched or extracted, in which case Err says why.
type Result[T any] struct {
	URL     string
	Payload *T
	Err     error
}

// Results maps every requested URL to its payload, or nil when absent.
type Results[T any] map[string]*T

// Present returns the number of URLs that produced a payload.
func (r Results[T]) Present() int {
	n := 0
	for _, p := range r {
		if p != nil {
			n++
		}
	}
	return n
}

// Fetcher fetches and extracts pages in batches.
type Fetcher[T any] struct {
	provider Provider
	extract  ExtractFunc[T]
	opts     Options
	logger   *zap.Logger
}

// New creates a Fetcher. A nil logger disables logging.
func New[T any](provider Provider, extract ExtractFunc[T], opts Options, logger *zap.Logger) *Fetcher[T] {
	if opts.ChunkSize < 1 {
		opts.ChunkSize = 1
	}
	if opts.MaxWorkers < 1 {
		opts.MaxWorkers = 1
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NewFetchMetrics()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Fetcher[T]{
		provider: provider,
		extract:  extract,
		opts:     opts,
		logger:   logger,
	}
}

// Options returns the effective options.
func (f *Fetcher[T]) Options() Options {
	return f.opts
}

// Metrics returns the collector the fetcher reports to.
func (f *Fetcher[T]) Metrics() *metrics.FetchMetrics {
	return f.opts.Metrics
}

// Batches splits urls into contiguous batches of at most size URLs.
func Batches(urls []string, size int) [][]string {
	if size < 1 {
		size = 1
	}
	if len(urls) == 0 {
		return nil
	}
	return lo.Chunk(urls, size)
}

// Stream fetches urls and delivers one Result per distinct URL as batches finish.
// Results arrive in batch completion order. The channel is closed once every batch
// is done. Failures never stop other batches.
func (f *Fetcher[T]) Stream(ctx context.Context, urls []string) <-chan Result[T] {
	unique := lo.Uniq(urls)
	batches := Batches(unique, f.opts.ChunkSize)

	// Buffered for every URL so workers never wait on a slow consumer.
	out := make(chan Result[T], len(unique))

	f.logger.Debug("Dispatching batches",
		zap.Int("urls", len(unique)),
		zap.Int("batches", len(batches)),
		zap.Int("chunk_size", f.opts.ChunkSize),
		zap.Int("max_workers", f.opts.MaxWorkers))

	go func() {
		defer close(out)

		var g errgroup.Group
		g.SetLimit(f.opts.MaxWorkers)

		for i, batch := range batches {
			if err := ctx.Err(); err != nil {
				f.logger.Warn("Context done, skipping batch", zap.Int("batch", i), zap.Error(err))
				emitAbsent[T](out, batch, err)
				continue
			}
			i, batch := i, batch
			g.Go(func() error {
				for _, res := range f.runBatch(ctx, i, batch) {
					out <- res
				}
				return nil
			})
		}

		_ = g.Wait()
	}()

	return out
}

// FetchAll fetches urls and returns a mapping that contains exactly the requested
// URLs. URLs whose fetch or extraction failed map to nil.
func (f *Fetcher[T]) FetchAll(ctx context.Context, urls []string) Results[T] {
	results := make(Results[T], len(urls))
	for _, u := range urls {
		results[u] = nil
	}

	for res := range f.Stream(ctx, urls) {
		if res.Payload != nil {
			results[res.URL] = res.Payload
		}
	}

	f.logger.Info("Fetch complete",
		zap.Int("requested", len(results)),
		zap.Int("extracted", results.Present()))

	return results
}

// runBatch visits every URL of a batch on one session. A batch that cannot open
// its session, or that panics, yields an absent result for each of its URLs.
func (f *Fetcher[T]) runBatch(ctx context.Context, idx int, batch []string) (results []Result[T]) {
	log := f.logger.With(zap.Int("batch", idx), zap.Int("size", len(batch)))
	m := f.opts.Metrics
	defer m.BatchLatency.Since(time.Now())

	defer func() {
		if r := recover(); r != nil {
			m.BatchPanics.Add(1)
			err := fmt.Errorf("batch %d panicked: %v", idx, r)
			log.Error("Batch failed", zap.Error(err))
			results = absent[T](batch, err)
		}
	}()

	session, err := f.provider.NewSession(ctx)
	if err != nil {
		m.SessionErrors.Add(1)
		err = fmt.Errorf("open session for batch %d: %w", idx, err)
		log.Warn("Batch failed", zap.Error(err))
		return absent[T](batch, err)
	}
	m.SessionsOpened.Add(1)
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn("Failed to close session", zap.Error(err))
		}
	}()

	results = make([]Result[T], 0, len(batch))
	for _, url := range batch {
		if err := ctx.Err(); err != nil {
			results = append(results, Result[T]{URL: url, Err: err})
			continue
		}

		start := time.Now()
		page, err := session.Fetch(ctx, url)
		m.PageLatency.Since(start)
		if err != nil {
			m.FetchErrors.Add(1)
			log.Warn("Fetch failed", zap.String("url", url), zap.Error(err))
			results = append(results, Result[T]{URL: url, Err: fmt.Errorf("fetch %s: %w", url, err)})
			continue
		}

		m.PagesFetched.Add(1)

		payload, err := f.extract(page)
		if err != nil {
			m.ExtractErrors.Add(1)
			log.Warn("Extraction failed", zap.String("url", url), zap.Error(err))
			results = append(results, Result[T]{URL: url, Err: fmt.Errorf("extract %s: %w", url, err)})
			continue
		}

		results = append(results, Result[T]{URL: url, Payload: payload})
	}

	log.Debug("Batch done")
	return results
}

func absent[T any](batch []string, err error) []Result[T] {
	out := make([]Result[T], len(batch))
	for i, url := range batch {
		out[i] = Result[T]{URL: url, Err: err}
	}
	return out
}

func emitAbsent[T any](out chan<- Result[T], batch []string, err error) {
	for _, res := range absent[T](batch, err) {
		out <- res
	}
}
