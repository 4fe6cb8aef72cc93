package fetcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ramonehamilton/wildcard-tally/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type page struct {
	Value string
}

// extractPage treats the page text as the payload; "bad" fails extraction.
func extractPage(text string) (*page, error) {
	if text == "bad" {
		return nil, errors.New("bad page")
	}
	return &page{Value: text}, nil
}

// fakeProvider records how URLs were grouped into sessions.
type fakeProvider struct {
	mu       sync.Mutex
	sessions [][]string

	failOpen  func(n int) bool
	fetchErr  map[string]error
	panicOn   string
	delay     time.Duration
	opened    atomic.Int32
	active    atomic.Int32
	maxActive atomic.Int32
}

func (p *fakeProvider) NewSession(ctx context.Context) (Session, error) {
	n := int(p.opened.Add(1))
	if p.failOpen != nil && p.failOpen(n) {
		return nil, fmt.Errorf("session %d refused", n)
	}

	p.mu.Lock()
	idx := len(p.sessions)
	p.sessions = append(p.sessions, nil)
	p.mu.Unlock()

	active := p.active.Add(1)
	for {
		cur := p.maxActive.Load()
		if active <= cur || p.maxActive.CompareAndSwap(cur, active) {
			break
		}
	}
	return &fakeSession{provider: p, idx: idx}, nil
}

func (p *fakeProvider) batches() [][]string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([][]string, 0, len(p.sessions))
	for _, s := range p.sessions {
		if len(s) > 0 {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i][0] < out[j][0] })
	return out
}

type fakeSession struct {
	provider *fakeProvider
	idx      int
}

func (s *fakeSession) Fetch(ctx context.Context, url string) (string, error) {
	p := s.provider
	p.mu.Lock()
	p.sessions[s.idx] = append(p.sessions[s.idx], url)
	p.mu.Unlock()

	if p.delay > 0 {
		time.Sleep(p.delay)
	}
	if url == p.panicOn {
		panic("boom")
	}
	if err := p.fetchErr[url]; err != nil {
		return "", err
	}
	return strings.TrimPrefix(url, "u:"), nil
}

func (s *fakeSession) Close() error {
	s.provider.active.Add(-1)
	return nil
}

func urls(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("u:%02d", i+1)
	}
	return out
}

func TestBatches(t *testing.T) {
	got := Batches([]string{"u1", "u2", "u3"}, 2)
	want := [][]string{{"u1", "u2"}, {"u3"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Batches mismatch (-want +got):\n%s", diff)
	}

	assert.Nil(t, Batches(nil, 2))
	assert.Len(t, Batches([]string{"a", "b"}, 0), 2, "size below 1 means 1")
}

func TestFetchAll_PartitionsAndReturnsExactKeys(t *testing.T) {
	p := &fakeProvider{}
	f := New[page](p, extractPage, Options{ChunkSize: 2, MaxWorkers: 2}, nil)

	results := f.FetchAll(context.Background(), []string{"u:1", "u:2", "u:3"})

	want := Results[page]{
		"u:1": {Value: "1"},
		"u:2": {Value: "2"},
		"u:3": {Value: "3"},
	}
	if diff := cmp.Diff(want, results); diff != "" {
		t.Errorf("FetchAll mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, [][]string{{"u:1", "u:2"}, {"u:3"}}, p.batches())
}

func TestFetchAll_ExtractAndFetchFailuresAreAbsent(t *testing.T) {
	p := &fakeProvider{fetchErr: map[string]error{"u:02": errors.New("timeout")}}
	extract := func(text string) (*page, error) {
		if text == "03" {
			return nil, errors.New("no payload")
		}
		return extractPage(text)
	}
	f := New[page](p, extract, Options{ChunkSize: 5, MaxWorkers: 1}, nil)

	results := f.FetchAll(context.Background(), urls(4))

	require.Len(t, results, 4)
	assert.NotNil(t, results["u:01"])
	assert.Nil(t, results["u:02"])
	assert.Nil(t, results["u:03"])
	assert.NotNil(t, results["u:04"], "later URLs in the batch still run")
	assert.Equal(t, 2, results.Present())
}

func TestFetchAll_FailedSessionOnlyAffectsItsBatch(t *testing.T) {
	p := &fakeProvider{failOpen: func(n int) bool { return n == 1 }}
	f := New[page](p, extractPage, Options{ChunkSize: 2, MaxWorkers: 1}, nil)

	in := urls(6)
	results := f.FetchAll(context.Background(), in)

	require.Len(t, results, 6)
	assert.Nil(t, results["u:01"])
	assert.Nil(t, results["u:02"])
	for _, u := range in[2:] {
		assert.NotNil(t, results[u], u)
	}
}

func TestStream_PanicIsContainedToBatch(t *testing.T) {
	p := &fakeProvider{panicOn: "u:02"}
	f := New[page](p, extractPage, Options{ChunkSize: 2, MaxWorkers: 2}, nil)

	got := make(map[string]Result[page])
	for res := range f.Stream(context.Background(), urls(4)) {
		got[res.URL] = res
	}

	require.Len(t, got, 4)
	assert.Nil(t, got["u:01"].Payload, "a panicking batch contributes nothing")
	assert.Nil(t, got["u:02"].Payload)
	assert.Error(t, got["u:02"].Err)
	assert.NotNil(t, got["u:03"].Payload)
	assert.NotNil(t, got["u:04"].Payload)
}

func TestFetchAll_DuplicatesFetchedOnce(t *testing.T) {
	p := &fakeProvider{}
	f := New[page](p, extractPage, Options{ChunkSize: 10, MaxWorkers: 1}, nil)

	results := f.FetchAll(context.Background(), []string{"u:1", "u:2", "u:1"})

	assert.Len(t, results, 2)
	assert.Equal(t, [][]string{{"u:1", "u:2"}}, p.batches())
}

func TestFetchAll_Empty(t *testing.T) {
	f := New[page](&fakeProvider{}, extractPage, DefaultOptions(), nil)
	results := f.FetchAll(context.Background(), nil)
	assert.Empty(t, results)
}

func TestStream_RespectsMaxWorkers(t *testing.T) {
	p := &fakeProvider{delay: 5 * time.Millisecond}
	f := New[page](p, extractPage, Options{ChunkSize: 1, MaxWorkers: 3}, nil)

	results := f.FetchAll(context.Background(), urls(12))

	assert.Equal(t, 12, results.Present())
	assert.LessOrEqual(t, p.maxActive.Load(), int32(3))
	assert.Equal(t, int32(12), p.opened.Load(), "one session per batch")
}

func TestStream_CancelledContext(t *testing.T) {
	p := &fakeProvider{}
	f := New[page](p, extractPage, Options{ChunkSize: 2, MaxWorkers: 1}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results := f.FetchAll(ctx, urls(5))

	require.Len(t, results, 5)
	assert.Equal(t, 0, results.Present())
	assert.Equal(t, int32(0), p.opened.Load())
}

func TestNew_ClampsOptions(t *testing.T) {
	f := New[page](&fakeProvider{}, extractPage, Options{ChunkSize: 0, MaxWorkers: -3}, nil)
	assert.Equal(t, 1, f.Options().ChunkSize)
	assert.Equal(t, 1, f.Options().MaxWorkers)
	assert.NotNil(t, f.Metrics())
}

func TestFetchAll_RecordsMetrics(t *testing.T) {
	p := &fakeProvider{
		failOpen: func(n int) bool { return n == 3 },
		fetchErr: map[string]error{"u:01": errors.New("reset")},
	}
	m := metrics.NewFetchMetrics()
	extract := func(text string) (*page, error) {
		if text == "02" {
			return nil, errors.New("no payload")
		}
		return extractPage(text)
	}
	f := New[page](p, extract, Options{ChunkSize: 2, MaxWorkers: 1, Metrics: m}, nil)

	f.FetchAll(context.Background(), urls(6))

	stats := m.Stats()
	assert.Equal(t, uint64(2), stats.SessionsOpened)
	assert.Equal(t, uint64(1), stats.SessionErrors)
	assert.Equal(t, uint64(1), stats.FetchErrors)
	assert.Equal(t, uint64(3), stats.PagesFetched)
	assert.Equal(t, uint64(1), stats.ExtractErrors)
	assert.Equal(t, 4, stats.PageLatency.Count)
	assert.Equal(t, 3, stats.BatchLatency.Count)
	assert.InDelta(t, 50.0, stats.SuccessRate, 0.001)
}
