// Package metrics collects in-process counters and latency distributions for a run.
package metrics

import (
	"sync/atomic"
	"time"

	"go.uber.org/zap/zapcore"
)

// FetchMetrics tracks page retrieval across every batch of a run.
// All methods are safe for concurrent use.
type FetchMetrics struct {
	PageLatency  *Histogram
	BatchLatency *Histogram

	PagesFetched   atomic.Uint64
	FetchErrors    atomic.Uint64
	ExtractErrors  atomic.Uint64
	SessionsOpened atomic.Uint64
	SessionErrors  atomic.Uint64
	BatchPanics    atomic.Uint64

	startTime time.Time
}

// NewFetchMetrics creates an empty collector.
func NewFetchMetrics() *FetchMetrics {
	return &FetchMetrics{
		PageLatency:  NewHistogram(DefaultHistogramSize),
		BatchLatency: NewHistogram(DefaultHistogramSize),
		startTime:    time.Now(),
	}
}

// FetchStats is a snapshot of FetchMetrics.
type FetchStats struct {
	PageLatency    LatencyStats `json:"page_latency"`
	BatchLatency   LatencyStats `json:"batch_latency"`
	PagesFetched   uint64       `json:"pages_fetched"`
	FetchErrors    uint64       `json:"fetch_errors"`
	ExtractErrors  uint64       `json:"extract_errors"`
	SessionsOpened uint64       `json:"sessions_opened"`
	SessionErrors  uint64       `json:"session_errors"`
	BatchPanics    uint64       `json:"batch_panics"`
	SuccessRate    float64      `json:"success_rate"` // percentage of attempted pages extracted
	Elapsed        string       `json:"elapsed"`
}

// Stats returns a snapshot of the current values.
func (m *FetchMetrics) Stats() FetchStats {
	fetched := m.PagesFetched.Load()
	fetchErrors := m.FetchErrors.Load()
	extractErrors := m.ExtractErrors.Load()

	successRate := 0.0
	if attempted := fetched + fetchErrors; attempted > 0 {
		successRate = float64(fetched-extractErrors) / float64(attempted) * 100
	}

	return FetchStats{
		PageLatency:    m.PageLatency.Stats(),
		BatchLatency:   m.BatchLatency.Stats(),
		PagesFetched:   fetched,
		FetchErrors:    fetchErrors,
		ExtractErrors:  extractErrors,
		SessionsOpened: m.SessionsOpened.Load(),
		SessionErrors:  m.SessionErrors.Load(),
		BatchPanics:    m.BatchPanics.Load(),
		SuccessRate:    successRate,
		Elapsed:        time.Since(m.startTime).Round(time.Millisecond).String(),
	}
}

// MarshalLogObject lets a snapshot be logged with zap.Object.
func (s FetchStats) MarshalLogObject(enc zapcore.ObjectEncoder) error {
	enc.AddUint64("pages_fetched", s.PagesFetched)
	enc.AddUint64("fetch_errors", s.FetchErrors)
	enc.AddUint64("extract_errors", s.ExtractErrors)
	enc.AddUint64("sessions_opened", s.SessionsOpened)
	enc.AddUint64("session_errors", s.SessionErrors)
	enc.AddUint64("batch_panics", s.BatchPanics)
	enc.AddFloat64("success_rate", s.SuccessRate)
	enc.AddFloat64("page_p50_ms", s.PageLatency.P50)
	enc.AddFloat64("page_p95_ms", s.PageLatency.P95)
	enc.AddFloat64("batch_max_ms", s.BatchLatency.Max)
	enc.AddString("elapsed", s.Elapsed)
	return nil
}
