package rabitq

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Example Prometheus integration:
//
//	type PrometheusCollector struct {
//	    encodeCounter   prometheus.Counter
//	    searchHistogram prometheus.Histogram
//	}
//
//	func (p *PrometheusCollector) RecordEncode(duration time.Duration, err error) {
//	    p.encodeCounter.Inc()
//	}
type MetricsCollector interface {
	// RecordEncode is called after each single-vector encode.
	RecordEncode(duration time.Duration, err error)

	// RecordBatchEncode is called after each batch encode with the number of
	// vectors submitted.
	RecordBatchEncode(count int, duration time.Duration, err error)

	// RecordSearch is called after each search with k and the number of
	// codes scanned.
	RecordSearch(k, scanned int, duration time.Duration, err error)

	// RecordLoad is called after a codec is deserialized.
	RecordLoad(bytes int, duration time.Duration, err error)

	// RecordSave is called after a codec is serialized.
	RecordSave(bytes int, duration time.Duration, err error)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordEncode(time.Duration, error)           {}
func (NoopMetricsCollector) RecordBatchEncode(int, time.Duration, error) {}
func (NoopMetricsCollector) RecordSearch(int, int, time.Duration, error) {}
func (NoopMetricsCollector) RecordLoad(int, time.Duration, error)        {}
func (NoopMetricsCollector) RecordSave(int, time.Duration, error)        {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	EncodeCount      atomic.Int64
	EncodeErrors     atomic.Int64
	EncodeTotalNanos atomic.Int64
	BatchCount       atomic.Int64
	BatchVectors     atomic.Int64
	BatchErrors      atomic.Int64
	SearchCount      atomic.Int64
	SearchErrors     atomic.Int64
	SearchScanned    atomic.Int64
	SearchTotalNanos atomic.Int64
	LoadCount        atomic.Int64
	LoadErrors       atomic.Int64
	LoadBytes        atomic.Int64
	SaveCount        atomic.Int64
	SaveErrors       atomic.Int64
	SaveBytes        atomic.Int64
}

// RecordEncode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEncode(duration time.Duration, err error) {
	b.EncodeCount.Add(1)
	b.EncodeTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.EncodeErrors.Add(1)
	}
}

// RecordBatchEncode implements MetricsCollector.
func (b *BasicMetricsCollector) RecordBatchEncode(count int, _ time.Duration, err error) {
	b.BatchCount.Add(1)
	b.BatchVectors.Add(int64(count))
	if err != nil {
		b.BatchErrors.Add(1)
	}
}

// RecordSearch implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSearch(_, scanned int, duration time.Duration, err error) {
	b.SearchCount.Add(1)
	b.SearchScanned.Add(int64(scanned))
	b.SearchTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SearchErrors.Add(1)
	}
}

// RecordLoad implements MetricsCollector.
func (b *BasicMetricsCollector) RecordLoad(bytes int, _ time.Duration, err error) {
	b.LoadCount.Add(1)
	if err != nil {
		b.LoadErrors.Add(1)
		return
	}
	b.LoadBytes.Add(int64(bytes))
}

// RecordSave implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSave(bytes int, _ time.Duration, err error) {
	b.SaveCount.Add(1)
	if err != nil {
		b.SaveErrors.Add(1)
		return
	}
	b.SaveBytes.Add(int64(bytes))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		EncodeCount:    b.EncodeCount.Load(),
		EncodeErrors:   b.EncodeErrors.Load(),
		EncodeAvgNanos: avg(b.EncodeTotalNanos.Load(), b.EncodeCount.Load()),
		BatchCount:     b.BatchCount.Load(),
		BatchVectors:   b.BatchVectors.Load(),
		BatchErrors:    b.BatchErrors.Load(),
		SearchCount:    b.SearchCount.Load(),
		SearchErrors:   b.SearchErrors.Load(),
		SearchScanned:  b.SearchScanned.Load(),
		SearchAvgNanos: avg(b.SearchTotalNanos.Load(), b.SearchCount.Load()),
		LoadCount:      b.LoadCount.Load(),
		LoadErrors:     b.LoadErrors.Load(),
		LoadBytes:      b.LoadBytes.Load(),
		SaveCount:      b.SaveCount.Load(),
		SaveErrors:     b.SaveErrors.Load(),
		SaveBytes:      b.SaveBytes.Load(),
	}
}

func avg(total, count int64) int64 {
	if count == 0 {
		return 0
	}
	return total / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	EncodeCount    int64
	EncodeErrors   int64
	EncodeAvgNanos int64
	BatchCount     int64
	BatchVectors   int64
	BatchErrors    int64
	SearchCount    int64
	SearchErrors   int64
	SearchScanned  int64
	SearchAvgNanos int64
	LoadCount      int64
	LoadErrors     int64
	LoadBytes      int64
	SaveCount      int64
	SaveErrors     int64
	SaveBytes      int64
}
