package analysis

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricCommitsTotal       = "repostats.analysis.commits.total"
	metricChunksTotal        = "repostats.analysis.chunks.total"
	metricChunksDroppedTotal = "repostats.analysis.chunks.dropped.total"
	metricChunkDuration      = "repostats.analysis.chunk.duration.seconds"
	metricCacheLookupsTotal  = "repostats.analysis.cache.lookups.total"

	attrOutcome = "outcome"

	outcomeHit  = "hit"
	outcomeMiss = "miss"
)

// durationBucketBoundaries covers 10ms to 600s: chunk processing ranges
// from sub-second on small repositories to minutes on monorepos.
var durationBucketBoundaries = []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// Metrics holds the OTel instruments for the analysis engine.
// All recording methods are safe on a nil receiver (no-op).
type Metrics struct {
	commitsTotal  metric.Int64Counter
	chunksTotal   metric.Int64Counter
	chunksDropped metric.Int64Counter
	chunkDuration metric.Float64Histogram
	cacheLookups  metric.Int64Counter
}

// NewMetrics creates the analysis instruments from the given meter.
func NewMetrics(mt metric.Meter) (*Metrics, error) {
	b := newMetricBuilder(mt)

	m := &Metrics{
		commitsTotal:  b.counter(metricCommitsTotal, "Total commits processed", "{commit}"),
		chunksTotal:   b.counter(metricChunksTotal, "Total chunks completed", "{chunk}"),
		chunksDropped: b.counter(metricChunksDroppedTotal, "Chunks dropped after task failure", "{chunk}"),
		chunkDuration: b.histogram(metricChunkDuration, "Per-chunk processing duration in seconds", "s", durationBucketBoundaries...),
		cacheLookups:  b.counter(metricCacheLookupsTotal, "Result cache lookups by outcome", "{lookup}"),
	}

	if b.err != nil {
		return nil, b.err
	}

	return m, nil
}

// RecordChunk records one completed chunk of n commits.
func (m *Metrics) RecordChunk(ctx context.Context, commits int, duration time.Duration) {
	if m == nil {
		return
	}

	m.commitsTotal.Add(ctx, int64(commits))
	m.chunksTotal.Add(ctx, 1)
	m.chunkDuration.Record(ctx, duration.Seconds())
}

// RecordDroppedChunk records a chunk whose contribution was discarded.
func (m *Metrics) RecordDroppedChunk(ctx context.Context) {
	if m == nil {
		return
	}

	m.chunksDropped.Add(ctx, 1)
}

// RecordCacheLookup records a result cache hit or miss.
func (m *Metrics) RecordCacheLookup(ctx context.Context, hit bool) {
	if m == nil {
		return
	}

	outcome := outcomeMiss
	if hit {
		outcome = outcomeHit
	}

	m.cacheLookups.Add(ctx, 1, metric.WithAttributes(attribute.String(attrOutcome, outcome)))
}

// metricBuilder accumulates OTel instrument creation errors,
// enabling batch construction with a single error check.
type metricBuilder struct {
	meter metric.Meter
	err   error
}

// newMetricBuilder creates a builder for the given meter.
func newMetricBuilder(mt metric.Meter) *metricBuilder {
	return &metricBuilder{meter: mt}
}

// counter creates an Int64Counter instrument.
func (b *metricBuilder) counter(name, desc, unit string) metric.Int64Counter {
	c, err := b.meter.Int64Counter(name, metric.WithDescription(desc), metric.WithUnit(unit))
	b.setErr(name, err)

	return c
}

// histogram creates a Float64Histogram instrument with optional explicit bucket boundaries.
func (b *metricBuilder) histogram(name, desc, unit string, bounds ...float64) metric.Float64Histogram {
	opts := []metric.Float64HistogramOption{
		metric.WithDescription(desc),
		metric.WithUnit(unit),
	}

	if len(bounds) > 0 {
		opts = append(opts, metric.WithExplicitBucketBoundaries(bounds...))
	}

	h, err := b.meter.Float64Histogram(name, opts...)
	b.setErr(name, err)

	return h
}

// setErr records the first instrument creation error.
func (b *metricBuilder) setErr(name string, err error) {
	if err != nil && b.err == nil {
		b.err = fmt.Errorf("create %s: %w", name, err)
	}
}
