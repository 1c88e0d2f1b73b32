package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	metricFramesTotal    = "seedpyramid.frames.total"
	metricFrameDuration  = "seedpyramid.frame.duration.seconds"
	metricPointsTotal    = "seedpyramid.points.total"
	metricSeedsAdded     = "seedpyramid.seeds.added.total"
	metricSeedsRemoved   = "seedpyramid.seeds.removed.total"
	metricCellsInspected = "seedpyramid.cells.inspected.total"
	metricDaysEvicted    = "seedpyramid.window.evicted.total"
	metricSeedsDisplayed = "seedpyramid.seeds.displayed"

	attrDataset = "dataset"
	attrFirst   = "first"
)

// frameBucketBoundaries covers 100µs to 10s: small grids finish in well
// under a millisecond, a full 8192² pyramid takes seconds.
var frameBucketBoundaries = []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

// FrameStats is what one executed frame contributes to the metrics.
type FrameStats struct {
	Points    int
	Added     int
	Removed   int
	Inspected int
	Evicted   int
	Displayed int
	First     bool
	Duration  time.Duration
}

// SamplerMetrics holds the OTel instruments for per-frame sampler work.
type SamplerMetrics struct {
	framesTotal    metric.Int64Counter
	frameDuration  metric.Float64Histogram
	pointsTotal    metric.Int64Counter
	seedsAdded     metric.Int64Counter
	seedsRemoved   metric.Int64Counter
	cellsInspected metric.Int64Counter
	daysEvicted    metric.Int64Counter
	seedsDisplayed metric.Int64Gauge
}

// NewSamplerMetrics creates sampler metric instruments from the given meter.
func NewSamplerMetrics(mt metric.Meter) (*SamplerMetrics, error) {
	var (
		sm  SamplerMetrics
		err error
	)

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
		unit string
	}{
		{&sm.framesTotal, metricFramesTotal, "Total number of executed frames", "{frame}"},
		{&sm.pointsTotal, metricPointsTotal, "Total number of ingested points", "{point}"},
		{&sm.seedsAdded, metricSeedsAdded, "Seeds added to the display", "{seed}"},
		{&sm.seedsRemoved, metricSeedsRemoved, "Seeds removed from the display", "{seed}"},
		{&sm.cellsInspected, metricCellsInspected, "Finest bins compared by the frame differ", "{cell}"},
		{&sm.daysEvicted, metricDaysEvicted, "Day buckets evicted from the time window", "{day}"},
	}

	for _, c := range counters {
		*c.dst, err = mt.Int64Counter(c.name, metric.WithDescription(c.desc), metric.WithUnit(c.unit))
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", c.name, err)
		}
	}

	sm.frameDuration, err = mt.Float64Histogram(metricFrameDuration,
		metric.WithDescription("Frame execution duration in seconds"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(frameBucketBoundaries...),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricFrameDuration, err)
	}

	sm.seedsDisplayed, err = mt.Int64Gauge(metricSeedsDisplayed,
		metric.WithDescription("Seeds displayed after the latest frame"),
		metric.WithUnit("{seed}"),
	)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", metricSeedsDisplayed, err)
	}

	return &sm, nil
}

// RecordFrame records one executed frame of dataset. Safe on a nil receiver.
func (sm *SamplerMetrics) RecordFrame(ctx context.Context, dataset string, st FrameStats) {
	if sm == nil {
		return
	}

	ds := metric.WithAttributes(attribute.String(attrDataset, dataset))

	sm.framesTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String(attrDataset, dataset),
		attribute.Bool(attrFirst, st.First),
	))
	sm.frameDuration.Record(ctx, st.Duration.Seconds(), ds)
	sm.pointsTotal.Add(ctx, int64(st.Points), ds)
	sm.seedsAdded.Add(ctx, int64(st.Added), ds)
	sm.seedsRemoved.Add(ctx, int64(st.Removed), ds)
	sm.cellsInspected.Add(ctx, int64(st.Inspected), ds)
	sm.daysEvicted.Add(ctx, int64(st.Evicted), ds)
	sm.seedsDisplayed.Record(ctx, int64(st.Displayed), ds)
}
