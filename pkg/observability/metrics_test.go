package observability_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/Sumatoshi-tech/seedpyramid/pkg/observability"
)

func setupTestMeter(t *testing.T) (*observability.SamplerMetrics, *sdkmetric.ManualReader) {
	t.Helper()

	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	sm, err := observability.NewSamplerMetrics(mp.Meter("test"))
	require.NoError(t, err)

	return sm, reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()

	var rm metricdata.ResourceMetrics

	require.NoError(t, reader.Collect(context.Background(), &rm))

	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for idx := range rm.ScopeMetrics {
		for midx := range rm.ScopeMetrics[idx].Metrics {
			if rm.ScopeMetrics[idx].Metrics[midx].Name == name {
				return &rm.ScopeMetrics[idx].Metrics[midx]
			}
		}
	}

	return nil
}

func sumOf(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()

	m := findMetric(rm, name)
	require.NotNil(t, m, "%s metric not found", name)

	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "%s is not an int64 sum", name)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}

	return total
}

func TestSamplerMetrics_RecordFrame(t *testing.T) {
	t.Parallel()

	sm, reader := setupTestMeter(t)
	ctx := context.Background()

	sm.RecordFrame(ctx, "a.csv", observability.FrameStats{
		Points: 100, Added: 12, Inspected: 64, Displayed: 12, First: true, Duration: 2 * time.Millisecond,
	})
	sm.RecordFrame(ctx, "a.csv", observability.FrameStats{
		Points: 50, Added: 3, Removed: 5, Inspected: 16, Evicted: 1, Displayed: 10, Duration: time.Millisecond,
	})

	rm := collectMetrics(t, reader)

	assert.Equal(t, int64(2), sumOf(t, rm, "seedpyramid.frames.total"))
	assert.Equal(t, int64(150), sumOf(t, rm, "seedpyramid.points.total"))
	assert.Equal(t, int64(15), sumOf(t, rm, "seedpyramid.seeds.added.total"))
	assert.Equal(t, int64(5), sumOf(t, rm, "seedpyramid.seeds.removed.total"))
	assert.Equal(t, int64(80), sumOf(t, rm, "seedpyramid.cells.inspected.total"))
	assert.Equal(t, int64(1), sumOf(t, rm, "seedpyramid.window.evicted.total"))

	duration := findMetric(rm, "seedpyramid.frame.duration.seconds")
	require.NotNil(t, duration)

	hist, ok := duration.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)

	displayed := findMetric(rm, "seedpyramid.seeds.displayed")
	require.NotNil(t, displayed)

	gauge, ok := displayed.Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	require.Len(t, gauge.DataPoints, 1)
	assert.Equal(t, int64(10), gauge.DataPoints[0].Value)
}

func TestSamplerMetrics_NilReceiverIsSafe(t *testing.T) {
	t.Parallel()

	var sm *observability.SamplerMetrics

	assert.NotPanics(t, func() {
		sm.RecordFrame(context.Background(), "x", observability.FrameStats{})
	})
}
