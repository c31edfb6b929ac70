package telemetry_test

import (
	"context"
	"testing"

	"github.com/payables/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProviderDisabled(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:     false,
		ServiceName: "payables-backend",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("payables"), "disabled provider still hands out meters")
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestCounterRecordsReleases(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	meter := provider.Meter("payables-test")

	counter, err := telemetry.NewCounter(meter,
		"payables_disbursement_released_total",
		"Total number of disbursement releases",
		"{releases}")
	require.NoError(t, err)

	counter.Inc(ctx)
	counter.Add(ctx, 2, attribute.String("release_outcome", "bulk"))

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))
	require.Len(t, rm.ScopeMetrics, 1)

	sum := findSum(t, rm, "payables_disbursement_released_total")
	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	assert.Equal(t, int64(3), total)
}

func TestHistogramRecordsDurations(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	meter := provider.Meter("payables-test")

	hist, err := telemetry.NewHistogram(meter, telemetry.HistogramOpts{
		Name:        "payables_http_request_duration_seconds",
		Description: "HTTP request duration",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	require.NoError(t, err)

	hist.Record(ctx, 0.02)
	hist.Record(ctx, 0.3)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	h := findHistogram(t, rm, "payables_http_request_duration_seconds")
	require.Len(t, h.DataPoints, 1)
	assert.Equal(t, uint64(2), h.DataPoints[0].Count)
}

func TestGaugesRecordPendingWorkload(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })
	meter := provider.Meter("payables-test")

	count, err := telemetry.NewGauge(meter,
		"payables_disbursements_pending", "Unreleased disbursements", "{disbursements}")
	require.NoError(t, err)
	amount, err := telemetry.NewFloatGauge(meter,
		"payables_disbursements_pending_amount", "Unreleased PHP amount", "{php}")
	require.NoError(t, err)

	count.Record(ctx, 7)
	count.Record(ctx, 4)
	amount.Record(ctx, 125000.50)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	g := findIntGauge(t, rm, "payables_disbursements_pending")
	require.Len(t, g.DataPoints, 1)
	assert.Equal(t, int64(4), g.DataPoints[0].Value, "gauge keeps the last value")

	fg := findFloatGauge(t, rm, "payables_disbursements_pending_amount")
	require.Len(t, fg.DataPoints, 1)
	assert.Equal(t, 125000.50, fg.DataPoints[0].Value)
}

func findMetric(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Metrics {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m
			}
		}
	}
	t.Fatalf("metric %s not collected", name)
	return metricdata.Metrics{}
}

func findSum(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Sum[int64] {
	t.Helper()
	sum, ok := findMetric(t, rm, name).Data.(metricdata.Sum[int64])
	require.True(t, ok)
	return sum
}

func findHistogram(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Histogram[float64] {
	t.Helper()
	h, ok := findMetric(t, rm, name).Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	return h
}

func findIntGauge(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Gauge[int64] {
	t.Helper()
	g, ok := findMetric(t, rm, name).Data.(metricdata.Gauge[int64])
	require.True(t, ok)
	return g
}

func findFloatGauge(t *testing.T, rm metricdata.ResourceMetrics, name string) metricdata.Gauge[float64] {
	t.Helper()
	g, ok := findMetric(t, rm, name).Data.(metricdata.Gauge[float64])
	require.True(t, ok)
	return g
}
