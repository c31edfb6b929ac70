package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap/zaptest"

	"github.com/payables/backend/internal/infrastructure/telemetry"
)

type staticPendingProvider struct {
	count  int64
	amount decimal.Decimal
}

func (p *staticPendingProvider) GetPendingDisbursements(ctx context.Context) (int64, decimal.Decimal, error) {
	return p.count, p.amount, nil
}

func TestNewPayablesMetrics(t *testing.T) {
	t.Run("creates all instruments", func(t *testing.T) {
		meter := otel.GetMeterProvider().Meter("payables-metrics-test")

		pm, err := telemetry.NewPayablesMetrics(telemetry.PayablesMetricsConfig{
			Meter:  meter,
			Logger: zaptest.NewLogger(t),
		})

		require.NoError(t, err)
		require.NotNil(t, pm)

		ctx := context.Background()
		pm.RecordRelease(ctx, decimal.NewFromFloat(12500.50))
		pm.RecordReleaseUndone(ctx)
		pm.RecordReleaseCorrected(ctx)
		pm.RecordPending(ctx, 4, decimal.NewFromInt(90000))
	})

	t.Run("requires a meter", func(t *testing.T) {
		_, err := telemetry.NewPayablesMetrics(telemetry.PayablesMetricsConfig{})

		assert.ErrorIs(t, err, telemetry.ErrMeterNil)
	})
}

func TestPayablesMetrics_PeriodicCollection(t *testing.T) {
	t.Run("collects from provider and stops cleanly", func(t *testing.T) {
		meter := otel.GetMeterProvider().Meter("payables-metrics-collect-test")

		pm, err := telemetry.NewPayablesMetrics(telemetry.PayablesMetricsConfig{
			Meter:           meter,
			Logger:          zaptest.NewLogger(t),
			PendingProvider: &staticPendingProvider{count: 3, amount: decimal.NewFromInt(45000)},
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		pm.StartPeriodicCollection(ctx, 10*time.Millisecond)
		time.Sleep(30 * time.Millisecond)
		pm.Stop()
	})

	t.Run("is a no-op without a provider", func(t *testing.T) {
		meter := otel.GetMeterProvider().Meter("payables-metrics-noop-test")

		pm, err := telemetry.NewPayablesMetrics(telemetry.PayablesMetricsConfig{Meter: meter})
		require.NoError(t, err)

		pm.StartPeriodicCollection(context.Background(), time.Minute)
		pm.Stop()
	})
}
