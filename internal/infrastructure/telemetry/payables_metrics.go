// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// PayablesMetrics provides business metrics for the payables system.
// It tracks disbursement release activity and pending workload.
type PayablesMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	releaseTotal          *Counter
	releaseUndoneTotal    *Counter
	releaseCorrectedTotal *Counter
	releasedAmountTotal   *Counter

	// Gauge metrics (point-in-time values)
	pendingDisbursements *Gauge
	pendingAmount        *FloatGauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	pendingProvider PendingMetricsProvider
}

// PendingMetricsProvider provides pending disbursement data for periodic
// metrics collection. The interface keeps the telemetry layer from depending
// on the payables domain directly.
type PendingMetricsProvider interface {
	// GetPendingDisbursements returns the count and total amount of
	// disbursements not yet released to a vendor.
	GetPendingDisbursements(ctx context.Context) (int64, decimal.Decimal, error)
}

// PayablesMetricsConfig holds configuration for payables metrics.
type PayablesMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	PendingProvider PendingMetricsProvider
}

// NewPayablesMetrics creates a new PayablesMetrics instance.
func NewPayablesMetrics(cfg PayablesMetricsConfig) (*PayablesMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	pm := &PayablesMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		pendingProvider: cfg.PendingProvider,
	}

	var err error

	pm.releaseTotal, err = NewCounter(
		cfg.Meter,
		"payables_disbursement_released_total",
		"Total number of disbursement releases",
		"{releases}",
	)
	if err != nil {
		return nil, err
	}

	pm.releaseUndoneTotal, err = NewCounter(
		cfg.Meter,
		"payables_disbursement_release_undone_total",
		"Total number of releases undone within the grace window",
		"{undos}",
	)
	if err != nil {
		return nil, err
	}

	pm.releaseCorrectedTotal, err = NewCounter(
		cfg.Meter,
		"payables_disbursement_release_corrected_total",
		"Total number of release corrections after the grace window",
		"{corrections}",
	)
	if err != nil {
		return nil, err
	}

	pm.releasedAmountTotal, err = NewCounter(
		cfg.Meter,
		"payables_disbursement_released_amount_centavos_total",
		"Total released amount in centavos",
		"{centavos}",
	)
	if err != nil {
		return nil, err
	}

	pm.pendingDisbursements, err = NewGauge(
		cfg.Meter,
		"payables_disbursements_pending",
		"Current number of unreleased disbursements",
		"{disbursements}",
	)
	if err != nil {
		return nil, err
	}

	pm.pendingAmount, err = NewFloatGauge(
		cfg.Meter,
		"payables_disbursements_pending_amount",
		"Current total amount of unreleased disbursements",
		"{php}",
	)
	if err != nil {
		return nil, err
	}

	return pm, nil
}

// RecordRelease records a disbursement release with the released amount.
func (pm *PayablesMetrics) RecordRelease(ctx context.Context, amount decimal.Decimal) {
	pm.releaseTotal.Inc(ctx)
	pm.releasedAmountTotal.Add(ctx, amount.Shift(2).IntPart())
}

// RecordReleaseUndone records a release undone within the grace window.
func (pm *PayablesMetrics) RecordReleaseUndone(ctx context.Context) {
	pm.releaseUndoneTotal.Inc(ctx)
}

// RecordReleaseCorrected records a release correction after the window.
func (pm *PayablesMetrics) RecordReleaseCorrected(ctx context.Context) {
	pm.releaseCorrectedTotal.Inc(ctx)
}

// RecordPending records the current pending workload.
func (pm *PayablesMetrics) RecordPending(ctx context.Context, count int64, amount decimal.Decimal, attrs ...attribute.KeyValue) {
	pm.pendingDisbursements.Record(ctx, count, attrs...)
	pm.pendingAmount.Record(ctx, amount.InexactFloat64(), attrs...)
}

// SetPendingProvider sets the pending workload source. Must be called before
// StartPeriodicCollection.
func (pm *PayablesMetrics) SetPendingProvider(p PendingMetricsProvider) {
	pm.pendingProvider = p
}

// StartPeriodicCollection starts collecting pending workload gauges on the
// given interval. It is a no-op without a provider and safe to call once.
func (pm *PayablesMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	if pm.pendingProvider == nil {
		pm.logger.Debug("No pending metrics provider configured, skipping periodic collection")
		return
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	pm.collectOnce.Do(func() {
		go pm.collectLoop(ctx, interval)
	})
}

func (pm *PayablesMetrics) collectLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	pm.collect(ctx)

	for {
		select {
		case <-pm.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			pm.collect(ctx)
		}
	}
}

func (pm *PayablesMetrics) collect(ctx context.Context) {
	count, amount, err := pm.pendingProvider.GetPendingDisbursements(ctx)
	if err != nil {
		pm.logger.Warn("Failed to collect pending disbursement metrics", zap.Error(err))
		return
	}
	pm.RecordPending(ctx, count, amount)
}

// Stop stops the periodic collection.
func (pm *PayablesMetrics) Stop() {
	pm.stopOnce.Do(func() {
		close(pm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewPayablesMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
