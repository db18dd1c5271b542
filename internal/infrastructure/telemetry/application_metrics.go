// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ApplicationMetrics tracks registration-application activity: submissions,
// status transitions and the backlog of overdue payments.
type ApplicationMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	// Counter metrics (monotonically increasing)
	submittedTotal        *Counter
	statusTransitionTotal *Counter
	documentBytesTotal    *Counter
	referenceRetryTotal   *Counter

	// Gauge metrics (point-in-time values)
	statusCount         *Gauge
	paymentOverdueCount *Gauge

	// Periodic collector
	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	// Data provider for periodic collection
	backlogProvider BacklogProvider
}

// BacklogProvider provides application counts for periodic metrics
// collection. The interface keeps the telemetry layer decoupled from the
// domain repository.
type BacklogProvider interface {
	// StatusCounts returns application counts keyed by status name
	StatusCounts(ctx context.Context) (map[string]int64, error)

	// PaymentOverdueCount returns the number of applications past their payment deadline
	PaymentOverdueCount(ctx context.Context) (int64, error)
}

// ApplicationMetricsConfig holds configuration for application metrics.
type ApplicationMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	BacklogProvider BacklogProvider
}

// NewApplicationMetrics creates a new ApplicationMetrics instance.
func NewApplicationMetrics(cfg ApplicationMetricsConfig) (*ApplicationMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	am := &ApplicationMetrics{
		meter:           cfg.Meter,
		logger:          logger,
		stopChan:        make(chan struct{}),
		backlogProvider: cfg.BacklogProvider,
	}

	var err error

	am.submittedTotal, err = NewCounter(
		cfg.Meter,
		"vehicle_reg_application_submitted_total",
		"Total number of registration applications submitted",
		"{applications}",
	)
	if err != nil {
		return nil, err
	}

	am.statusTransitionTotal, err = NewCounter(
		cfg.Meter,
		"vehicle_reg_status_transition_total",
		"Total number of application status transitions",
		"{transitions}",
	)
	if err != nil {
		return nil, err
	}

	am.documentBytesTotal, err = NewCounter(
		cfg.Meter,
		"vehicle_reg_document_bytes_total",
		"Total bytes of supporting documents stored",
		"By",
	)
	if err != nil {
		return nil, err
	}

	am.referenceRetryTotal, err = NewCounter(
		cfg.Meter,
		"vehicle_reg_reference_retry_total",
		"Total number of reference code collisions requiring a retry",
		"{retries}",
	)
	if err != nil {
		return nil, err
	}

	am.statusCount, err = NewGauge(
		cfg.Meter,
		"vehicle_reg_application_status_count",
		"Current number of applications per status",
		"{applications}",
	)
	if err != nil {
		return nil, err
	}

	am.paymentOverdueCount, err = NewGauge(
		cfg.Meter,
		"vehicle_reg_payment_overdue_count",
		"Number of applications past their payment deadline",
		"{applications}",
	)
	if err != nil {
		return nil, err
	}

	return am, nil
}

// RecordSubmission records a successful application submission.
func (am *ApplicationMetrics) RecordSubmission(ctx context.Context, documentContentType string, documentSize int64) {
	am.submittedTotal.Inc(ctx,
		AttrDocumentType.String(documentContentType),
	)
	if documentSize > 0 {
		am.documentBytesTotal.Add(ctx, documentSize,
			AttrDocumentType.String(documentContentType),
		)
	}
}

// RecordStatusTransition records an admin-driven status change.
func (am *ApplicationMetrics) RecordStatusTransition(ctx context.Context, fromStatus, toStatus string) {
	am.statusTransitionTotal.Inc(ctx,
		AttrApplicationStatus.String(fromStatus),
		AttrTargetStatus.String(toStatus),
	)
}

// RecordReferenceRetry records a reference code collision.
func (am *ApplicationMetrics) RecordReferenceRetry(ctx context.Context) {
	am.referenceRetryTotal.Inc(ctx)
}

// RecordStatusCount records the current application count for one status.
// This is a gauge metric that should be updated periodically.
func (am *ApplicationMetrics) RecordStatusCount(ctx context.Context, status string, count int64) {
	am.statusCount.Record(ctx, count,
		AttrApplicationStatus.String(status),
	)
}

// RecordPaymentOverdueCount records the current payment-overdue backlog.
func (am *ApplicationMetrics) RecordPaymentOverdueCount(ctx context.Context, count int64) {
	am.paymentOverdueCount.Record(ctx, count)
}

// =============================================================================
// Periodic Collection
// =============================================================================

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (am *ApplicationMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	am.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}

		go am.runPeriodicCollection(ctx, interval)
	})
}

// runPeriodicCollection runs the periodic collection loop.
func (am *ApplicationMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Collect immediately on start
	am.collectBacklogMetrics(ctx)

	for {
		select {
		case <-am.stopChan:
			am.logger.Info("Stopping periodic application metrics collection")
			return
		case <-ctx.Done():
			am.logger.Info("Context cancelled, stopping periodic application metrics collection")
			return
		case <-ticker.C:
			am.collectBacklogMetrics(ctx)
		}
	}
}

// collectBacklogMetrics collects the gauge metrics from the backlog provider.
func (am *ApplicationMetrics) collectBacklogMetrics(ctx context.Context) {
	if am.backlogProvider == nil {
		am.logger.Debug("No backlog provider configured, skipping application metrics collection")
		return
	}

	counts, err := am.backlogProvider.StatusCounts(ctx)
	if err != nil {
		am.logger.Warn("Failed to collect application status counts", zap.Error(err))
	} else {
		for status, count := range counts {
			am.RecordStatusCount(ctx, status, count)
		}
	}

	overdue, err := am.backlogProvider.PaymentOverdueCount(ctx)
	if err != nil {
		am.logger.Warn("Failed to collect payment overdue count", zap.Error(err))
	} else {
		am.RecordPaymentOverdueCount(ctx, overdue)
	}
}

// Stop stops the periodic collection.
func (am *ApplicationMetrics) Stop() {
	am.stopOnce.Do(func() {
		close(am.stopChan)
	})
}

// =============================================================================
// Error Types
// =============================================================================

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewApplicationMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
