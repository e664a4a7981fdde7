package metrics

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"
)

const (
	SweepResultOK    = "ok"
	SweepResultError = "error"
)

const (
	SweepErrorReasonDeadlineExceeded     = "deadline_exceeded"
	SweepErrorReasonDBLockTimeout        = "db_lock_timeout"
	SweepErrorReasonSerializationFailure = "serialization_failure"
	SweepErrorReasonUniqueViolation      = "unique_violation"
	SweepErrorReasonUnknown              = "unknown"
)

// SweepMetrics captures health signals for the overdue-subscription sweep.
type SweepMetrics struct {
	runs     *prometheus.CounterVec
	expired  prometheus.Counter
	errors   *prometheus.CounterVec
	duration prometheus.Observer
}

var (
	sweepMetricsOnce sync.Once
	sweepMetrics     *SweepMetrics
)

// Sweep returns the singleton sweep metrics registry.
func Sweep() *SweepMetrics {
	return SweepWithConfig(Config{})
}

// SweepWithConfig returns the singleton sweep metrics registry using config labels.
func SweepWithConfig(cfg Config) *SweepMetrics {
	sweepMetricsOnce.Do(func() {
		sweepMetrics = newSweepMetrics(prometheus.DefaultRegisterer, cfg)
	})
	return sweepMetrics
}

// ResetSweepMetricsForTest resets the sweep metrics singleton for tests.
func ResetSweepMetricsForTest() {
	sweepMetricsOnce = sync.Once{}
	sweepMetrics = nil
}

func newSweepMetrics(registerer prometheus.Registerer, cfg Config) *SweepMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	serviceName := strings.TrimSpace(cfg.ServiceName)
	if serviceName == "" {
		serviceName = "foody-entitlement"
	}
	environment := strings.TrimSpace(cfg.Environment)
	if environment == "" {
		environment = "unknown"
	}
	constLabels := prometheus.Labels{
		"service": serviceName,
		"env":     environment,
	}

	runs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "entitlement_sweep_runs_total",
		Help:        "Overdue sweep runs by result.",
		ConstLabels: constLabels,
	}, []string{"result"})

	expired := prometheus.NewCounter(prometheus.CounterOpts{
		Name:        "entitlement_sweep_expired_total",
		Help:        "Subscriptions deactivated by the overdue sweep.",
		ConstLabels: constLabels,
	})

	sweepErrors := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name:        "entitlement_sweep_errors_total",
		Help:        "Overdue sweep failures by reason.",
		ConstLabels: constLabels,
	}, []string{"reason"})

	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:        "entitlement_sweep_duration_seconds",
		Help:        "Duration of a full overdue sweep pass.",
		ConstLabels: constLabels,
		Buckets:     prometheus.DefBuckets,
	})

	runs = mustRegisterCounterVec(registerer, runs)
	sweepErrors = mustRegisterCounterVec(registerer, sweepErrors)
	if err := registerer.Register(expired); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			expired = already.ExistingCollector.(prometheus.Counter)
		} else {
			panic(err)
		}
	}
	if err := registerer.Register(duration); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			duration = already.ExistingCollector.(prometheus.Histogram)
		} else {
			panic(err)
		}
	}

	return &SweepMetrics{
		runs:     runs,
		expired:  expired,
		errors:   sweepErrors,
		duration: duration,
	}
}

// ObserveRun records one sweep pass.
func (m *SweepMetrics) ObserveRun(elapsed time.Duration, expired int, err error) {
	if m == nil {
		return
	}

	result := SweepResultOK
	if err != nil {
		result = SweepResultError
		m.errors.WithLabelValues(ClassifySweepReason(err)).Inc()
	}
	m.runs.WithLabelValues(result).Inc()
	if expired > 0 {
		m.expired.Add(float64(expired))
	}
	m.duration.Observe(elapsed.Seconds())
}

// ClassifySweepReason maps a sweep error to a low-cardinality reason label.
func ClassifySweepReason(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return SweepErrorReasonDeadlineExceeded
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return SweepErrorReasonUniqueViolation
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "55P03":
			return SweepErrorReasonDBLockTimeout
		case "40001":
			return SweepErrorReasonSerializationFailure
		case "23505":
			return SweepErrorReasonUniqueViolation
		}
	}
	return SweepErrorReasonUnknown
}
