package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"gorm.io/gorm"
)

func TestClassifySweepReason(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "deadline",
			err:  context.DeadlineExceeded,
			want: SweepErrorReasonDeadlineExceeded,
		},
		{
			name: "db_lock_timeout",
			err:  &pgconn.PgError{Code: "55P03"},
			want: SweepErrorReasonDBLockTimeout,
		},
		{
			name: "serialization_failure",
			err:  &pgconn.PgError{Code: "40001"},
			want: SweepErrorReasonSerializationFailure,
		},
		{
			name: "unique_violation",
			err:  gorm.ErrDuplicatedKey,
			want: SweepErrorReasonUniqueViolation,
		},
		{
			name: "unknown",
			err:  errors.New("boom"),
			want: SweepErrorReasonUnknown,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := ClassifySweepReason(tc.err); got != tc.want {
				t.Fatalf("expected reason %q, got %q", tc.want, got)
			}
		})
	}
}

func TestObserveRun(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics := newSweepMetrics(registry, Config{
		ServiceName: "foody-entitlement",
		Environment: "test",
	})

	metrics.ObserveRun(50*time.Millisecond, 3, nil)
	metrics.ObserveRun(10*time.Millisecond, 0, context.DeadlineExceeded)

	if got := testutil.ToFloat64(metrics.runs.WithLabelValues(SweepResultOK)); got != 1 {
		t.Fatalf("expected 1 ok run, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.runs.WithLabelValues(SweepResultError)); got != 1 {
		t.Fatalf("expected 1 error run, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.expired); got != 3 {
		t.Fatalf("expected expired count 3, got %v", got)
	}
	if got := testutil.ToFloat64(metrics.errors.WithLabelValues(SweepErrorReasonDeadlineExceeded)); got != 1 {
		t.Fatalf("expected 1 deadline error, got %v", got)
	}
}
