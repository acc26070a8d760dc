package metrics

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRecordsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	rec, err := NewPrometheusRecorder(reg)
	if err != nil {
		t.Fatalf("NewPrometheusRecorder: %v", err)
	}
	ctx := context.Background()

	rec.Observe(ctx, "create_loan", true, 15*time.Millisecond)
	rec.Observe(ctx, "create_loan", true, 5*time.Millisecond)
	rec.Observe(ctx, "create_loan", false, time.Millisecond)
	rec.Observe(ctx, "delete_user", true, time.Millisecond)

	if got := testutil.ToFloat64(rec.operations.WithLabelValues("create_loan", "success")); got != 2 {
		t.Fatalf("expected 2 successes, got %v", got)
	}
	if got := testutil.ToFloat64(rec.operations.WithLabelValues("create_loan", "failure")); got != 1 {
		t.Fatalf("expected 1 failure, got %v", got)
	}
	if got := testutil.ToFloat64(rec.operations.WithLabelValues("delete_user", "success")); got != 1 {
		t.Fatalf("expected 1 delete_user success, got %v", got)
	}

	if count := testutil.CollectAndCount(rec.durations); count != 2 {
		t.Fatalf("expected 2 histogram series, got %d", count)
	}
}

func TestRegisterTwiceFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPrometheusRecorder(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPrometheusRecorder(reg); err == nil {
		t.Fatal("duplicate registration must fail")
	}
}
