package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveBackend(t *testing.T) {
	before := testutil.ToFloat64(BackendRequests.WithLabelValues("approve", "200"))
	ObserveBackend("approve", "200", 10*time.Millisecond)
	ObserveBackend("approve", "200", 20*time.Millisecond)
	after := testutil.ToFloat64(BackendRequests.WithLabelValues("approve", "200"))
	if after-before != 2 {
		t.Fatalf("expected 2 new observations, got %v", after-before)
	}
}

func TestInitIdempotent(t *testing.T) {
	Init()
	Init()
}

func TestResult(t *testing.T) {
	if Result(nil) != "ok" {
		t.Fatalf("nil error should be ok")
	}
	if Result(errors.New("boom")) != "error" {
		t.Fatalf("non-nil error should be error")
	}
}
