package metric

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	body, _ := io.ReadAll(rec.Body)
	return string(body)
}

func TestNewRegistry_Private(t *testing.T) {
	r := NewRegistry(nil)
	if r.registry == nil {
		t.Fatal("private registry not created")
	}

	body := scrape(t, r.Handler())
	if !strings.Contains(body, "go_goroutines") {
		t.Error("expected go_goroutines metric")
	}
	if !strings.Contains(body, "process_") {
		t.Error("expected process metrics")
	}
}

func TestNewRegistry_External(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := NewRegistry(reg)
	if r.registry != nil {
		t.Error("external registerer should not create a private registry")
	}

	r.AddGCDeleted(3)
	if got := testutil.ToFloat64(r.GCDeletedTotal); got != 3 {
		t.Errorf("gc_deleted_total = %v, want 3", got)
	}

	n, err := testutil.GatherAndCount(reg, "sesskeep_gc_deleted_total")
	if err != nil || n != 1 {
		t.Errorf("GatherAndCount() = %d, %v", n, err)
	}
}

func TestObserveOp(t *testing.T) {
	r := NewRegistry(nil)

	start := time.Now()
	r.ObserveOp("read", start, nil)
	r.ObserveOp("read", start, nil)
	r.ObserveOp("write", start, errors.New("boom"))

	if got := testutil.ToFloat64(r.OpsTotal.WithLabelValues("read", ResultOK)); got != 2 {
		t.Errorf("read ok = %v, want 2", got)
	}
	if got := testutil.ToFloat64(r.OpsTotal.WithLabelValues("write", ResultError)); got != 1 {
		t.Errorf("write error = %v, want 1", got)
	}

	body := scrape(t, r.Handler())
	if !strings.Contains(body, `sesskeep_driver_op_duration_seconds_count{op="read"} 2`) {
		t.Error("expected read latency count 2")
	}
}

func TestCounters(t *testing.T) {
	r := NewRegistry(nil)

	r.AddGCDeleted(0)
	r.AddGCDeleted(-1)
	r.AddGCDeleted(5)
	r.IncDecryptFailure()
	r.ObserveCache(true)
	r.ObserveCache(true)
	r.ObserveCache(false)

	body := scrape(t, r.Handler())
	for _, want := range []string{
		"sesskeep_gc_deleted_total 5",
		"sesskeep_decrypt_failures_total 1",
		`sesskeep_cache_requests_total{result="hit"} 2`,
		`sesskeep_cache_requests_total{result="miss"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("expected %q in scrape output", want)
		}
	}
}

func TestNilRegistry(t *testing.T) {
	var r *Registry

	// Should not panic
	r.ObserveOp("read", time.Now(), nil)
	r.AddGCDeleted(1)
	r.IncDecryptFailure()
	r.ObserveCache(true)

	if r.Handler() == nil {
		t.Error("Handler() on nil registry returned nil")
	}
}

func TestConcurrentMetricUpdates(t *testing.T) {
	r := NewRegistry(nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.ObserveOp("write", time.Now(), nil)
				r.ObserveCache(j%2 == 0)
			}
		}()
	}
	wg.Wait()

	if got := testutil.ToFloat64(r.OpsTotal.WithLabelValues("write", ResultOK)); got != 1000 {
		t.Errorf("write ok = %v, want 1000", got)
	}
}
