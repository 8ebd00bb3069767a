package monitor

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func newTestMetrics(t *testing.T) *Metrics {
	t.Helper()
	m, err := NewMetrics(prometheus.NewRegistry())
	if err != nil {
		t.Fatalf("new metrics: %v", err)
	}
	return m
}

func TestMetrics_CacheCounters(t *testing.T) {
	m := newTestMetrics(t)
	m.CacheMiss("summary")
	m.CacheHit("summary")
	m.CacheHit("summary")
	m.CacheHit("batches")

	if got := testutil.ToFloat64(m.cacheRequests.WithLabelValues("summary", "hit")); got != 2 {
		t.Errorf("expected 2 summary hits, got %v", got)
	}
	if got := testutil.ToFloat64(m.cacheRequests.WithLabelValues("summary", "miss")); got != 1 {
		t.Errorf("expected 1 summary miss, got %v", got)
	}

	snap := m.Snapshot()
	if len(snap.Cache) != 2 {
		t.Fatalf("expected 2 views, got %d", len(snap.Cache))
	}
	if snap.Cache[0].View != "batches" || snap.Cache[0].HitRate != 100 {
		t.Errorf("unexpected batches stats: %+v", snap.Cache[0])
	}
	s := snap.Cache[1]
	if s.Hits != 2 || s.Misses != 1 {
		t.Errorf("unexpected summary stats: %+v", s)
	}
	if s.HitRate < 66.6 || s.HitRate > 66.7 {
		t.Errorf("expected ~66.67%% hit rate, got %.2f", s.HitRate)
	}
}

func TestMetrics_AnomaliesFlagged(t *testing.T) {
	m := newTestMetrics(t)
	m.AnomaliesFlagged("batch", 3)
	m.AnomaliesFlagged("batch", 0)
	m.AnomaliesFlagged("product", 1)

	if got := testutil.ToFloat64(m.anomalies.WithLabelValues("batch")); got != 3 {
		t.Errorf("expected 3 batch anomalies, got %v", got)
	}
	snap := m.Snapshot()
	if snap.AnomaliesFlagged["product"] != 1 {
		t.Errorf("expected 1 product anomaly, got %d", snap.AnomaliesFlagged["product"])
	}
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m := newTestMetrics(t)
	m.ObserveRequest("/api/dashboard/summary", 200, 5*time.Millisecond)
	m.ObserveRequest("/api/dashboard/summary", 500, time.Millisecond)

	if got := testutil.ToFloat64(m.httpRequests.WithLabelValues("/api/dashboard/summary", "500")); got != 1 {
		t.Errorf("expected 1 failed request, got %v", got)
	}
	snap := m.Snapshot()
	if snap.Requests != 2 || snap.FailedRequests != 1 {
		t.Errorf("unexpected request counts: %+v", snap)
	}
}

func TestMetrics_RegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewMetrics(reg); err != nil {
		t.Fatalf("first register: %v", err)
	}
	if _, err := NewMetrics(reg); err != nil {
		t.Fatalf("second register should reuse collectors: %v", err)
	}
}

func TestMetrics_Handler(t *testing.T) {
	m := newTestMetrics(t)
	m.CacheHit("performance")

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `dashboard_cache_requests_total{result="hit",view="performance"} 1`) {
		t.Errorf("expected cache counter in exposition, got:\n%s", w.Body.String())
	}
}

func TestMetrics_ConcurrentAccess(t *testing.T) {
	m := newTestMetrics(t)
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.CacheHit("summary")
			m.Snapshot()
		}()
	}
	wg.Wait()

	if got := m.Snapshot().Cache[0].Hits; got != 100 {
		t.Errorf("expected 100 hits, got %d", got)
	}
}

func TestMetrics_RowsChecked(t *testing.T) {
	m := newTestMetrics(t)
	m.RowsChecked("batch", 12)
	m.RowsChecked("batch", -1)

	if got := testutil.ToFloat64(m.checks.WithLabelValues("batch")); got != 12 {
		t.Errorf("expected 12 checked rows, got %v", got)
	}
	if got := m.Snapshot().RowsChecked["batch"]; got != 12 {
		t.Errorf("expected 12 in snapshot, got %d", got)
	}
}
