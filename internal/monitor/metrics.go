package monitor

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "dashboard"

// Metrics holds the service's Prometheus collectors and a small in-memory
// mirror of the counters for the JSON metrics endpoint.
type Metrics struct {
	cacheRequests  *prometheus.CounterVec
	anomalies      *prometheus.CounterVec
	checks         *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	registry       prometheus.Gatherer
	mu             sync.RWMutex
	cacheHits      map[string]int64
	cacheMisses    map[string]int64
	anomalyCounts  map[string]int64
	checkCounts    map[string]int64
	requestsTotal  int64
	requestsFailed int64
	startedAt      time.Time
}

// ViewStats is the cache outcome of one view.
type ViewStats struct {
	View    string  `json:"view"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hitRate"`
}

// Snapshot is a point-in-time view of the counters.
type Snapshot struct {
	UptimeSeconds    int64            `json:"uptimeSeconds"`
	Requests         int64            `json:"requests"`
	FailedRequests   int64            `json:"failedRequests"`
	Cache            []ViewStats      `json:"cache"`
	AnomaliesFlagged map[string]int64 `json:"anomaliesFlagged"`
	RowsChecked      map[string]int64 `json:"rowsChecked"`
}

// NewMetrics creates the collectors and registers them with reg.
// Collectors already present in reg are reused.
func NewMetrics(reg *prometheus.Registry) (*Metrics, error) {
	m := &Metrics{
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "requests_total",
			Help:      "Cache lookups per view and result (hit or miss).",
		}, []string{"view", "result"}),
		anomalies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomalies_flagged_total",
			Help:      "Rows flagged abnormal, by scope (batch or product).",
		}, []string{"scope"}),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "anomaly_checks_total",
			Help:      "Rows run through the anomaly detector, by scope.",
		}, []string{"scope"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		registry:      reg,
		cacheHits:     make(map[string]int64),
		cacheMisses:   make(map[string]int64),
		anomalyCounts: make(map[string]int64),
		checkCounts:   make(map[string]int64),
		startedAt:     time.Now(),
	}

	var err error
	if m.cacheRequests, err = register(reg, m.cacheRequests); err != nil {
		return nil, err
	}
	if m.anomalies, err = register(reg, m.anomalies); err != nil {
		return nil, err
	}
	if m.checks, err = register(reg, m.checks); err != nil {
		return nil, err
	}
	if m.httpRequests, err = register(reg, m.httpRequests); err != nil {
		return nil, err
	}
	if m.httpDuration, err = register(reg, m.httpDuration); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, returning the collector already registered under
// the same descriptor if there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		var are prometheus.AlreadyRegisteredError
		if errors.As(err, &are) {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// CacheHit records a cache hit for view.
func (m *Metrics) CacheHit(view string) {
	m.cacheRequests.WithLabelValues(view, "hit").Inc()
	m.mu.Lock()
	m.cacheHits[view]++
	m.mu.Unlock()
}

// CacheMiss records a cache miss for view.
func (m *Metrics) CacheMiss(view string) {
	m.cacheRequests.WithLabelValues(view, "miss").Inc()
	m.mu.Lock()
	m.cacheMisses[view]++
	m.mu.Unlock()
}

// AnomaliesFlagged adds n flagged rows for scope.
func (m *Metrics) AnomaliesFlagged(scope string, n int) {
	if n <= 0 {
		return
	}
	m.anomalies.WithLabelValues(scope).Add(float64(n))
	m.mu.Lock()
	m.anomalyCounts[scope] += int64(n)
	m.mu.Unlock()
}

// RowsChecked adds n rows run through the detector for scope.
func (m *Metrics) RowsChecked(scope string, n int) {
	if n <= 0 {
		return
	}
	m.checks.WithLabelValues(scope).Add(float64(n))
	m.mu.Lock()
	m.checkCounts[scope] += int64(n)
	m.mu.Unlock()
}

// ObserveRequest records one served request.
func (m *Metrics) ObserveRequest(route string, status int, elapsed time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
	m.mu.Lock()
	m.requestsTotal++
	if status >= http.StatusInternalServerError {
		m.requestsFailed++
	}
	m.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the counters.
func (m *Metrics) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	views := make(map[string]struct{})
	for v := range m.cacheHits {
		views[v] = struct{}{}
	}
	for v := range m.cacheMisses {
		views[v] = struct{}{}
	}

	stats := make([]ViewStats, 0, len(views))
	for v := range views {
		s := ViewStats{View: v, Hits: m.cacheHits[v], Misses: m.cacheMisses[v]}
		if total := s.Hits + s.Misses; total > 0 {
			s.HitRate = float64(s.Hits) / float64(total) * 100
		}
		stats = append(stats, s)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].View < stats[j].View })

	anomalies := make(map[string]int64, len(m.anomalyCounts))
	for k, v := range m.anomalyCounts {
		anomalies[k] = v
	}
	checked := make(map[string]int64, len(m.checkCounts))
	for k, v := range m.checkCounts {
		checked[k] = v
	}

	return Snapshot{
		UptimeSeconds:    int64(time.Since(m.startedAt).Seconds()),
		Requests:         m.requestsTotal,
		FailedRequests:   m.requestsFailed,
		Cache:            stats,
		AnomaliesFlagged: anomalies,
		RowsChecked:      checked,
	}
}
