package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/timetable-api/internal/models"
)

// Generation outcomes used as metric labels.
const (
	GenerationOutcomeSuccess  = "success"
	GenerationOutcomeNoData   = "no_mappings"
	GenerationOutcomeError    = "error"
	GenerationOutcomeRejected = "rejected"
)

// MetricsService encapsulates Prometheus instrumentation for HTTP traffic,
// catalog caching and timetable generation.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter

	generationDuration *prometheus.HistogramVec
	generationTotal    *prometheus.CounterVec
	generationEntries  prometheus.Gauge
	generationScore    prometheus.Gauge
	shortfallSessions  prometheus.Counter
	jobsTotal          *prometheus.CounterVec

	cacheHitCount   uint64
	cacheMissCount  uint64
	requestCount    uint64
	generationCount uint64
	lastEntries     int64
	lastScore       int64
	lastShortfall   int64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	generationDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Duration of timetable generation runs including persistence",
		Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"action", "outcome"})

	generationTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generations_total",
		Help: "Total timetable generation runs by outcome",
	}, []string{"action", "outcome"})

	generationEntries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_generated_entries",
		Help: "Entries produced by the most recent successful generation",
	})

	generationScore := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "timetable_generation_score",
		Help: "Soft-constraint penalty of the most recent successful generation",
	})

	shortfallSessions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_shortfall_sessions_total",
		Help: "Sessions that could not be placed across all generation runs",
	})

	jobsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "timetable_generation_jobs_total",
		Help: "Async generation jobs by terminal status",
	}, []string{"status"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(
		requestDuration, requestTotal,
		cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses,
		generationDuration, generationTotal, generationEntries, generationScore, shortfallSessions, jobsTotal,
		goroutines,
	)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		cacheLatency:       cacheLatency,
		cacheWrite:         cacheWrite,
		cacheHitRatio:      cacheHitRatio,
		cacheHits:          cacheHits,
		cacheMisses:        cacheMisses,
		generationDuration: generationDuration,
		generationTotal:    generationTotal,
		generationEntries:  generationEntries,
		generationScore:    generationScore,
		shortfallSessions:  shortfallSessions,
		jobsTotal:          jobsTotal,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	if total := hits + misses; total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveGeneration records one generation run. entries, score and
// missing are only meaningful for successful runs.
func (m *MetricsService) ObserveGeneration(action, outcome string, duration time.Duration, entries, score, missing int) {
	if m == nil {
		return
	}
	m.generationDuration.WithLabelValues(action, outcome).Observe(duration.Seconds())
	m.generationTotal.WithLabelValues(action, outcome).Inc()
	atomic.AddUint64(&m.generationCount, 1)
	if outcome != GenerationOutcomeSuccess {
		return
	}
	m.generationEntries.Set(float64(entries))
	m.generationScore.Set(float64(score))
	m.shortfallSessions.Add(float64(missing))
	atomic.StoreInt64(&m.lastEntries, int64(entries))
	atomic.StoreInt64(&m.lastScore, int64(score))
	atomic.StoreInt64(&m.lastShortfall, int64(missing))
}

// ObserveJob counts async jobs reaching a terminal status.
func (m *MetricsService) ObserveJob(status string) {
	if m == nil {
		return
	}
	m.jobsTotal.WithLabelValues(status).Inc()
}

// Snapshot returns aggregated metrics for the stats endpoint.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)

	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}

	return models.MetricsSnapshot{
		RequestsTotal:      atomic.LoadUint64(&m.requestCount),
		CacheHitRatio:      ratio,
		Generations:        atomic.LoadUint64(&m.generationCount),
		LastGeneratedCount: int(atomic.LoadInt64(&m.lastEntries)),
		LastScore:          int(atomic.LoadInt64(&m.lastScore)),
		LastShortfallCount: int(atomic.LoadInt64(&m.lastShortfall)),
		Goroutines:         runtime.NumGoroutine(),
		GeneratedAt:        time.Now().UTC(),
	}
}
