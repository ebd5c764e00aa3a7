package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/unistudy/timetable-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	catalogFetch       *prometheus.HistogramVec
	generationDuration prometheus.Histogram
	generationConflict prometheus.Counter
	skippedElectives   prometheus.Counter
	forcedUnits        prometheus.Counter
	repairedUnits      prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	generationCount      uint64
	conflictCount        uint64
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

	catalogFetch := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "catalog_fetch_duration_seconds",
		Help:    "Duration of catalog lookups",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "outcome"})

	generationDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Duration of study plan timetable generation",
		Buckets: prometheus.DefBuckets,
	})

	generationConflict := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_generation_conflicts_total",
		Help: "Conflicts left in generated timetables",
	})

	skippedElectives := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_generation_skipped_electives_total",
		Help: "Electives skipped during generation",
	})

	forcedUnits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_generation_forced_units_total",
		Help: "Compulsory units committed despite conflicts",
	})

	repairedUnits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "timetable_generation_repairs_total",
		Help: "Committed units relocated to make room for a blocked course",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, catalogFetch, generationDuration, generationConflict, skippedElectives, forcedUnits, repairedUnits, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:           registry,
		handler:            handler,
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		catalogFetch:       catalogFetch,
		generationDuration: generationDuration,
		generationConflict: generationConflict,
		skippedElectives:   skippedElectives,
		forcedUnits:        forcedUnits,
		repairedUnits:      repairedUnits,
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

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// ObserveCatalogFetch records the timing of one catalog lookup.
func (m *MetricsService) ObserveCatalogFetch(operation string, err error, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.catalogFetch.WithLabelValues(operation, outcome).Observe(duration.Seconds())
}

// ObserveGeneration records the outcome of one generator run.
func (m *MetricsService) ObserveGeneration(stats GenerationStats, duration time.Duration) {
	if m == nil {
		return
	}
	m.generationDuration.Observe(duration.Seconds())
	m.generationConflict.Add(float64(stats.Conflicts))
	m.skippedElectives.Add(float64(stats.SkippedElectives))
	m.forcedUnits.Add(float64(stats.ForcedUnits))
	m.repairedUnits.Add(float64(stats.Repairs))
	atomic.AddUint64(&m.generationCount, 1)
	atomic.AddUint64(&m.conflictCount, uint64(stats.Conflicts))
}

// Snapshot returns aggregated metrics for the summary endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.SystemMetrics{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		GenerationsTotal:         atomic.LoadUint64(&m.generationCount),
		GenerationConflictsTotal: atomic.LoadUint64(&m.conflictCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
