// Package metrics exposes the Prometheus collectors of the catalog service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/aluiziolira/go-books-catalog/models"
)

// Metrics bundles Prometheus collectors for loading, fetching and querying.
// All methods are safe on a nil receiver.
type Metrics struct {
	Registry *prometheus.Registry

	FetchRequestsTotal *prometheus.CounterVec
	FetchDuration      prometheus.Histogram
	FetchRetriesTotal  prometheus.Counter
	FetchErrorsTotal   *prometheus.CounterVec

	LoadedRecords      *prometheus.GaugeVec
	LoadFallbacksTotal *prometheus.CounterVec
	LoadFailuresTotal  *prometheus.CounterVec
	LoadDuration       *prometheus.HistogramVec

	QueriesTotal  *prometheus.CounterVec
	QueryDuration *prometheus.HistogramVec

	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec
}

// New constructs and registers all metrics on a dedicated registry.
func New() *Metrics {
	registry := prometheus.NewRegistry()

	fetchRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_fetch_requests_total",
			Help: "Total HTTP requests issued for remote data sources.",
		},
		[]string{"phase"},
	)
	fetchDuration := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_fetch_duration_seconds",
			Help:    "Latency of remote data source downloads.",
			Buckets: prometheus.DefBuckets,
		},
	)
	fetchRetries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_fetch_retries_total",
			Help: "Total number of source download retries.",
		},
	)
	fetchErrors := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_fetch_errors_total",
			Help: "Total number of source download errors by type.",
		},
		[]string{"error_type"},
	)
	loadedRecords := prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "catalog_loaded_records",
			Help: "Records held in memory per dataset.",
		},
		[]string{"dataset"},
	)
	loadFallbacks := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_load_fallbacks_total",
			Help: "Cells recovered with a fallback value during load, by kind.",
		},
		[]string{"dataset", "kind"},
	)
	loadFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_load_failures_total",
			Help: "Dataset loads that degraded to an empty store.",
		},
		[]string{"dataset"},
	)
	loadDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_load_duration_seconds",
			Help:    "Time spent loading each dataset.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"dataset"},
	)
	queries := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_queries_total",
			Help: "Queries served by operation.",
		},
		[]string{"operation"},
	)
	queryDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "catalog_query_duration_seconds",
			Help:    "Query latency by operation.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"operation"},
	)
	cacheHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_hits_total",
			Help: "Aggregate cache hits by cache.",
		},
		[]string{"cache"},
	)
	cacheMisses := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_misses_total",
			Help: "Aggregate cache misses by cache.",
		},
		[]string{"cache"},
	)

	registry.MustRegister(
		fetchRequests, fetchDuration, fetchRetries, fetchErrors,
		loadedRecords, loadFallbacks, loadFailures, loadDuration,
		queries, queryDuration, cacheHits, cacheMisses,
	)

	return &Metrics{
		Registry:           registry,
		FetchRequestsTotal: fetchRequests,
		FetchDuration:      fetchDuration,
		FetchRetriesTotal:  fetchRetries,
		FetchErrorsTotal:   fetchErrors,
		LoadedRecords:      loadedRecords,
		LoadFallbacksTotal: loadFallbacks,
		LoadFailuresTotal:  loadFailures,
		LoadDuration:       loadDuration,
		QueriesTotal:       queries,
		QueryDuration:      queryDuration,
		CacheHitsTotal:     cacheHits,
		CacheMissesTotal:   cacheMisses,
	}
}

// IncFetchRequest increments the fetch requests counter.
func (m *Metrics) IncFetchRequest(phase string) {
	if m == nil {
		return
	}
	m.FetchRequestsTotal.WithLabelValues(phase).Inc()
}

// ObserveFetchDuration records a download duration.
func (m *Metrics) ObserveFetchDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(d.Seconds())
}

// IncRetries increments the retries counter.
func (m *Metrics) IncRetries() {
	if m == nil {
		return
	}
	m.FetchRetriesTotal.Inc()
}

// IncError increments the fetch errors counter for a type label.
func (m *Metrics) IncError(errorType string) {
	if m == nil {
		return
	}
	m.FetchErrorsTotal.WithLabelValues(errorType).Inc()
}

// ObserveLoad records the outcome of a dataset load.
func (m *Metrics) ObserveLoad(result models.LoadResult) {
	if m == nil {
		return
	}
	m.LoadedRecords.WithLabelValues(result.Dataset).Set(float64(result.Rows))
	m.LoadDuration.WithLabelValues(result.Dataset).Observe(result.Duration().Seconds())
	for kind, n := range result.Fallbacks {
		m.LoadFallbacksTotal.WithLabelValues(result.Dataset, kind).Add(float64(n))
	}
	if result.Err != nil {
		m.LoadFailuresTotal.WithLabelValues(result.Dataset).Inc()
	}
}

// ObserveQuery counts one query and its latency.
func (m *Metrics) ObserveQuery(operation string, d time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(operation).Inc()
	m.QueryDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncCacheHit increments the hit counter of cache.
func (m *Metrics) IncCacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHitsTotal.WithLabelValues(cache).Inc()
}

// IncCacheMiss increments the miss counter of cache.
func (m *Metrics) IncCacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}
