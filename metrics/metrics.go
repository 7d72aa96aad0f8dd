package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP request metrics
	HttpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status_code", "service"},
	)

	HttpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "service"},
	)

	// Pipeline metrics
	PipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pipeline_runs_total",
			Help: "Total number of ingestion pipeline runs",
		},
		[]string{"trigger", "status"},
	)

	RegionsFetched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "regions_fetched_total",
			Help: "Total number of regions fetched successfully",
		},
	)

	RegionFetchFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "region_fetch_failures_total",
			Help: "Total number of regions dropped after exhausting fetch retries",
		},
	)

	RegionNormalizeFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "region_normalize_failures_total",
			Help: "Total number of regions that fell back to an empty recipe list",
		},
	)

	RecipesUploaded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipes_uploaded_total",
			Help: "Total number of recipes written to the store",
		},
	)

	RecipesSkipped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipes_skipped_total",
			Help: "Total number of recipes skipped as duplicates",
		},
	)

	RecipesInvalid = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recipes_invalid_total",
			Help: "Total number of recipes dropped by validation",
		},
	)

	BatchCommits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "batch_commits_total",
			Help: "Total number of batch commits to the store",
		},
	)

	// Retention job metrics
	RetentionCalculationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_calculations_total",
			Help: "Total number of D7 retention calculations",
		},
		[]string{"status"},
	)

	RetentionAlertsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "retention_alerts_total",
			Help: "Total number of retention alerts emitted",
		},
		[]string{"type"},
	)

	// Application health metrics
	ApplicationInfo = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "application_info",
			Help: "Application information",
		},
		[]string{"service", "version", "environment"},
	)
)

// Initialize metrics with default values
func Init(serviceName, version, environment string) {
	ApplicationInfo.WithLabelValues(serviceName, version, environment).Set(1)
}
