package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	sqlGenerationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "askdb_sql_generations_total",
			Help: "Total number of SQL generation attempts by mode and outcome.",
		},
		[]string{"mode", "outcome"},
	)
	generationFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_generation_fallbacks_total",
			Help: "Total number of llm-to-vanna generation fallbacks.",
		},
	)
	validationRejectionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_sql_validation_rejections_total",
			Help: "Total number of candidate queries rejected by the security validator.",
		},
	)
	sqlRepairsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "askdb_sql_repairs_total",
			Help: "Total number of generated statements changed by the repair pass.",
		},
	)
	queryDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "askdb_query_duration_seconds",
			Help:    "Database execution latency by scenario.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"scenario"},
	)
	queryRowsReturned = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "askdb_query_rows_returned",
			Help:    "Matched row counts per executed query.",
			Buckets: []float64{0, 1, 10, 50, 100, 500, 1000, 5000},
		},
	)
)

func init() {
	prometheus.MustRegister(
		sqlGenerationsTotal,
		generationFallbacksTotal,
		validationRejectionsTotal,
		sqlRepairsTotal,
		queryDurationSeconds,
		queryRowsReturned,
	)
}

func ObserveGeneration(mode string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	sqlGenerationsTotal.WithLabelValues(mode, outcome).Inc()
}

func IncrementGenerationFallback() {
	generationFallbacksTotal.Inc()
}

func IncrementValidationRejection() {
	validationRejectionsTotal.Inc()
}

func IncrementSQLRepair() {
	sqlRepairsTotal.Inc()
}

func ObserveExecution(scenario string, elapsed time.Duration, rowCount int) {
	queryDurationSeconds.WithLabelValues(scenario).Observe(elapsed.Seconds())
	if rowCount >= 0 {
		queryRowsReturned.Observe(float64(rowCount))
	}
}
