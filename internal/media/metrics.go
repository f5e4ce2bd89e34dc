package media

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	operationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_media_operations_total",
			Help: "Media binding operations by operation and result",
		},
		[]string{"operation", "result"},
	)

	uploadedBytesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_media_uploaded_bytes_total",
			Help: "Bytes written by successful uploads",
		},
	)

	// orphanedFilesTotal counts files left without a referencing content
	// because a cleanup step failed.
	orphanedFilesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_media_orphaned_files_total",
			Help: "Files left unreferenced after a failed cleanup",
		},
		[]string{"reason"},
	)

	cacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_media_type_cache_lookups_total",
			Help: "Media type cache lookups by result",
		},
		[]string{"result"},
	)

	sweepRunsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_orphan_sweep_runs_total",
			Help: "Orphan sweep runs",
		},
	)

	sweptFilesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "catalog_orphan_sweep_deleted_files_total",
			Help: "Orphaned files deleted by the sweep",
		},
	)

	sweepDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "catalog_orphan_sweep_duration_seconds",
			Help:    "Orphan sweep duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 10, 30, 60},
		},
	)
)

func observe(operation string, err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	operationsTotal.WithLabelValues(operation, result).Inc()
}
