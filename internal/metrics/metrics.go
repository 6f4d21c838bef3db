package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	TasksEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytqueue_tasks_enqueued_total",
		Help: "Total number of download tasks enqueued (including restarts)",
	})

	TasksFinished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ytqueue_tasks_finished_total",
		Help: "Total number of download tasks that reached a terminal state",
	}, []string{"status"})

	DownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "ytqueue_download_duration_seconds",
		Help:    "Time from acquiring a download slot to a terminal state",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
	})

	GateCapacity = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ytqueue_gate_capacity",
		Help: "Configured maximum number of parallel downloads",
	})

	ActiveDownloads = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ytqueue_active_downloads",
		Help: "Number of tasks currently holding a download slot",
	})

	TagFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ytqueue_tag_failures_total",
		Help: "Total number of best-effort tagging failures",
	})
)
