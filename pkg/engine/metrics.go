package engine

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusSuccess = "success"
	statusFailure = "failure"
)

type metrics struct {
	passDuration  *prometheus.HistogramVec
	passesTotal   *prometheus.CounterVec
	columnsPruned prometheus.Counter
}

func newMetrics(reg prometheus.Registerer) *metrics {
	return &metrics{
		passDuration: promauto.With(reg).NewHistogramVec(prometheus.HistogramOpts{
			Name: "lazyframe_optimizer_pass_duration_seconds",
			Help: "Time spent running an optimizer pass over a plan",

			NativeHistogramBucketFactor:     1.1,
			NativeHistogramMaxBucketNumber:  100,
			NativeHistogramMinResetDuration: time.Hour,
		}, []string{"pass"}),
		passesTotal: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "lazyframe_optimizer_passes_total",
			Help: "Total number of optimizer passes run, by outcome",
		}, []string{"pass", "status"}),
		columnsPruned: promauto.With(reg).NewCounter(prometheus.CounterOpts{
			Name: "lazyframe_optimizer_scan_columns_pruned_total",
			Help: "Total number of columns removed from scans by projection pushdown",
		}),
	}
}
