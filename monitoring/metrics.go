// Package monitoring exposes Prometheus metrics for the tracking and
// reporting pipeline.
package monitoring

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all service Prometheus metrics.
type Metrics struct {
	// Visit tracking
	VisitsRecorded prometheus.Counter
	VisitsSkipped  *prometheus.CounterVec

	// Report runs
	ReportRuns       *prometheus.CounterVec
	DeliveryFailures prometheus.Counter
	ReportDuration   prometheus.Histogram
}

// New registers the service metrics with reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		VisitsRecorded: factory.NewCounter(prometheus.CounterOpts{
			Name: "sitepulse_visits_recorded_total",
			Help: "Total page visits written to storage",
		}),
		VisitsSkipped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitepulse_visits_skipped_total",
			Help: "Total track-visit calls dropped before storage",
		}, []string{"reason"}),
		ReportRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sitepulse_report_runs_total",
			Help: "Total report runs by delivered status",
		}, []string{"status"}),
		DeliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "sitepulse_report_delivery_failures_total",
			Help: "Total report deliveries that never reached the return URL",
		}),
		ReportDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "sitepulse_report_duration_seconds",
			Help:    "Time to complete one report run, site fan-out included",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// Handler returns the Prometheus scrape handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
