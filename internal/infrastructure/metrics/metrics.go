package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Fraud re-scan worker metrics
	ScanRuns     prometheus.Counter
	ScanDuration prometheus.Histogram
	ScanRecords  prometheus.Counter
	ScanFlagged  prometheus.Counter
	ScanNotified prometheus.Counter
	ScanErrors   prometheus.Counter

	// Operational HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		ScanRuns: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_fraud_scan_runs_total",
			Help: "Total number of fraud re-scan passes",
		}),
		ScanDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "gowallet_fraud_scan_duration_seconds",
			Help:    "Duration of fraud re-scan passes",
			Buckets: prometheus.DefBuckets,
		}),
		ScanRecords: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_fraud_scan_records_total",
			Help: "Total number of pending transactions re-evaluated",
		}),
		ScanFlagged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_fraud_scan_flagged_total",
			Help: "Total number of transactions flagged by the re-scan",
		}),
		ScanNotified: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_fraud_scan_notified_total",
			Help: "Total number of fraud alerts delivered",
		}),
		ScanErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "gowallet_fraud_scan_errors_total",
			Help: "Total number of failed fraud re-scan passes",
		}),

		HTTPRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gowallet_http_requests_total",
				Help: "Total number of operational HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "gowallet_http_request_duration_seconds",
				Help:    "Operational HTTP request duration in seconds",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
	}
}
