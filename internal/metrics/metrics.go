// Package metrics holds the Prometheus instruments shared by the labeling
// service, the store, and the HTTP layer.  All collectors are registered
// with the global registry, so importing this package is enough to expose
// them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CodesGeneratedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jye_codes_generated_total",
			Help: "Cumulative number of barcode codes registered.",
		})

	DuplicateCodesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jye_duplicate_codes_total",
			Help: "Cumulative number of generate requests rejected as duplicates.",
		})

	LabelsRenderedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jye_labels_rendered_total",
			Help: "Cumulative number of physical labels rendered, by printer dialect.",
		}, []string{"dialect"})

	BatchesUnrecordedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "jye_batches_unrecorded_total",
			Help: "Batches whose file was produced but whose print status was not fully recorded.",
		})

	StoreErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "jye_store_errors_total",
			Help: "Cumulative number of storage failures, by operation.",
		}, []string{"op"})

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "jye_http_request_duration_seconds",
			Help:    "HTTP request latency, by route pattern and status class.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "status"})
)

func init() {
	prometheus.MustRegister(
		CodesGeneratedTotal,
		DuplicateCodesTotal,
		LabelsRenderedTotal,
		BatchesUnrecordedTotal,
		StoreErrorsTotal,
		HTTPRequestDuration,
	)
}
