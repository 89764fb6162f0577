package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Registry struct {
	reg *prometheus.Registry

	Exports        *prometheus.CounterVec
	Rows           *prometheus.CounterVec
	ExportDuration prometheus.Histogram
	Deliveries     *prometheus.CounterVec
}

func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bjr_exports_total",
		Help: "Export runs by format and result.",
	}, []string{"format", "result"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bjr_export_rows_total",
		Help: "Data rows written per sheet, headers excluded.",
	}, []string{"sheet"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "bjr_export_duration_seconds",
		Help:    "Wall time of export runs.",
		Buckets: prometheus.DefBuckets,
	})
	deliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "bjr_export_deliveries_total",
		Help: "Workbook deliveries by result.",
	}, []string{"result"})

	r.MustRegister(exports, rows, duration, deliveries)
	return &Registry{
		reg:            r,
		Exports:        exports,
		Rows:           rows,
		ExportDuration: duration,
		Deliveries:     deliveries,
	}
}

// Result label values
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

func Result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}

func (r *Registry) Gatherer() prometheus.Gatherer { return r.reg }

func (r *Registry) Handler() http.Handler { return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}) }
