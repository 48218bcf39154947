// Package metrics exposes pipeline counters and gauges for Prometheus.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// CyclesTotal counts executed pipeline cycles, by outcome.
	CyclesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "lakereaper_cycles_total",
		Help: "Pipeline cycles executed, labelled by outcome.",
	}, []string{"outcome"})

	// FilesDeletedTotal counts files reclaimed by the reaper.
	FilesDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lakereaper_files_deleted_total",
		Help: "Files deleted by predictive cleanup.",
	})

	// MBFreedTotal counts megabytes reclaimed by the reaper.
	MBFreedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "lakereaper_mb_freed_total",
		Help: "Megabytes freed by predictive cleanup.",
	})

	// CurrentMB is the total occupancy observed by the latest scan.
	CurrentMB = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lakereaper_current_mb",
		Help: "Total occupancy in MB from the latest scan.",
	})

	// PredictedMB is the latest next-day forecast.
	PredictedMB = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "lakereaper_predicted_mb",
		Help: "Forecast next-day occupancy in MB.",
	})
)

// Handler returns the HTTP handler serving the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
