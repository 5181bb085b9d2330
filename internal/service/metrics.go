package service

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	rendersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mix_renders_total",
			Help: "Total number of mix renders by outcome",
		},
		[]string{"status"},
	)

	renderDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "mix_render_duration_seconds",
			Help:    "End-to-end mix render duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		},
	)

	assetUploadsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "mix_asset_uploads_total",
			Help: "Total number of stored raw audio uploads",
		},
	)
)

func observeRender(d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	rendersTotal.WithLabelValues(status).Inc()
	renderDuration.Observe(d.Seconds())
}

func observeUpload() {
	assetUploadsTotal.Inc()
}
