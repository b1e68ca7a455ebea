package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	batchInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "zyte_batch_in_flight",
		Help: "Number of URLs currently being fetched by batch workers",
	})

	batchURLsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "zyte_batch_urls_total",
		Help: "Total URLs resolved by batch fetchers by outcome",
	}, []string{"outcome"})

	batchDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "zyte_batch_duration_seconds",
		Help:    "Wall time of a complete batch fetch",
		Buckets: []float64{0.5, 1, 5, 10, 30, 60, 300},
	})
)
