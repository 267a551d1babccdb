package server

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the server's prometheus collectors.
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
	points   prometheus.Histogram
	compute  prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "priomatrix",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "priomatrix",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		points: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "priomatrix",
			Name:      "points_produced",
			Help:      "Points produced per recompute.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100, 150, 250},
		}),
		compute: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "priomatrix",
			Name:      "compute_duration_seconds",
			Help:      "Time spent recomputing a selection.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}),
	}
	reg.MustRegister(m.requests, m.latency, m.points, m.compute)
	return m
}
