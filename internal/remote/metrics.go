package remote

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gocard",
			Subsystem: "remote",
			Name:      "requests_total",
			Help:      "Requests to the remote content service by operation and status.",
		},
		[]string{"op", "status"},
	)

	requestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "gocard",
			Subsystem: "remote",
			Name:      "request_duration_seconds",
			Help:      "Latency of requests to the remote content service.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"op"},
	)
)
