package router

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fetchesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gocard",
		Subsystem: "router",
		Name:      "fetches_total",
		Help:      "Content and metadata fetches by kind and outcome (cache, remote, offline, error).",
	},
	[]string{"kind", "outcome"},
)
