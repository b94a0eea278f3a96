package preload

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gocard",
			Subsystem: "preload",
			Name:      "runs_total",
			Help:      "Preload passes by outcome (complete, partial).",
		},
		[]string{"outcome"},
	)

	preloadedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gocard",
			Subsystem: "preload",
			Name:      "records_total",
			Help:      "Metadata records committed by preload passes.",
		},
	)
)
