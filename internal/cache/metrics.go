package cache

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	lookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gocard",
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups by result (hit, miss).",
		},
		[]string{"result"},
	)

	writesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gocard",
			Subsystem: "cache",
			Name:      "writes_total",
			Help:      "Entries written by kind (content, metadata).",
		},
		[]string{"kind"},
	)

	evictedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "gocard",
			Subsystem: "cache",
			Name:      "evicted_total",
			Help:      "Entries removed by eviction sweeps.",
		},
	)

	storageErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "gocard",
			Subsystem: "cache",
			Name:      "storage_errors_total",
			Help:      "Local store failures swallowed by the cache manager.",
		},
		[]string{"op"},
	)
)
