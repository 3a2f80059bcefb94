package application

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeEvents = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_store_events",
		Help: "Events held by the current snapshot.",
	})

	storeTrainers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "scheduler_store_trainers",
		Help: "Trainers held by the current snapshot.",
	})

	refreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_refresh_total",
		Help: "Store refreshes by outcome.",
	}, []string{"outcome"})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "scheduler_refresh_duration_seconds",
		Help:    "Time spent loading events and trainers.",
		Buckets: prometheus.DefBuckets,
	})

	mutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_mutations_total",
		Help: "Store mutations by operation and outcome.",
	}, []string{"op", "outcome"})
)
