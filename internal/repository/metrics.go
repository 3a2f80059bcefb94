package repository

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	normalizationWarnings = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_normalization_warnings_total",
		Help: "Record fields repaired while normalizing repository data.",
	}, []string{"record", "field"})

	repositoryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "scheduler_repository_requests_total",
		Help: "Repository round-trips by operation and outcome.",
	}, []string{"op", "outcome"})
)
