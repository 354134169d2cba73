package services

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// annotationOpsTotal counts annotation mutations by operation and outcome
	annotationOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "passage_annotation_operations_total",
		Help: "Annotation mutations by operation and outcome",
	}, []string{"operation", "outcome"})

	// commitRecordsTotal counts committed records by outcome (written, stale, failed)
	commitRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "passage_commit_records_total",
		Help: "Records handled by commits, by outcome",
	}, []string{"outcome"})

	// commitDuration tracks how long a full commit takes
	commitDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "passage_commit_duration_seconds",
		Help:    "Duration of a commit of all passages of a session",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12), // 1ms to ~4s
	})

	// mirrorTotal counts recovery mirror writes by outcome
	mirrorTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "passage_recovery_mirror_total",
		Help: "Recovery mirror writes by outcome",
	}, []string{"outcome"})
)
