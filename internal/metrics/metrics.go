package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordOutcomes tracks validation outcomes per reason
	RecordOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifier_record_outcomes_total",
			Help: "Total number of validated records by outcome",
		},
		[]string{"reason"},
	)

	// LivenessAttempts tracks HTTP probes made by the liveness checker
	LivenessAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifier_liveness_attempts_total",
			Help: "Total number of liveness probes",
		},
		[]string{"method", "outcome"},
	)

	// LivenessLatency tracks the duration of a full liveness check including retries
	LivenessLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "verifier_liveness_check_seconds",
			Help:    "Liveness check latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"reason"},
	)

	// LivenessCacheHits tracks verdicts served from the cache
	LivenessCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "verifier_liveness_cache_hits_total",
			Help: "Total number of liveness verdicts served from cache",
		},
	)

	// LivenessCacheEvictions tracks verdicts dropped from the memory tier
	LivenessCacheEvictions = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "verifier_liveness_cache_evictions_total",
			Help: "Total number of liveness verdicts evicted from the memory cache",
		},
	)

	// CollectorCandidates tracks replacement candidates per producer and result
	CollectorCandidates = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifier_collector_candidates_total",
			Help: "Replacement candidates by result (requested, returned, rejected, inserted)",
		},
		[]string{"producer", "result"},
	)

	// ReconcileRuns tracks finished reconciliation runs per final state
	ReconcileRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "verifier_reconcile_runs_total",
			Help: "Total number of reconciliation runs by final state",
		},
		[]string{"state"},
	)

	// ReconcileIterations tracks repair cycles per run
	ReconcileIterations = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "verifier_reconcile_iterations",
			Help:    "Repair iterations per reconciliation run",
			Buckets: []float64{0, 1, 2, 3, 5, 8},
		},
	)
)
