// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics holds the Prometheus collectors for pipeline runs and the
// retrieval index. Collectors register on the default registry; the HTTP
// server exposes them at /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "groundwork"

var (
	// Runs counts completed pipeline runs.
	// Labels: outcome (passed, failed, error)
	Runs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "runs_total",
		Help:      "Pipeline runs by outcome",
	}, []string{"outcome"})

	// StageDuration measures wall time per stage.
	// Labels: agent (Planner, Researcher, Writer, Verifier)
	StageDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "stage_duration_seconds",
		Help:      "Stage latency in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 60},
	}, []string{"agent"})

	// StageErrors counts errors recorded by stages.
	StageErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "pipeline",
		Name:      "stage_errors_total",
		Help:      "Errors recorded by stage",
	}, []string{"agent"})

	// Verifications counts verification outcomes.
	// Labels: status (PASS, FAIL, PASS WITH WARNINGS, UNKNOWN)
	Verifications = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "verify",
		Name:      "outcomes_total",
		Help:      "Verification outcomes by parsed status",
	}, []string{"status"})

	// RuleFirings counts deterministic verification rules that raised an
	// issue. Labels: rule
	RuleFirings = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "verify",
		Name:      "rule_firings_total",
		Help:      "Deterministic verification rule firings",
	}, []string{"rule"})

	// ExcerptsRetrieved observes excerpts returned per run.
	ExcerptsRetrieved = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "retrieve",
		Name:      "excerpts",
		Help:      "Excerpts retrieved per run",
		Buckets:   []float64{0, 1, 2, 4, 8, 16, 32, 64},
	})

	// IndexRebuilds counts index rebuilds. Labels: status (ok, error)
	IndexRebuilds = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "index",
		Name:      "rebuilds_total",
		Help:      "Index rebuilds by status",
	}, []string{"status"})

	// IndexChunks reports chunks in the live index snapshot.
	IndexChunks = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: "index",
		Name:      "chunks",
		Help:      "Chunks in the live index",
	})

	// QueryCache counts query-embedding cache lookups. Labels: result (hit, miss)
	QueryCache = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "index",
		Name:      "query_cache_total",
		Help:      "Query embedding cache lookups",
	}, []string{"result"})
)
