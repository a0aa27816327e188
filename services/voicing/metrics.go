// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package voicing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Prometheus Metrics for Voicing Generation and Filtering
// =============================================================================

var (
	// voicingsProduced counts voicings that survived pruning and dedup.
	// Labels: mode (parallel, sequential)
	voicingsProduced = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fretforge",
		Subsystem: "voicings",
		Name:      "produced_total",
		Help:      "Voicings emitted by the producer after pruning and dedup",
	}, []string{"mode"})

	// duplicatesSuppressed counts combinations rejected by the dedup set.
	duplicatesSuppressed = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fretforge",
		Subsystem: "voicings",
		Name:      "duplicates_suppressed_total",
		Help:      "Voicings discarded because their canonical key was already seen",
	})

	// candidatesExamined counts candidates entering the filter pipeline.
	candidatesExamined = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fretforge",
		Subsystem: "voicings",
		Name:      "candidates_examined_total",
		Help:      "Candidates entering the cheap filter stage",
	})

	// candidatesMatched counts candidates passing all filter stages.
	candidatesMatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fretforge",
		Subsystem: "voicings",
		Name:      "matches_total",
		Help:      "Candidates passing both filter stages",
	})

	// analyzerFailures counts candidates skipped due to analyzer errors.
	analyzerFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "fretforge",
		Subsystem: "voicings",
		Name:      "analyzer_failures_total",
		Help:      "Candidates skipped because analysis failed",
	})

	// generationDuration measures end-to-end producer run time.
	// Labels: mode (parallel, sequential)
	generationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "fretforge",
		Subsystem: "voicings",
		Name:      "generation_duration_seconds",
		Help:      "Producer run duration in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"mode"})

	// pipelineRuns counts filter pipeline completions by termination reason.
	// Labels: reason (exhausted, limit_reached, cancelled)
	pipelineRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "fretforge",
		Subsystem: "voicings",
		Name:      "pipeline_runs_total",
		Help:      "Filter pipeline completions by termination reason",
	}, []string{"reason"})
)

// generationMode returns the metric label for a run.
func generationMode(parallel bool) string {
	if parallel {
		return "parallel"
	}
	return "sequential"
}
