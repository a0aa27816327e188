// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package voicing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/fretforge/voicings/services/analysis"
	"github.com/fretforge/voicings/services/fretboard"
)

// =============================================================================
// Two-Tier Filter Pipeline
// =============================================================================

// Analyzer derives harmonic facts from the sounding pitches of a voicing.
// It is invoked only on candidates that survive the cheap structural stage.
type Analyzer interface {
	Analyze(ctx context.Context, pitches []fretboard.Pitch) (*analysis.Analysis, error)
}

// Match pairs an accepted voicing with its analysis.
type Match struct {
	Voicing  Voicing
	Analysis *analysis.Analysis
}

// TerminationReason states why a pipeline run ended.
type TerminationReason string

const (
	ReasonExhausted    TerminationReason = "exhausted"
	ReasonLimitReached TerminationReason = "limit_reached"
	ReasonCancelled    TerminationReason = "cancelled"
)

// Stats reports pipeline accounting after a run completes.
type Stats struct {
	// Examined counts candidates that entered the cheap stage.
	Examined int64

	// Matched counts candidates that passed every stage.
	Matched int64

	// AnalyzerFailures counts candidates skipped because analysis failed.
	AnalyzerFailures int64

	// Reason states why the run ended.
	Reason TerminationReason
}

// StatsFunc receives the final Stats of a pipeline run.
type StatsFunc func(Stats)

// errLimitReached is the cancellation cause used when MaxResults is hit.
// It marks upstream shutdown as a normal outcome, not a failure.
var errLimitReached = errors.New("voicing: result limit reached")

// FilterPipeline consumes a voicing stream, applies cheap structural
// filters, defers to the analyzer only for survivors, then applies the
// expensive analysis-dependent filters.
//
// Thread Safety: One Run per pipeline instance; the instance may be
// inspected concurrently via Stats.
type FilterPipeline struct {
	fb       *fretboard.Fretboard
	analyzer Analyzer
	criteria VoicingFilterCriteria
	logger   *slog.Logger
	tracer   *VoicingTracer

	// stop, when set, cancels the upstream producer once MaxResults is hit.
	stop context.CancelCauseFunc

	// statsFn, when set, receives the final stats at completion.
	statsFn StatsFunc

	examined         atomic.Int64
	matched          atomic.Int64
	analyzerFailures atomic.Int64
	reason           atomic.Value // TerminationReason
}

// NewFilterPipeline validates inputs and builds a pipeline.
//
// Inputs:
//   - fb: The fretboard the voicings were generated on. Must not be nil.
//   - analyzer: The musical analyzer. Must not be nil.
//   - criteria: Filter criteria. Validated here.
//
// Outputs:
//   - *FilterPipeline: Ready for one Run. Never nil on success.
//   - error: Non-nil on nil collaborators or invalid criteria.
func NewFilterPipeline(fb *fretboard.Fretboard, analyzer Analyzer, criteria VoicingFilterCriteria) (*FilterPipeline, error) {
	if fb == nil {
		return nil, fmt.Errorf("NewFilterPipeline: fretboard must not be nil")
	}
	if analyzer == nil {
		return nil, fmt.Errorf("NewFilterPipeline: analyzer must not be nil")
	}
	if err := criteria.Validate(); err != nil {
		return nil, fmt.Errorf("NewFilterPipeline: %w", err)
	}
	return &FilterPipeline{
		fb:       fb,
		analyzer: analyzer,
		criteria: criteria,
		logger:   slog.Default(),
		tracer:   NewVoicingTracer(nil, true),
	}, nil
}

// WithLogger sets the logger.
func (p *FilterPipeline) WithLogger(logger *slog.Logger) *FilterPipeline {
	if logger != nil {
		p.logger = logger
	}
	return p
}

// WithUpstreamCancel wires the producer's cancel function so the pipeline
// can stop enumeration once MaxResults is reached.
func (p *FilterPipeline) WithUpstreamCancel(stop context.CancelCauseFunc) *FilterPipeline {
	p.stop = stop
	return p
}

// WithStatsSink sets a callback receiving the final stats.
func (p *FilterPipeline) WithStatsSink(fn StatsFunc) *FilterPipeline {
	p.statsFn = fn
	return p
}

// Stats returns the accounting so far; the Reason field is meaningful only
// after the match channel has closed.
func (p *FilterPipeline) Stats() Stats {
	reason, _ := p.reason.Load().(TerminationReason)
	return Stats{
		Examined:         p.examined.Load(),
		Matched:          p.matched.Load(),
		AnalyzerFailures: p.analyzerFailures.Load(),
		Reason:           reason,
	}
}

// Run drains the voicing stream and emits matches lazily.
//
// Inputs:
//   - ctx: Context for cancellation. Must not be nil.
//   - in: Producer stream; Run consumes it until closure, cancellation, or
//     the result limit.
//
// Outputs:
//   - <-chan Match: Accepted (voicing, analysis) pairs.
//   - <-chan error: Buffered; delivers at most one error after the match
//     channel closes. Cancellation surfaces as the context's error.
func (p *FilterPipeline) Run(ctx context.Context, in <-chan Voicing) (<-chan Match, <-chan error) {
	out := make(chan Match)
	errc := make(chan error, 1)
	if ctx == nil {
		errc <- fmt.Errorf("Run: ctx must not be nil")
		close(out)
		close(errc)
		return out, errc
	}

	go func() {
		defer close(errc)
		defer close(out)

		_, span := p.tracer.StartFilter(ctx, p.criteria)
		reason := ReasonExhausted
		var runErr error

	consume:
		for {
			select {
			case <-ctx.Done():
				reason = ReasonCancelled
				runErr = context.Cause(ctx)
				break consume
			case v, ok := <-in:
				if !ok {
					break consume
				}
				a, err := p.evaluate(ctx, v)
				if err != nil {
					// Only context errors propagate out of evaluate.
					reason = ReasonCancelled
					runErr = err
					break consume
				}
				if a == nil {
					continue
				}
				select {
				case out <- Match{Voicing: v, Analysis: a}:
				case <-ctx.Done():
					reason = ReasonCancelled
					runErr = context.Cause(ctx)
					break consume
				}
				if p.criteria.MaxResults > 0 && p.matched.Load() >= int64(p.criteria.MaxResults) {
					reason = ReasonLimitReached
					if p.stop != nil {
						p.stop(errLimitReached)
					}
					break consume
				}
			}
		}

		if reason == ReasonCancelled && errors.Is(runErr, errLimitReached) {
			// Upstream cancellation we triggered ourselves.
			reason = ReasonLimitReached
			runErr = nil
		}
		p.reason.Store(reason)
		pipelineRuns.WithLabelValues(string(reason)).Inc()
		stats := p.Stats()
		p.tracer.EndFilter(span, stats)
		p.logger.Info("voicing filter pipeline complete",
			slog.Int64("examined", stats.Examined),
			slog.Int64("matched", stats.Matched),
			slog.Int64("analyzer_failures", stats.AnalyzerFailures),
			slog.String("reason", string(reason)))
		if p.statsFn != nil {
			p.statsFn(stats)
		}
		if runErr != nil {
			errc <- runErr
		}
	}()

	return out, errc
}

// evaluate runs one candidate through both stages. A nil analysis with a
// nil error means the candidate was rejected or skipped; a non-nil error
// is returned only for context cancellation. Analyzer failures are absorbed
// (skip, count, log) per the pipeline's failure policy.
func (p *FilterPipeline) evaluate(ctx context.Context, v Voicing) (*analysis.Analysis, error) {
	p.examined.Add(1)
	candidatesExamined.Inc()

	if !matchesCheap(v, p.fb, p.criteria) {
		return nil, nil
	}

	a, err := p.analyzer.Analyze(ctx, v.Pitches(p.fb))
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return nil, err
		}
		p.analyzerFailures.Add(1)
		analyzerFailures.Inc()
		p.logger.Warn("analyzer failed on candidate, skipping",
			slog.String("voicing", v.CanonicalKey()),
			slog.String("error", err.Error()))
		return nil, nil
	}

	if !matchesExpensive(a, p.criteria) {
		return nil, nil
	}
	p.matched.Add(1)
	candidatesMatched.Inc()
	return a, nil
}
