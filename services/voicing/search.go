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

	"github.com/fretforge/voicings/services/fretboard"
)

// =============================================================================
// Composed Generate-and-Filter API
// =============================================================================

// ApplyFilters runs the two-tier pipeline over an existing voicing stream,
// emitting (voicing, analysis) matches lazily. The input and output share
// the caller's context; cancelling it stops both ends.
//
// Inputs:
//   - ctx: Context for cancellation. Must not be nil.
//   - in: Voicing stream, typically from GenerateStream.
//   - fb: The fretboard the voicings were generated on.
//   - analyzer: The musical analyzer, called only on cheap-stage survivors.
//   - criteria: Filter criteria.
//
// Outputs:
//   - <-chan Match: Lazy match stream.
//   - <-chan error: Buffered; at most one error after the matches close.
func ApplyFilters(ctx context.Context, in <-chan Voicing, fb *fretboard.Fretboard, analyzer Analyzer, criteria VoicingFilterCriteria) (<-chan Match, <-chan error) {
	p, err := NewFilterPipeline(fb, analyzer, criteria)
	if err != nil {
		out := make(chan Match)
		errc := make(chan error, 1)
		errc <- fmt.Errorf("ApplyFilters: %w", err)
		close(out)
		close(errc)
		return out, errc
	}
	return p.Run(ctx, in)
}

// FilterAll drains a voicing stream through the pipeline eagerly and
// returns the matches with their final accounting. A convenience over
// ApplyFilters for callers that do not need lazy consumption.
func FilterAll(ctx context.Context, in <-chan Voicing, fb *fretboard.Fretboard, analyzer Analyzer, criteria VoicingFilterCriteria) ([]Match, Stats, error) {
	p, err := NewFilterPipeline(fb, analyzer, criteria)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("FilterAll: %w", err)
	}
	matches, errc := p.Run(ctx, in)
	var results []Match
	for m := range matches {
		results = append(results, m)
	}
	return results, p.Stats(), <-errc
}

// Search wires a generator and a filter pipeline end to end: it enumerates
// voicings, filters them, stops producing as soon as MaxResults matches are
// found, and reports final accounting.
//
// Inputs:
//   - ctx: Context for cancellation. Must not be nil.
//   - fb: The fretboard. Must not be nil.
//   - opts: Generation options.
//   - analyzer: The musical analyzer.
//   - criteria: Filter criteria; MaxResults of 0 means run to exhaustion.
//
// Outputs:
//   - []Match: The accepted voicings with their analyses.
//   - Stats: Examined/matched counts and the termination reason.
//   - error: Context error on external cancellation; nil when the run ends
//     by exhaustion or by reaching the result limit. Matches collected
//     before a cancellation remain valid.
func Search(ctx context.Context, fb *fretboard.Fretboard, opts GenerationOptions, analyzer Analyzer, criteria VoicingFilterCriteria) ([]Match, Stats, error) {
	if ctx == nil {
		return nil, Stats{}, fmt.Errorf("Search: ctx must not be nil")
	}

	g, err := NewGenerator(fb, opts)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("Search: %w", err)
	}
	p, err := NewFilterPipeline(fb, analyzer, criteria)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("Search: %w", err)
	}

	runCtx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	p.WithUpstreamCancel(cancel)

	stream, genErrc := g.Stream(runCtx)
	matches, pipeErrc := p.Run(runCtx, stream)

	var results []Match
	for m := range matches {
		results = append(results, m)
	}

	pipeErr := <-pipeErrc
	genErr := <-genErrc
	stats := p.Stats()

	if pipeErr != nil {
		return results, stats, pipeErr
	}
	if genErr != nil && !errors.Is(context.Cause(runCtx), errLimitReached) {
		return results, stats, genErr
	}
	return results, stats, nil
}
