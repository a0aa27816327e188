// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package voicing

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fretforge/voicings/services/fretboard"
)

// =============================================================================
// Generator
// =============================================================================

// Generator enumerates voicings for one fretboard and option set. Work is
// partitioned by the first string's fret choice; each partition runs
// enumerate -> prune -> dedup and pushes survivors into a shared queue.
//
// Thread Safety: Safe for concurrent use; each run owns its own dedup set
// and counters.
type Generator struct {
	fb         *fretboard.Fretboard
	opts       GenerationOptions
	candidates [][]int
	pr         pruner
	logger     *slog.Logger
	tracer     *VoicingTracer
}

// NewGenerator validates options and precomputes the per-string candidate
// fret lists.
//
// Inputs:
//   - fb: The fretboard. Must not be nil.
//   - opts: Generation options. Validated here; invalid options never start
//     generation work.
//
// Outputs:
//   - *Generator: Ready to use. Never nil on success.
//   - error: Non-nil on nil fretboard or invalid options.
func NewGenerator(fb *fretboard.Fretboard, opts GenerationOptions) (*Generator, error) {
	if fb == nil {
		return nil, fmt.Errorf("NewGenerator: fretboard must not be nil")
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("NewGenerator: %w", err)
	}
	opts = opts.normalized()
	if opts.MinPlayedNotes > fb.StringCount() {
		return nil, fmt.Errorf("NewGenerator: min played notes %d exceeds string count %d",
			opts.MinPlayedNotes, fb.StringCount())
	}

	g := &Generator{
		fb:     fb,
		opts:   opts,
		logger: slog.Default(),
		tracer: NewVoicingTracer(nil, true),
	}

	var target [12]bool
	for _, pc := range opts.Target {
		target[pc] = true
	}

	// classAt[s][f] avoids pitch arithmetic on the hot path.
	classAt := make([][]int, fb.StringCount())
	for s := 0; s < fb.StringCount(); s++ {
		classAt[s] = make([]int, fb.FretCount()+1)
		for f := 0; f <= fb.FretCount(); f++ {
			classAt[s][f] = int(fb.MustPitchAt(s, f).Class())
		}
	}

	g.pr = pruner{
		minPlayed:   opts.MinPlayedNotes,
		window:      opts.WindowSize,
		coverage:    opts.Coverage,
		classAt:     classAt,
		target:      target,
		targetCount: len(opts.Target),
	}

	// Candidate frets per string: muted, then ascending frets. Unless the
	// coverage mode admits non-target notes, frets sounding outside the
	// target set can never survive pruning and are skipped up front.
	g.candidates = make([][]int, fb.StringCount())
	for s := 0; s < fb.StringCount(); s++ {
		list := []int{MutedFret}
		for f := 0; f <= fb.FretCount(); f++ {
			if opts.Coverage == CoverageSuperset || target[classAt[s][f]] {
				list = append(list, f)
			}
		}
		g.candidates[s] = list
	}

	return g, nil
}

// WithLogger sets the logger.
func (g *Generator) WithLogger(logger *slog.Logger) *Generator {
	if logger != nil {
		g.logger = logger
	}
	return g
}

// WithTracer sets the tracer.
func (g *Generator) WithTracer(tracer *VoicingTracer) *Generator {
	if tracer != nil {
		g.tracer = tracer
	}
	return g
}

// Options returns the normalized options in effect.
func (g *Generator) Options() GenerationOptions {
	return g.opts
}

// Stream produces voicings lazily on the returned channel. The voicing
// channel is closed once enumeration finishes or the context is cancelled;
// the error channel then delivers at most one error. A cancelled run yields
// the context's error, and everything already received remains valid.
//
// Inputs:
//   - ctx: Context for cancellation. Must not be nil.
//
// Outputs:
//   - <-chan Voicing: Survivor stream, capacity QueueSize (backpressured).
//   - <-chan error: Buffered; closed after the voicing channel.
func (g *Generator) Stream(ctx context.Context) (<-chan Voicing, <-chan error) {
	out := make(chan Voicing, g.opts.QueueSize)
	errc := make(chan error, 1)
	if ctx == nil {
		errc <- fmt.Errorf("Stream: ctx must not be nil")
		close(out)
		close(errc)
		return out, errc
	}

	runID := uuid.NewString()
	seen := &seenSet{}
	var produced atomic.Int64
	mode := generationMode(g.opts.Parallel)

	go func() {
		defer close(errc)
		defer close(out)

		_, span := g.tracer.StartGenerate(ctx, runID, g.fb.Tuning().Name, g.opts)
		start := time.Now()

		var err error
		if g.opts.Parallel {
			err = g.runParallel(ctx, seen, out, &produced)
		} else {
			err = g.runSequential(ctx, seen, out, &produced)
		}

		elapsed := time.Since(start)
		generationDuration.WithLabelValues(mode).Observe(elapsed.Seconds())
		g.tracer.EndGenerate(span, produced.Load(), seen.len())
		g.logger.Info("voicing generation complete",
			slog.String("run_id", runID),
			slog.String("mode", mode),
			slog.Int64("produced", produced.Load()),
			slog.Duration("elapsed", elapsed),
			slog.Bool("cancelled", err != nil))

		if err != nil {
			errc <- err
		}
	}()

	return out, errc
}

// All collects the full survivor set eagerly. On cancellation the voicings
// produced so far are returned alongside the context error.
func (g *Generator) All(ctx context.Context) ([]Voicing, error) {
	out, errc := g.Stream(ctx)
	var results []Voicing
	for v := range out {
		results = append(results, v)
	}
	if err := <-errc; err != nil {
		return results, err
	}
	return results, nil
}

// runSequential walks every partition on the calling goroutine, giving a
// deterministic emission order.
func (g *Generator) runSequential(ctx context.Context, seen *seenSet, out chan<- Voicing, produced *atomic.Int64) error {
	for _, first := range g.candidates[0] {
		if err := g.searchPartition(ctx, seen, first, out, produced); err != nil {
			return err
		}
	}
	return nil
}

// runParallel fans partitions out to a fixed worker pool. The emitted set
// equals the sequential set; only the order differs.
func (g *Generator) runParallel(ctx context.Context, seen *seenSet, out chan<- Voicing, produced *atomic.Int64) error {
	parts := make(chan int)
	eg, egCtx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		defer close(parts)
		for _, first := range g.candidates[0] {
			select {
			case parts <- first:
			case <-egCtx.Done():
				return egCtx.Err()
			}
		}
		return nil
	})

	for w := 0; w < g.opts.Workers; w++ {
		eg.Go(func() error {
			for first := range parts {
				if err := g.searchPartition(egCtx, seen, first, out, produced); err != nil {
					return err
				}
			}
			return nil
		})
	}

	return eg.Wait()
}

// searchPartition enumerates one partition: the first string's choice is
// fixed and the remaining strings run through the odometer. The context is
// checked at every enumeration step, so cancellation latency is bounded by
// one cycle and no partial voicing is ever emitted.
func (g *Generator) searchPartition(ctx context.Context, seen *seenSet, first int, out chan<- Voicing, produced *atomic.Int64) error {
	od := newOdometer(g.candidates[1:])
	frets := make([]int, g.fb.StringCount())
	frets[0] = first
	mode := generationMode(g.opts.Parallel)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		combo, ok := od.next()
		if !ok {
			return nil
		}
		copy(frets[1:], combo)

		if !g.pr.admit(frets) {
			continue
		}
		v := newVoicingFromFrets(frets)
		if !seen.add(v.CanonicalKey()) {
			duplicatesSuppressed.Inc()
			continue
		}
		select {
		case out <- v:
			produced.Add(1)
			voicingsProduced.WithLabelValues(mode).Inc()
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// =============================================================================
// Package-Level Generation API
// =============================================================================

// GenerateAll enumerates every voicing for the target set eagerly.
//
// Inputs:
//   - ctx: Context for cancellation. Must not be nil.
//   - fb: The fretboard. Must not be nil.
//   - target: Target pitch classes. Must not be empty.
//   - windowSize: Maximum fret span. Must be positive.
//   - minPlayedNotes: Minimum played strings. Must be positive.
//   - parallel: Enables the worker pool.
//
// Outputs:
//   - []Voicing: Every surviving voicing; order is deterministic only when
//     parallel is false.
//   - error: Context error on cancellation, validation error on bad input.
func GenerateAll(ctx context.Context, fb *fretboard.Fretboard, target []fretboard.PitchClass, windowSize, minPlayedNotes int, parallel bool) ([]Voicing, error) {
	opts := DefaultGenerationOptions(target)
	opts.WindowSize = windowSize
	opts.MinPlayedNotes = minPlayedNotes
	opts.Parallel = parallel
	g, err := NewGenerator(fb, opts)
	if err != nil {
		return nil, fmt.Errorf("GenerateAll: %w", err)
	}
	return g.All(ctx)
}

// GenerateStream produces voicings lazily for callers that transform or
// truncate the stream without materializing it.
func GenerateStream(ctx context.Context, fb *fretboard.Fretboard, opts GenerationOptions) (<-chan Voicing, <-chan error) {
	g, err := NewGenerator(fb, opts)
	if err != nil {
		out := make(chan Voicing)
		errc := make(chan error, 1)
		errc <- fmt.Errorf("GenerateStream: %w", err)
		close(out)
		close(errc)
		return out, errc
	}
	return g.Stream(ctx)
}
