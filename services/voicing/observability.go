// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package voicing

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

const voicingTracerName = "fretforge.voicings"

// VoicingTracer provides OpenTelemetry tracing for generation and filtering.
//
// Thread Safety: Safe for concurrent use.
type VoicingTracer struct {
	tracer  trace.Tracer
	logger  *slog.Logger
	enabled bool
}

// NewVoicingTracer creates a tracer.
//
// Inputs:
//   - logger: Logger for structured logging. Nil falls back to slog.Default().
//   - enabled: When false, every Start method returns a noop span.
//
// Outputs:
//   - *VoicingTracer: Tracer instance.
func NewVoicingTracer(logger *slog.Logger, enabled bool) *VoicingTracer {
	if logger == nil {
		logger = slog.Default()
	}
	return &VoicingTracer{
		tracer:  otel.Tracer(voicingTracerName),
		logger:  logger,
		enabled: enabled,
	}
}

// StartGenerate starts a span for one producer run.
func (t *VoicingTracer) StartGenerate(ctx context.Context, runID, tuning string, opts GenerationOptions) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, noop.Span{}
	}
	return t.tracer.Start(ctx, "voicing.generate",
		trace.WithAttributes(
			attribute.String("voicing.run_id", runID),
			attribute.String("voicing.tuning", tuning),
			attribute.Int("voicing.window_size", opts.WindowSize),
			attribute.Int("voicing.min_played_notes", opts.MinPlayedNotes),
			attribute.String("voicing.coverage", string(opts.Coverage)),
			attribute.Bool("voicing.parallel", opts.Parallel),
			attribute.Int("voicing.workers", opts.Workers),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndGenerate records run totals on the span and ends it.
func (t *VoicingTracer) EndGenerate(span trace.Span, produced, distinct int64) {
	span.SetAttributes(
		attribute.Int64("voicing.produced", produced),
		attribute.Int64("voicing.distinct_keys", distinct),
	)
	span.End()
}

// StartFilter starts a span for one filter pipeline run.
func (t *VoicingTracer) StartFilter(ctx context.Context, criteria VoicingFilterCriteria) (context.Context, trace.Span) {
	if !t.enabled {
		return ctx, noop.Span{}
	}
	return t.tracer.Start(ctx, "voicing.filter",
		trace.WithAttributes(
			attribute.String("filter.fret_range", string(criteria.FretRange)),
			attribute.String("filter.note_count", string(criteria.NoteCount)),
			attribute.String("filter.chord_type", string(criteria.ChordType)),
			attribute.String("filter.voicing_type", string(criteria.VoicingType)),
			attribute.Int("filter.max_results", criteria.MaxResults),
		),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

// EndFilter records pipeline stats on the span and ends it.
func (t *VoicingTracer) EndFilter(span trace.Span, stats Stats) {
	span.SetAttributes(
		attribute.Int64("filter.examined", stats.Examined),
		attribute.Int64("filter.matched", stats.Matched),
		attribute.String("filter.reason", string(stats.Reason)),
	)
	span.End()
}
