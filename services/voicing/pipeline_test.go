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
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fretforge/voicings/services/analysis"
	"github.com/fretforge/voicings/services/fretboard"
)

// stubAnalyzer returns a fixed analysis and counts invocations. When fail
// is set it returns an error instead.
type stubAnalyzer struct {
	calls  atomic.Int64
	fail   bool
	result *analysis.Analysis
}

func (s *stubAnalyzer) Analyze(_ context.Context, _ []fretboard.Pitch) (*analysis.Analysis, error) {
	s.calls.Add(1)
	if s.fail {
		return nil, errors.New("stub analyzer failure")
	}
	if s.result != nil {
		return s.result, nil
	}
	return &analysis.Analysis{ChordName: "C", DistinctPitchClasses: 3}, nil
}

// feedVoicings returns a closed, pre-filled stream.
func feedVoicings(vs ...Voicing) <-chan Voicing {
	ch := make(chan Voicing, len(vs))
	for _, v := range vs {
		ch <- v
	}
	close(ch)
	return ch
}

func TestNewFilterPipeline_Validation(t *testing.T) {
	fb := testFretboard(t, 22)
	an := &stubAnalyzer{}

	_, err := NewFilterPipeline(nil, an, VoicingFilterCriteria{})
	require.Error(t, err)

	_, err = NewFilterPipeline(fb, nil, VoicingFilterCriteria{})
	require.Error(t, err)

	_, err = NewFilterPipeline(fb, an, VoicingFilterCriteria{MaxResults: -1})
	require.Error(t, err)

	_, err = NewFilterPipeline(fb, an, VoicingFilterCriteria{})
	require.NoError(t, err)
}

func TestFilterPipeline_RunToExhaustion(t *testing.T) {
	fb := testFretboard(t, 22)
	an := &stubAnalyzer{}
	p, err := NewFilterPipeline(fb, an, VoicingFilterCriteria{})
	require.NoError(t, err)

	open := voicingOf(t, MutedFret, 3, 2, 0, 1, 0)
	high := voicingOf(t, MutedFret, MutedFret, 14, 14, 13, MutedFret)
	matches, errc := p.Run(context.Background(), feedVoicings(open, high))

	var got []Match
	for m := range matches {
		got = append(got, m)
	}
	require.NoError(t, <-errc)
	require.Len(t, got, 2)
	for _, m := range got {
		assert.NotNil(t, m.Analysis)
	}

	stats := p.Stats()
	assert.Equal(t, int64(2), stats.Examined)
	assert.Equal(t, int64(2), stats.Matched)
	assert.Equal(t, int64(0), stats.AnalyzerFailures)
	assert.Equal(t, ReasonExhausted, stats.Reason)
}

func TestFilterPipeline_CheapStageSkipsAnalyzer(t *testing.T) {
	fb := testFretboard(t, 22)
	an := &stubAnalyzer{}
	p, err := NewFilterPipeline(fb, an, VoicingFilterCriteria{FretRange: UpperPosition})
	require.NoError(t, err)

	// Both candidates sit well below fret 13; the cheap stage rejects them
	// before the analyzer is ever consulted.
	matches, errc := p.Run(context.Background(),
		feedVoicings(voicingOf(t, MutedFret, 3, 2, 0, 1, 0), voicingOf(t, 3, 2, 0, 0, 0, 3)))
	for range matches {
		t.Fatal("no match expected")
	}
	require.NoError(t, <-errc)

	assert.Equal(t, int64(0), an.calls.Load(), "analyzer must not run on cheap-stage rejects")
	stats := p.Stats()
	assert.Equal(t, int64(2), stats.Examined)
	assert.Equal(t, int64(0), stats.Matched)
}

func TestFilterPipeline_AnalyzerFailureIsSkipped(t *testing.T) {
	fb := testFretboard(t, 22)
	an := &stubAnalyzer{fail: true}
	p, err := NewFilterPipeline(fb, an, VoicingFilterCriteria{})
	require.NoError(t, err)

	matches, errc := p.Run(context.Background(),
		feedVoicings(voicingOf(t, MutedFret, 3, 2, 0, 1, 0)))
	for range matches {
		t.Fatal("a failed candidate must not be emitted")
	}
	require.NoError(t, <-errc, "analyzer failures are skips, not run errors")

	stats := p.Stats()
	assert.Equal(t, int64(1), stats.Examined)
	assert.Equal(t, int64(1), stats.AnalyzerFailures)
	assert.Equal(t, int64(0), stats.Matched)
	assert.Equal(t, ReasonExhausted, stats.Reason)
}

func TestFilterPipeline_MaxResultsStopsUpstream(t *testing.T) {
	fb := testFretboard(t, 22)
	an := &stubAnalyzer{}
	p, err := NewFilterPipeline(fb, an, VoicingFilterCriteria{MaxResults: 2})
	require.NoError(t, err)

	var stopCause error
	p.WithUpstreamCancel(func(cause error) { stopCause = cause })

	v := voicingOf(t, MutedFret, 3, 2, 0, 1, 0)
	matches, errc := p.Run(context.Background(), feedVoicings(v, v, v, v, v))

	count := 0
	for range matches {
		count++
	}
	require.NoError(t, <-errc)
	assert.Equal(t, 2, count, "exactly MaxResults matches must be emitted")
	assert.ErrorIs(t, stopCause, errLimitReached, "upstream must be cancelled with the limit cause")
	assert.Equal(t, ReasonLimitReached, p.Stats().Reason)
}

func TestFilterPipeline_ExternalCancellation(t *testing.T) {
	fb := testFretboard(t, 22)
	an := &stubAnalyzer{}
	p, err := NewFilterPipeline(fb, an, VoicingFilterCriteria{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan Voicing) // never fed, never closed
	matches, errc := p.Run(ctx, in)
	cancel()

	for range matches {
	}
	assert.ErrorIs(t, <-errc, context.Canceled)
	assert.Equal(t, ReasonCancelled, p.Stats().Reason)
}

func TestFilterPipeline_StatsSink(t *testing.T) {
	fb := testFretboard(t, 22)
	an := &stubAnalyzer{}
	p, err := NewFilterPipeline(fb, an, VoicingFilterCriteria{})
	require.NoError(t, err)

	var sunk Stats
	done := make(chan struct{})
	p.WithStatsSink(func(s Stats) {
		sunk = s
		close(done)
	})

	matches, errc := p.Run(context.Background(),
		feedVoicings(voicingOf(t, MutedFret, 3, 2, 0, 1, 0)))
	for range matches {
	}
	require.NoError(t, <-errc)

	<-done
	assert.Equal(t, int64(1), sunk.Examined)
	assert.Equal(t, ReasonExhausted, sunk.Reason)
}

func TestApplyFilters_InvalidCriteria(t *testing.T) {
	fb := testFretboard(t, 22)
	matches, errc := ApplyFilters(context.Background(), feedVoicings(), fb, &stubAnalyzer{},
		VoicingFilterCriteria{MaxResults: -1})
	for range matches {
		t.Fatal("no match expected on invalid criteria")
	}
	require.Error(t, <-errc)
}

func TestFilterAll_CollectsMatchesAndStats(t *testing.T) {
	fb := testFretboard(t, 22)
	v := voicingOf(t, MutedFret, 3, 2, 0, 1, 0)

	results, stats, err := FilterAll(context.Background(), feedVoicings(v, v),
		fb, &stubAnalyzer{}, VoicingFilterCriteria{})
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, int64(2), stats.Examined)
	assert.Equal(t, ReasonExhausted, stats.Reason)
}

func TestSearch_LimitReachedIsNotAnError(t *testing.T) {
	fb := testFretboard(t, 12)
	opts := DefaultGenerationOptions(cMajorTarget())
	opts.WindowSize = 3

	results, stats, err := Search(context.Background(), fb, opts, analysis.NewTheoryAnalyzer(nil),
		VoicingFilterCriteria{MaxResults: 5})
	require.NoError(t, err, "reaching the limit is a normal termination")
	assert.Len(t, results, 5)
	assert.Equal(t, ReasonLimitReached, stats.Reason)
	assert.Equal(t, int64(5), stats.Matched)
}

func TestSearch_EndToEndWithTheoryAnalyzer(t *testing.T) {
	fb := testFretboard(t, 12)
	opts := DefaultGenerationOptions(cMajorTarget())
	opts.WindowSize = 3

	criteria := VoicingFilterCriteria{
		FretRange: OpenPosition,
		ChordType: MajorChords,
	}
	results, stats, err := Search(context.Background(), fb, opts, analysis.NewTheoryAnalyzer(nil), criteria)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, ReasonExhausted, stats.Reason)
	assert.Equal(t, int64(len(results)), stats.Matched)
	assert.GreaterOrEqual(t, stats.Examined, stats.Matched)

	for _, m := range results {
		require.NotNil(t, m.Analysis)
		assert.LessOrEqual(t, m.Voicing.LowestPlayedFret(), 4, "voicing %s", m.Voicing)
		assert.True(t, MatchesCriteria(m.Voicing, m.Analysis, fb, criteria),
			"emitted match %s must satisfy its own criteria", m.Voicing)
	}
}

func TestSearch_ExternalCancellation(t *testing.T) {
	fb := testFretboard(t, 22)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, stats, err := Search(ctx, fb, DefaultGenerationOptions(cMajorTarget()),
		analysis.NewTheoryAnalyzer(nil), VoicingFilterCriteria{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ReasonCancelled, stats.Reason)
}

func TestSearch_InvalidInputs(t *testing.T) {
	fb := testFretboard(t, 22)
	an := analysis.NewTheoryAnalyzer(nil)

	_, _, err := Search(context.Background(), fb, GenerationOptions{}, an, VoicingFilterCriteria{})
	require.Error(t, err, "empty generation options must fail validation")

	_, _, err = Search(context.Background(), fb, DefaultGenerationOptions(cMajorTarget()), an,
		VoicingFilterCriteria{MaxResults: -1})
	require.Error(t, err, "invalid criteria must fail before any work starts")
}
