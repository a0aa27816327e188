// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package voicing enumerates every playable voicing for a target pitch-class
// set on a fretboard and narrows the space through a staged, parallel,
// cancellable filter pipeline.
//
// Data flows one way: enumerator -> pruner -> deduplicator -> producer
// queue -> two-tier filter pipeline -> bounded output. Voicings are
// immutable once constructed and flow through the pipeline by value.
package voicing

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/fretforge/voicings/services/fretboard"
)

// =============================================================================
// Fret Choices and Voicings
// =============================================================================

// MutedFret is the fret value of a muted (unplayed) string.
const MutedFret = -1

// FretChoice assigns one string a fret, an open position, or a mute.
type FretChoice struct {
	// String is the 0-based string index, 0 = lowest string.
	String int

	// Fret is MutedFret, 0 for open, or a positive fret number.
	Fret int
}

// IsMuted reports whether the string is muted.
func (c FretChoice) IsMuted() bool {
	return c.Fret == MutedFret
}

// IsOpen reports whether the string is played open.
func (c FretChoice) IsOpen() bool {
	return c.Fret == 0
}

// Voicing is an ordered fret assignment, one choice per string. Muted
// strings contribute no pitch.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Voicing struct {
	choices []FretChoice
	key     string
}

// NewVoicing builds a voicing from per-string choices.
//
// Inputs:
//   - choices: One choice per string, ordered by string index starting at 0.
//
// Outputs:
//   - Voicing: The immutable voicing with its canonical key precomputed.
//   - error: Non-nil if choices are empty, out of order, or have bad frets.
func NewVoicing(choices []FretChoice) (Voicing, error) {
	if len(choices) == 0 {
		return Voicing{}, fmt.Errorf("NewVoicing: no fret choices")
	}
	for i, c := range choices {
		if c.String != i {
			return Voicing{}, fmt.Errorf("NewVoicing: choice %d has string index %d", i, c.String)
		}
		if c.Fret < MutedFret {
			return Voicing{}, fmt.Errorf("NewVoicing: string %d has invalid fret %d", i, c.Fret)
		}
	}
	owned := make([]FretChoice, len(choices))
	copy(owned, choices)
	return Voicing{choices: owned, key: canonicalKey(owned)}, nil
}

// newVoicingFromFrets is the hot-path constructor used by the enumerator,
// which guarantees well-formed input.
func newVoicingFromFrets(frets []int) Voicing {
	choices := make([]FretChoice, len(frets))
	for i, f := range frets {
		choices[i] = FretChoice{String: i, Fret: f}
	}
	return Voicing{choices: choices, key: canonicalKey(choices)}
}

// canonicalKey serializes choices as "x-3-2-0-1-0" with "x" for mutes.
func canonicalKey(choices []FretChoice) string {
	var b strings.Builder
	for i, c := range choices {
		if i > 0 {
			b.WriteByte('-')
		}
		if c.IsMuted() {
			b.WriteByte('x')
		} else {
			b.WriteString(strconv.Itoa(c.Fret))
		}
	}
	return b.String()
}

// CanonicalKey returns the deterministic dedup key ("x-3-2-0-1-0"). Two
// voicings are duplicates iff their keys are equal.
func (v Voicing) CanonicalKey() string {
	return v.key
}

// Choices returns the per-string fret choices. The slice is shared and must
// not be modified.
func (v Voicing) Choices() []FretChoice {
	return v.choices
}

// StringCount returns the number of strings covered by the voicing.
func (v Voicing) StringCount() int {
	return len(v.choices)
}

// PlayedCount returns the number of non-muted strings.
func (v Voicing) PlayedCount() int {
	n := 0
	for _, c := range v.choices {
		if !c.IsMuted() {
			n++
		}
	}
	return n
}

// LowestPlayedFret returns the minimum fret among played strings (open
// strings count as fret 0). Returns -1 when every string is muted.
func (v Voicing) LowestPlayedFret() int {
	low := -1
	for _, c := range v.choices {
		if c.IsMuted() {
			continue
		}
		if low == -1 || c.Fret < low {
			low = c.Fret
		}
	}
	return low
}

// FretSpan returns the span between the highest and lowest fret among
// fretted, non-open, played strings. Open and muted strings do not widen
// the span. Returns 0 when at most one string is fretted.
func (v Voicing) FretSpan() int {
	low, high := 0, 0
	seen := false
	for _, c := range v.choices {
		if c.IsMuted() || c.IsOpen() {
			continue
		}
		if !seen {
			low, high = c.Fret, c.Fret
			seen = true
			continue
		}
		if c.Fret < low {
			low = c.Fret
		}
		if c.Fret > high {
			high = c.Fret
		}
	}
	if !seen {
		return 0
	}
	return high - low
}

// Pitches returns the sounding pitches of played strings, ordered low
// string to high.
func (v Voicing) Pitches(fb *fretboard.Fretboard) []fretboard.Pitch {
	out := make([]fretboard.Pitch, 0, len(v.choices))
	for _, c := range v.choices {
		if c.IsMuted() {
			continue
		}
		out = append(out, fb.MustPitchAt(c.String, c.Fret))
	}
	return out
}

// PitchClassSet returns the distinct sounding pitch classes in ascending
// class order.
func (v Voicing) PitchClassSet(fb *fretboard.Fretboard) []fretboard.PitchClass {
	seen := [12]bool{}
	for _, c := range v.choices {
		if c.IsMuted() {
			continue
		}
		seen[fb.MustPitchAt(c.String, c.Fret).Class()] = true
	}
	out := make([]fretboard.PitchClass, 0, 12)
	for pc := 0; pc < 12; pc++ {
		if seen[pc] {
			out = append(out, fretboard.PitchClass(pc))
		}
	}
	return out
}

// DistinctPitchClassCount returns the number of distinct sounding pitch
// classes.
func (v Voicing) DistinctPitchClassCount(fb *fretboard.Fretboard) int {
	seen := [12]bool{}
	n := 0
	for _, c := range v.choices {
		if c.IsMuted() {
			continue
		}
		pc := fb.MustPitchAt(c.String, c.Fret).Class()
		if !seen[pc] {
			seen[pc] = true
			n++
		}
	}
	return n
}

// String renders a compact diagram ("x32010") when every fret fits one
// digit, falling back to the canonical key otherwise.
func (v Voicing) String() string {
	for _, c := range v.choices {
		if c.Fret > 9 {
			return v.key
		}
	}
	var b strings.Builder
	for _, c := range v.choices {
		if c.IsMuted() {
			b.WriteByte('x')
		} else {
			b.WriteByte(byte('0' + c.Fret))
		}
	}
	return b.String()
}
