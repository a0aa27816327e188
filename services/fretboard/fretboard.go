// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package fretboard models the instrument: tunings, strings, and the
// fret-to-pitch mapping consumed read-only by voicing generation.
package fretboard

import (
	"fmt"
)

// =============================================================================
// Tuning and Fretboard
// =============================================================================

// Tuning is a named set of open-string pitches, ordered low string to high.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Tuning struct {
	// Name identifies the tuning ("standard", "drop-d").
	Name string

	// Open holds the open-string pitches, index 0 = lowest string.
	Open []Pitch
}

// Fretboard combines a tuning with a fret count and answers pitch queries.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Fretboard struct {
	tuning    Tuning
	fretCount int
}

// DefaultFretCount is the usable fret ceiling assumed when none is given.
const DefaultFretCount = 22

// NewFretboard builds a fretboard for a tuning.
//
// Inputs:
//   - tuning: The tuning. Must have at least one string.
//   - fretCount: Usable fret ceiling. Must be positive.
//
// Outputs:
//   - *Fretboard: Ready to use. Never nil on success.
//   - error: Non-nil on invalid input; no partially-built value is returned.
func NewFretboard(tuning Tuning, fretCount int) (*Fretboard, error) {
	if len(tuning.Open) == 0 {
		return nil, fmt.Errorf("NewFretboard: tuning %q has no strings", tuning.Name)
	}
	if fretCount <= 0 {
		return nil, fmt.Errorf("NewFretboard: fret count must be positive, got %d", fretCount)
	}
	return &Fretboard{tuning: tuning, fretCount: fretCount}, nil
}

// StringCount returns the number of strings.
func (fb *Fretboard) StringCount() int {
	return len(fb.tuning.Open)
}

// FretCount returns the usable fret ceiling.
func (fb *Fretboard) FretCount() int {
	return fb.fretCount
}

// Tuning returns the tuning in use.
func (fb *Fretboard) Tuning() Tuning {
	return fb.tuning
}

// OpenPitch returns the open pitch of a string (0 = lowest).
func (fb *Fretboard) OpenPitch(stringIndex int) Pitch {
	return fb.tuning.Open[stringIndex]
}

// PitchAt returns the sounding pitch of a string fretted at the given fret.
// Fret 0 is the open string.
//
// Inputs:
//   - stringIndex: 0-based string index, 0 = lowest string.
//   - fret: Fret number, 0..FretCount().
//
// Outputs:
//   - Pitch: The sounding pitch.
//   - error: Non-nil if the string or fret is out of range.
func (fb *Fretboard) PitchAt(stringIndex, fret int) (Pitch, error) {
	if stringIndex < 0 || stringIndex >= len(fb.tuning.Open) {
		return 0, fmt.Errorf("PitchAt: string %d out of range [0,%d)", stringIndex, len(fb.tuning.Open))
	}
	if fret < 0 || fret > fb.fretCount {
		return 0, fmt.Errorf("PitchAt: fret %d out of range [0,%d]", fret, fb.fretCount)
	}
	return fb.tuning.Open[stringIndex] + Pitch(fret), nil
}

// MustPitchAt is PitchAt for callers that have already validated the
// coordinates (the generation hot path). Panics on out-of-range input.
func (fb *Fretboard) MustPitchAt(stringIndex, fret int) Pitch {
	p, err := fb.PitchAt(stringIndex, fret)
	if err != nil {
		panic(err)
	}
	return p
}
