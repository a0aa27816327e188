// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fretboard

import (
	"fmt"
	"strconv"
	"strings"
)

// =============================================================================
// Pitch and Pitch-Class Types
// =============================================================================

// PitchClass is a pitch class in the range 0..11 (C=0, C#=1, ..., B=11).
type PitchClass int

// Pitch is an absolute pitch as a MIDI note number (middle C = 60).
type Pitch int

// Named pitch classes.
const (
	C  PitchClass = 0
	Cs PitchClass = 1
	D  PitchClass = 2
	Ds PitchClass = 3
	E  PitchClass = 4
	F  PitchClass = 5
	Fs PitchClass = 6
	G  PitchClass = 7
	Gs PitchClass = 8
	A  PitchClass = 9
	As PitchClass = 10
	B  PitchClass = 11
)

// sharpNames are pitch-class display names using sharps.
var sharpNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// flatAliases maps flat spellings to their pitch class.
var flatAliases = map[string]PitchClass{
	"Db": 1, "Eb": 3, "Gb": 6, "Ab": 8, "Bb": 10, "Cb": 11, "Fb": 4,
}

// String returns the sharp spelling of the pitch class ("C#", "A").
func (pc PitchClass) String() string {
	return sharpNames[((int(pc)%12)+12)%12]
}

// Class returns the pitch class of the pitch.
func (p Pitch) Class() PitchClass {
	return PitchClass(((int(p) % 12) + 12) % 12)
}

// Octave returns the scientific-pitch octave number (MIDI 60 -> 4).
func (p Pitch) Octave() int {
	return int(p)/12 - 1
}

// String returns the pitch in scientific notation ("E2", "C#4").
func (p Pitch) String() string {
	return fmt.Sprintf("%s%d", p.Class(), p.Octave())
}

// ParsePitchClass parses a note name into a pitch class.
//
// Inputs:
//   - name: Note name such as "C", "F#", "Bb". Case-sensitive on the letter,
//     accepts "#" or "b" accidentals.
//
// Outputs:
//   - PitchClass: The parsed class.
//   - error: Non-nil if the name is not a valid note name.
func ParsePitchClass(name string) (PitchClass, error) {
	s := strings.TrimSpace(name)
	if pc, ok := flatAliases[s]; ok {
		return pc, nil
	}
	for i, n := range sharpNames {
		if s == n {
			return PitchClass(i), nil
		}
	}
	return 0, fmt.Errorf("ParsePitchClass: unknown note name %q", name)
}

// ParsePitchClasses parses a whitespace- or comma-separated list of note
// names ("C E G" or "C,E,G") into a pitch-class slice, preserving order and
// dropping duplicates.
func ParsePitchClasses(list string) ([]PitchClass, error) {
	fields := strings.FieldsFunc(list, func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	if len(fields) == 0 {
		return nil, fmt.Errorf("ParsePitchClasses: empty note list %q", list)
	}
	seen := make(map[PitchClass]bool, len(fields))
	out := make([]PitchClass, 0, len(fields))
	for _, f := range fields {
		pc, err := ParsePitchClass(f)
		if err != nil {
			return nil, fmt.Errorf("ParsePitchClasses: %w", err)
		}
		if !seen[pc] {
			seen[pc] = true
			out = append(out, pc)
		}
	}
	return out, nil
}

// ParsePitch parses scientific pitch notation ("E2", "C#4", "Bb3") into an
// absolute pitch.
func ParsePitch(name string) (Pitch, error) {
	s := strings.TrimSpace(name)
	split := -1
	for i, r := range s {
		if r >= '0' && r <= '9' || r == '-' {
			split = i
			break
		}
	}
	if split <= 0 {
		return 0, fmt.Errorf("ParsePitch: missing octave in %q", name)
	}
	pc, err := ParsePitchClass(s[:split])
	if err != nil {
		return 0, fmt.Errorf("ParsePitch: %w", err)
	}
	oct, err := strconv.Atoi(s[split:])
	if err != nil {
		return 0, fmt.Errorf("ParsePitch: bad octave in %q", name)
	}
	return Pitch((oct+1)*12 + int(pc)), nil
}
