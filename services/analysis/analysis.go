// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package analysis derives harmonic facts from the sounding pitches of a
// voicing: chord identity, drop classification, key context, and feature
// tags. The generation core treats this package as an opaque collaborator
// and only consumes the Analysis value.
package analysis

// =============================================================================
// Analysis Result Types
// =============================================================================

// DropType classifies how a voicing relates to its close-position stacking.
type DropType string

// Drop classifications.
const (
	DropNone  DropType = "none"
	Drop2     DropType = "drop2"
	Drop3     DropType = "drop3"
	Drop2and4 DropType = "drop2and4"
)

// Analysis holds the harmonic facts derived from one voicing.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type Analysis struct {
	// ChordName is the display name ("Cmaj7", "Am", "G7").
	ChordName string

	// RootName is the identified root's note name ("C").
	RootName string

	// BassName is the lowest sounding note's name ("E" for C/E).
	BassName string

	// DistinctPitchClasses is the count of distinct pitch classes sounding.
	DistinctPitchClasses int

	// Drop is the drop classification relative to close position.
	Drop DropType

	// Rootless reports whether the identified chord's root is absent from
	// the sounding pitch classes.
	Rootless bool

	// OpenVoicing reports whether the sounding pitches span more than an
	// octave (the inverse is a closed voicing).
	OpenVoicing bool

	// NaturallyOccurring reports whether every sounding pitch class fits
	// inside at least one major key.
	NaturallyOccurring bool

	// HasChromaticNotes reports whether some sounding pitch class falls
	// outside the closest key.
	HasChromaticNotes bool

	// ClosestKey is the best-fitting key's display string ("C major").
	ClosestKey string

	// Characteristics holds feature tags such as "Quartal", "Suspended",
	// "Added tones".
	Characteristics []string
}

// HasCharacteristic reports whether any feature tag contains the given
// substring.
func (a *Analysis) HasCharacteristic(tag string) bool {
	for _, c := range a.Characteristics {
		if containsFold(c, tag) {
			return true
		}
	}
	return false
}
