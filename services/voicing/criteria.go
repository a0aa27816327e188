// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package voicing

import (
	"fmt"
	"strings"

	"github.com/fretforge/voicings/services/analysis"
	"github.com/fretforge/voicings/services/fretboard"
)

// =============================================================================
// Filter Criteria Types
// =============================================================================

// FretRangeFilter selects voicings by their lowest played fret. Open
// strings count as fret 0.
type FretRangeFilter string

const (
	FretRangeAll   FretRangeFilter = "all"
	OpenPosition   FretRangeFilter = "open"   // lowest played fret <= 4
	MiddlePosition FretRangeFilter = "middle" // 5..12
	UpperPosition  FretRangeFilter = "upper"  // > 12
)

// NoteCountFilter buckets voicings by distinct pitch-class count.
type NoteCountFilter string

const (
	NoteCountAll    NoteCountFilter = "all"
	TwoNotes        NoteCountFilter = "two"
	ThreeNotes      NoteCountFilter = "three"
	FourNotes       NoteCountFilter = "four"
	FiveOrMoreNotes NoteCountFilter = "five_or_more"
)

// ChordTypeFilter selects voicings by the analyzed chord's identity.
type ChordTypeFilter string

const (
	ChordTypeAll     ChordTypeFilter = "all"
	Triads           ChordTypeFilter = "triads"
	SeventhChords    ChordTypeFilter = "seventh"
	ExtendedChords   ChordTypeFilter = "extended"
	MajorChords      ChordTypeFilter = "major"
	MinorChords      ChordTypeFilter = "minor"
	DominantChords   ChordTypeFilter = "dominant"
	DiminishedChords ChordTypeFilter = "diminished"
	AugmentedChords  ChordTypeFilter = "augmented"
	SuspendedChords  ChordTypeFilter = "suspended"
)

// VoicingTypeFilter selects voicings by their structural classification.
type VoicingTypeFilter string

const (
	VoicingTypeAll    VoicingTypeFilter = "all"
	Drop2Voicings     VoicingTypeFilter = "drop2"
	Drop3Voicings     VoicingTypeFilter = "drop3"
	Drop2and4Voicings VoicingTypeFilter = "drop2and4"
	RootlessVoicings  VoicingTypeFilter = "rootless"
	ShellVoicings     VoicingTypeFilter = "shell"
	ClosedVoicings    VoicingTypeFilter = "closed"
	OpenVoicings      VoicingTypeFilter = "open"
)

// CharacteristicFilter selects voicings by analyzer feature tags.
type CharacteristicFilter string

const (
	CharacteristicAll  CharacteristicFilter = "all"
	QuartalVoicings    CharacteristicFilter = "quartal"
	SuspendedSoundings CharacteristicFilter = "suspended"
	AddedToneVoicings  CharacteristicFilter = "added_tones"
)

// KeyContextMode selects the key-context predicate.
type KeyContextMode string

const (
	KeyContextAll KeyContextMode = "all"
	Diatonic      KeyContextMode = "diatonic"  // naturally occurring, no chromatic notes
	Chromatic     KeyContextMode = "chromatic" // has chromatic notes
	InKey         KeyContextMode = "in_key"    // closest key contains Key
)

// KeyContextFilter pairs a mode with its key for InKey.
type KeyContextFilter struct {
	// Mode selects the predicate. Zero value means no constraint.
	Mode KeyContextMode

	// Key is the key letter ("C", "F#") matched against the closest-key
	// display string when Mode is InKey.
	Key string
}

// VoicingFilterCriteria narrows a voicing stream. Every zero-valued or
// "all" field is a pass-through.
type VoicingFilterCriteria struct {
	FretRange      FretRangeFilter
	NoteCount      NoteCountFilter
	ChordType      ChordTypeFilter
	VoicingType    VoicingTypeFilter
	Characteristic CharacteristicFilter
	KeyContext     KeyContextFilter

	// MaxResults caps the number of matches; 0 means unlimited.
	MaxResults int
}

// Validate rejects malformed criteria at construction time.
func (c VoicingFilterCriteria) Validate() error {
	if c.MaxResults < 0 {
		return fmt.Errorf("VoicingFilterCriteria: max results must not be negative, got %d", c.MaxResults)
	}
	if c.KeyContext.Mode == InKey && c.KeyContext.Key == "" {
		return fmt.Errorf("VoicingFilterCriteria: in-key context requires a key")
	}
	return nil
}

// =============================================================================
// Predicates
// =============================================================================

// MatchesCriteria is the pure, side-effect-free filter predicate: it holds
// exactly when both the cheap structural stage and the expensive
// analysis-dependent stage accept the candidate.
func MatchesCriteria(v Voicing, a *analysis.Analysis, fb *fretboard.Fretboard, c VoicingFilterCriteria) bool {
	return matchesCheap(v, fb, c) && matchesExpensive(a, c)
}

// matchesCheap evaluates the structural filters against the voicing alone.
// No analyzer call is needed; cost is O(string count).
func matchesCheap(v Voicing, fb *fretboard.Fretboard, c VoicingFilterCriteria) bool {
	switch c.FretRange {
	case "", FretRangeAll:
	case OpenPosition:
		if v.LowestPlayedFret() > 4 {
			return false
		}
	case MiddlePosition:
		lf := v.LowestPlayedFret()
		if lf < 5 || lf > 12 {
			return false
		}
	case UpperPosition:
		if v.LowestPlayedFret() <= 12 {
			return false
		}
	default:
		return false
	}

	switch c.NoteCount {
	case "", NoteCountAll:
	case TwoNotes:
		if v.DistinctPitchClassCount(fb) != 2 {
			return false
		}
	case ThreeNotes:
		if v.DistinctPitchClassCount(fb) != 3 {
			return false
		}
	case FourNotes:
		if v.DistinctPitchClassCount(fb) != 4 {
			return false
		}
	case FiveOrMoreNotes:
		if v.DistinctPitchClassCount(fb) < 5 {
			return false
		}
	default:
		return false
	}

	return true
}

// matchesExpensive evaluates the analysis-dependent filters. All four
// families must accept (logical AND).
func matchesExpensive(a *analysis.Analysis, c VoicingFilterCriteria) bool {
	if a == nil {
		return false
	}
	return matchesChordType(a, c.ChordType) &&
		matchesVoicingType(a, c.VoicingType) &&
		matchesCharacteristic(a, c.Characteristic) &&
		matchesKeyContext(a, c.KeyContext)
}

// containsAny reports whether s contains any of the substrings.
func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

func matchesChordType(a *analysis.Analysis, f ChordTypeFilter) bool {
	name := a.ChordName
	switch f {
	case "", ChordTypeAll:
		return true
	case Triads:
		return a.DistinctPitchClasses == 3 && !containsAny(name, "7", "9", "11", "13")
	case SeventhChords:
		return strings.Contains(name, "7") && !containsAny(name, "9", "11", "13")
	case ExtendedChords:
		return containsAny(name, "9", "11", "13")
	case MajorChords:
		return strings.Contains(name, "maj") ||
			!containsAny(name, "m", "dim", "aug", "sus")
	case MinorChords:
		return strings.Contains(name, "m") &&
			!strings.Contains(name, "maj") &&
			!strings.Contains(name, "dim")
	case DominantChords:
		return strings.Contains(name, "7") &&
			!strings.Contains(name, "maj7") &&
			!strings.Contains(name, "m7")
	case DiminishedChords:
		return containsAny(name, "dim", "°")
	case AugmentedChords:
		return containsAny(name, "aug", "+")
	case SuspendedChords:
		return strings.Contains(name, "sus")
	default:
		return false
	}
}

func matchesVoicingType(a *analysis.Analysis, f VoicingTypeFilter) bool {
	switch f {
	case "", VoicingTypeAll:
		return true
	case Drop2Voicings:
		return a.Drop == analysis.Drop2
	case Drop3Voicings:
		return a.Drop == analysis.Drop3
	case Drop2and4Voicings:
		return a.Drop == analysis.Drop2and4
	case RootlessVoicings:
		return a.Rootless
	case ShellVoicings:
		return a.DistinctPitchClasses == 3 && a.Rootless
	case ClosedVoicings:
		return !a.OpenVoicing
	case OpenVoicings:
		return a.OpenVoicing
	default:
		return false
	}
}

func matchesCharacteristic(a *analysis.Analysis, f CharacteristicFilter) bool {
	switch f {
	case "", CharacteristicAll:
		return true
	case QuartalVoicings:
		return a.HasCharacteristic("Quartal")
	case SuspendedSoundings:
		return a.HasCharacteristic("Suspended")
	case AddedToneVoicings:
		return a.HasCharacteristic("Added tones")
	default:
		return false
	}
}

func matchesKeyContext(a *analysis.Analysis, f KeyContextFilter) bool {
	switch f.Mode {
	case "", KeyContextAll:
		return true
	case Diatonic:
		return a.NaturallyOccurring && !a.HasChromaticNotes
	case Chromatic:
		return a.HasChromaticNotes
	case InKey:
		return strings.Contains(a.ClosestKey, f.Key)
	default:
		return false
	}
}
