// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package voicing

import (
	"testing"

	"github.com/fretforge/voicings/services/analysis"
)

func TestVoicingFilterCriteria_Validate(t *testing.T) {
	if err := (VoicingFilterCriteria{}).Validate(); err != nil {
		t.Fatalf("zero criteria must validate, got %v", err)
	}
	if err := (VoicingFilterCriteria{MaxResults: -1}).Validate(); err == nil {
		t.Fatal("negative MaxResults must be rejected")
	}
	if err := (VoicingFilterCriteria{KeyContext: KeyContextFilter{Mode: InKey}}).Validate(); err == nil {
		t.Fatal("in_key mode without a key must be rejected")
	}
	ok := VoicingFilterCriteria{KeyContext: KeyContextFilter{Mode: InKey, Key: "C"}}
	if err := ok.Validate(); err != nil {
		t.Fatalf("in_key with key must validate, got %v", err)
	}
}

func TestMatchesCheap_FretRangeBuckets(t *testing.T) {
	fb := testFretboard(t, 22)

	tests := []struct {
		name   string
		frets  []int
		filter FretRangeFilter
		want   bool
	}{
		{"open shape in open bucket", []int{MutedFret, 3, 2, 0, 1, 0}, OpenPosition, true},
		{"fret 4 is still open position", []int{MutedFret, MutedFret, 4, 5, 5, MutedFret}, OpenPosition, true},
		{"fret 5 is not open position", []int{MutedFret, MutedFret, 5, 5, 5, MutedFret}, OpenPosition, false},
		{"fret 5 enters middle", []int{MutedFret, MutedFret, 5, 5, 5, MutedFret}, MiddlePosition, true},
		{"fret 12 is still middle", []int{MutedFret, MutedFret, 12, 13, 13, MutedFret}, MiddlePosition, true},
		{"fret 13 leaves middle", []int{MutedFret, MutedFret, 13, 13, 13, MutedFret}, MiddlePosition, false},
		{"fret 13 is upper", []int{MutedFret, MutedFret, 13, 13, 13, MutedFret}, UpperPosition, true},
		{"fret 12 is not upper", []int{MutedFret, MutedFret, 12, 13, 13, MutedFret}, UpperPosition, false},
		{"empty filter passes everything", []int{MutedFret, MutedFret, 13, 13, 13, MutedFret}, "", true},
		{"all passes everything", []int{MutedFret, 3, 2, 0, 1, 0}, FretRangeAll, true},
		{"unknown value rejects", []int{MutedFret, 3, 2, 0, 1, 0}, FretRangeFilter("bogus"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := voicingOf(t, tt.frets...)
			got := matchesCheap(v, fb, VoicingFilterCriteria{FretRange: tt.filter})
			if got != tt.want {
				t.Errorf("matchesCheap(%s, %q) = %v, want %v", v, tt.filter, got, tt.want)
			}
		})
	}
}

func TestMatchesCheap_NoteCount(t *testing.T) {
	fb := testFretboard(t, 22)

	// x-3-2-0-1-0 sounds C, E, G: three distinct classes.
	triad := voicingOf(t, MutedFret, 3, 2, 0, 1, 0)
	tests := []struct {
		name   string
		v      Voicing
		filter NoteCountFilter
		want   bool
	}{
		{"three classes match three", triad, ThreeNotes, true},
		{"three classes do not match two", triad, TwoNotes, false},
		{"three classes do not match four", triad, FourNotes, false},
		{"three classes below five_or_more", triad, FiveOrMoreNotes, false},
		{"empty passes", triad, "", true},
		{"all passes", triad, NoteCountAll, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := matchesCheap(tt.v, fb, VoicingFilterCriteria{NoteCount: tt.filter})
			if got != tt.want {
				t.Errorf("matchesCheap(%s, %q) = %v, want %v", tt.v, tt.filter, got, tt.want)
			}
		})
	}
}

func TestMatchesChordType(t *testing.T) {
	named := func(name string, classes int) *analysis.Analysis {
		return &analysis.Analysis{ChordName: name, DistinctPitchClasses: classes}
	}

	tests := []struct {
		name   string
		a      *analysis.Analysis
		filter ChordTypeFilter
		want   bool
	}{
		{"C is a triad", named("C", 3), Triads, true},
		{"G7 is not a triad", named("G7", 4), Triads, false},
		{"Cadd9 has four classes, not a triad", named("Cadd9", 4), Triads, false},
		{"G7 is a seventh chord", named("G7", 4), SeventhChords, true},
		{"C9 is not plain seventh", named("C9", 5), SeventhChords, false},
		{"C9 is extended", named("C9", 5), ExtendedChords, true},
		{"Cmaj7 is not extended", named("Cmaj7", 4), ExtendedChords, false},
		{"Cmaj7 is major", named("Cmaj7", 4), MajorChords, true},
		{"C is major", named("C", 3), MajorChords, true},
		{"Am is not major", named("Am", 3), MajorChords, false},
		{"Am is minor", named("Am", 3), MinorChords, true},
		{"Amaj7 is not minor", named("Amaj7", 4), MinorChords, false},
		{"Adim is not minor", named("Adim", 3), MinorChords, false},
		{"G7 is dominant", named("G7", 4), DominantChords, true},
		{"Gmaj7 is not dominant", named("Gmaj7", 4), DominantChords, false},
		{"Gm7 is not dominant", named("Gm7", 4), DominantChords, false},
		{"Bdim is diminished", named("Bdim", 3), DiminishedChords, true},
		{"Caug is augmented", named("Caug", 3), AugmentedChords, true},
		{"Dsus4 is suspended", named("Dsus4", 3), SuspendedChords, true},
		{"Dsus4 is not major", named("Dsus4", 3), MajorChords, false},
		{"all passes", named("Am", 3), ChordTypeAll, true},
		{"empty passes", named("Am", 3), "", true},
		{"unknown rejects", named("Am", 3), ChordTypeFilter("bogus"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesChordType(tt.a, tt.filter); got != tt.want {
				t.Errorf("matchesChordType(%q, %q) = %v, want %v", tt.a.ChordName, tt.filter, got, tt.want)
			}
		})
	}
}

func TestMatchesVoicingType(t *testing.T) {
	tests := []struct {
		name   string
		a      *analysis.Analysis
		filter VoicingTypeFilter
		want   bool
	}{
		{"drop2 matches", &analysis.Analysis{Drop: analysis.Drop2}, Drop2Voicings, true},
		{"drop3 does not match drop2", &analysis.Analysis{Drop: analysis.Drop3}, Drop2Voicings, false},
		{"drop2and4 matches", &analysis.Analysis{Drop: analysis.Drop2and4}, Drop2and4Voicings, true},
		{"rootless matches", &analysis.Analysis{Rootless: true}, RootlessVoicings, true},
		{"shell needs three classes and no root", &analysis.Analysis{DistinctPitchClasses: 3, Rootless: true}, ShellVoicings, true},
		{"rooted three classes is not shell", &analysis.Analysis{DistinctPitchClasses: 3}, ShellVoicings, false},
		{"closed matches non-open", &analysis.Analysis{OpenVoicing: false}, ClosedVoicings, true},
		{"open matches spread", &analysis.Analysis{OpenVoicing: true}, OpenVoicings, true},
		{"all passes", &analysis.Analysis{}, VoicingTypeAll, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := matchesVoicingType(tt.a, tt.filter); got != tt.want {
				t.Errorf("matchesVoicingType(%q) = %v, want %v", tt.filter, got, tt.want)
			}
		})
	}
}

func TestMatchesKeyContext(t *testing.T) {
	diatonic := &analysis.Analysis{NaturallyOccurring: true, ClosestKey: "C major"}
	chromatic := &analysis.Analysis{HasChromaticNotes: true, ClosestKey: "C major"}

	if !matchesKeyContext(diatonic, KeyContextFilter{Mode: Diatonic}) {
		t.Error("naturally occurring chord must pass diatonic")
	}
	if matchesKeyContext(chromatic, KeyContextFilter{Mode: Diatonic}) {
		t.Error("chromatic chord must not pass diatonic")
	}
	if !matchesKeyContext(chromatic, KeyContextFilter{Mode: Chromatic}) {
		t.Error("chromatic chord must pass chromatic")
	}
	if !matchesKeyContext(diatonic, KeyContextFilter{Mode: InKey, Key: "C"}) {
		t.Error("closest key C major must pass in_key C")
	}
	if matchesKeyContext(diatonic, KeyContextFilter{Mode: InKey, Key: "F#"}) {
		t.Error("closest key C major must not pass in_key F#")
	}
	if !matchesKeyContext(diatonic, KeyContextFilter{}) {
		t.Error("zero filter must pass everything")
	}
}

func TestMatchesCriteria_NilAnalysis(t *testing.T) {
	fb := testFretboard(t, 22)
	v := voicingOf(t, MutedFret, 3, 2, 0, 1, 0)

	if MatchesCriteria(v, nil, fb, VoicingFilterCriteria{ChordType: MajorChords}) {
		t.Error("nil analysis must not match analysis-dependent criteria")
	}
	// A purely structural query still needs the analysis stage to accept,
	// and nil never does.
	if MatchesCriteria(v, nil, fb, VoicingFilterCriteria{FretRange: OpenPosition}) {
		t.Error("nil analysis must fail the expensive stage")
	}
}

func TestMatchesCriteria_IsDeterministic(t *testing.T) {
	fb := testFretboard(t, 22)
	v := voicingOf(t, MutedFret, 3, 2, 0, 1, 0)
	a := &analysis.Analysis{ChordName: "C", DistinctPitchClasses: 3, NaturallyOccurring: true, ClosestKey: "C major"}
	c := VoicingFilterCriteria{
		FretRange: OpenPosition,
		NoteCount: ThreeNotes,
		ChordType: MajorChords,
	}

	first := MatchesCriteria(v, a, fb, c)
	for i := 0; i < 10; i++ {
		if MatchesCriteria(v, a, fb, c) != first {
			t.Fatal("repeated evaluation must yield the same verdict")
		}
	}
	if !first {
		t.Error("open C major triad must match the combined criteria")
	}
}
