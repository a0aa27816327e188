// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/fretforge/voicings/services/fretboard"
)

// =============================================================================
// Chord Formula Table
// =============================================================================

// chordFormula maps a quality suffix to its interval set from the root.
// Table order matters: earlier entries win when several formulas match,
// so more specific qualities come before their subsets.
type chordFormula struct {
	quality   string
	intervals []int
}

var chordFormulas = []chordFormula{
	{"maj7", []int{0, 4, 7, 11}},
	{"7", []int{0, 4, 7, 10}},
	{"m7", []int{0, 3, 7, 10}},
	{"m7b5", []int{0, 3, 6, 10}},
	{"dim7", []int{0, 3, 6, 9}},
	{"m(maj7)", []int{0, 3, 7, 11}},
	{"7sus4", []int{0, 5, 7, 10}},
	{"6", []int{0, 4, 7, 9}},
	{"m6", []int{0, 3, 7, 9}},
	{"add9", []int{0, 2, 4, 7}},
	{"madd9", []int{0, 2, 3, 7}},
	{"maj9", []int{0, 2, 4, 7, 11}},
	{"9", []int{0, 2, 4, 7, 10}},
	{"m9", []int{0, 2, 3, 7, 10}},
	{"11", []int{0, 2, 4, 5, 7, 10}},
	{"13", []int{0, 2, 4, 7, 9, 10}},
	{"", []int{0, 4, 7}},
	{"m", []int{0, 3, 7}},
	{"dim", []int{0, 3, 6}},
	{"aug", []int{0, 4, 8}},
	{"sus2", []int{0, 2, 7}},
	{"sus4", []int{0, 5, 7}},
	{"5", []int{0, 7}},
}

// majorScale is the interval set of a major key relative to its tonic.
var majorScale = [7]int{0, 2, 4, 5, 7, 9, 11}

// ErrUnknownChord is returned when no chord formula matches the sounding
// pitch classes. Callers in the filter pipeline skip such candidates.
var ErrUnknownChord = fmt.Errorf("analysis: pitch classes match no known chord")

// =============================================================================
// Theory Analyzer
// =============================================================================

// TheoryAnalyzer identifies chords by pitch-class-set template matching and
// derives drop, voicing-shape, and key-context facts.
//
// Thread Safety: Stateless; safe for concurrent use.
type TheoryAnalyzer struct {
	logger *slog.Logger
}

// NewTheoryAnalyzer creates an analyzer.
//
// Inputs:
//   - logger: Logger for structured logging. Nil falls back to slog.Default().
//
// Outputs:
//   - *TheoryAnalyzer: Ready to use.
func NewTheoryAnalyzer(logger *slog.Logger) *TheoryAnalyzer {
	if logger == nil {
		logger = slog.Default()
	}
	return &TheoryAnalyzer{logger: logger}
}

// Analyze derives harmonic facts from sounding pitches.
//
// Inputs:
//   - ctx: Context for cancellation. Must not be nil.
//   - pitches: Sounding pitches of the voicing, one per played string,
//     ordered low string to high. Must not be empty.
//
// Outputs:
//   - *Analysis: The derived facts. Never nil on success.
//   - error: ErrUnknownChord when no formula matches; otherwise invalid input.
func (ta *TheoryAnalyzer) Analyze(ctx context.Context, pitches []fretboard.Pitch) (*Analysis, error) {
	if ctx == nil {
		return nil, fmt.Errorf("Analyze: ctx must not be nil")
	}
	if len(pitches) == 0 {
		return nil, fmt.Errorf("Analyze: no sounding pitches")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sorted := make([]fretboard.Pitch, len(pitches))
	copy(sorted, pitches)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	classes := distinctClasses(sorted)
	bass := sorted[0].Class()

	root, quality, rootless, ok := identifyChord(classes, bass)
	if !ok {
		return nil, fmt.Errorf("%w: %v", ErrUnknownChord, classes)
	}

	closestKey, natural, chromatic := keyContext(classes)

	a := &Analysis{
		ChordName:            root.String() + quality,
		RootName:             root.String(),
		BassName:             bass.String(),
		DistinctPitchClasses: len(classes),
		Drop:                 classifyDrop(sorted),
		Rootless:             rootless,
		OpenVoicing:          int(sorted[len(sorted)-1]-sorted[0]) > 12,
		NaturallyOccurring:   natural,
		HasChromaticNotes:    chromatic,
		ClosestKey:           closestKey,
		Characteristics:      characteristics(sorted, quality),
	}
	return a, nil
}

// distinctClasses returns the sorted distinct pitch classes of the pitches.
func distinctClasses(pitches []fretboard.Pitch) []fretboard.PitchClass {
	seen := [12]bool{}
	for _, p := range pitches {
		seen[p.Class()] = true
	}
	out := make([]fretboard.PitchClass, 0, 12)
	for pc := 0; pc < 12; pc++ {
		if seen[pc] {
			out = append(out, fretboard.PitchClass(pc))
		}
	}
	return out
}

// identifyChord matches the pitch-class set against the formula table.
//
// Roots present in the set are tried first (bass before the rest), then the
// remaining roots are tried as rootless interpretations (the set equals a
// formula minus its root). Returns ok=false when nothing matches.
func identifyChord(classes []fretboard.PitchClass, bass fretboard.PitchClass) (root fretboard.PitchClass, quality string, rootless, ok bool) {
	set := [12]bool{}
	for _, pc := range classes {
		set[pc] = true
	}

	// Candidate roots: bass first, then the other sounding classes ascending.
	roots := []fretboard.PitchClass{bass}
	for _, pc := range classes {
		if pc != bass {
			roots = append(roots, pc)
		}
	}
	for _, r := range roots {
		for _, f := range chordFormulas {
			if intervalsEqual(set, len(classes), r, f.intervals, false) {
				return r, f.quality, false, true
			}
		}
	}

	// Rootless interpretations: the root is not sounding.
	for r := fretboard.PitchClass(0); r < 12; r++ {
		if set[r] {
			continue
		}
		for _, f := range chordFormulas {
			if intervalsEqual(set, len(classes), r, f.intervals, true) {
				return r, f.quality, true, true
			}
		}
	}
	return 0, "", false, false
}

// intervalsEqual reports whether the sounding set equals the formula relative
// to root. With dropRoot, the formula's root interval (0) is removed first.
func intervalsEqual(set [12]bool, size int, root fretboard.PitchClass, intervals []int, dropRoot bool) bool {
	want := [12]bool{}
	n := 0
	for _, iv := range intervals {
		if dropRoot && iv == 0 {
			continue
		}
		want[(int(root)+iv)%12] = true
		n++
	}
	if n != size {
		return false
	}
	for pc := 0; pc < 12; pc++ {
		if set[pc] != want[pc] {
			return false
		}
	}
	return true
}

// classifyDrop compares the voicing against its close-position stacking.
//
// A drop-2 voicing becomes close-position when its lowest note is raised an
// octave and lands second from the top; drop-3 lands third from the top;
// drop-2&4 raises the two lowest notes to land second and fourth from the top.
func classifyDrop(sorted []fretboard.Pitch) DropType {
	n := len(sorted)
	if n < 4 || len(distinctClasses(sorted)) != n {
		return DropNone
	}
	if int(sorted[n-1]-sorted[0]) <= 12 {
		// Already close position.
		return DropNone
	}

	// The dropped note is the lowest sounding note. Raised an octave, a
	// drop-2 note lands second from the top of the close stacking and a
	// drop-3 note third from the top.
	if rank, close := liftRank(sorted, 0); close {
		switch n - rank {
		case 2:
			return Drop2
		case 3:
			return Drop3
		}
	}
	lifted := make([]fretboard.Pitch, n)
	copy(lifted, sorted)
	lifted[0] += 12
	lifted[1] += 12
	sort.Slice(lifted, func(i, j int) bool { return lifted[i] < lifted[j] })
	if int(lifted[n-1]-lifted[0]) <= 12 {
		r1 := n - pitchRank(lifted, sorted[0]+12)
		r2 := n - pitchRank(lifted, sorted[1]+12)
		if (r1 == 4 && r2 == 2) || (r1 == 2 && r2 == 4) {
			return Drop2and4
		}
	}
	return DropNone
}

// liftRank raises sorted[idx] an octave and reports its 0-based rank in the
// re-sorted result plus whether that result is close position.
func liftRank(sorted []fretboard.Pitch, idx int) (int, bool) {
	lifted := make([]fretboard.Pitch, len(sorted))
	copy(lifted, sorted)
	lifted[idx] += 12
	target := lifted[idx]
	sort.Slice(lifted, func(i, j int) bool { return lifted[i] < lifted[j] })
	if int(lifted[len(lifted)-1]-lifted[0]) > 12 {
		return 0, false
	}
	return pitchRank(lifted, target), true
}

// pitchRank returns the index of p in the sorted slice.
func pitchRank(sorted []fretboard.Pitch, p fretboard.Pitch) int {
	for i, q := range sorted {
		if q == p {
			return i
		}
	}
	return -1
}

// keyContext finds the best-fitting major key for the pitch classes.
func keyContext(classes []fretboard.PitchClass) (display string, natural, chromatic bool) {
	bestTonic, bestOverlap := 0, -1
	fullFit := false
	for tonic := 0; tonic < 12; tonic++ {
		inKey := [12]bool{}
		for _, iv := range majorScale {
			inKey[(tonic+iv)%12] = true
		}
		overlap := 0
		for _, pc := range classes {
			if inKey[pc] {
				overlap++
			}
		}
		if overlap > bestOverlap {
			bestOverlap = overlap
			bestTonic = tonic
			fullFit = overlap == len(classes)
		}
	}
	display = fmt.Sprintf("%s major", fretboard.PitchClass(bestTonic))
	return display, fullFit, !fullFit
}

// characteristics derives feature tags from the voicing shape and quality.
func characteristics(sorted []fretboard.Pitch, quality string) []string {
	var tags []string
	if len(sorted) >= 3 {
		quartal := true
		for i := 1; i < len(sorted); i++ {
			iv := int(sorted[i] - sorted[i-1])
			if iv != 5 && iv != 6 {
				quartal = false
				break
			}
		}
		if quartal {
			tags = append(tags, "Quartal")
		}
	}
	if strings.Contains(quality, "sus") {
		tags = append(tags, "Suspended")
	}
	if strings.Contains(quality, "add") || quality == "6" || quality == "m6" {
		tags = append(tags, "Added tones")
	}
	return tags
}

// containsFold is a case-insensitive substring check.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}
