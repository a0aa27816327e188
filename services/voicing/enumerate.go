// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package voicing

// =============================================================================
// Lazy Cartesian Enumeration
// =============================================================================

// odometer walks the Cartesian product of per-string candidate fret lists
// without materializing it, incrementing a per-string cursor the way an
// odometer counts. Each combination is visited exactly once, in ascending
// per-string order.
//
// Thread Safety: Not safe for concurrent use; each worker owns its own.
type odometer struct {
	lists   [][]int
	cursor  []int
	combo   []int
	started bool
	done    bool
}

// newOdometer creates an odometer over the candidate lists. An empty lists
// slice yields exactly one empty combination.
func newOdometer(lists [][]int) *odometer {
	o := &odometer{
		lists:  lists,
		cursor: make([]int, len(lists)),
		combo:  make([]int, len(lists)),
	}
	for _, l := range lists {
		if len(l) == 0 {
			o.done = true
			break
		}
	}
	return o
}

// next returns the following combination. The returned slice is reused
// between calls and must not be retained.
func (o *odometer) next() ([]int, bool) {
	if o.done {
		return nil, false
	}
	if !o.started {
		o.started = true
		o.fill()
		return o.combo, true
	}
	// Increment from the last string, carrying leftward.
	for i := len(o.lists) - 1; i >= 0; i-- {
		o.cursor[i]++
		if o.cursor[i] < len(o.lists[i]) {
			o.fill()
			return o.combo, true
		}
		o.cursor[i] = 0
	}
	o.done = true
	return nil, false
}

func (o *odometer) fill() {
	for i, l := range o.lists {
		o.combo[i] = l[o.cursor[i]]
	}
}

// =============================================================================
// Structural Pruning
// =============================================================================

// pruner rejects fret combinations before a Voicing is ever allocated,
// checking in increasing cost order: played count, fret span, then
// pitch-class coverage.
//
// Thread Safety: Immutable after construction; safe for concurrent use.
type pruner struct {
	minPlayed int
	window    int
	coverage  CoverageMode

	// classAt[s][f] is the pitch class sounding at string s, fret f.
	classAt [][]int

	target      [12]bool
	targetCount int
}

// admit reports whether the fret combination survives all structural checks.
func (p *pruner) admit(frets []int) bool {
	played := 0
	for _, f := range frets {
		if f != MutedFret {
			played++
		}
	}
	if played < p.minPlayed {
		return false
	}
	// Exact and superset coverage need at least one sounding string per
	// target class.
	if p.coverage != CoverageSubset && played < p.targetCount {
		return false
	}

	low, high, fretted := 0, 0, false
	for _, f := range frets {
		if f <= 0 {
			continue
		}
		if !fretted {
			low, high, fretted = f, f, true
			continue
		}
		if f < low {
			low = f
		}
		if f > high {
			high = f
		}
	}
	if fretted && high-low > p.window {
		return false
	}

	return p.coverageOK(frets)
}

// coverageOK checks the sounding pitch classes against the target set under
// the configured coverage mode.
func (p *pruner) coverageOK(frets []int) bool {
	var sounding [12]bool
	for s, f := range frets {
		if f == MutedFret {
			continue
		}
		sounding[p.classAt[s][f]] = true
	}

	switch p.coverage {
	case CoverageSubset:
		for pc := 0; pc < 12; pc++ {
			if sounding[pc] && !p.target[pc] {
				return false
			}
		}
		return true
	case CoverageSuperset:
		for pc := 0; pc < 12; pc++ {
			if p.target[pc] && !sounding[pc] {
				return false
			}
		}
		return true
	default: // CoverageExact
		for pc := 0; pc < 12; pc++ {
			if sounding[pc] != p.target[pc] {
				return false
			}
		}
		return true
	}
}
