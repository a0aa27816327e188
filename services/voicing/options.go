// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package voicing

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/fretforge/voicings/services/fretboard"
)

// =============================================================================
// Generation Options
// =============================================================================

// CoverageMode selects how the sounding pitch classes must relate to the
// target set.
type CoverageMode string

const (
	// CoverageExact requires the sounding classes to equal the target set.
	CoverageExact CoverageMode = "exact"

	// CoverageSuperset requires every target class to sound; extra classes
	// are allowed.
	CoverageSuperset CoverageMode = "superset"

	// CoverageSubset requires every sounding class to belong to the target
	// set; missing target classes are allowed.
	CoverageSubset CoverageMode = "subset"
)

// Default generation parameters.
const (
	// DefaultWindowSize is the default maximum fret span of one hand.
	DefaultWindowSize = 4

	// DefaultMinPlayedNotes is the default minimum played-string count.
	DefaultMinPlayedNotes = 3

	// DefaultWorkers is the default parallel worker count.
	DefaultWorkers = 4
)

// optionsValidate is the shared validator for generation options.
var optionsValidate = validator.New()

// GenerationOptions configures one generation run. Immutable for the run's
// duration once validated.
type GenerationOptions struct {
	// Target is the pitch-class set the voicings must realize.
	Target []fretboard.PitchClass `validate:"required,min=1,max=12,dive,gte=0,lte=11"`

	// WindowSize is the maximum fret span among fretted, non-open, played
	// strings.
	WindowSize int `validate:"gt=0"`

	// MinPlayedNotes is the minimum number of non-muted strings.
	MinPlayedNotes int `validate:"gt=0"`

	// Coverage selects the target-coverage rule. Empty means CoverageExact.
	Coverage CoverageMode `validate:"omitempty,oneof=exact superset subset"`

	// Parallel enables the concurrent producer pool. Sequential runs are
	// fully deterministic; parallel runs produce the same set in
	// unspecified order.
	Parallel bool

	// Workers is the producer pool size. Zero means DefaultWorkers.
	Workers int `validate:"gte=0"`

	// QueueSize is the producer queue capacity. Zero means Workers*2.
	// The queue applies backpressure when full.
	QueueSize int `validate:"gte=0"`
}

// DefaultGenerationOptions returns options with the package defaults and
// parallelism enabled.
func DefaultGenerationOptions(target []fretboard.PitchClass) GenerationOptions {
	return GenerationOptions{
		Target:         target,
		WindowSize:     DefaultWindowSize,
		MinPlayedNotes: DefaultMinPlayedNotes,
		Coverage:       CoverageExact,
		Parallel:       true,
	}
}

// Validate checks the options at construction time. Invalid options never
// start generation work.
//
// Outputs:
//   - error: Non-nil with the offending field when validation fails.
func (o GenerationOptions) Validate() error {
	if err := optionsValidate.Struct(o); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return fmt.Errorf("GenerationOptions: field %s failed rule %q (value %v)",
				fe.Field(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("GenerationOptions: %w", err)
	}
	seen := [12]bool{}
	for _, pc := range o.Target {
		if seen[pc] {
			return fmt.Errorf("GenerationOptions: duplicate target pitch class %s", pc)
		}
		seen[pc] = true
	}
	return nil
}

// normalized fills in defaulted fields, leaving the receiver untouched.
func (o GenerationOptions) normalized() GenerationOptions {
	if o.Coverage == "" {
		o.Coverage = CoverageExact
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if o.QueueSize == 0 {
		o.QueueSize = o.Workers * 2
	}
	return o
}
