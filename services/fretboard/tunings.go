// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package fretboard

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"sync"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// Embedded Tuning Catalog
// =============================================================================

//go:embed tunings.yaml
var defaultTuningsYAML []byte

// TuningCatalog is the parsed tuning configuration.
//
// Thread Safety: Immutable after loading; safe for concurrent use.
type TuningCatalog struct {
	// Tunings lists the available tunings.
	Tunings []TuningSpec `yaml:"tunings"`
}

// TuningSpec is one tuning entry in the catalog YAML.
type TuningSpec struct {
	// Name identifies the tuning ("standard", "drop-d").
	Name string `yaml:"name"`

	// Notes are open-string pitches in scientific notation, low to high.
	Notes []string `yaml:"notes"`
}

// =============================================================================
// Cached Catalog
// =============================================================================

var (
	tuningCatalogMu      sync.RWMutex
	cachedTuningCatalog  *TuningCatalog
	tuningCatalogLoadErr error
)

// GetTuningCatalog returns the cached tuning catalog, loading the embedded
// YAML on first call.
//
// Inputs:
//   - ctx: Context for cancellation and logging. Must not be nil.
//
// Outputs:
//   - *TuningCatalog: The loaded catalog. Never nil on success.
//   - error: Non-nil if loading or validation failed.
//
// Thread Safety: Safe for concurrent use.
func GetTuningCatalog(ctx context.Context) (*TuningCatalog, error) {
	if ctx == nil {
		return nil, fmt.Errorf("GetTuningCatalog: ctx must not be nil")
	}

	tuningCatalogMu.RLock()
	if cachedTuningCatalog != nil || tuningCatalogLoadErr != nil {
		cat, err := cachedTuningCatalog, tuningCatalogLoadErr
		tuningCatalogMu.RUnlock()
		return cat, err
	}
	tuningCatalogMu.RUnlock()

	tuningCatalogMu.Lock()
	defer tuningCatalogMu.Unlock()
	if cachedTuningCatalog == nil && tuningCatalogLoadErr == nil {
		cachedTuningCatalog, tuningCatalogLoadErr = LoadTuningCatalog(ctx, defaultTuningsYAML)
	}
	return cachedTuningCatalog, tuningCatalogLoadErr
}

// LoadTuningCatalog parses and validates tuning catalog YAML.
//
// Inputs:
//   - ctx: Context for logging. Must not be nil.
//   - data: Raw YAML bytes.
//
// Outputs:
//   - *TuningCatalog: The validated catalog.
//   - error: Non-nil if parsing fails or any entry is invalid.
func LoadTuningCatalog(ctx context.Context, data []byte) (*TuningCatalog, error) {
	if ctx == nil {
		return nil, fmt.Errorf("LoadTuningCatalog: ctx must not be nil")
	}

	var cat TuningCatalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("LoadTuningCatalog: parse: %w", err)
	}
	if len(cat.Tunings) == 0 {
		return nil, fmt.Errorf("LoadTuningCatalog: catalog defines no tunings")
	}

	seen := make(map[string]bool, len(cat.Tunings))
	for i, spec := range cat.Tunings {
		if spec.Name == "" {
			return nil, fmt.Errorf("LoadTuningCatalog: tuning %d has no name", i)
		}
		if seen[spec.Name] {
			return nil, fmt.Errorf("LoadTuningCatalog: duplicate tuning name %q", spec.Name)
		}
		seen[spec.Name] = true
		if len(spec.Notes) == 0 {
			return nil, fmt.Errorf("LoadTuningCatalog: tuning %q has no strings", spec.Name)
		}
		for _, n := range spec.Notes {
			if _, err := ParsePitch(n); err != nil {
				return nil, fmt.Errorf("LoadTuningCatalog: tuning %q: %w", spec.Name, err)
			}
		}
	}

	slog.Debug("tuning catalog loaded", slog.Int("tunings", len(cat.Tunings)))
	return &cat, nil
}

// Tuning resolves a catalog entry into a Tuning value.
//
// Outputs:
//   - Tuning: Open pitches ordered low to high.
//   - error: Non-nil if the name is unknown.
func (c *TuningCatalog) Tuning(name string) (Tuning, error) {
	for _, spec := range c.Tunings {
		if spec.Name != name {
			continue
		}
		open := make([]Pitch, len(spec.Notes))
		for i, n := range spec.Notes {
			p, err := ParsePitch(n)
			if err != nil {
				// Validated at load time; unreachable for cached catalogs.
				return Tuning{}, fmt.Errorf("Tuning: %w", err)
			}
			open[i] = p
		}
		return Tuning{Name: spec.Name, Open: open}, nil
	}
	return Tuning{}, fmt.Errorf("Tuning: unknown tuning %q", name)
}

// StandardTuning returns six-string standard tuning (E2 A2 D3 G3 B3 E4).
// Panics only if the embedded catalog is broken, which is a build defect.
func StandardTuning() Tuning {
	cat, err := GetTuningCatalog(context.Background())
	if err != nil {
		panic(fmt.Errorf("StandardTuning: %w", err))
	}
	t, err := cat.Tuning("standard")
	if err != nil {
		panic(fmt.Errorf("StandardTuning: %w", err))
	}
	return t
}
