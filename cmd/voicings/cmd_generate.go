// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/fretforge/voicings/services/analysis"
	"github.com/fretforge/voicings/services/fretboard"
	"github.com/fretforge/voicings/services/voicing"
)

// Flag values for the generate command.
var (
	tuningName     string
	fretCount      int
	targetNotes    string
	windowSize     int
	minPlayed      int
	coverage       string
	parallel       bool
	workers        int
	maxResults     int
	fretRange      string
	noteCount      string
	chordType      string
	voicingType    string
	characteristic string
	keyMode        string
	keyName        string
	criteriaFile   string
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Enumerate voicings for a target note set and filter them",
	Run:   runGenerateCommand,
}

// criteriaFileSpec mirrors VoicingFilterCriteria for YAML loading.
type criteriaFileSpec struct {
	FretRange      string `yaml:"fret_range"`
	NoteCount      string `yaml:"note_count"`
	ChordType      string `yaml:"chord_type"`
	VoicingType    string `yaml:"voicing_type"`
	Characteristic string `yaml:"characteristic"`
	KeyMode        string `yaml:"key_mode"`
	Key            string `yaml:"key"`
	MaxResults     int    `yaml:"max_results"`
}

func runGenerateCommand(_ *cobra.Command, args []string) {
	if len(args) > 0 {
		fmt.Printf("Warning: Unexpected arguments ignored: %v\n", args)
		fmt.Println("Use 'voicings generate --help' to see available flags.")
	}
	if targetNotes == "" {
		log.Fatal("--notes is required, e.g. --notes C,E,G")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fb, err := buildFretboard(ctx)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	target, err := fretboard.ParsePitchClasses(targetNotes)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	opts := voicing.GenerationOptions{
		Target:         target,
		WindowSize:     windowSize,
		MinPlayedNotes: minPlayed,
		Coverage:       voicing.CoverageMode(coverage),
		Parallel:       parallel,
		Workers:        workers,
	}
	criteria, err := assembleCriteria()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}

	fmt.Printf("Searching %s tuning (%d frets) for %s, window %d, min %d strings\n",
		fb.Tuning().Name, fb.FretCount(), targetNotes, windowSize, minPlayed)
	fmt.Println("---")

	start := time.Now()
	results, stats, err := voicing.Search(ctx, fb, opts, analysis.NewTheoryAnalyzer(nil), criteria)
	elapsed := time.Since(start)

	for _, m := range results {
		printMatch(m)
	}

	fmt.Println("---")
	fmt.Printf("%d matches from %d candidates in %s (%d analyzer failures, ended: %s)\n",
		stats.Matched, stats.Examined, elapsed.Round(time.Millisecond), stats.AnalyzerFailures, stats.Reason)
	if err != nil {
		// Partial results above remain valid on interrupt.
		log.Fatalf("Search ended early: %v", err)
	}
}

// buildFretboard resolves the tuning flag against the embedded catalog.
func buildFretboard(ctx context.Context) (*fretboard.Fretboard, error) {
	catalog, err := fretboard.GetTuningCatalog(ctx)
	if err != nil {
		return nil, err
	}
	tuning, err := catalog.Tuning(tuningName)
	if err != nil {
		return nil, err
	}
	frets := fretCount
	if frets == 0 {
		frets = fretboard.DefaultFretCount
	}
	return fretboard.NewFretboard(tuning, frets)
}

// assembleCriteria merges the optional criteria file with the flags; a
// non-empty flag wins over the file field.
func assembleCriteria() (voicing.VoicingFilterCriteria, error) {
	var spec criteriaFileSpec
	if criteriaFile != "" {
		data, err := os.ReadFile(criteriaFile)
		if err != nil {
			return voicing.VoicingFilterCriteria{}, fmt.Errorf("assembleCriteria: reading %s: %w", criteriaFile, err)
		}
		if err := yaml.Unmarshal(data, &spec); err != nil {
			return voicing.VoicingFilterCriteria{}, fmt.Errorf("assembleCriteria: parsing %s: %w", criteriaFile, err)
		}
	}

	pick := func(flag, file string) string {
		if flag != "" {
			return flag
		}
		return file
	}
	c := voicing.VoicingFilterCriteria{
		FretRange:      voicing.FretRangeFilter(pick(fretRange, spec.FretRange)),
		NoteCount:      voicing.NoteCountFilter(pick(noteCount, spec.NoteCount)),
		ChordType:      voicing.ChordTypeFilter(pick(chordType, spec.ChordType)),
		VoicingType:    voicing.VoicingTypeFilter(pick(voicingType, spec.VoicingType)),
		Characteristic: voicing.CharacteristicFilter(pick(characteristic, spec.Characteristic)),
		KeyContext: voicing.KeyContextFilter{
			Mode: voicing.KeyContextMode(pick(keyMode, spec.KeyMode)),
			Key:  pick(keyName, spec.Key),
		},
		MaxResults: maxResults,
	}
	if c.MaxResults == 0 {
		c.MaxResults = spec.MaxResults
	}
	return c, c.Validate()
}

// printMatch renders one accepted voicing as fretboard shorthand plus the
// analyzer's reading, e.g. "x-3-2-0-1-0  C (root C, bass C) [C major]".
func printMatch(m voicing.Match) {
	a := m.Analysis
	line := fmt.Sprintf("%-18s %s", m.Voicing.CanonicalKey(), a.ChordName)
	if a.RootName != "" {
		line += fmt.Sprintf(" (root %s, bass %s)", a.RootName, a.BassName)
	}
	if a.Drop != analysis.DropNone {
		line += fmt.Sprintf(" %s", a.Drop)
	}
	if a.Rootless {
		line += " rootless"
	}
	if a.ClosestKey != "" {
		line += fmt.Sprintf(" [%s]", a.ClosestKey)
	}
	fmt.Println(line)
}
