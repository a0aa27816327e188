// Copyright (C) 2025 FretForge (dev@fretforge.io)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Command voicings is the developer harness for the FretForge voicing
// engine. It enumerates guitar chord voicings for a target pitch-class
// set, filters them through the analysis pipeline, and prints ASCII
// fretboard shorthand plus run statistics.
//
// Usage:
//
//	go run ./cmd/voicings generate --notes C,E,G
//	go run ./cmd/voicings generate --notes G,B,D,F --chord-type dominant --max-results 20
//	go run ./cmd/voicings generate --notes C,E,G --tuning drop-d --window 5 --parallel
//	go run ./cmd/voicings tunings
package main

import (
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "voicings",
	Short: "Enumerate and analyze guitar chord voicings",
	Long: `voicings exhaustively searches the fretboard for every playable shape
that sounds a requested set of notes, classifies each result (chord
identity, inversion, drop voicing, key context), and filters the stream
by musical criteria.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

var verbose bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error executing command: %v", err)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&tuningName, "tuning", "standard", "Tuning name from the embedded catalog")
	generateCmd.Flags().IntVar(&fretCount, "frets", 0, "Fret count (0 uses the fretboard default)")
	generateCmd.Flags().StringVarP(&targetNotes, "notes", "n", "", "Comma-separated target notes, e.g. C,E,G (required)")
	generateCmd.Flags().IntVarP(&windowSize, "window", "w", 4, "Maximum fret span a hand can cover")
	generateCmd.Flags().IntVar(&minPlayed, "min-notes", 3, "Minimum number of sounding strings")
	generateCmd.Flags().StringVar(&coverage, "coverage", "exact", "Pitch-class coverage mode: exact, superset, subset")
	generateCmd.Flags().BoolVar(&parallel, "parallel", false, "Enumerate partitions on a worker pool")
	generateCmd.Flags().IntVar(&workers, "workers", 0, "Worker count for --parallel (0 uses the default)")
	generateCmd.Flags().IntVar(&maxResults, "max-results", 0, "Stop after this many matches (0 means unlimited)")
	generateCmd.Flags().StringVar(&fretRange, "fret-range", "", "Position filter: open, middle, upper")
	generateCmd.Flags().StringVar(&noteCount, "note-count", "", "Distinct-note filter: two, three, four, five_or_more")
	generateCmd.Flags().StringVar(&chordType, "chord-type", "", "Chord identity filter: triads, seventh, extended, major, minor, dominant, diminished, augmented, suspended")
	generateCmd.Flags().StringVar(&voicingType, "voicing-type", "", "Structure filter: drop2, drop3, drop2and4, rootless, shell, closed, open")
	generateCmd.Flags().StringVar(&characteristic, "characteristic", "", "Feature filter: quartal, suspended, added_tones")
	generateCmd.Flags().StringVar(&keyMode, "key-mode", "", "Key context filter: diatonic, chromatic, in_key")
	generateCmd.Flags().StringVar(&keyName, "key", "", "Key letter for --key-mode in_key, e.g. C or F#")
	generateCmd.Flags().StringVar(&criteriaFile, "criteria-file", "", "YAML file with filter criteria (flags override its fields)")

	rootCmd.AddCommand(tuningsCmd)
}
