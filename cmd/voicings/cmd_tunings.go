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
	"strings"

	"github.com/spf13/cobra"

	"github.com/fretforge/voicings/services/fretboard"
)

var tuningsCmd = &cobra.Command{
	Use:   "tunings",
	Short: "List the tunings available in the embedded catalog",
	Run:   runTuningsCommand,
}

func runTuningsCommand(_ *cobra.Command, _ []string) {
	catalog, err := fretboard.GetTuningCatalog(context.Background())
	if err != nil {
		log.Fatalf("Error loading tuning catalog: %v", err)
	}
	for _, spec := range catalog.Tunings {
		fmt.Printf("%-14s %s\n", spec.Name, strings.Join(spec.Notes, " "))
	}
}
