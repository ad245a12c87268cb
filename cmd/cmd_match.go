// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/overmatch/overmatch/conflate"
	"github.com/spf13/cobra"
)

var matchFlags = struct {
	osmPath      string
	overturePath string
	outputPath   string
	buffer       float64
	threshold    float64
	maxProcs     int
	maxErrors    int
	phoneRegion  string
	noProgress   bool
	verbose      bool
}{}

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Matches OSM points against Overture places",
	RunE: func(_ *cobra.Command, _ []string) error {
		start := time.Now()

		source, err := conflate.LoadSource(matchFlags.osmPath)
		if err != nil {
			return fmt.Errorf("loading OSM layer: %w", err)
		}

		log.Printf("OSM layer has %d features", len(source))

		reference, err := conflate.LoadReference(matchFlags.overturePath)
		if err != nil {
			return fmt.Errorf("loading Overture layer: %w", err)
		}

		log.Printf("Overture layer has %d features", len(reference))
		log.Printf("Load phase complete in %s", time.Since(start).Round(time.Millisecond))

		reconciler := conflate.NewReconciler(
			conflate.LibpostalParser{},
			conflate.E164PhoneParser{Region: matchFlags.phoneRegion},
		)
		reconciler.Verbose = matchFlags.verbose

		engine := conflate.NewEngine(reference, reconciler, conflate.Options{
			BufferMeters: matchFlags.buffer,
			Threshold:    matchFlags.threshold,
			MaxProcs:     matchFlags.maxProcs,
			MaxErrors:    matchFlags.maxErrors,
			Progress:     !matchFlags.noProgress,
		})

		records, err := engine.Run(source)
		if err != nil {
			return err
		}

		log.Printf("Found %d matches", len(records))

		if err := conflate.WriteFile(matchFlags.outputPath, records); err != nil {
			return err
		}

		log.Printf("Results saved to %s (total %s)", matchFlags.outputPath, time.Since(start).Round(time.Millisecond))

		return nil
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringVar(&matchFlags.osmPath, "osm", "data/osm.geojson", "OSM feature collection")
	matchCmd.Flags().StringVar(&matchFlags.overturePath, "overture", "data/overture.geojson", "Overture feature collection")
	matchCmd.Flags().StringVar(&matchFlags.outputPath, "output", "data/matches.jsonl", "Output match stream (JSON Lines)")
	matchCmd.Flags().Float64Var(&matchFlags.buffer, "buffer", 100, "Search radius in meters")
	matchCmd.Flags().Float64Var(&matchFlags.threshold, "threshold", 0.6, "Minimum name similarity in [0,1]")
	matchCmd.Flags().IntVar(&matchFlags.maxProcs, "max-procs", 0, "Worker pool size. Defaults to the number of CPUs")
	matchCmd.Flags().IntVar(&matchFlags.maxErrors, "max-errors", 100, "Per-record error budget before the run aborts")
	matchCmd.Flags().StringVar(&matchFlags.phoneRegion, "phone-region", "US", "Default region for phone normalization")
	matchCmd.Flags().BoolVar(&matchFlags.noProgress, "no-progress", false, "Disable the progress bar")
	matchCmd.Flags().BoolVar(&matchFlags.verbose, "verbose", false, "Log per-field parse failures")
}
