// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"os"

	"github.com/overmatch/overmatch/conflate"
	"github.com/overmatch/overmatch/export"
	"github.com/overmatch/overmatch/tracker"
	"github.com/spf13/cobra"
)

var convertFlags = struct {
	input   string
	output  string
	tracker string
	enrich  bool
	h3      bool
}{}

var convertCmd = &cobra.Command{
	Use:   "convert",
	Short: "Converts a match stream to GeoJSON for tiling",
	Long: `
Converts matches.jsonl into a GeoJSON feature collection suitable for
tippecanoe, e.g.:

  tippecanoe -o matches.pmtiles -zg --drop-densest-as-needed matches.geojson
`,
	RunE: func(_ *cobra.Command, _ []string) error {
		records, err := conflate.ReadFile(convertFlags.input)
		if err != nil {
			return err
		}

		log.Printf("Read %d matches from %s", len(records), convertFlags.input)

		opts := export.Options{H3: convertFlags.h3}

		if convertFlags.enrich {
			store, err := tracker.Open(convertFlags.tracker)
			if err != nil {
				return err
			}
			defer store.Close()

			opts.Tracker = store
		}

		fc, err := export.Convert(records, opts)
		if err != nil {
			return err
		}

		data, err := fc.MarshalJSON()
		if err != nil {
			return fmt.Errorf("encoding feature collection: %w", err)
		}

		if err := os.WriteFile(convertFlags.output, data, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", convertFlags.output, err)
		}

		log.Printf("Wrote %d features to %s", len(fc.Features), convertFlags.output)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(convertCmd)

	convertCmd.Flags().StringVar(&convertFlags.input, "input", "data/matches.jsonl", "Match stream to convert")
	convertCmd.Flags().StringVar(&convertFlags.output, "output", "data/matches.geojson", "Output GeoJSON file")
	convertCmd.Flags().StringVar(&convertFlags.tracker, "db", "data/tracker.db", "Tracking store for enrichment")
	convertCmd.Flags().BoolVar(&convertFlags.enrich, "enrich", false, "Add tracking state to every feature")
	convertCmd.Flags().BoolVar(&convertFlags.h3, "h3", false, "Add H3 cells (resolutions 1-8) to every feature")
}
