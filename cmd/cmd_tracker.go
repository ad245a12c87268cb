// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"log"
	"time"

	"github.com/overmatch/overmatch/conflate"
	"github.com/overmatch/overmatch/tracker"
	"github.com/spf13/cobra"
)

var trackerPath string

var trackerCmd = &cobra.Command{
	Use:   "tracker",
	Short: "Maintains the element-tracking store",
}

var trackerMarkFlags = struct {
	source string
}{}

var trackerMarkCmd = &cobra.Command{
	Use:   "mark <id>...",
	Short: "Marks element identifiers as seen",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		if trackerMarkFlags.source != "osm" && trackerMarkFlags.source != "overture" {
			return fmt.Errorf("--source must be osm or overture, got %q", trackerMarkFlags.source)
		}

		store, err := tracker.Open(trackerPath)
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.Mark(trackerMarkFlags.source, args, time.Now()); err != nil {
			return err
		}

		log.Printf("Marked %d %s elements", len(args), trackerMarkFlags.source)

		return nil
	},
}

var trackerLoadFlags = struct {
	matches string
}{}

var trackerLoadCmd = &cobra.Command{
	Use:   "load",
	Short: "Bulk-loads a match stream, grouped by OSM identifier",
	RunE: func(_ *cobra.Command, _ []string) error {
		records, err := conflate.ReadFile(trackerLoadFlags.matches)
		if err != nil {
			return err
		}

		store, err := tracker.Open(trackerPath)
		if err != nil {
			return err
		}
		defer store.Close()

		groups, err := store.LoadMatches(records, time.Now())
		if err != nil {
			return err
		}

		log.Printf("Loaded %d matches for %d OSM elements", len(records), groups)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(trackerCmd)
	trackerCmd.AddCommand(trackerMarkCmd)
	trackerCmd.AddCommand(trackerLoadCmd)

	trackerCmd.PersistentFlags().StringVar(&trackerPath, "db", "data/tracker.db", "Tracking store path")
	trackerMarkCmd.Flags().StringVar(&trackerMarkFlags.source, "source", "osm", "Element source: osm or overture")
	trackerLoadCmd.Flags().StringVar(&trackerLoadFlags.matches, "matches", "data/matches.jsonl", "Match stream to load")
}
