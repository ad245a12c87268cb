// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"log"

	"github.com/overmatch/overmatch/serve"
	"github.com/overmatch/overmatch/tracker"
	"github.com/spf13/cobra"
)

var serveFlags = struct {
	addr    string
	tracker string
}{}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the element-tracking API",
	RunE: func(_ *cobra.Command, _ []string) error {
		store, err := tracker.Open(serveFlags.tracker)
		if err != nil {
			return err
		}
		defer store.Close()

		log.Printf("Serving element-tracking API on %s", serveFlags.addr)

		return serve.NewServer(store, Version).Run(serveFlags.addr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveFlags.addr, "addr", ":8080", "Listen address")
	serveCmd.Flags().StringVar(&serveFlags.tracker, "db", "data/tracker.db", "Tracking store path")
}
