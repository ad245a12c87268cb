// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"
)

type logWriter struct {
	writer io.Writer
}

func (w *logWriter) Write(bytes []byte) (int, error) {
	return fmt.Fprintf(w.writer, "%s %s", time.Now().Format("2006-01-02 15:04:05"), string(bytes))
}

func init() {
	log.SetFlags(0)
	log.SetOutput(&logWriter{writer: os.Stderr})
}

var rootCmd = &cobra.Command{
	Use:   "overmatch",
	Short: "conflates OSM and Overture places",
	Long: `
overmatch matches OpenStreetMap points of interest against Overture Maps
places, reconciles their attributes, and tracks which elements have been
reviewed. It covers the whole loop: fetching both inputs, matching,
loading results into the tracking store, exporting tiles input, and
serving the tracking API.
`,
}

var Version = "dev"

func Execute(version string) {
	Version = version

	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
