// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package cmd

import (
	"database/sql"
	"fmt"

	_ "github.com/duckdb/duckdb-go/v2" // register duckdb driver
	"github.com/overmatch/overmatch/fetch"
	"github.com/spf13/cobra"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Acquires the input collections",
}

var fetchOSMFlags = struct {
	endpoint string
	relation int64
	output   string
}{}

var fetchOSMCmd = &cobra.Command{
	Use:   "osm",
	Short: "Fetches OSM amenities from the QLever SPARQL endpoint",
	RunE: func(_ *cobra.Command, _ []string) error {
		fc, err := fetch.FetchOSM(fetch.OSMOptions{
			Endpoint:     fetchOSMFlags.endpoint,
			AreaRelation: fetchOSMFlags.relation,
			UserAgent:    fmt.Sprintf("overmatch/%s (+https://github.com/overmatch/overmatch)", Version),
		})
		if err != nil {
			return err
		}

		return fetch.WriteFeatureCollection(fc, fetchOSMFlags.output)
	},
}

var fetchOvertureFlags = struct {
	release string
	region  string
	bbox    []float64
	output  string
}{}

var fetchOvertureCmd = &cobra.Command{
	Use:   "overture",
	Short: "Exports Overture places from the public parquet release",
	RunE: func(_ *cobra.Command, _ []string) error {
		opts := fetch.OvertureOptions{
			Release:    fetchOvertureFlags.release,
			Region:     fetchOvertureFlags.region,
			OutputPath: fetchOvertureFlags.output,
		}

		if len(fetchOvertureFlags.bbox) == 4 {
			copy(opts.BBox[:], fetchOvertureFlags.bbox)
		} else if len(fetchOvertureFlags.bbox) != 0 {
			return fmt.Errorf("--bbox wants 4 values (xmin,ymin,xmax,ymax), got %d", len(fetchOvertureFlags.bbox))
		}

		db, err := sql.Open("duckdb", "")
		if err != nil {
			return fmt.Errorf("opening DuckDB: %w", err)
		}
		defer db.Close()

		return fetch.FetchOverture(db, opts)
	},
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.AddCommand(fetchOSMCmd)
	fetchCmd.AddCommand(fetchOvertureCmd)

	fetchOSMCmd.Flags().StringVar(&fetchOSMFlags.endpoint, "endpoint", "", "QLever SPARQL endpoint override")
	fetchOSMCmd.Flags().Int64Var(&fetchOSMFlags.relation, "relation", 0, "OSM area relation ID (default District of Columbia)")
	fetchOSMCmd.Flags().StringVar(&fetchOSMFlags.output, "output", "data/osm.geojson", "Output GeoJSON file")

	fetchOvertureCmd.Flags().StringVar(&fetchOvertureFlags.release, "release", "", "Overture release tag, e.g. 2025-10-22.0")
	fetchOvertureCmd.Flags().StringVar(&fetchOvertureFlags.region, "region", "", "Address region filter, e.g. DC")
	fetchOvertureCmd.Flags().Float64SliceVar(&fetchOvertureFlags.bbox, "bbox", nil, "Bounding box xmin,ymin,xmax,ymax in degrees")
	fetchOvertureCmd.Flags().StringVar(&fetchOvertureFlags.output, "output", "data/overture.geojson", "Output GeoJSON file")
}
