// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"database/sql"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/overmatch/overmatch/overture"
)

// OvertureOptions configures the places export from the public
// Overture parquet release.
type OvertureOptions struct {
	// Release is the Overture release tag, e.g. "2025-10-22.0".
	Release string

	// Region filters on the first address's region code, e.g. "DC".
	Region string

	// BBox is xmin, ymin, xmax, ymax in degrees.
	BBox [4]float64

	// Groups are the coarse category groups to include; they expand to
	// the subcategory codes of the embedded taxonomy.
	Groups []string

	// OutputPath is the GeoJSON file the query writes.
	OutputPath string
}

func (o OvertureOptions) withDefaults() OvertureOptions {
	if o.Release == "" {
		o.Release = "2025-10-22.0"
	}

	if o.Region == "" {
		o.Region = "DC"
	}

	if o.BBox == [4]float64{} {
		o.BBox = [4]float64{-77.5, 38.5, -76.5, 39.5}
	}

	if len(o.Groups) == 0 {
		o.Groups = []string{"restaurant", "bar", "cafe"}
	}

	if o.OutputPath == "" {
		o.OutputPath = "overture.geojson"
	}

	return o
}

// BuildPlacesQuery composes the DuckDB query that exports the filtered
// places slice as GeoJSON, struct columns cast to JSON so the loader
// gets plain strings.
func BuildPlacesQuery(opts OvertureOptions) string {
	opts = opts.withDefaults()

	codes := overture.Subcategories(opts.Groups)

	quoted := make([]string, len(codes))
	for i, code := range codes {
		quoted[i] = "'" + code + "'"
	}

	return fmt.Sprintf(`COPY(
  SELECT
    * EXCLUDE (names, addresses, categories, socials, websites, emails, phones, brand, sources, bbox),
    CAST(names AS JSON) as names,
    CAST(addresses AS JSON) as addresses,
    CAST(categories AS JSON) as categories,
    CAST(socials AS JSON) as socials,
    CAST(websites AS JSON) as websites,
    CAST(emails AS JSON) as emails,
    CAST(phones AS JSON) as phones,
    CAST(brand AS JSON) as brand,
    CAST(sources AS JSON) as sources
  FROM
    read_parquet('s3://overturemaps-us-west-2/release/%s/theme=places/type=place/*', filename=true, hive_partitioning=1)
  WHERE
    addresses[1].region = '%s'
    AND bbox.xmin BETWEEN %g AND %g
    AND bbox.ymin BETWEEN %g AND %g
    AND (
      categories.primary IN (%s)
    )
) TO '%s' WITH (FORMAT GDAL, DRIVER 'GeoJSON')`,
		opts.Release,
		opts.Region,
		opts.BBox[0], opts.BBox[2],
		opts.BBox[1], opts.BBox[3],
		strings.Join(quoted, ", "),
		opts.OutputPath,
	)
}

// FetchOverture runs the places export against an open DuckDB
// connection. The spatial and httpfs extensions must be installable;
// everything else is a single COPY statement streaming straight from
// S3 to the output file.
func FetchOverture(db *sql.DB, opts OvertureOptions) error {
	opts = opts.withDefaults()

	for _, stmt := range []string{
		"INSTALL spatial",
		"LOAD spatial",
		"INSTALL httpfs",
		"LOAD httpfs",
		"SET s3_region='us-west-2'",
	} {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("preparing DuckDB (%s): %w", stmt, err)
		}
	}

	start := time.Now()

	if _, err := db.Exec(BuildPlacesQuery(opts)); err != nil {
		return fmt.Errorf("exporting places: %w", err)
	}

	log.Printf("Exported Overture places to %s in %s", opts.OutputPath, time.Since(start).Round(time.Second))

	return nil
}
