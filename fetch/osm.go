// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package fetch acquires the two input collections: OSM points from a
// QLever SPARQL endpoint and Overture places from the public parquet
// release via DuckDB. Both outputs are GeoJSON files for the matcher.
package fetch

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/overmatch/overmatch/spatial"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

const osmPrefix = "https://www.openstreetmap.org/"

// OSMOptions configures the QLever fetch.
type OSMOptions struct {
	// Endpoint is the QLever SPARQL API endpoint.
	Endpoint string

	// AreaRelation is the OSM relation ID whose area bounds the query.
	AreaRelation int64

	// Amenities filters by amenity=* values.
	Amenities []string

	// UserAgent identifies the client in HTTP requests.
	UserAgent string

	Timeout time.Duration
}

func (o OSMOptions) withDefaults() OSMOptions {
	if o.Endpoint == "" {
		o.Endpoint = "https://qlever.dev/api/osm-planet"
	}

	if o.AreaRelation == 0 {
		o.AreaRelation = 162069 // District of Columbia
	}

	if len(o.Amenities) == 0 {
		o.Amenities = []string{"restaurant", "bar", "pub", "fast_food", "cafe"}
	}

	if o.Timeout == 0 {
		o.Timeout = 120 * time.Second
	}

	return o
}

// buildOSMQuery composes the SPARQL query selecting named amenities
// with optional house numbers and their centroids inside the area.
func buildOSMQuery(relation int64, amenities []string) string {
	values := make([]string, len(amenities))
	for i, a := range amenities {
		values[i] = fmt.Sprintf("%q", a)
	}

	return fmt.Sprintf(`PREFIX osmkey: <https://www.openstreetmap.org/wiki/Key:>
PREFIX osmrel: <https://www.openstreetmap.org/relation/>
PREFIX osm: <https://www.openstreetmap.org/>
PREFIX ogc: <http://www.opengis.net/rdf#>
PREFIX geo: <http://www.opengis.net/ont/geosparql#>
PREFIX geof: <http://www.opengis.net/def/function/geosparql/>
SELECT ?id ?name ?housenumber ?centroid WHERE {
  osmrel:%d ogc:sfIntersects ?id .
  VALUES ?amenity_types { %s }
  ?id osmkey:amenity ?amenity_types .
  ?id osmkey:name ?name .
  OPTIONAL { ?id osmkey:addr:housenumber ?housenumber . }
  ?id geo:hasGeometry/geo:asWKT ?geometry .
  BIND(geof:centroid(?geometry) AS ?centroid)
}`, relation, strings.Join(values, " "))
}

type sparqlBinding map[string]struct {
	Value string `json:"value"`
}

type sparqlResponse struct {
	Results struct {
		Bindings []sparqlBinding `json:"bindings"`
	} `json:"results"`
}

// FetchOSM queries the endpoint and converts the bindings into a
// GeoJSON feature collection with id, name and housenumber properties.
func FetchOSM(opts OSMOptions) (*geojson.FeatureCollection, error) {
	opts = opts.withDefaults()

	query := buildOSMQuery(opts.AreaRelation, opts.Amenities)

	endpoint, err := url.Parse(opts.Endpoint)
	if err != nil {
		return nil, fmt.Errorf("parsing endpoint: %w", err)
	}

	params := url.Values{"query": {query}}
	endpoint.RawQuery = params.Encode()

	req, err := http.NewRequest(http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	req.Header.Set("Accept", "application/sparql-results+json")

	if opts.UserAgent != "" {
		req.Header.Set("User-Agent", opts.UserAgent)
	}

	client := &http.Client{Timeout: opts.Timeout}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("querying %s: %w", opts.Endpoint, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))

		return nil, fmt.Errorf("querying %s: %s: %s", opts.Endpoint, resp.Status, strings.TrimSpace(string(body)))
	}

	var parsed sparqlResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding SPARQL response: %w", err)
	}

	log.Printf("Fetched %d results from %s", len(parsed.Results.Bindings), opts.Endpoint)

	return bindingsToFeatures(parsed.Results.Bindings), nil
}

func bindingsToFeatures(bindings []sparqlBinding) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	var skipped int

	for _, b := range bindings {
		id := strings.TrimPrefix(b["id"].Value, osmPrefix)
		name := b["name"].Value

		point, err := spatial.ParseWKT(b["centroid"].Value)
		if err != nil || id == "" || name == "" {
			skipped++

			continue
		}

		f := geojson.NewFeature(orb.Point{point.Lon, point.Lat})
		f.Properties["id"] = id
		f.Properties["name"] = name

		if hn, ok := b["housenumber"]; ok && hn.Value != "" {
			f.Properties["addr:housenumber"] = hn.Value
		}

		fc.Append(f)
	}

	if skipped > 0 {
		log.Printf("Skipped %d bindings without id, name or a parsable centroid", skipped)
	}

	return fc
}

// WriteFeatureCollection serializes fc to path as GeoJSON.
func WriteFeatureCollection(fc *geojson.FeatureCollection, path string) error {
	data, err := fc.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encoding feature collection: %w", err)
	}

	return writeFileAtomic(path, data)
}
