// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package conflate

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/overmatch/overmatch/overture"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/project"
	"golang.org/x/text/unicode/norm"
)

func decodeBundle(f *geojson.Feature) (*overture.Bundle, error) {
	return overture.DecodeBundle(map[string]any(f.Properties))
}

// normalizeName applies the only name normalization the pipeline does:
// Unicode NFC plus whitespace trimming. Similarity scoring downstream
// compares names exactly as returned here.
func normalizeName(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return fc, nil
}

func featureID(f *geojson.Feature) string {
	if v, ok := f.Properties["id"].(string); ok && v != "" {
		return v
	}

	switch id := f.ID.(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	}

	return ""
}

func pointOf(f *geojson.Feature) (orb.Point, bool) {
	pt, ok := f.Geometry.(orb.Point)

	return pt, ok
}

func propString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

// LoadSource reads the OSM feature collection and projects it to Web
// Mercator for distance math. A file that cannot be parsed is a fatal
// error; individual features with missing identifiers or unusable
// geometry are skipped and logged.
func LoadSource(path string) ([]SourcePoint, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	points := make([]SourcePoint, 0, len(fc.Features))

	var skipped int

	for _, f := range fc.Features {
		id := featureID(f)
		pt, ok := pointOf(f)

		if id == "" || !ok {
			skipped++

			continue
		}

		merc := project.WGS84.ToMercator(pt)

		p := SourcePoint{
			ID:   id,
			Name: normalizeName(propString(f.Properties["name"])),
			X:    merc[0],
			Y:    merc[1],
			Lon:  pt[0],
			Lat:  pt[1],
			Tags: make(map[string]string),
		}

		for k, v := range f.Properties {
			if k == "id" || k == "name" {
				continue
			}

			if s := propString(v); s != "" {
				p.Tags[k] = s
			}
		}

		points = append(points, p)
	}

	if skipped > 0 {
		log.Printf("Skipped %d source features without id or point geometry", skipped)
	}

	return points, nil
}

// LoadReference reads the Overture feature collection, projecting the
// geometry to Web Mercator while retaining the geographic coordinates
// for output. Names are precomputed here once; the rest of the
// attribute bundle is kept and only consumed for candidates that
// survive filtering.
func LoadReference(path string) ([]ReferencePoint, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}

	points := make([]ReferencePoint, 0, len(fc.Features))

	var skipped int

	for _, f := range fc.Features {
		id := featureID(f)
		pt, ok := pointOf(f)

		if id == "" || !ok {
			skipped++

			continue
		}

		bundle, err := decodeBundle(f)
		if err != nil {
			skipped++

			log.Printf("Skipping reference %s: %s", id, err)

			continue
		}

		merc := project.WGS84.ToMercator(pt)

		points = append(points, ReferencePoint{
			ID:     id,
			Name:   normalizeName(bundle.PrimaryName()),
			X:      merc[0],
			Y:      merc[1],
			Lon:    pt[0],
			Lat:    pt[1],
			Bundle: bundle,
		})
	}

	if skipped > 0 {
		log.Printf("Skipped %d reference features without id, geometry or a decodable bundle", skipped)
	}

	return points, nil
}
