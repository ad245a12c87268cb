// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package export turns the match stream into a GeoJSON feature
// collection ready for tippecanoe tiling, optionally enriched with
// tracking state and H3 cells.
package export

import (
	"fmt"
	"math"
	"time"

	"github.com/overmatch/overmatch/conflate"
	"github.com/overmatch/overmatch/tracker"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/uber/h3-go/v4"
)

// Options controls the optional enrichment of exported features.
type Options struct {
	// Tracker, when set, contributes marked/first_seen/last_seen
	// properties for both identifiers of every match.
	Tracker *tracker.Store

	// H3 adds cell identifiers at resolutions 1-8 for tile-side
	// aggregation.
	H3 bool
}

// Convert builds one Point feature per match record. Properties carry
// the identifiers, distance, similarity and the overture tags
// flattened with an `overture_' prefix; feature IDs are sequential.
func Convert(records []conflate.MatchRecord, opts Options) (*geojson.FeatureCollection, error) {
	var (
		osmState      map[string]tracker.Element
		overtureState map[string]tracker.Element
	)

	if opts.Tracker != nil {
		osmIDs := make([]string, 0, len(records))
		overtureIDs := make([]string, 0, len(records))

		for _, r := range records {
			osmIDs = append(osmIDs, r.OSMID)
			overtureIDs = append(overtureIDs, r.OvertureID)
		}

		var err error

		if osmState, err = opts.Tracker.Get(osmIDs); err != nil {
			return nil, fmt.Errorf("reading osm tracking state: %w", err)
		}

		if overtureState, err = opts.Tracker.Get(overtureIDs); err != nil {
			return nil, fmt.Errorf("reading overture tracking state: %w", err)
		}
	}

	fc := geojson.NewFeatureCollection()

	for i, r := range records {
		f := geojson.NewFeature(orb.Point{r.Lon, r.Lat})
		f.ID = i + 1

		f.Properties["osm_id"] = r.OSMID
		f.Properties["overture_id"] = r.OvertureID
		f.Properties["distance_m"] = math.Round(r.DistanceM*10) / 10
		f.Properties["similarity"] = r.Similarity

		flattenTags(r.OvertureTags, "overture_", f.Properties)

		if opts.Tracker != nil {
			markProperties(f.Properties, "osm", osmState[r.OSMID])
			markProperties(f.Properties, "overture", overtureState[r.OvertureID])
		}

		if opts.H3 {
			if err := h3Properties(f.Properties, r.Lat, r.Lon); err != nil {
				return nil, fmt.Errorf("computing h3 cells for %s/%s: %w", r.OSMID, r.OvertureID, err)
			}
		}

		fc.Append(f)
	}

	return fc, nil
}

// flattenTags flattens nested maps into prefixed keys joined with `_'.
func flattenTags(tags map[string]any, prefix string, out map[string]any) {
	for key, value := range tags {
		if nested, ok := value.(map[string]any); ok {
			flattenTags(nested, prefix+key+"_", out)

			continue
		}

		out[prefix+key] = value
	}
}

func markProperties(props map[string]any, side string, e tracker.Element) {
	marked := e.ID != ""
	props[side+"_marked"] = marked

	if marked {
		props[side+"_first_seen"] = e.FirstSeen.UTC().Format(time.RFC3339)
		props[side+"_last_seen"] = e.LastSeen.UTC().Format(time.RFC3339)
	}
}

func h3Properties(props map[string]any, lat, lon float64) error {
	latLng := h3.NewLatLng(lat, lon)

	for res := 1; res <= 8; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return fmt.Errorf("resolution %d: %w", res, err)
		}

		props[fmt.Sprintf("h3_res%d", res)] = cell.String()
	}

	return nil
}
