// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package export

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/overmatch/overmatch/conflate"
	"github.com/overmatch/overmatch/tracker"
	"github.com/paulmach/orb"
)

func testRecords() []conflate.MatchRecord {
	return []conflate.MatchRecord{
		{
			OSMID:      "node/1",
			OvertureID: "08f2aa",
			Lon:        -77.03,
			Lat:        38.9,
			DistanceM:  5.04,
			Similarity: 0.9,
			OvertureTags: map[string]any{
				"name":    "Joes Cafe",
				"amenity": "cafe",
			},
		},
		{
			OSMID:        "node/2",
			OvertureID:   "08f2bb",
			Lon:          -77.04,
			Lat:          38.91,
			DistanceM:    12.36,
			Similarity:   0.75,
			OvertureTags: map[string]any{"name": "Corner Bar"},
		},
	}
}

func TestConvert(t *testing.T) {
	fc, err := Convert(testRecords(), Options{})
	if err != nil {
		t.Fatalf("Convert: %s", err)
	}

	if len(fc.Features) != 2 {
		t.Fatalf("got %d features, expected 2", len(fc.Features))
	}

	f := fc.Features[0]

	if f.ID != 1 {
		t.Errorf("ID = %v, expected sequential from 1", f.ID)
	}

	pt, ok := f.Geometry.(orb.Point)
	if !ok || pt[0] != -77.03 || pt[1] != 38.9 {
		t.Errorf("geometry = %v", f.Geometry)
	}

	expected := map[string]any{
		"osm_id":           "node/1",
		"overture_id":      "08f2aa",
		"distance_m":       5.0,
		"similarity":       0.9,
		"overture_name":    "Joes Cafe",
		"overture_amenity": "cafe",
	}
	if diff := cmp.Diff(expected, map[string]any(f.Properties)); diff != "" {
		t.Errorf("properties mismatch (-expected +got):\n%s", diff)
	}

	if fc.Features[1].ID != 2 {
		t.Errorf("second ID = %v", fc.Features[1].ID)
	}
}

func TestConvertWithTracking(t *testing.T) {
	store, err := tracker.Open(filepath.Join(t.TempDir(), "tracker.db"))
	if err != nil {
		t.Fatalf("Open: %s", err)
	}
	defer store.Close()

	seen := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	if err := store.Mark("osm", []string{"node/1"}, seen); err != nil {
		t.Fatalf("Mark: %s", err)
	}

	fc, err := Convert(testRecords(), Options{Tracker: store})
	if err != nil {
		t.Fatalf("Convert: %s", err)
	}

	props := fc.Features[0].Properties

	if props["osm_marked"] != true {
		t.Errorf("osm_marked = %v, expected true", props["osm_marked"])
	}

	if props["osm_first_seen"] != "2026-08-01T12:00:00Z" {
		t.Errorf("osm_first_seen = %v", props["osm_first_seen"])
	}

	if props["overture_marked"] != false {
		t.Errorf("overture_marked = %v, expected false", props["overture_marked"])
	}

	if _, present := props["overture_first_seen"]; present {
		t.Error("overture_first_seen present for an unmarked element")
	}

	// The untracked second record carries only the marked flags.
	props = fc.Features[1].Properties
	if props["osm_marked"] != false || props["overture_marked"] != false {
		t.Errorf("second feature marks = %v/%v", props["osm_marked"], props["overture_marked"])
	}
}

func TestConvertWithH3(t *testing.T) {
	fc, err := Convert(testRecords(), Options{H3: true})
	if err != nil {
		t.Fatalf("Convert: %s", err)
	}

	props := fc.Features[0].Properties

	for res := 1; res <= 8; res++ {
		key := fmt.Sprintf("h3_res%d", res)

		cell, ok := props[key].(string)
		if !ok || cell == "" {
			t.Errorf("%s = %v, expected a cell identifier", key, props[key])
		}
	}

	if _, present := props["h3_res9"]; present {
		t.Error("unexpected resolution 9 cell")
	}
}

func TestFlattenTags(t *testing.T) {
	out := make(map[string]any)

	flattenTags(map[string]any{
		"name": "Joes Cafe",
		"contact": map[string]any{
			"email": "hi@joes.example",
			"social": map[string]any{
				"instagram": "joescafe",
			},
		},
	}, "overture_", out)

	expected := map[string]any{
		"overture_name":                     "Joes Cafe",
		"overture_contact_email":            "hi@joes.example",
		"overture_contact_social_instagram": "joescafe",
	}
	if diff := cmp.Diff(expected, out); diff != "" {
		t.Errorf("flatten mismatch (-expected +got):\n%s", diff)
	}
}
