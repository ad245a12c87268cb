// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package fetch

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func TestBuildOSMQuery(t *testing.T) {
	query := buildOSMQuery(162069, []string{"restaurant", "cafe"})

	for _, want := range []string{
		"osmrel:162069 ogc:sfIntersects ?id",
		`VALUES ?amenity_types { "restaurant" "cafe" }`,
		"OPTIONAL { ?id osmkey:addr:housenumber ?housenumber . }",
		"BIND(geof:centroid(?geometry) AS ?centroid)",
	} {
		if !strings.Contains(query, want) {
			t.Errorf("query missing %q:\n%s", want, query)
		}
	}
}

func TestBindingsToFeatures(t *testing.T) {
	value := func(v string) struct {
		Value string `json:"value"`
	} {
		return struct {
			Value string `json:"value"`
		}{Value: v}
	}

	bindings := []sparqlBinding{
		{
			"id":          value("https://www.openstreetmap.org/node/1"),
			"name":        value("Joes Cafe"),
			"housenumber": value("10"),
			"centroid":    value("POINT(-77.03 38.9)"),
		},
		{
			// no housenumber binding at all
			"id":       value("https://www.openstreetmap.org/way/2"),
			"name":     value("Corner Bar"),
			"centroid": value("POINT(-77.04 38.91)"),
		},
		{
			// unparsable centroid: skipped
			"id":       value("https://www.openstreetmap.org/node/3"),
			"name":     value("Broken"),
			"centroid": value("not wkt"),
		},
		{
			// nameless: skipped
			"id":       value("https://www.openstreetmap.org/node/4"),
			"centroid": value("POINT(0 0)"),
		},
	}

	fc := bindingsToFeatures(bindings)

	if len(fc.Features) != 2 {
		t.Fatalf("got %d features, expected 2", len(fc.Features))
	}

	f := fc.Features[0]

	if f.Properties["id"] != "node/1" {
		t.Errorf("id = %v, expected the URL prefix stripped", f.Properties["id"])
	}

	if f.Properties["name"] != "Joes Cafe" {
		t.Errorf("name = %v", f.Properties["name"])
	}

	if f.Properties["addr:housenumber"] != "10" {
		t.Errorf("addr:housenumber = %v", f.Properties["addr:housenumber"])
	}

	pt, ok := f.Geometry.(orb.Point)
	if !ok || pt[0] != -77.03 || pt[1] != 38.9 {
		t.Errorf("geometry = %v", f.Geometry)
	}

	if _, present := fc.Features[1].Properties["addr:housenumber"]; present {
		t.Error("addr:housenumber present on a binding without one")
	}
}

func TestFetchOSM(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Accept"); got != "application/sparql-results+json" {
			t.Errorf("Accept = %q", got)
		}

		if !strings.Contains(r.URL.Query().Get("query"), "osmrel:42") {
			t.Errorf("query = %q, expected the relation bound", r.URL.Query().Get("query"))
		}

		fmt.Fprint(w, `{
			"results": {
				"bindings": [
					{
						"id": {"value": "https://www.openstreetmap.org/node/1"},
						"name": {"value": "Joes Cafe"},
						"centroid": {"value": "POINT(-77.03 38.9)"}
					}
				]
			}
		}`)
	}))
	defer server.Close()

	fc, err := FetchOSM(OSMOptions{Endpoint: server.URL, AreaRelation: 42})
	if err != nil {
		t.Fatalf("FetchOSM: %s", err)
	}

	if len(fc.Features) != 1 || fc.Features[0].Properties["id"] != "node/1" {
		t.Errorf("features = %+v", fc.Features)
	}
}

func TestFetchOSMErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := FetchOSM(OSMOptions{Endpoint: server.URL})
	if err == nil {
		t.Fatal("expected an error for a non-200 response")
	}

	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("err = %s, expected the response body included", err)
	}
}

func TestWriteFeatureCollection(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(orb.Point{-77.03, 38.9})
	f.Properties["id"] = "node/1"
	fc.Append(f)

	path := filepath.Join(t.TempDir(), "osm.geojson")

	if err := WriteFeatureCollection(fc, path); err != nil {
		t.Fatalf("WriteFeatureCollection: %s", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	parsed, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		t.Fatalf("parsing output: %s", err)
	}

	if len(parsed.Features) != 1 || parsed.Features[0].Properties["id"] != "node/1" {
		t.Errorf("round trip = %+v", parsed.Features)
	}
}
