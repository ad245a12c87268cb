// Copyright 2026 The Overmatch Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"testing"
)

func TestParseWKT(t *testing.T) {
	tests := []struct {
		name    string
		wkt     string
		point   Point
		invalid bool
	}{
		{
			name:  "compact form",
			wkt:   "POINT(-77.036133 38.897957)",
			point: Point{Lon: -77.036133, Lat: 38.897957},
		},
		{
			name:  "spaced form",
			wkt:   "POINT (-77.036133 38.897957)",
			point: Point{Lon: -77.036133, Lat: 38.897957},
		},
		{
			name:  "padded",
			wkt:   "  POINT(1.5 -2.5)  ",
			point: Point{Lon: 1.5, Lat: -2.5},
		},
		{
			name:    "empty",
			wkt:     "",
			invalid: true,
		},
		{
			name:    "not a point",
			wkt:     "LINESTRING(0 0, 1 1)",
			invalid: true,
		},
		{
			name:    "garbage coordinates",
			wkt:     "POINT(a b)",
			invalid: true,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			got, err := ParseWKT(test.wkt)

			if test.invalid {
				if err == nil {
					t.Fatalf("ParseWKT(%q) = %v, expected error", test.wkt, got)
				}

				return
			}

			if err != nil {
				t.Fatalf("ParseWKT(%q): %s", test.wkt, err)
			}

			if got != test.point {
				t.Errorf("ParseWKT(%q) = %v, expected %v", test.wkt, got, test.point)
			}
		})
	}
}

func TestPointStringRoundTrip(t *testing.T) {
	p := Point{Lon: -77.036133, Lat: 38.897957}

	got, err := ParseWKT(p.String())
	if err != nil {
		t.Fatalf("ParseWKT: %s", err)
	}

	if got != p {
		t.Errorf("round trip = %v, expected %v", got, p)
	}
}
