// Copyright 2026 The Overmatch Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"fmt"
	"strings"
)

// Point represents a geographical point in WGS84 degrees.
type Point struct {
	Lon float64 `json:"lon"`
	Lat float64 `json:"lat"`
}

// String returns a WKT representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lon, p.Lat)
}

// ParseWKT parses a WKT point literal such as `POINT(-77.03 38.90)'.
// QLever emits them without a space after POINT, GDAL with one; both
// forms are accepted.
func ParseWKT(s string) (Point, error) {
	var p Point

	s = strings.TrimSpace(s)
	if i := strings.Index(s, "("); i >= 0 {
		// normalize "POINT (x y)" to "POINT(x y)"
		s = "POINT(" + s[i+1:]
	}

	if _, err := fmt.Sscanf(s, "POINT(%f %f)", &p.Lon, &p.Lat); err != nil {
		return Point{}, fmt.Errorf("spatial: parsing WKT point %q: %w", s, err)
	}

	return p, nil
}
