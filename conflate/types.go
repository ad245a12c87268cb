// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package conflate matches OSM points against Overture places and
// emits reconciled match records.
package conflate

import (
	"encoding/json"
	"math"

	"github.com/overmatch/overmatch/overture"
)

// SourcePoint is an OSM point prepared for matching. X/Y are Web
// Mercator meters; Lon/Lat the original geographic coordinates. A point
// with an empty Name never takes part in matching.
type SourcePoint struct {
	ID   string
	Name string
	X, Y float64
	Lon  float64
	Lat  float64

	// Tags carries the auxiliary source attributes. Only
	// addr:housenumber participates in the conflict check; the rest
	// passes through untouched.
	Tags map[string]string
}

// Housenumber returns the source house number, or "".
func (p *SourcePoint) Housenumber() string {
	if v, ok := p.Tags["addr:housenumber"]; ok {
		return v
	}

	return p.Tags["housenumber"]
}

// ReferencePoint is an Overture place prepared for matching. The Bundle
// is only consumed for candidates that survive the geometry and name
// stages.
type ReferencePoint struct {
	ID   string
	Name string
	X, Y float64
	Lon  float64
	Lat  float64

	Bundle *overture.Bundle
}

// MatchRecord is one accepted (source, reference) pair. Records are
// immutable once created; the engine only ever appends them.
type MatchRecord struct {
	OSMID        string         `json:"osm_id"`
	OvertureID   string         `json:"overture_id"`
	Lon          float64        `json:"lon"`
	Lat          float64        `json:"lat"`
	DistanceM    float64        `json:"distance_m"`
	Similarity   float64        `json:"similarity"`
	OvertureTags map[string]any `json:"overture_tags"`
}

// MarshalJSON rounds distance_m to one decimal on the wire while the
// in-memory record keeps full precision.
func (m MatchRecord) MarshalJSON() ([]byte, error) {
	type alias MatchRecord

	rounded := alias(m)
	rounded.DistanceM = math.Round(m.DistanceM*10) / 10

	return json.Marshal(rounded)
}
