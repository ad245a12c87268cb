// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

// Package overture models the Overture Maps place attribute payload and
// translates it into the OSM tag vocabulary.
package overture

import (
	"encoding/json"
	"fmt"
)

// Names is the localized-name structure of a place. Only the primary
// name takes part in matching; the rest is carried for reconciliation.
type Names struct {
	Primary string            `json:"primary"`
	Common  map[string]string `json:"common,omitempty"`
}

// Address is one entry of the place's address list.
type Address struct {
	Freeform string `json:"freeform,omitempty"`
	Locality string `json:"locality,omitempty"`
	Postcode string `json:"postcode,omitempty"`
	Region   string `json:"region,omitempty"`
	Country  string `json:"country,omitempty"`
}

// Categories holds the primary category code and its alternates.
type Categories struct {
	Primary   string   `json:"primary"`
	Alternate []string `json:"alternate,omitempty"`
}

// Brand describes the brand a place belongs to, if any.
type Brand struct {
	Names    *Names `json:"names,omitempty"`
	Wikidata string `json:"wikidata,omitempty"`
}

// Source is one provenance entry of the place record.
type Source struct {
	Property   string  `json:"property,omitempty"`
	Dataset    string  `json:"dataset,omitempty"`
	RecordID   string  `json:"record_id,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
}

// Bundle is the structured attribute payload of an Overture place as it
// comes out of the parquet export, struct columns cast to JSON.
type Bundle struct {
	Names           *Names      `json:"names,omitempty"`
	Addresses       []Address   `json:"addresses,omitempty"`
	Categories      *Categories `json:"categories,omitempty"`
	Confidence      float64     `json:"confidence,omitempty"`
	Websites        []string    `json:"websites,omitempty"`
	Socials         []string    `json:"socials,omitempty"`
	Emails          []string    `json:"emails,omitempty"`
	Phones          []string    `json:"phones,omitempty"`
	Brand           *Brand      `json:"brand,omitempty"`
	Sources         []Source    `json:"sources,omitempty"`
	OperatingStatus string      `json:"operating_status,omitempty"`
	Filename        string      `json:"filename,omitempty"`
}

// PrimaryName returns the primary display name, or "" when the place
// has no usable name.
func (b *Bundle) PrimaryName() string {
	if b == nil || b.Names == nil {
		return ""
	}

	return b.Names.Primary
}

// DecodeField unmarshals a single bundle field that may arrive either
// as a JSON value or as a JSON-encoded string (DuckDB's CAST(... AS
// JSON) inside a GeoJSON property produces the latter).
func DecodeField(raw any, dst any) error {
	switch v := raw.(type) {
	case nil:
		return nil
	case string:
		if v == "" {
			return nil
		}

		return json.Unmarshal([]byte(v), dst)
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}

		return json.Unmarshal(data, dst)
	}
}

// DecodeBundle assembles a Bundle from a GeoJSON property bag.
func DecodeBundle(props map[string]any) (*Bundle, error) {
	b := &Bundle{}

	fields := []struct {
		key string
		dst any
	}{
		{"names", &b.Names},
		{"addresses", &b.Addresses},
		{"categories", &b.Categories},
		{"websites", &b.Websites},
		{"socials", &b.Socials},
		{"emails", &b.Emails},
		{"phones", &b.Phones},
		{"brand", &b.Brand},
		{"sources", &b.Sources},
	}
	for _, f := range fields {
		if raw, ok := props[f.key]; ok {
			if err := DecodeField(raw, f.dst); err != nil {
				return nil, fmt.Errorf("overture: decoding %s: %w", f.key, err)
			}
		}
	}

	if c, ok := props["confidence"].(float64); ok {
		b.Confidence = c
	}

	if s, ok := props["operating_status"].(string); ok {
		b.OperatingStatus = s
	}

	if s, ok := props["filename"].(string); ok {
		b.Filename = s
	}

	return b, nil
}
