// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package conflate

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/overmatch/overmatch/overture"
)

type stubAddressParser struct {
	components map[string]string
	err        error
}

func (s stubAddressParser) Parse(string) (map[string]string, error) {
	return s.components, s.err
}

type stubPhoneParser struct {
	normalized string
	err        error
}

func (s stubPhoneParser) Parse(string) (string, error) {
	return s.normalized, s.err
}

func staticMapper(tags map[string]any) TagMapper {
	return func(*overture.Bundle) map[string]any {
		copied := make(map[string]any, len(tags))
		for k, v := range tags {
			copied[k] = v
		}

		return copied
	}
}

func TestReconcileTranslatesAndDropsTransients(t *testing.T) {
	r := &Reconciler{
		Mapper: staticMapper(map[string]any{
			"name":         "Joes Cafe",
			"amenity":      "cafe",
			"addr:full":    "10 Main St NW",
			"addr:country": "US",
			"source":       "overture/meta",
		}),
		Addresses: stubAddressParser{components: map[string]string{
			"house_number": "10",
			"road":         "main st nw",
		}},
	}

	tags, ok := r.Reconcile(
		&SourcePoint{ID: "S1"},
		&ReferencePoint{ID: "R1"},
	)
	if !ok {
		t.Fatal("expected candidate to survive")
	}

	expected := map[string]any{
		"name":             "Joes Cafe",
		"amenity":          "cafe",
		"addr:housenumber": "10",
		"addr:street":      "main st nw",
	}
	if diff := cmp.Diff(expected, tags); diff != "" {
		t.Errorf("tags mismatch (-expected +got):\n%s", diff)
	}
}

func TestReconcileHousenumberVeto(t *testing.T) {
	tests := []struct {
		name      string
		source    map[string]string
		reference map[string]any
		ok        bool
	}{
		{
			name:      "different numbers",
			source:    map[string]string{"housenumber": "12"},
			reference: map[string]any{"addr:housenumber": "14"},
			ok:        false,
		},
		{
			name:      "equal numbers",
			source:    map[string]string{"housenumber": "10"},
			reference: map[string]any{"addr:housenumber": "10"},
			ok:        true,
		},
		{
			name:      "source has none",
			source:    nil,
			reference: map[string]any{"addr:housenumber": "14"},
			ok:        true,
		},
		{
			name:      "reference has none",
			source:    map[string]string{"housenumber": "12"},
			reference: map[string]any{},
			ok:        true,
		},
		{
			name:      "prefixed source key",
			source:    map[string]string{"addr:housenumber": "12"},
			reference: map[string]any{"addr:housenumber": "14"},
			ok:        false,
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			r := &Reconciler{Mapper: staticMapper(test.reference)}

			_, ok := r.Reconcile(
				&SourcePoint{ID: "S1", Tags: test.source},
				&ReferencePoint{ID: "R1"},
			)
			if ok != test.ok {
				t.Errorf("ok = %v, expected %v", ok, test.ok)
			}
		})
	}
}

func TestReconcileVetoAfterAddressNormalization(t *testing.T) {
	// The mapping itself carries no house number; parsing addr:full
	// produces one that conflicts with the source.
	r := &Reconciler{
		Mapper: staticMapper(map[string]any{"addr:full": "14 Main St"}),
		Addresses: stubAddressParser{components: map[string]string{
			"house_number": "14",
		}},
	}

	_, ok := r.Reconcile(
		&SourcePoint{ID: "S1", Tags: map[string]string{"housenumber": "12"}},
		&ReferencePoint{ID: "R1"},
	)
	if ok {
		t.Error("expected veto after address normalization")
	}
}

func TestReconcileSoftFailures(t *testing.T) {
	r := &Reconciler{
		Mapper: staticMapper(map[string]any{
			"addr:full": "not an address",
			"phone":     "call us!",
		}),
		Addresses: stubAddressParser{err: errors.New("unparseable")},
		Phones:    stubPhoneParser{err: errors.New("unparseable")},
	}

	tags, ok := r.Reconcile(&SourcePoint{ID: "S1"}, &ReferencePoint{ID: "R1"})
	if !ok {
		t.Fatal("per-field failures must not discard the candidate")
	}

	// The unparsed phone is retained as supplied.
	if got := tags["phone"]; got != "call us!" {
		t.Errorf("phone = %v, expected raw value retained", got)
	}
}

func TestReconcilePhoneNormalized(t *testing.T) {
	r := &Reconciler{
		Mapper: staticMapper(map[string]any{"phone": "(202) 555-0123"}),
		Phones: stubPhoneParser{normalized: "+12025550123"},
	}

	tags, ok := r.Reconcile(&SourcePoint{ID: "S1"}, &ReferencePoint{ID: "R1"})
	if !ok {
		t.Fatal("expected candidate to survive")
	}

	if got := tags["phone"]; got != "+12025550123" {
		t.Errorf("phone = %v, expected normalized value", got)
	}
}

func TestReconcileMapperPanicYieldsEmptyTags(t *testing.T) {
	r := &Reconciler{
		Mapper: func(*overture.Bundle) map[string]any { panic("mapping bug") },
	}

	tags, ok := r.Reconcile(&SourcePoint{ID: "S1"}, &ReferencePoint{ID: "R1"})
	if !ok {
		t.Fatal("a mapper panic must not discard the candidate")
	}

	if len(tags) != 0 {
		t.Errorf("tags = %v, expected empty mapping", tags)
	}
}

func TestCleanWebsite(t *testing.T) {
	tests := []struct {
		name     string
		website  string
		expected any // nil means the field must be absent
	}{
		{
			name:     "tracking parameters stripped",
			website:  "https://example.com/page?utm_source=x&id=1",
			expected: "https://example.com/page?id=1",
		},
		{
			name:     "click identifiers stripped",
			website:  "https://example.com/?fbclid=abc&gclid=def",
			expected: "https://example.com/",
		},
		{
			name:     "clean URL untouched",
			website:  "https://joescafe.example/menu?page=2",
			expected: "https://joescafe.example/menu?page=2",
		},
		{
			name:     "parameter order preserved",
			website:  "https://example.com/?z=1&utm_medium=social&a=2&m=3",
			expected: "https://example.com/?z=1&a=2&m=3",
		},
		{
			name:     "delivery aggregator dropped",
			website:  "https://www.doordash.com/store/joes-cafe",
			expected: nil,
		},
		{
			name:     "aggregator subdomain dropped",
			website:  "https://order.toasttab.com/online/joes",
			expected: nil,
		},
		{
			name:     "social profile dropped",
			website:  "https://instagram.com/joescafe",
			expected: nil,
		},
		{
			name:     "unparseable value left alone",
			website:  "not a url",
			expected: "not a url",
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tags := map[string]any{"website": test.website}
			cleanWebsite(tags)

			got, present := tags["website"]

			if test.expected == nil {
				if present {
					t.Errorf("website = %v, expected field dropped", got)
				}

				return
			}

			if got != test.expected {
				t.Errorf("website = %v, expected %v", got, test.expected)
			}
		})
	}
}
