// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package conflate

import (
	"math"
	"testing"
)

func TestSimilarity(t *testing.T) {
	tests := []struct {
		a, b     string
		expected float64
	}{
		{"", "", 1.0},
		{"Joe's Cafe", "Joe's Cafe", 1.0},
		{"abc", "", 0.0},
		{"", "xyz", 0.0},
		{"abc", "xyz", 0.0},
		// one apostrophe of insertion distance over 19 runes
		{"Joe's Cafe", "Joes Cafe", 18.0 / 19.0},
		// case sensitive by contract
		{"CAFE", "cafe", 0.0},
		{"ab", "ba", 0.5},
	}

	for _, test := range tests {
		got := Similarity(test.a, test.b)
		if math.Abs(got-test.expected) > 1e-9 {
			t.Errorf("Similarity(%q, %q) = %f, expected %f", test.a, test.b, got, test.expected)
		}
	}
}

func TestSimilaritySymmetricAndBounded(t *testing.T) {
	pairs := [][2]string{
		{"Joe's Cafe", "Joes Cafe"},
		{"Starbucks", "Starbucks Coffee"},
		{"Compass Coffee", "Peet's Coffee"},
		{"日本食堂", "日本食"},
		{"", "anything"},
	}

	for _, pair := range pairs {
		ab := Similarity(pair[0], pair[1])
		ba := Similarity(pair[1], pair[0])

		if ab != ba {
			t.Errorf("Similarity(%q, %q) = %f but reversed = %f", pair[0], pair[1], ab, ba)
		}

		if ab < 0 || ab > 1 {
			t.Errorf("Similarity(%q, %q) = %f out of [0,1]", pair[0], pair[1], ab)
		}
	}
}

func TestSimilarityIdentity(t *testing.T) {
	for _, name := range []string{"x", "Joe's Cafe", "Café São Bento", "  padded  "} {
		if got := Similarity(name, name); got != 1.0 {
			t.Errorf("Similarity(%q, %q) = %f, expected 1.0", name, name, got)
		}
	}
}
