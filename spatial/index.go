// Copyright 2026 The Overmatch Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"github.com/tidwall/rtree"
)

// Box is an axis-aligned rectangle in projected meters.
type Box struct {
	MinX, MinY float64
	MaxX, MaxY float64
}

// Envelope returns the square box centered on (x, y) with the given
// half-width.
func Envelope(x, y, half float64) Box {
	return Box{
		MinX: x - half,
		MinY: y - half,
		MaxX: x + half,
		MaxY: y + half,
	}
}

// Index is a bounding-box index over projected point positions. Entries
// are integer handles (positions in the caller's slice), not domain
// identifiers. The index is meant to be built once and then queried
// concurrently; it must not be mutated after the first Search.
type Index struct {
	tree rtree.RTreeG[int]
	size int
}

// NewIndex returns an empty index.
func NewIndex() *Index {
	return &Index{}
}

// Insert adds a handle at the given projected coordinates.
func (ix *Index) Insert(handle int, x, y float64) {
	ix.tree.Insert([2]float64{x, y}, [2]float64{x, y}, handle)
	ix.size++
}

// Search returns the handles of all entries whose bounding box
// intersects b. Order is unspecified.
func (ix *Index) Search(b Box) []int {
	var handles []int

	ix.tree.Search(
		[2]float64{b.MinX, b.MinY},
		[2]float64{b.MaxX, b.MaxY},
		func(_, _ [2]float64, handle int) bool {
			handles = append(handles, handle)

			return true
		},
	)

	return handles
}

// Len returns the number of indexed entries.
func (ix *Index) Len() int {
	return ix.size
}
