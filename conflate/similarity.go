// Copyright 2026 The Overmatch Authors
// SPDX-License-Identifier: Apache-2.0

package conflate

// Similarity returns a normalized edit-distance ratio in [0, 1] between
// two names: 1 - indel_distance/(len(a)+len(b)), computed over runes.
// This is the classic `ratio' metric (Levenshtein with substitutions
// costing two), so a name compared with itself scores 1.0 and the
// result is symmetric. Comparison is case and whitespace sensitive; the
// loader has already applied the only normalization the pipeline does.
func Similarity(a, b string) float64 {
	ra, rb := []rune(a), []rune(b)

	total := len(ra) + len(rb)
	if total == 0 {
		return 1.0
	}

	// indel distance = total - 2*LCS
	dist := total - 2*lcsLength(ra, rb)

	return float64(total-dist) / float64(total)
}

// lcsLength computes the longest-common-subsequence length with a
// two-row dynamic program; candidate names are short so the O(n·m)
// cost is negligible next to the spatial search.
func lcsLength(a, b []rune) int {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else if prev[j] >= curr[j-1] {
				curr[j] = prev[j]
			} else {
				curr[j] = curr[j-1]
			}
		}

		prev, curr = curr, prev
	}

	return prev[len(b)]
}
