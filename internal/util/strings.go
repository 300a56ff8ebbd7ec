// Package util provides common utility functions used across the codebase.
package util

import (
	"sort"
	"strings"
)

// Pluralize returns singular if count is 1, otherwise plural.
func Pluralize(count int, singular, plural string) string {
	if count == 1 {
		return singular
	}
	return plural
}

// LevenshteinDistance returns the number of single-character edits needed to
// turn a into b.
func LevenshteinDistance(a, b string) int {
	ra, rb := []rune(a), []rune(b)
	if len(ra) == 0 {
		return len(rb)
	}
	if len(rb) == 0 {
		return len(ra)
	}

	prev := make([]int, len(rb)+1)
	curr := make([]int, len(rb)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(ra); i++ {
		curr[0] = i
		for j := 1; j <= len(rb); j++ {
			cost := 1
			if ra[i-1] == rb[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(rb)]
}

// SuggestSimilar returns candidates that look like a typo of input, closest
// first. A candidate matches when input is a prefix of it or when the edit
// distance is within half the input length, capped at maxDistance.
// Comparison ignores case.
func SuggestSimilar(input string, candidates []string, maxDistance int) []string {
	input = strings.ToLower(input)
	if input == "" || len(candidates) == 0 {
		return nil
	}

	limit := min(maxDistance, max(1, len(input)/2))

	type match struct {
		name string
		dist int
	}
	var matches []match
	for _, c := range candidates {
		lc := strings.ToLower(c)
		d := LevenshteinDistance(input, lc)
		if d <= limit || strings.HasPrefix(lc, input) {
			matches = append(matches, match{name: c, dist: d})
		}
	}
	if len(matches) == 0 {
		return nil
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].dist != matches[j].dist {
			return matches[i].dist < matches[j].dist
		}
		return matches[i].name < matches[j].name
	})

	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.name
	}
	return out
}
