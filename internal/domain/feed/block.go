// Package feed parses the loosely formatted text feeds (match results and
// match signals) into typed records.
//
// Both feeds share one discipline: the text is cut into blocks at a marker,
// each block is split into trimmed lines, decoration lines are skipped, and
// every remaining line is handed to an ordered list of line rules. The first
// rule whose matcher accepts the line applies its setter. Malformed blocks are
// dropped; parsing never fails.
package feed

import (
	"regexp"
	"strings"
)

// block is the text between one marker and the next.
type block struct {
	index int // ordinal of the marker in the input, 0-based
	lines []string
}

// splitBlocks cuts raw at every match of marker. Text before the first
// marker is preamble and is not returned.
func splitBlocks(raw string, marker *regexp.Regexp) []block {
	locs := marker.FindAllStringIndex(raw, -1)
	blocks := make([]block, 0, len(locs))
	for i, loc := range locs {
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		blocks = append(blocks, block{index: i, lines: splitLines(raw[loc[1]:end])})
	}
	return blocks
}

// splitLines returns the trimmed, non-empty lines of s.
func splitLines(s string) []string {
	raw := strings.Split(s, "\n")
	out := make([]string, 0, len(raw))
	for _, l := range raw {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return out
}

// isDecoration reports separator lines such as "-----" or "=====".
func isDecoration(line string) bool {
	return strings.Contains(line, "---") || strings.Contains(line, "===")
}

// lineRule pairs a matcher with the setter applied when it matches.
type lineRule[T any] struct {
	name  string
	match func(dst *T, line string) bool
	apply func(dst *T, line string)
}

// classify applies the first matching rule to line and reports whether one
// matched.
func classify[T any](rules []lineRule[T], dst *T, line string) bool {
	for _, r := range rules {
		if r.match(dst, line) {
			r.apply(dst, line)
			return true
		}
	}
	return false
}

// hasPrefix builds a matcher for lines starting with prefix.
func hasPrefix[T any](prefix string) func(*T, string) bool {
	return func(_ *T, line string) bool { return strings.HasPrefix(line, prefix) }
}

// contains builds a matcher for lines containing substr.
func contains[T any](substr string) func(*T, string) bool {
	return func(_ *T, line string) bool { return strings.Contains(line, substr) }
}

// after returns the trimmed text following the first occurrence of marker.
func after(line, marker string) string {
	if i := strings.Index(line, marker); i >= 0 {
		return strings.TrimSpace(line[i+len(marker):])
	}
	return ""
}
