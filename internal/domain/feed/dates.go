package feed

import (
	"regexp"
	"time"
)

var dateToken = regexp.MustCompile(`\b(\d{4}-\d{2}-\d{2})\b`)

// DateTokens returns every valid YYYY-MM-DD date found in text, in order of
// appearance. Tokens that look like dates but are not (2024-13-40) are skipped.
func DateTokens(text string) []time.Time {
	matches := dateToken.FindAllStringSubmatch(text, -1)
	out := make([]time.Time, 0, len(matches))
	for _, m := range matches {
		t, err := time.ParseInLocation(time.DateOnly, m[1], time.UTC)
		if err != nil {
			continue
		}
		out = append(out, t)
	}
	return out
}

// LatestDate is the block date disambiguation policy: when a block mentions
// several dates, the best guess for when the match happened is the latest one.
func LatestDate(dates []time.Time) (time.Time, bool) {
	if len(dates) == 0 {
		return time.Time{}, false
	}
	best := dates[0]
	for _, d := range dates[1:] {
		if d.After(best) {
			best = d
		}
	}
	return best, true
}
