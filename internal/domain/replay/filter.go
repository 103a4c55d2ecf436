package replay

import (
	"sort"

	"github.com/okian/bankroll/internal/domain/model"
)

// AllYears selects every record in FilterByYear.
const AllYears = 0

// FilterByYear keeps the records that occurred in year (UTC). AllYears keeps
// everything. The input is not modified.
func FilterByYear(records []model.OutcomeRecord, year int) []model.OutcomeRecord {
	if year == AllYears {
		out := make([]model.OutcomeRecord, len(records))
		copy(out, records)
		return out
	}
	out := make([]model.OutcomeRecord, 0, len(records))
	for _, r := range records {
		if r.OccurredAt.UTC().Year() == year {
			out = append(out, r)
		}
	}
	return out
}

// Years lists the distinct years present in records, ascending.
func Years(records []model.OutcomeRecord) []int {
	seen := make(map[int]struct{})
	years := make([]int, 0)
	for _, r := range records {
		y := r.OccurredAt.UTC().Year()
		if _, ok := seen[y]; ok {
			continue
		}
		seen[y] = struct{}{}
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
