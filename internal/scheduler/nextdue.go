package scheduler

import (
	"sort"
	"time"
)

// DefaultAnchorDay is the day of month every recurring visit falls on.
const DefaultAnchorDay = 15

// NextDue returns the first anchor date strictly after ref that falls in one
// of the eligible months (0 = January). Months outside 0-11 are ignored.
// With no usable months it returns ref unchanged, which callers read as
// "no schedule configured".
//
// The comparison uses ref's civil date, so a ref on the anchor day of an
// eligible month advances to the next eligible month (wrapping the year).
func NextDue(eligibleMonths []int, ref time.Time, anchorDay int) time.Time {
	months := sortedMonths(eligibleMonths)
	if len(months) == 0 {
		return ref
	}

	loc := ref.Location()
	refDate := time.Date(ref.Year(), ref.Month(), ref.Day(), 0, 0, 0, 0, loc)
	refMonth := int(ref.Month()) - 1

	for _, m := range months {
		if m < refMonth {
			continue
		}
		candidate := anchorDate(ref.Year(), m, anchorDay, loc)
		if candidate.After(refDate) {
			return candidate
		}
	}
	return anchorDate(ref.Year()+1, months[0], anchorDay, loc)
}

// NextDueDefault is NextDue with DefaultAnchorDay.
func NextDueDefault(eligibleMonths []int, ref time.Time) time.Time {
	return NextDue(eligibleMonths, ref, DefaultAnchorDay)
}

// Occurrences returns the next n due dates after from, in order.
// It returns nil when no usable months are configured.
func Occurrences(eligibleMonths []int, from time.Time, n, anchorDay int) []time.Time {
	if n <= 0 || len(sortedMonths(eligibleMonths)) == 0 {
		return nil
	}
	out := make([]time.Time, 0, n)
	cursor := from
	for i := 0; i < n; i++ {
		cursor = NextDue(eligibleMonths, cursor, anchorDay)
		out = append(out, cursor)
	}
	return out
}

// anchorDate builds the anchor date of a zero-based month, clamping the day
// to the month's length so February never spills into March.
func anchorDate(year, month, day int, loc *time.Location) time.Time {
	last := daysIn(year, time.Month(month+1), loc)
	if day > last {
		day = last
	}
	if day < 1 {
		day = 1
	}
	return time.Date(year, time.Month(month+1), day, 0, 0, 0, 0, loc)
}

func daysIn(year int, month time.Month, loc *time.Location) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, loc).Day()
}

func sortedMonths(months []int) []int {
	seen := make(map[int]bool, len(months))
	out := make([]int, 0, len(months))
	for _, m := range months {
		if m < 0 || m > 11 || seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Ints(out)
	return out
}
