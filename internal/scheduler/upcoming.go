package scheduler

import (
	"sort"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
)

// UpcomingVisit is one projected maintenance visit.
type UpcomingVisit struct {
	PlanID     string
	LocationID string
	PlanType   domain.PlanType
	DueDate    time.Time
	DaysUntil  int
	Overdue    bool
}

// Upcoming projects plans with recurring service enabled onto the window
// [from, from+horizonDays]. A stored NextDueDate wins over a fresh calculation
// so visits that were never performed show up as overdue.
func Upcoming(plans []*domain.MaintenancePlan, from time.Time, horizonDays, anchorDay int) []UpcomingVisit {
	fromDate := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())
	until := fromDate.AddDate(0, 0, horizonDays)

	var visits []UpcomingVisit
	for _, p := range plans {
		if !p.HasRecurringService || len(sortedMonths(p.EligibleMonths)) == 0 {
			continue
		}
		var due time.Time
		if p.NextDueDate != nil {
			due = *p.NextDueDate
		} else {
			due = NextDue(p.EligibleMonths, from, anchorDay)
		}
		if due.After(until) {
			continue
		}
		visits = append(visits, UpcomingVisit{
			PlanID:     p.ID,
			LocationID: p.LocationID,
			PlanType:   p.PlanType,
			DueDate:    due,
			DaysUntil:  daysBetween(fromDate, due),
			Overdue:    due.Before(fromDate),
		})
	}

	sort.SliceStable(visits, func(i, j int) bool {
		if !visits[i].DueDate.Equal(visits[j].DueDate) {
			return visits[i].DueDate.Before(visits[j].DueDate)
		}
		return visits[i].LocationID < visits[j].LocationID
	})
	return visits
}

func daysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}
