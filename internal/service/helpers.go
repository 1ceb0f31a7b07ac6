package service

import (
	"errors"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/alexanderramin/fieldops/internal/scheduler"
)

// nextDueFor returns the plan's next due date after ref, or nil when the plan
// does not schedule visits.
func nextDueFor(plan *domain.MaintenancePlan, ref time.Time, anchorDay int) *time.Time {
	if !plan.HasRecurringService || len(plan.EligibleMonths) == 0 {
		return nil
	}
	next := scheduler.NextDue(plan.EligibleMonths, ref, anchorDay)
	return &next
}

// civilDate truncates t to midnight UTC of its calendar day.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func derefLines(lines []*domain.LineItem) []domain.LineItem {
	out := make([]domain.LineItem, 0, len(lines))
	for _, l := range lines {
		out = append(out, *l)
	}
	return out
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}

func clampAnchorDay(day int) int {
	if day < 1 || day > 28 {
		return scheduler.DefaultAnchorDay
	}
	return day
}
