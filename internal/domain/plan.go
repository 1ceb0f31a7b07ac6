package domain

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// MaintenancePlan is the recurring-service configuration of one location.
// Months are zero-based (0 = January).
type MaintenancePlan struct {
	ID                  string
	LocationID          string
	EligibleMonths      []int
	HasRecurringService bool
	PlanType            PlanType
	NextDueDate         *time.Time
	Notes               string
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// NormalizeMonths validates a month set and returns it sorted and deduplicated.
func NormalizeMonths(months []int) ([]int, error) {
	seen := make(map[int]bool, len(months))
	out := make([]int, 0, len(months))
	for _, m := range months {
		if m < 0 || m > 11 {
			return nil, &ValidationError{Field: "eligible_months", Message: fmt.Sprintf("month %d is outside 0-11", m)}
		}
		if seen[m] {
			continue
		}
		seen[m] = true
		out = append(out, m)
	}
	sort.Ints(out)
	return out, nil
}

// Validate checks plan fields before persistence.
func (p *MaintenancePlan) Validate() error {
	if p.LocationID == "" {
		return &ValidationError{Field: "location_id", Message: "location is required"}
	}
	if !ValidPlanTypes[string(p.PlanType)] {
		return &ValidationError{Field: "plan_type", Message: fmt.Sprintf("unknown plan type %q", p.PlanType)}
	}
	months, err := NormalizeMonths(p.EligibleMonths)
	if err != nil {
		return err
	}
	p.EligibleMonths = months
	return nil
}

// Alerting reports whether the plan's NextDueDate should drive reminders.
func (p *MaintenancePlan) Alerting() bool {
	return p.HasRecurringService && p.NextDueDate != nil && len(p.EligibleMonths) > 0
}

type PartTemplate struct {
	ID                  string
	LocationID          string
	CatalogItemID       string
	QuantityPerVisit    decimal.Decimal
	DescriptionOverride *string
	EquipmentLabel      *string
	SortOrder           int
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (t *PartTemplate) Validate() error {
	if t.LocationID == "" {
		return &ValidationError{Field: "location_id", Message: "location is required"}
	}
	if t.CatalogItemID == "" {
		return &ValidationError{Field: "catalog_item_id", Message: "catalog item is required"}
	}
	if !t.QuantityPerVisit.IsPositive() {
		return &ValidationError{Field: "quantity_per_visit", Message: "quantity per visit must be greater than 0"}
	}
	return nil
}
