// Package generation materializes a scheduled job and its lines from a
// location's maintenance plan and part templates.
package generation

import (
	"context"
	"fmt"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/scheduler"
	"github.com/google/uuid"
)

// Resolver looks up catalog items. A missing item is (zero, false, nil).
type Resolver interface {
	Resolve(ctx context.Context, id string) (domain.CatalogItem, bool, error)
}

type Input struct {
	Plan      *domain.MaintenancePlan
	Templates []*domain.PartTemplate
	// TargetDate is the visit date; zero means the plan's next due date.
	TargetDate time.Time
	Now        time.Time
	AnchorDay  int
}

type Result struct {
	Job      *domain.ScheduledJob
	Warnings []domain.CatalogItemMissingWarning
}

// Build assembles an unsaved job. Each line snapshots the catalog item's
// current cost and price. Templates whose item cannot be found are skipped
// with a warning; resolver failures abort the build.
func Build(ctx context.Context, in Input, resolver Resolver) (*Result, error) {
	plan := in.Plan
	if plan == nil {
		return nil, &domain.ValidationError{Field: "plan", Message: "location has no maintenance plan"}
	}
	if !plan.HasRecurringService {
		return nil, &domain.PlanInactiveError{LocationID: plan.LocationID}
	}

	target, err := resolveTargetDate(in)
	if err != nil {
		return nil, err
	}

	job := &domain.ScheduledJob{
		ID:            uuid.New().String(),
		LocationID:    plan.LocationID,
		ScheduledDate: target,
		Status:        domain.JobScheduled,
		Origin:        domain.OriginPMPlan,
		CreatedAt:     in.Now,
		UpdatedAt:     in.Now,
	}
	res := &Result{Job: job}

	for _, tmpl := range in.Templates {
		item, ok, err := resolver.Resolve(ctx, tmpl.CatalogItemID)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", tmpl.ID, err)
		}
		if !ok {
			res.Warnings = append(res.Warnings, domain.CatalogItemMissingWarning{
				TemplateID:    tmpl.ID,
				CatalogItemID: tmpl.CatalogItemID,
				Reason:        domain.WarningCatalogItemMissing,
			})
			continue
		}
		job.Lines = append(job.Lines, lineFromTemplate(job, tmpl, item, len(job.Lines), in.Now))
	}
	return res, nil
}

func resolveTargetDate(in Input) (time.Time, error) {
	if !in.TargetDate.IsZero() {
		return in.TargetDate, nil
	}
	if in.Plan.NextDueDate != nil {
		return *in.Plan.NextDueDate, nil
	}
	if len(in.Plan.EligibleMonths) == 0 {
		return time.Time{}, &domain.ValidationError{Field: "eligible_months", Message: "plan has no eligible months and no target date was given"}
	}
	anchor := in.AnchorDay
	if anchor == 0 {
		anchor = scheduler.DefaultAnchorDay
	}
	return scheduler.NextDue(in.Plan.EligibleMonths, in.Now, anchor), nil
}

func lineFromTemplate(job *domain.ScheduledJob, tmpl *domain.PartTemplate, item domain.CatalogItem, pos int, now time.Time) domain.LineItem {
	itemID := item.ID
	return domain.LineItem{
		ID:             uuid.New().String(),
		ParentKind:     domain.ParentJob,
		ParentID:       job.ID,
		CatalogItemID:  &itemID,
		Description:    domain.CoalesceStr(domain.StrFromPtr(tmpl.DescriptionOverride), item.Name),
		EquipmentLabel: domain.StrFromPtr(tmpl.EquipmentLabel),
		Quantity:       tmpl.QuantityPerVisit,
		UnitCost:       item.Cost,
		UnitPrice:      item.UnitPrice,
		SortOrder:      pos,
		Source:         domain.SourceTemplate,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}
