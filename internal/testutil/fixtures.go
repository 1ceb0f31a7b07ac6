package testutil

import (
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// Plan options
type PlanOption func(*domain.MaintenancePlan)

func WithMonths(months ...int) PlanOption {
	return func(p *domain.MaintenancePlan) {
		p.EligibleMonths = months
	}
}

func WithPlanType(pt domain.PlanType) PlanOption {
	return func(p *domain.MaintenancePlan) {
		p.PlanType = pt
	}
}

func WithInactive() PlanOption {
	return func(p *domain.MaintenancePlan) {
		p.HasRecurringService = false
	}
}

func WithNextDue(d time.Time) PlanOption {
	return func(p *domain.MaintenancePlan) {
		p.NextDueDate = &d
	}
}

func NewTestPlan(locationID string, opts ...PlanOption) *domain.MaintenancePlan {
	now := time.Now().UTC()
	p := &domain.MaintenancePlan{
		ID:                  uuid.New().String(),
		LocationID:          locationID,
		EligibleMonths:      []int{2, 8},
		HasRecurringService: true,
		PlanType:            domain.PlanSemiAnnual,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// PartTemplate options
type TemplateOption func(*domain.PartTemplate)

func WithQuantity(q string) TemplateOption {
	return func(t *domain.PartTemplate) {
		t.QuantityPerVisit = Dec(q)
	}
}

func WithDescriptionOverride(s string) TemplateOption {
	return func(t *domain.PartTemplate) {
		t.DescriptionOverride = &s
	}
}

func WithEquipmentLabel(s string) TemplateOption {
	return func(t *domain.PartTemplate) {
		t.EquipmentLabel = &s
	}
}

func NewTestTemplate(locationID, catalogItemID string, opts ...TemplateOption) *domain.PartTemplate {
	now := time.Now().UTC()
	t := &domain.PartTemplate{
		ID:               uuid.New().String(),
		LocationID:       locationID,
		CatalogItemID:    catalogItemID,
		QuantityPerVisit: decimal.NewFromInt(1),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// CatalogItem options
type CatalogOption func(*domain.CatalogItem)

func WithPrices(cost, price string) CatalogOption {
	return func(c *domain.CatalogItem) {
		c.Cost = Dec(cost)
		c.UnitPrice = Dec(price)
	}
}

func WithCatalogInactive() CatalogOption {
	return func(c *domain.CatalogItem) {
		c.IsActive = false
	}
}

func NewTestCatalogItem(name string, opts ...CatalogOption) *domain.CatalogItem {
	now := time.Now().UTC()
	c := &domain.CatalogItem{
		ID:        uuid.New().String(),
		Name:      name,
		Cost:      Dec("5"),
		UnitPrice: Dec("10"),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Job options
type JobOption func(*domain.ScheduledJob)

func WithJobStatus(s domain.JobStatus) JobOption {
	return func(j *domain.ScheduledJob) {
		j.Status = s
	}
}

func WithScheduledDate(d time.Time) JobOption {
	return func(j *domain.ScheduledJob) {
		j.ScheduledDate = d
	}
}

func NewTestJob(locationID string, opts ...JobOption) *domain.ScheduledJob {
	now := time.Now().UTC()
	j := &domain.ScheduledJob{
		ID:            uuid.New().String(),
		LocationID:    locationID,
		ScheduledDate: time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC),
		Status:        domain.JobScheduled,
		Origin:        domain.OriginManual,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	for _, opt := range opts {
		opt(j)
	}
	return j
}

// LineItem options
type LineOption func(*domain.LineItem)

func WithLinePrices(qty, cost, price string) LineOption {
	return func(l *domain.LineItem) {
		l.Quantity = Dec(qty)
		l.UnitCost = Dec(cost)
		l.UnitPrice = Dec(price)
	}
}

func WithLineCatalogItem(id string) LineOption {
	return func(l *domain.LineItem) {
		l.CatalogItemID = &id
		l.Source = domain.SourceCatalog
	}
}

func NewTestLine(kind domain.ParentKind, parentID, description string, opts ...LineOption) *domain.LineItem {
	now := time.Now().UTC()
	l := &domain.LineItem{
		ID:          uuid.New().String(),
		ParentKind:  kind,
		ParentID:    parentID,
		Description: description,
		Quantity:    decimal.NewFromInt(1),
		UnitCost:    Dec("2"),
		UnitPrice:   Dec("5"),
		Source:      domain.SourceManual,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}
