package service

import (
	"context"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/scheduler"
	"github.com/shopspring/decimal"
)

// PlanConfig is the operator-editable part of a maintenance plan.
type PlanConfig struct {
	LocationID          string
	EligibleMonths      []int
	HasRecurringService bool
	PlanType            domain.PlanType
	Notes               string
}

type PlanService interface {
	Get(ctx context.Context, locationID string) (*domain.MaintenancePlan, error)
	List(ctx context.Context) ([]*domain.MaintenancePlan, error)
	Configure(ctx context.Context, cfg PlanConfig) (*domain.MaintenancePlan, error)
	SetEligibleMonths(ctx context.Context, locationID string, months []int) (*domain.MaintenancePlan, error)
	SetActive(ctx context.Context, locationID string, active bool) (*domain.MaintenancePlan, error)
	// NextDue computes the next visit after ref without storing it.
	NextDue(ctx context.Context, locationID string, ref time.Time) (time.Time, error)
	AdvanceNextDue(ctx context.Context, locationID string, after time.Time) (*domain.MaintenancePlan, error)

	AddTemplate(ctx context.Context, t *domain.PartTemplate) error
	ListTemplates(ctx context.Context, locationID string) ([]*domain.PartTemplate, error)
	UpdateTemplate(ctx context.Context, t *domain.PartTemplate) error
	RemoveTemplate(ctx context.Context, locationID, templateID string) error
}

type CatalogService interface {
	Create(ctx context.Context, in domain.NewCatalogItem) (*domain.CatalogItem, error)
	GetByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	List(ctx context.Context, includeInactive bool) ([]*domain.CatalogItem, error)
	Search(ctx context.Context, query string, limit int) ([]*domain.CatalogItem, error)
	UpdatePrice(ctx context.Context, id string, cost, unitPrice decimal.Decimal) (*domain.CatalogItem, error)
	Deactivate(ctx context.Context, id string) error
}

// GenerateResult is a persisted job plus the templates that were skipped.
type GenerateResult struct {
	Job      *domain.ScheduledJob
	Warnings []domain.CatalogItemMissingWarning
	Totals   domain.Totals
}

type JobService interface {
	// Generate builds and stores a job from the location's plan. A zero
	// targetDate means the plan's next due date.
	Generate(ctx context.Context, locationID string, targetDate time.Time) (*GenerateResult, error)
	Create(ctx context.Context, locationID string, scheduledDate time.Time) (*domain.ScheduledJob, error)
	GetByID(ctx context.Context, id string) (*domain.ScheduledJob, error)
	ListByLocation(ctx context.Context, locationID string) ([]*domain.ScheduledJob, error)
	UpdateStatus(ctx context.Context, id string, status domain.JobStatus) (*domain.ScheduledJob, error)
}

type InvoiceService interface {
	CreateFromJob(ctx context.Context, jobID string) (*domain.Invoice, error)
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	List(ctx context.Context) ([]*domain.Invoice, error)
}

type LineService interface {
	List(ctx context.Context, kind domain.ParentKind, parentID string) ([]domain.LineItem, error)
	Create(ctx context.Context, kind domain.ParentKind, parentID string, in domain.LineInput) (domain.LineItem, error)
	Update(ctx context.Context, kind domain.ParentKind, parentID, lineID string, in domain.LineInput) (domain.LineItem, error)
	Delete(ctx context.Context, kind domain.ParentKind, parentID, lineID string) error
	SetOrder(ctx context.Context, kind domain.ParentKind, parentID string, order []domain.LineOrder) error
	Totals(ctx context.Context, kind domain.ParentKind, parentID string) (domain.Totals, error)
}

type UpcomingService interface {
	List(ctx context.Context, from time.Time, days int) ([]scheduler.UpcomingVisit, error)
}
