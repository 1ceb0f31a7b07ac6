package repository

import (
	"context"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
)

type PlanRepo interface {
	GetByLocation(ctx context.Context, locationID string) (*domain.MaintenancePlan, error)
	List(ctx context.Context) ([]*domain.MaintenancePlan, error)
	Upsert(ctx context.Context, p *domain.MaintenancePlan) error
	SetNextDue(ctx context.Context, locationID string, next *time.Time) error
}

type PartTemplateRepo interface {
	Create(ctx context.Context, t *domain.PartTemplate) error
	GetByID(ctx context.Context, id string) (*domain.PartTemplate, error)
	ListByLocation(ctx context.Context, locationID string) ([]*domain.PartTemplate, error)
	Update(ctx context.Context, t *domain.PartTemplate) error
	Delete(ctx context.Context, id string) error
}

type CatalogRepo interface {
	Create(ctx context.Context, item *domain.CatalogItem) error
	GetByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	List(ctx context.Context, includeInactive bool) ([]*domain.CatalogItem, error)
	Search(ctx context.Context, query string, limit int) ([]*domain.CatalogItem, error)
	Update(ctx context.Context, item *domain.CatalogItem) error
}

type JobRepo interface {
	Create(ctx context.Context, j *domain.ScheduledJob) error
	GetByID(ctx context.Context, id string) (*domain.ScheduledJob, error)
	ListByLocation(ctx context.Context, locationID string) ([]*domain.ScheduledJob, error)
	Update(ctx context.Context, j *domain.ScheduledJob) error
}

type InvoiceRepo interface {
	Create(ctx context.Context, inv *domain.Invoice) error
	GetByID(ctx context.Context, id string) (*domain.Invoice, error)
	List(ctx context.Context) ([]*domain.Invoice, error)
}

// LineRepo persists the ordered line items of jobs and invoices. Sort orders
// stay dense per parent: Create appends, Delete compacts.
type LineRepo interface {
	Create(ctx context.Context, l *domain.LineItem) error
	GetByID(ctx context.Context, id string) (*domain.LineItem, error)
	ListByParent(ctx context.Context, kind domain.ParentKind, parentID string) ([]*domain.LineItem, error)
	Update(ctx context.Context, l *domain.LineItem) error
	Delete(ctx context.Context, kind domain.ParentKind, parentID, id string) error
	SetOrder(ctx context.Context, kind domain.ParentKind, parentID string, order []domain.LineOrder) error
}
