package service

import (
	"context"
	"time"

	"github.com/alexanderramin/fieldops/internal/catalog"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/shopspring/decimal"
)

type catalogService struct {
	items    repository.CatalogRepo
	resolver *catalog.Resolver
	observer UseCaseObserver
}

// NewCatalogService shares resolver with job generation and line editing so
// items created here are visible to them immediately.
func NewCatalogService(items repository.CatalogRepo, resolver *catalog.Resolver, observers ...UseCaseObserver) CatalogService {
	return &catalogService{items: items, resolver: resolver, observer: useCaseObserverOrNoop(observers)}
}

func (s *catalogService) Create(ctx context.Context, in domain.NewCatalogItem) (item *domain.CatalogItem, err error) {
	fields := map[string]any{"name": in.Name}
	defer observe(ctx, s.observer, "create-catalog-item", time.Now().UTC(), fields, &err)

	created, err := s.resolver.QuickAdd(ctx, in)
	if err != nil {
		return nil, err
	}
	fields["item"] = created.ID
	return &created, nil
}

func (s *catalogService) GetByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	return s.items.GetByID(ctx, id)
}

func (s *catalogService) List(ctx context.Context, includeInactive bool) ([]*domain.CatalogItem, error) {
	return s.items.List(ctx, includeInactive)
}

func (s *catalogService) Search(ctx context.Context, query string, limit int) ([]*domain.CatalogItem, error) {
	found, err := s.resolver.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	out := make([]*domain.CatalogItem, len(found))
	for i := range found {
		out[i] = &found[i]
	}
	return out, nil
}

// UpdatePrice changes the catalog price. Lines that already exist keep the
// price they were created with.
func (s *catalogService) UpdatePrice(ctx context.Context, id string, cost, unitPrice decimal.Decimal) (item *domain.CatalogItem, err error) {
	fields := map[string]any{"item": id, "cost": cost.String(), "unit_price": unitPrice.String()}
	defer observe(ctx, s.observer, "update-catalog-price", time.Now().UTC(), fields, &err)

	item, err = s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err = (domain.NewCatalogItem{Name: item.Name, Cost: cost, UnitPrice: unitPrice}).Validate(); err != nil {
		return nil, err
	}
	item.Cost = cost
	item.UnitPrice = unitPrice
	item.UpdatedAt = time.Now().UTC()
	if err = s.items.Update(ctx, item); err != nil {
		return nil, err
	}
	s.resolver.Forget(id)
	return item, nil
}

func (s *catalogService) Deactivate(ctx context.Context, id string) (err error) {
	defer observe(ctx, s.observer, "deactivate-catalog-item", time.Now().UTC(), map[string]any{"item": id}, &err)

	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return err
	}
	item.IsActive = false
	item.UpdatedAt = time.Now().UTC()
	if err = s.items.Update(ctx, item); err != nil {
		return err
	}
	s.resolver.Forget(id)
	return nil
}
