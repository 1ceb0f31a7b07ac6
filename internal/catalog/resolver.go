// Package catalog resolves catalog items for job generation and line editing
// through an in-process read-through cache.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/google/uuid"
)

// Store is the catalog persistence the resolver reads through. Not-found
// lookups must wrap repository.ErrNotFound.
type Store interface {
	GetByID(ctx context.Context, id string) (*domain.CatalogItem, error)
	Create(ctx context.Context, item *domain.CatalogItem) error
	Search(ctx context.Context, query string, limit int) ([]*domain.CatalogItem, error)
}

// Resolver is safe for concurrent use. Cached entries are only added, except
// through Forget.
type Resolver struct {
	store Store
	now   func() time.Time

	mu    sync.RWMutex
	items map[string]domain.CatalogItem
}

type Option func(*Resolver)

// WithClock overrides the timestamp source used for quick-added items.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func NewResolver(store Store, opts ...Option) *Resolver {
	r := &Resolver{
		store: store,
		now:   func() time.Time { return time.Now().UTC() },
		items: make(map[string]domain.CatalogItem),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the item and true, or a zero item and false when the id is
// unknown. Store failures other than not-found are returned as errors.
func (r *Resolver) Resolve(ctx context.Context, id string) (domain.CatalogItem, bool, error) {
	if id == "" {
		return domain.CatalogItem{}, false, nil
	}
	r.mu.RLock()
	item, ok := r.items[id]
	r.mu.RUnlock()
	if ok {
		return item, true, nil
	}

	fetched, err := r.store.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return domain.CatalogItem{}, false, nil
		}
		return domain.CatalogItem{}, false, fmt.Errorf("resolving catalog item %s: %w", id, err)
	}
	r.remember(*fetched)
	return *fetched, true, nil
}

// QuickAdd validates and creates a catalog item, then caches it so every
// subsequent Resolve sees it.
func (r *Resolver) QuickAdd(ctx context.Context, in domain.NewCatalogItem) (domain.CatalogItem, error) {
	if err := in.Validate(); err != nil {
		return domain.CatalogItem{}, err
	}
	now := r.now()
	item := domain.CatalogItem{
		ID:        uuid.New().String(),
		Name:      in.Name,
		Cost:      in.Cost,
		UnitPrice: in.UnitPrice,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := r.store.Create(ctx, &item); err != nil {
		return domain.CatalogItem{}, fmt.Errorf("creating catalog item: %w", err)
	}
	r.remember(item)
	return item, nil
}

// Search queries the store and warms the cache with the results.
func (r *Resolver) Search(ctx context.Context, query string, limit int) ([]domain.CatalogItem, error) {
	found, err := r.store.Search(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("searching catalog: %w", err)
	}
	out := make([]domain.CatalogItem, 0, len(found))
	r.mu.Lock()
	for _, item := range found {
		r.items[item.ID] = *item
		out = append(out, *item)
	}
	r.mu.Unlock()
	return out, nil
}

// Forget drops a cached entry after the catalog itself changed it.
func (r *Resolver) Forget(id string) {
	r.mu.Lock()
	delete(r.items, id)
	r.mu.Unlock()
}

func (r *Resolver) remember(item domain.CatalogItem) {
	r.mu.Lock()
	r.items[item.ID] = item
	r.mu.Unlock()
}
