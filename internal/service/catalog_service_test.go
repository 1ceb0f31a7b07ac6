package service

import (
	"context"
	"testing"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_CreateIsVisibleToResolver(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	svc := NewCatalogService(s.catalog, s.resolver)

	item, err := svc.Create(ctx, domain.NewCatalogItem{Name: "Coil cleaner", Cost: testutil.Dec("3"), UnitPrice: testutil.Dec("8")})
	require.NoError(t, err)
	assert.True(t, item.IsActive)

	resolved, ok, err := s.resolver.Resolve(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Coil cleaner", resolved.Name)

	_, err = svc.Create(ctx, domain.NewCatalogItem{Name: " "})
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestCatalogService_UpdatePriceRefreshesResolver(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	svc := NewCatalogService(s.catalog, s.resolver)

	item, err := svc.Create(ctx, domain.NewCatalogItem{Name: "Filter", Cost: testutil.Dec("3"), UnitPrice: testutil.Dec("8")})
	require.NoError(t, err)

	_, err = svc.UpdatePrice(ctx, item.ID, testutil.Dec("-1"), testutil.Dec("8"))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "cost", verr.Field)

	_, err = svc.UpdatePrice(ctx, item.ID, testutil.Dec("4"), testutil.Dec("11"))
	require.NoError(t, err)

	resolved, ok, err := s.resolver.Resolve(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, resolved.UnitPrice.Equal(testutil.Dec("11")))
}

func TestCatalogService_DeactivateHidesFromSearch(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	svc := NewCatalogService(s.catalog, s.resolver)

	a, err := svc.Create(ctx, domain.NewCatalogItem{Name: "Filter 16x25"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.NewCatalogItem{Name: "Filter 20x20"})
	require.NoError(t, err)

	found, err := svc.Search(ctx, "filter", 10)
	require.NoError(t, err)
	assert.Len(t, found, 2)

	require.NoError(t, svc.Deactivate(ctx, a.ID))
	found, err = svc.Search(ctx, "filter", 10)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Filter 20x20", found[0].Name)

	active, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	all, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestUpcomingService_ListsActivePlansInWindow(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	require.NoError(t, s.plans.Upsert(ctx, testutil.NewTestPlan("loc-b", testutil.WithMonths(2))))
	require.NoError(t, s.plans.Upsert(ctx, testutil.NewTestPlan("loc-a", testutil.WithMonths(2))))
	require.NoError(t, s.plans.Upsert(ctx, testutil.NewTestPlan("loc-late", testutil.WithMonths(10))))
	require.NoError(t, s.plans.Upsert(ctx, testutil.NewTestPlan("loc-off", testutil.WithMonths(2), testutil.WithInactive())))
	require.NoError(t, s.plans.Upsert(ctx, testutil.NewTestPlan("loc-overdue", testutil.WithNextDue(date(2024, time.February, 15)))))

	svc := NewUpcomingService(s.plans, 15)
	visits, err := svc.List(ctx, date(2024, time.March, 1), 30)
	require.NoError(t, err)
	require.Len(t, visits, 3)

	assert.Equal(t, "loc-overdue", visits[0].LocationID)
	assert.True(t, visits[0].Overdue)
	assert.Equal(t, "loc-a", visits[1].LocationID)
	assert.Equal(t, "loc-b", visits[2].LocationID)
	assert.Equal(t, 14, visits[1].DaysUntil)
}
