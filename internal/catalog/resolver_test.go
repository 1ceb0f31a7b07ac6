package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/alexanderramin/fieldops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingStore wraps a store and counts lookups.
type countingStore struct {
	Store
	gets    atomic.Int32
	failGet error
}

func (s *countingStore) GetByID(ctx context.Context, id string) (*domain.CatalogItem, error) {
	s.gets.Add(1)
	if s.failGet != nil {
		return nil, s.failGet
	}
	return s.Store.GetByID(ctx, id)
}

func newSQLiteStore(t *testing.T) *repository.SQLiteCatalogRepo {
	t.Helper()
	return repository.NewSQLiteCatalogRepo(testutil.NewTestDB(t))
}

func TestResolve_ReadsThroughOnce(t *testing.T) {
	repo := newSQLiteStore(t)
	ctx := context.Background()
	item := testutil.NewTestCatalogItem("Filter", testutil.WithPrices("4", "9.5"))
	require.NoError(t, repo.Create(ctx, item))

	store := &countingStore{Store: repo}
	r := NewResolver(store)

	for i := 0; i < 3; i++ {
		got, ok, err := r.Resolve(ctx, item.ID)
		require.NoError(t, err)
		require.True(t, ok)
		assert.Equal(t, "Filter", got.Name)
		assert.True(t, testutil.Dec("9.5").Equal(got.UnitPrice))
	}
	assert.Equal(t, int32(1), store.gets.Load())
}

func TestResolve_MissingIsNotAnError(t *testing.T) {
	r := NewResolver(newSQLiteStore(t))

	got, ok, err := r.Resolve(context.Background(), "nope")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, domain.CatalogItem{}, got)

	_, ok, err = r.Resolve(context.Background(), "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestResolve_StoreFailureIsReturned(t *testing.T) {
	boom := errors.New("connection reset")
	r := NewResolver(&countingStore{Store: newSQLiteStore(t), failGet: boom})

	_, ok, err := r.Resolve(context.Background(), "any")
	assert.False(t, ok)
	assert.True(t, errors.Is(err, boom))
}

func TestResolve_ReturnsCopies(t *testing.T) {
	repo := newSQLiteStore(t)
	ctx := context.Background()
	item := testutil.NewTestCatalogItem("Belt")
	require.NoError(t, repo.Create(ctx, item))
	r := NewResolver(repo)

	got, _, err := r.Resolve(ctx, item.ID)
	require.NoError(t, err)
	got.Name = "mutated"

	again, _, err := r.Resolve(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Belt", again.Name)
}

func TestQuickAdd_CreatesAndCaches(t *testing.T) {
	repo := newSQLiteStore(t)
	store := &countingStore{Store: repo}
	r := NewResolver(store)
	ctx := context.Background()

	item, err := r.QuickAdd(ctx, domain.NewCatalogItem{Name: "Capacitor 45/5", Cost: testutil.Dec("11"), UnitPrice: testutil.Dec("38")})
	require.NoError(t, err)
	assert.NotEmpty(t, item.ID)
	assert.True(t, item.IsActive)

	got, ok, err := r.Resolve(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, item.Name, got.Name)
	assert.Equal(t, int32(0), store.gets.Load(), "quick-added items are served from cache")

	persisted, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, testutil.Dec("38").Equal(persisted.UnitPrice))
}

func TestQuickAdd_Validates(t *testing.T) {
	r := NewResolver(newSQLiteStore(t))
	ctx := context.Background()

	tests := []struct {
		name  string
		in    domain.NewCatalogItem
		field string
	}{
		{"blank name", domain.NewCatalogItem{Name: "  "}, "name"},
		{"negative cost", domain.NewCatalogItem{Name: "x", Cost: testutil.Dec("-1")}, "cost"},
		{"negative price", domain.NewCatalogItem{Name: "x", UnitPrice: testutil.Dec("-0.01")}, "unit_price"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.QuickAdd(ctx, tt.in)
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
		})
	}
}

func TestSearch_WarmsCacheAndForgetDropsEntry(t *testing.T) {
	repo := newSQLiteStore(t)
	ctx := context.Background()
	item := testutil.NewTestCatalogItem("Contactor 2P")
	require.NoError(t, repo.Create(ctx, item))

	store := &countingStore{Store: repo}
	r := NewResolver(store)

	found, err := r.Search(ctx, "contactor", 5)
	require.NoError(t, err)
	require.Len(t, found, 1)

	_, ok, err := r.Resolve(ctx, item.ID)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(0), store.gets.Load())

	r.Forget(item.ID)
	_, _, err = r.Resolve(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, int32(1), store.gets.Load())
}

func TestResolver_ConcurrentUse(t *testing.T) {
	repo := newSQLiteStore(t)
	ctx := context.Background()
	item := testutil.NewTestCatalogItem("Shared")
	require.NoError(t, repo.Create(ctx, item))
	r := NewResolver(repo)

	var wg sync.WaitGroup
	errs := make(chan error, 40)
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if _, ok, err := r.Resolve(ctx, item.ID); err != nil || !ok {
				errs <- fmt.Errorf("resolve: ok=%v err=%v", ok, err)
			}
		}()
		go func(i int) {
			defer wg.Done()
			if _, err := r.QuickAdd(ctx, domain.NewCatalogItem{Name: fmt.Sprintf("item-%d", i)}); err != nil {
				errs <- err
			}
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Error(err)
	}
}
