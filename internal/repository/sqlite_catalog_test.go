package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/fieldops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRepo_CreateAndGetKeepsDecimalPrecision(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCatalogRepo(db)
	ctx := context.Background()

	item := testutil.NewTestCatalogItem("Condenser coil cleaner", testutil.WithPrices("3.335", "12.10"))
	require.NoError(t, repo.Create(ctx, item))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, "Condenser coil cleaner", got.Name)
	assert.True(t, testutil.Dec("3.335").Equal(got.Cost), "got %s", got.Cost)
	assert.True(t, testutil.Dec("12.1").Equal(got.UnitPrice), "got %s", got.UnitPrice)
	assert.True(t, got.IsActive)
}

func TestCatalogRepo_GetByID_NotFound(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCatalogRepo(db)

	_, err := repo.GetByID(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestCatalogRepo_ListExcludesInactive(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCatalogRepo(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, testutil.NewTestCatalogItem("belt")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestCatalogItem("Air filter")))
	require.NoError(t, repo.Create(ctx, testutil.NewTestCatalogItem("Old part", testutil.WithCatalogInactive())))

	active, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Air filter", active[0].Name, "ordering ignores case")
	assert.Equal(t, "belt", active[1].Name)

	all, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestCatalogRepo_Search(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCatalogRepo(db)
	ctx := context.Background()

	for _, name := range []string{"Filter 16x25", "Filter 20x25", "Belt A42", "100% coil wash"} {
		require.NoError(t, repo.Create(ctx, testutil.NewTestCatalogItem(name)))
	}

	got, err := repo.Search(ctx, "filter", 10)
	require.NoError(t, err)
	require.Len(t, got, 2)

	got, err = repo.Search(ctx, "filter", 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = repo.Search(ctx, "100%", 10)
	require.NoError(t, err)
	require.Len(t, got, 1, "wildcards in the query are literal")
	assert.Equal(t, "100% coil wash", got[0].Name)
}

func TestCatalogRepo_Update(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteCatalogRepo(db)
	ctx := context.Background()

	item := testutil.NewTestCatalogItem("Belt")
	require.NoError(t, repo.Create(ctx, item))

	item.UnitPrice = testutil.Dec("19.99")
	item.IsActive = false
	require.NoError(t, repo.Update(ctx, item))

	got, err := repo.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, testutil.Dec("19.99").Equal(got.UnitPrice))
	assert.False(t, got.IsActive)

	item.ID = "missing"
	assert.True(t, errors.Is(repo.Update(ctx, item), ErrNotFound))
}
