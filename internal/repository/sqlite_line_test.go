package repository

import (
	"context"
	"errors"
	"testing"

	"github.com/alexanderramin/fieldops/internal/db"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedLines(t *testing.T, repo *SQLiteLineRepo, kind domain.ParentKind, parentID string, descs ...string) []*domain.LineItem {
	t.Helper()
	var out []*domain.LineItem
	for _, d := range descs {
		l := testutil.NewTestLine(kind, parentID, d)
		require.NoError(t, repo.Create(context.Background(), l))
		out = append(out, l)
	}
	return out
}

func descriptions(lines []*domain.LineItem) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Description
	}
	return out
}

func assertDense(t *testing.T, lines []*domain.LineItem) {
	t.Helper()
	for i, l := range lines {
		assert.Equal(t, i, l.SortOrder, "line %s", l.Description)
	}
}

func TestLineRepo_CreateAppends(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteLineRepo(db)
	ctx := context.Background()

	seedLines(t, repo, domain.ParentJob, "job-1", "a", "b", "c")
	seedLines(t, repo, domain.ParentInvoice, "job-1", "other kind")

	lines, err := repo.ListByParent(ctx, domain.ParentJob, "job-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, descriptions(lines))
	assertDense(t, lines)
}

func TestLineRepo_RoundTripsFields(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteLineRepo(db)
	ctx := context.Background()

	l := testutil.NewTestLine(domain.ParentJob, "job-1", "Belt",
		testutil.WithLinePrices("1.5", "7.25", "19.99"), testutil.WithLineCatalogItem("item-1"))
	l.Notes = "replace both"
	l.EquipmentLabel = "AHU-1"
	require.NoError(t, repo.Create(ctx, l))

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	require.NotNil(t, got.CatalogItemID)
	assert.Equal(t, "item-1", *got.CatalogItemID)
	assert.Equal(t, domain.SourceCatalog, got.Source)
	assert.Equal(t, "replace both", got.Notes)
	assert.Equal(t, "AHU-1", got.EquipmentLabel)
	assert.True(t, testutil.Dec("1.5").Equal(got.Quantity))
	assert.True(t, testutil.Dec("7.25").Equal(got.UnitCost))
	assert.True(t, testutil.Dec("19.99").Equal(got.UnitPrice))
}

func TestLineRepo_UpdateScopedToParent(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteLineRepo(db)
	ctx := context.Background()

	lines := seedLines(t, repo, domain.ParentJob, "job-1", "a")
	l := lines[0]
	l.Description = "renamed"
	l.Quantity = testutil.Dec("3")
	require.NoError(t, repo.Update(ctx, l))

	got, err := repo.GetByID(ctx, l.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Description)
	assert.True(t, testutil.Dec("3").Equal(got.Quantity))

	l.ParentID = "job-2"
	assert.True(t, errors.Is(repo.Update(ctx, l), ErrNotFound))
}

func TestLineRepo_DeleteCompacts(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteLineRepo(db)
	ctx := context.Background()

	lines := seedLines(t, repo, domain.ParentJob, "job-1", "a", "b", "c", "d")
	require.NoError(t, repo.Delete(ctx, domain.ParentJob, "job-1", lines[1].ID))

	got, err := repo.ListByParent(ctx, domain.ParentJob, "job-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c", "d"}, descriptions(got))
	assertDense(t, got)

	assert.True(t, errors.Is(repo.Delete(ctx, domain.ParentJob, "job-1", lines[1].ID), ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, domain.ParentInvoice, "job-1", lines[0].ID), ErrNotFound),
		"delete is scoped to the parent kind")
}

func TestLineRepo_SetOrder(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteLineRepo(db)
	ctx := context.Background()

	lines := seedLines(t, repo, domain.ParentJob, "job-1", "a", "b", "c")
	order := []domain.LineOrder{
		{ID: lines[2].ID, SortOrder: 0},
		{ID: lines[0].ID, SortOrder: 1},
		{ID: lines[1].ID, SortOrder: 2},
	}
	require.NoError(t, repo.SetOrder(ctx, domain.ParentJob, "job-1", order))

	got, err := repo.ListByParent(ctx, domain.ParentJob, "job-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, descriptions(got))
	assertDense(t, got)

	// Applying the same order again changes nothing.
	require.NoError(t, repo.SetOrder(ctx, domain.ParentJob, "job-1", order))
	got, err = repo.ListByParent(ctx, domain.ParentJob, "job-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, descriptions(got))
}

func TestLineRepo_SetOrderRejectsNonPermutations(t *testing.T) {
	db := testutil.NewTestDB(t)
	repo := NewSQLiteLineRepo(db)
	ctx := context.Background()

	lines := seedLines(t, repo, domain.ParentJob, "job-1", "a", "b")
	foreign := seedLines(t, repo, domain.ParentJob, "job-2", "x")

	tests := []struct {
		name  string
		order []domain.LineOrder
	}{
		{"missing line", []domain.LineOrder{{ID: lines[0].ID, SortOrder: 0}}},
		{"duplicate id", []domain.LineOrder{{ID: lines[0].ID, SortOrder: 0}, {ID: lines[0].ID, SortOrder: 1}}},
		{"duplicate position", []domain.LineOrder{{ID: lines[0].ID, SortOrder: 0}, {ID: lines[1].ID, SortOrder: 0}}},
		{"gap", []domain.LineOrder{{ID: lines[0].ID, SortOrder: 0}, {ID: lines[1].ID, SortOrder: 2}}},
		{"foreign line", []domain.LineOrder{{ID: lines[0].ID, SortOrder: 0}, {ID: foreign[0].ID, SortOrder: 1}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := repo.SetOrder(ctx, domain.ParentJob, "job-1", tt.order)
			var ve *domain.ValidationError
			require.True(t, errors.As(err, &ve), "got %v", err)
			assert.Equal(t, "order", ve.Field)
		})
	}

	got, err := repo.ListByParent(ctx, domain.ParentJob, "job-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, descriptions(got))
}

func TestLineRepo_SetOrderInsideFailedTxRollsBack(t *testing.T) {
	database := testutil.NewTestDB(t)
	ctx := context.Background()
	lines := seedLines(t, NewSQLiteLineRepo(database), domain.ParentJob, "job-1", "a", "b", "c")

	uow := &testutil.FailOnNthExecUoW{DB: database, FailOn: 2, Err: errors.New("disk full")}
	err := uow.WithinTx(ctx, func(ctx context.Context, tx db.DBTX) error {
		return NewSQLiteLineRepo(tx).SetOrder(ctx, domain.ParentJob, "job-1", []domain.LineOrder{
			{ID: lines[2].ID, SortOrder: 0},
			{ID: lines[1].ID, SortOrder: 1},
			{ID: lines[0].ID, SortOrder: 2},
		})
	})
	require.Error(t, err)

	got, err := NewSQLiteLineRepo(database).ListByParent(ctx, domain.ParentJob, "job-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, descriptions(got))
}
