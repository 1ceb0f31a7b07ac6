package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/reconcile"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/alexanderramin/fieldops/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func manualInput(desc string) domain.LineInput {
	return domain.LineInput{
		Description: desc,
		Quantity:    decimal.NewFromInt(1),
		UnitCost:    testutil.Dec("2"),
		UnitPrice:   testutil.Dec("5"),
		Source:      domain.SourceManual,
	}
}

func seedJob(t *testing.T, s *stores) *domain.ScheduledJob {
	t.Helper()
	job := testutil.NewTestJob("loc-1")
	require.NoError(t, s.jobs.Create(context.Background(), job))
	return job
}

func lineDescriptions(lines []domain.LineItem) []string {
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Description
	}
	return out
}

func TestLineService_CreateAppends(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	job := seedJob(t, s)
	svc := NewLineService(s.lines, s.uow)

	for _, d := range []string{"a", "b", "c"} {
		_, err := svc.Create(ctx, domain.ParentJob, job.ID, manualInput(d))
		require.NoError(t, err)
	}

	lines, err := svc.List(ctx, domain.ParentJob, job.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, lineDescriptions(lines))
	for i, l := range lines {
		assert.Equal(t, i, l.SortOrder)
	}
}

func TestLineService_CreateValidatesBeforeWriting(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	job := seedJob(t, s)
	svc := NewLineService(s.lines, s.uow)

	in := manualInput("")
	_, err := svc.Create(ctx, domain.ParentJob, job.ID, in)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "description", verr.Field)

	in = manualInput("x")
	in.Quantity = decimal.Zero
	_, err = svc.Create(ctx, domain.ParentJob, job.ID, in)
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)

	lines, err := svc.List(ctx, domain.ParentJob, job.ID)
	require.NoError(t, err)
	assert.Empty(t, lines)
}

func TestLineService_CreateRequiresParent(t *testing.T) {
	s := setupStores(t)
	svc := NewLineService(s.lines, s.uow)

	_, err := svc.Create(context.Background(), domain.ParentInvoice, "missing", manualInput("x"))
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestLineService_UpdateScopedToParent(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	job := seedJob(t, s)
	other := seedJob(t, s)
	svc := NewLineService(s.lines, s.uow)

	line, err := svc.Create(ctx, domain.ParentJob, job.ID, manualInput("a"))
	require.NoError(t, err)

	_, err = svc.Update(ctx, domain.ParentJob, other.ID, line.ID, manualInput("hijack"))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	in := manualInput("a2")
	in.Notes = "swapped belt"
	in.Quantity = testutil.Dec("3")
	updated, err := svc.Update(ctx, domain.ParentJob, job.ID, line.ID, in)
	require.NoError(t, err)
	assert.Equal(t, "a2", updated.Description)
	assert.Equal(t, "swapped belt", updated.Notes)
	assert.Equal(t, line.SortOrder, updated.SortOrder)

	totals, err := svc.Totals(ctx, domain.ParentJob, job.ID)
	require.NoError(t, err)
	assert.True(t, totals.TotalPrice.Equal(testutil.Dec("15")))
	assert.True(t, totals.TotalCost.Equal(testutil.Dec("6")))
}

func TestLineService_DeleteCompacts(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	job := seedJob(t, s)
	svc := NewLineService(s.lines, s.uow)

	var ids []string
	for _, d := range []string{"a", "b", "c"} {
		l, err := svc.Create(ctx, domain.ParentJob, job.ID, manualInput(d))
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}
	require.NoError(t, svc.Delete(ctx, domain.ParentJob, job.ID, ids[0]))

	lines, err := svc.List(ctx, domain.ParentJob, job.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, lineDescriptions(lines))
	assert.Equal(t, 0, lines[0].SortOrder)
	assert.Equal(t, 1, lines[1].SortOrder)
}

func TestLineService_SetOrderRollsBackOnFailure(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	job := seedJob(t, s)
	svc := NewLineService(s.lines, s.uow)

	var ids []string
	for _, d := range []string{"a", "b", "c"} {
		l, err := svc.Create(ctx, domain.ParentJob, job.ID, manualInput(d))
		require.NoError(t, err)
		ids = append(ids, l.ID)
	}

	failUoW := &testutil.FailOnNthExecUoW{DB: s.db, FailOn: 2, Err: fmt.Errorf("injected order failure")}
	failing := NewLineService(s.lines, failUoW)
	err := failing.SetOrder(ctx, domain.ParentJob, job.ID, []domain.LineOrder{
		{ID: ids[2], SortOrder: 0}, {ID: ids[0], SortOrder: 1}, {ID: ids[1], SortOrder: 2},
	})
	require.ErrorIs(t, err, failUoW.Err)

	lines, err := svc.List(ctx, domain.ParentJob, job.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, lineDescriptions(lines))
}

func TestLineStore_DrivesReconcileSession(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	job := seedJob(t, s)
	svc := NewLineService(s.lines, s.uow)
	for _, d := range []string{"a", "b"} {
		_, err := svc.Create(ctx, domain.ParentJob, job.ID, manualInput(d))
		require.NoError(t, err)
	}

	session := reconcile.NewSession(job.ID, NewLineStore(svc, domain.ParentJob), reconcile.WithCatalog(s.resolver))
	require.NoError(t, session.Load(ctx))
	require.Len(t, session.Rows(), 2)

	key := session.AddLine()
	require.NoError(t, session.SetField(key, reconcile.FieldDescription, "c"))
	require.NoError(t, session.SetField(key, reconcile.FieldUnitPrice, "$7.50"))
	_, err := session.Save(ctx, key)
	require.NoError(t, err)

	rows := session.Rows()
	require.Len(t, rows, 3)
	require.NoError(t, session.Reorder(ctx, []string{rows[2].Key, rows[0].Key, rows[1].Key}))

	lines, err := svc.List(ctx, domain.ParentJob, job.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b"}, lineDescriptions(lines))
	assert.True(t, lines[0].UnitPrice.Equal(testutil.Dec("7.50")))

	require.NoError(t, session.Delete(ctx, rows[0].Key))
	lines, err = svc.List(ctx, domain.ParentJob, job.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b"}, lineDescriptions(lines))
}
