package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/alexanderramin/fieldops/internal/catalog"
	"github.com/alexanderramin/fieldops/internal/db"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/alexanderramin/fieldops/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stores struct {
	db        *sql.DB
	plans     *repository.SQLitePlanRepo
	templates *repository.SQLitePartTemplateRepo
	catalog   *repository.SQLiteCatalogRepo
	jobs      *repository.SQLiteJobRepo
	invoices  *repository.SQLiteInvoiceRepo
	lines     *repository.SQLiteLineRepo
	resolver  *catalog.Resolver
	uow       db.UnitOfWork
}

func setupStores(t *testing.T) *stores {
	t.Helper()
	database := testutil.NewTestDB(t)
	catalogRepo := repository.NewSQLiteCatalogRepo(database)
	return &stores{
		db:        database,
		plans:     repository.NewSQLitePlanRepo(database),
		templates: repository.NewSQLitePartTemplateRepo(database),
		catalog:   catalogRepo,
		jobs:      repository.NewSQLiteJobRepo(database),
		invoices:  repository.NewSQLiteInvoiceRepo(database),
		lines:     repository.NewSQLiteLineRepo(database),
		resolver:  catalog.NewResolver(catalogRepo),
		uow:       testutil.NewTestUoW(database),
	}
}

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func newPlanServiceAt(s *stores, now time.Time) *planService {
	svc := NewPlanService(s.plans, s.templates, s.uow, 15).(*planService)
	svc.now = fixedNow(now)
	return svc
}

func TestPlanService_ConfigureComputesNextDue(t *testing.T) {
	s := setupStores(t)
	svc := newPlanServiceAt(s, date(2024, time.March, 1))
	ctx := context.Background()

	plan, err := svc.Configure(ctx, PlanConfig{
		LocationID:          "loc-1",
		EligibleMonths:      []int{8, 2, 8},
		HasRecurringService: true,
		PlanType:            domain.PlanSemiAnnual,
	})
	require.NoError(t, err)
	assert.Equal(t, []int{2, 8}, plan.EligibleMonths)
	require.NotNil(t, plan.NextDueDate)
	assert.Equal(t, date(2024, time.March, 15), *plan.NextDueDate)

	stored, err := s.plans.GetByLocation(ctx, "loc-1")
	require.NoError(t, err)
	require.NotNil(t, stored.NextDueDate)
	assert.Equal(t, date(2024, time.March, 15), *stored.NextDueDate)
}

func TestPlanService_ConfigureInactiveClearsNextDue(t *testing.T) {
	s := setupStores(t)
	svc := newPlanServiceAt(s, date(2024, time.March, 1))

	plan, err := svc.Configure(context.Background(), PlanConfig{
		LocationID:     "loc-1",
		EligibleMonths: []int{2, 8},
	})
	require.NoError(t, err)
	assert.Nil(t, plan.NextDueDate)
	assert.Equal(t, domain.PlanCustom, plan.PlanType)
}

func TestPlanService_ConfigureKeepsPlanIdentity(t *testing.T) {
	s := setupStores(t)
	svc := newPlanServiceAt(s, date(2024, time.March, 1))
	ctx := context.Background()

	first, err := svc.Configure(ctx, PlanConfig{LocationID: "loc-1", EligibleMonths: []int{2}, HasRecurringService: true})
	require.NoError(t, err)
	second, err := svc.Configure(ctx, PlanConfig{LocationID: "loc-1", EligibleMonths: []int{5}, HasRecurringService: true})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, []int{5}, second.EligibleMonths)
	assert.Equal(t, date(2024, time.June, 15), *second.NextDueDate)
}

func TestPlanService_ConfigureRejectsBadMonth(t *testing.T) {
	s := setupStores(t)
	svc := newPlanServiceAt(s, date(2024, time.March, 1))

	_, err := svc.Configure(context.Background(), PlanConfig{LocationID: "loc-1", EligibleMonths: []int{12}, HasRecurringService: true})
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "eligible_months", verr.Field)

	_, err = s.plans.GetByLocation(context.Background(), "loc-1")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPlanService_SetEligibleMonthsRecomputes(t *testing.T) {
	s := setupStores(t)
	svc := newPlanServiceAt(s, date(2024, time.March, 20))
	ctx := context.Background()

	_, err := svc.Configure(ctx, PlanConfig{LocationID: "loc-1", EligibleMonths: []int{2, 8}, HasRecurringService: true})
	require.NoError(t, err)

	plan, err := svc.SetEligibleMonths(ctx, "loc-1", []int{0})
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.January, 15), *plan.NextDueDate, "wraps to next year")

	plan, err = svc.SetEligibleMonths(ctx, "loc-1", nil)
	require.NoError(t, err)
	assert.Nil(t, plan.NextDueDate)
}

func TestPlanService_SetActiveTogglesNextDue(t *testing.T) {
	s := setupStores(t)
	svc := newPlanServiceAt(s, date(2024, time.March, 1))
	ctx := context.Background()

	_, err := svc.Configure(ctx, PlanConfig{LocationID: "loc-1", EligibleMonths: []int{2, 8}, HasRecurringService: true})
	require.NoError(t, err)

	plan, err := svc.SetActive(ctx, "loc-1", false)
	require.NoError(t, err)
	assert.False(t, plan.HasRecurringService)
	assert.Nil(t, plan.NextDueDate)

	plan, err = svc.SetActive(ctx, "loc-1", true)
	require.NoError(t, err)
	require.NotNil(t, plan.NextDueDate)
	assert.Equal(t, date(2024, time.March, 15), *plan.NextDueDate)
}

func TestPlanService_MutateUnknownLocation(t *testing.T) {
	s := setupStores(t)
	svc := newPlanServiceAt(s, date(2024, time.March, 1))

	_, err := svc.SetActive(context.Background(), "nowhere", true)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestPlanService_NextDueFromReference(t *testing.T) {
	s := setupStores(t)
	svc := newPlanServiceAt(s, date(2024, time.March, 1))
	ctx := context.Background()

	_, err := svc.Configure(ctx, PlanConfig{LocationID: "loc-1", EligibleMonths: []int{2, 8}, HasRecurringService: true})
	require.NoError(t, err)

	next, err := svc.NextDue(ctx, "loc-1", date(2024, time.March, 15))
	require.NoError(t, err)
	assert.Equal(t, date(2024, time.September, 15), next, "exact boundary advances")

	_, err = svc.SetEligibleMonths(ctx, "loc-1", nil)
	require.NoError(t, err)
	_, err = svc.NextDue(ctx, "loc-1", date(2024, time.March, 15))
	var verr *domain.ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestPlanService_AdvanceNextDue(t *testing.T) {
	s := setupStores(t)
	svc := newPlanServiceAt(s, date(2024, time.March, 1))
	ctx := context.Background()

	_, err := svc.Configure(ctx, PlanConfig{LocationID: "loc-1", EligibleMonths: []int{2, 8}, HasRecurringService: true})
	require.NoError(t, err)

	plan, err := svc.AdvanceNextDue(ctx, "loc-1", date(2024, time.September, 15))
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 15), *plan.NextDueDate)

	stored, err := s.plans.GetByLocation(ctx, "loc-1")
	require.NoError(t, err)
	assert.Equal(t, date(2025, time.March, 15), *stored.NextDueDate)
}

func TestPlanService_AddTemplate(t *testing.T) {
	s := setupStores(t)
	svc := newPlanServiceAt(s, date(2024, time.March, 1))
	ctx := context.Background()

	item := testutil.NewTestCatalogItem("Filter 16x25")
	require.NoError(t, s.catalog.Create(ctx, item))

	err := svc.AddTemplate(ctx, testutil.NewTestTemplate("loc-1", item.ID))
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr, "plan must exist first")
	assert.Equal(t, "location_id", verr.Field)

	_, err = svc.Configure(ctx, PlanConfig{LocationID: "loc-1", EligibleMonths: []int{2}, HasRecurringService: true})
	require.NoError(t, err)

	err = svc.AddTemplate(ctx, testutil.NewTestTemplate("loc-1", "missing-item"))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "catalog_item_id", verr.Field)

	err = svc.AddTemplate(ctx, testutil.NewTestTemplate("loc-1", item.ID, testutil.WithQuantity("0")))
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity_per_visit", verr.Field)

	require.NoError(t, svc.AddTemplate(ctx, testutil.NewTestTemplate("loc-1", item.ID, testutil.WithQuantity("2"))))
	require.NoError(t, svc.AddTemplate(ctx, testutil.NewTestTemplate("loc-1", item.ID, testutil.WithEquipmentLabel("RTU-2"))))

	list, err := svc.ListTemplates(ctx, "loc-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, 0, list[0].SortOrder)
	assert.Equal(t, 1, list[1].SortOrder)
	assert.Equal(t, "RTU-2", domain.StrFromPtr(list[1].EquipmentLabel))
}

func TestPlanService_RemoveTemplateScopedToLocation(t *testing.T) {
	s := setupStores(t)
	svc := newPlanServiceAt(s, date(2024, time.March, 1))
	ctx := context.Background()

	item := testutil.NewTestCatalogItem("Belt")
	require.NoError(t, s.catalog.Create(ctx, item))
	_, err := svc.Configure(ctx, PlanConfig{LocationID: "loc-1", EligibleMonths: []int{2}, HasRecurringService: true})
	require.NoError(t, err)
	tmpl := testutil.NewTestTemplate("loc-1", item.ID)
	require.NoError(t, svc.AddTemplate(ctx, tmpl))

	err = svc.RemoveTemplate(ctx, "loc-2", tmpl.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, svc.RemoveTemplate(ctx, "loc-1", tmpl.ID))
	list, err := svc.ListTemplates(ctx, "loc-1")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestPlanService_UpdateTemplateValidates(t *testing.T) {
	s := setupStores(t)
	svc := newPlanServiceAt(s, date(2024, time.March, 1))
	ctx := context.Background()

	item := testutil.NewTestCatalogItem("Belt")
	require.NoError(t, s.catalog.Create(ctx, item))
	_, err := svc.Configure(ctx, PlanConfig{LocationID: "loc-1", EligibleMonths: []int{2}, HasRecurringService: true})
	require.NoError(t, err)
	tmpl := testutil.NewTestTemplate("loc-1", item.ID)
	require.NoError(t, svc.AddTemplate(ctx, tmpl))

	tmpl.QuantityPerVisit = testutil.Dec("-1")
	var verr *domain.ValidationError
	require.ErrorAs(t, svc.UpdateTemplate(ctx, tmpl), &verr)

	tmpl.QuantityPerVisit = testutil.Dec("3")
	require.NoError(t, svc.UpdateTemplate(ctx, tmpl))
	got, err := s.templates.GetByID(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.True(t, got.QuantityPerVisit.Equal(testutil.Dec("3")))
}

func TestPlanService_SetActiveRollsBackOnWriteFailure(t *testing.T) {
	s := setupStores(t)
	ctx := context.Background()
	_, err := newPlanServiceAt(s, date(2024, time.March, 1)).Configure(ctx,
		PlanConfig{LocationID: "loc-1", EligibleMonths: []int{2, 8}, HasRecurringService: true})
	require.NoError(t, err)

	failUoW := &testutil.FailOnNthExecUoW{DB: s.db, FailOn: 1, Err: fmt.Errorf("injected upsert failure")}
	svc := NewPlanService(s.plans, s.templates, failUoW, 15)

	_, err = svc.SetActive(ctx, "loc-1", false)
	require.Error(t, err)
	assert.ErrorIs(t, err, failUoW.Err)

	stored, err := s.plans.GetByLocation(ctx, "loc-1")
	require.NoError(t, err)
	assert.True(t, stored.HasRecurringService)
	assert.NotNil(t, stored.NextDueDate)
}
