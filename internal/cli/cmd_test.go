package cli

import (
	"bytes"
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/alexanderramin/fieldops/internal/catalog"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/alexanderramin/fieldops/internal/service"
	"github.com/alexanderramin/fieldops/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

func stripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}

// testApp wires a full App backed by an in-memory DB for CLI integration tests.
func testApp(t *testing.T) *App {
	t.Helper()
	database := testutil.NewTestDB(t)
	uow := testutil.NewTestUoW(database)

	plans := repository.NewSQLitePlanRepo(database)
	templates := repository.NewSQLitePartTemplateRepo(database)
	items := repository.NewSQLiteCatalogRepo(database)
	jobs := repository.NewSQLiteJobRepo(database)
	invoices := repository.NewSQLiteInvoiceRepo(database)
	lines := repository.NewSQLiteLineRepo(database)
	resolver := catalog.NewResolver(items)

	return &App{
		Plans:    service.NewPlanService(plans, templates, uow, 15),
		Catalog:  service.NewCatalogService(items, resolver),
		Jobs:     service.NewJobService(plans, templates, jobs, lines, resolver, uow, 15),
		Invoices: service.NewInvoiceService(invoices, lines, uow),
		Lines:    service.NewLineService(lines, uow),
		Upcoming: service.NewUpcomingService(plans, 15),
		Resolver: resolver,
		Now: func() time.Time {
			return time.Date(2024, time.March, 1, 9, 0, 0, 0, time.UTC)
		},
	}
}

// executeCmd runs a cobra command and captures stdout/stderr.
func executeCmd(t *testing.T, app *App, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd(app)
	buf := new(bytes.Buffer)
	root.SetOut(buf)
	root.SetErr(buf)
	root.SetArgs(args)
	err := root.Execute()
	return stripANSI(buf.String()), err
}

func seedItem(t *testing.T, app *App, name, cost, price string) *domain.CatalogItem {
	t.Helper()
	item, err := app.Catalog.Create(context.Background(), domain.NewCatalogItem{
		Name: name, Cost: decimal.RequireFromString(cost), UnitPrice: decimal.RequireFromString(price),
	})
	require.NoError(t, err)
	return item
}

func seedJob(t *testing.T, app *App, descriptions ...string) *domain.ScheduledJob {
	t.Helper()
	ctx := context.Background()
	job, err := app.Jobs.Create(ctx, "loc-1", time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	for i, desc := range descriptions {
		_, err := app.Lines.Create(ctx, domain.ParentJob, job.ID, domain.LineInput{
			Description: desc,
			Quantity:    decimal.NewFromInt(1),
			UnitPrice:   decimal.NewFromInt(int64(i + 1)),
			Source:      domain.SourceManual,
		})
		require.NoError(t, err)
	}
	return job
}

func jobDescriptions(t *testing.T, app *App, jobID string) []string {
	t.Helper()
	lines, err := app.Lines.List(context.Background(), domain.ParentJob, jobID)
	require.NoError(t, err)
	out := make([]string, len(lines))
	for i, l := range lines {
		out[i] = l.Description
	}
	return out
}

func TestRootCmd_NoArgs_ShowsHelp(t *testing.T) {
	app := testApp(t)

	output, err := executeCmd(t, app)
	require.NoError(t, err)
	assert.Contains(t, output, "fieldops")
	assert.Contains(t, output, "plan")
}

func TestRootCmd_BootstrapReceivesConfigPath(t *testing.T) {
	app := testApp(t)
	var got string
	app.Bootstrap = func(path string) error {
		got = path
		return nil
	}

	_, err := executeCmd(t, app, "--config", "/tmp/fieldops.yaml", "upcoming")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/fieldops.yaml", got)
}

func TestPlanSet_ThenShowAndNextDue(t *testing.T) {
	app := testApp(t)
	item := seedItem(t, app, "Filter 16x25", "4", "10")

	out, err := executeCmd(t, app, "plan", "set", "loc-1", "--months", "mar,sep", "--type", "semi_annual")
	require.NoError(t, err)
	assert.Contains(t, out, "Mar, Sep")

	_, err = executeCmd(t, app, "plan", "template", "add", "loc-1", "--item", item.ID[:8], "--qty", "2", "--label", "RTU-1")
	require.NoError(t, err)

	out, err = executeCmd(t, app, "plan", "show", "loc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "Filter 16x25")
	assert.Contains(t, out, "RTU-1")

	out, err = executeCmd(t, app, "plan", "next-due", "loc-1", "--from", "2024-03-15")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-09-15")
}

func TestPlanSet_KeepsUnchangedFields(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "plan", "set", "loc-1", "--months", "3,9", "--notes", "rooftop")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "plan", "set", "loc-1", "--recurring=false")
	require.NoError(t, err)

	plan, err := app.Plans.Get(context.Background(), "loc-1")
	require.NoError(t, err)
	assert.Equal(t, []int{2, 8}, plan.EligibleMonths)
	assert.Equal(t, "rooftop", plan.Notes)
	assert.False(t, plan.HasRecurringService)
	assert.Nil(t, plan.NextDueDate)
}

func TestPlanSet_RejectsBadMonths(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "plan", "set", "loc-1", "--months", "13")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid month")
}

func TestPlanShow_MissingPlan(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "plan", "show", "nowhere")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "has no maintenance plan")
}

func TestPlanTemplateRemove(t *testing.T) {
	app := testApp(t)
	item := seedItem(t, app, "Belt", "6", "15")
	_, err := executeCmd(t, app, "plan", "set", "loc-1", "--months", "jan")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "plan", "template", "add", "loc-1", "--item", item.ID)
	require.NoError(t, err)
	templates, err := app.Plans.ListTemplates(context.Background(), "loc-1")
	require.NoError(t, err)
	require.Len(t, templates, 1)

	_, err = executeCmd(t, app, "plan", "template", "remove", "loc-1", templates[0].ID[:8])
	require.NoError(t, err)

	out, err := executeCmd(t, app, "plan", "template", "list", "loc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "No part templates.")
}

func TestCatalogCommands(t *testing.T) {
	app := testApp(t)

	out, err := executeCmd(t, app, "catalog", "add", "--name", "Filter 16x25", "--cost", "4.25", "--price", "$12.50")
	require.NoError(t, err)
	assert.Contains(t, out, "Added Filter 16x25")

	_, err = executeCmd(t, app, "catalog", "add", "--name", "Belt A42", "--cost", "6", "--price", "15")
	require.NoError(t, err)

	out, err = executeCmd(t, app, "catalog", "list", "--search", "belt")
	require.NoError(t, err)
	assert.Contains(t, out, "Belt A42")
	assert.NotContains(t, out, "Filter")

	items, err := app.Catalog.Search(context.Background(), "filter", 5)
	require.NoError(t, err)
	require.Len(t, items, 1)

	out, err = executeCmd(t, app, "catalog", "price", items[0].ID[:8], "--price", "13")
	require.NoError(t, err)
	assert.Contains(t, out, "cost $4.25 price $13.00")

	_, err = executeCmd(t, app, "catalog", "add", "--name", "Bad", "--cost", "-1")
	require.Error(t, err)
}

func TestCatalogQuickAdd_NeedsTerminal(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "catalog", "quick-add")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interactive terminal")
}

func TestJobGenerate_PrintsLinesAndTotals(t *testing.T) {
	app := testApp(t)
	item := seedItem(t, app, "Filter", "4.25", "12.49")
	_, err := executeCmd(t, app, "plan", "set", "loc-1", "--months", "mar,sep")
	require.NoError(t, err)
	_, err = executeCmd(t, app, "plan", "template", "add", "loc-1", "--item", item.ID, "--qty", "2")
	require.NoError(t, err)

	out, err := executeCmd(t, app, "job", "generate", "loc-1", "--date", "2024-03-15")
	require.NoError(t, err)
	assert.Contains(t, out, "Generated job")
	assert.Contains(t, out, "2024-03-15")
	assert.Contains(t, out, "$24.98")

	jobs, err := app.Jobs.ListByLocation(context.Background(), "loc-1")
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	out, err = executeCmd(t, app, "job", "status", jobs[0].ID, "completed")
	require.NoError(t, err)
	assert.Contains(t, out, "Completed")

	out, err = executeCmd(t, app, "plan", "show", "loc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "2024-09-15")
}

func TestJobGenerate_InactivePlan(t *testing.T) {
	app := testApp(t)
	_, err := executeCmd(t, app, "plan", "set", "loc-1", "--months", "mar", "--recurring=false")
	require.NoError(t, err)

	_, err = executeCmd(t, app, "job", "generate", "loc-1")
	var inactive *domain.PlanInactiveError
	require.ErrorAs(t, err, &inactive)
}

func TestJobCreate_RequiresDate(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "job", "create", "loc-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "date")
}

func TestInvoiceFromJob(t *testing.T) {
	app := testApp(t)
	job := seedJob(t, app, "labor", "filter")

	out, err := executeCmd(t, app, "invoice", "from-job", job.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Created invoice")
	assert.Contains(t, out, "Total $3.00")

	invoices, err := app.Invoices.List(context.Background())
	require.NoError(t, err)
	require.Len(t, invoices, 1)

	out, err = executeCmd(t, app, "invoice", "show", invoices[0].ID[:8])
	require.NoError(t, err)
	assert.Contains(t, out, "labor")
	assert.Contains(t, out, "Draft")
}

func TestLinesAdd_BindsCatalogItemWithoutOverridingPrice(t *testing.T) {
	app := testApp(t)
	item := seedItem(t, app, "Filter 16x25", "4", "10")
	job := seedJob(t, app)

	out, err := executeCmd(t, app, "lines", "add", "job", job.ID, "--item", item.ID[:8], "--price", "9.50", "--qty", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Added line")

	lines, err := app.Lines.List(context.Background(), domain.ParentJob, job.ID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, "Filter 16x25", lines[0].Description)
	assert.True(t, lines[0].UnitPrice.Equal(decimal.RequireFromString("9.50")))
	assert.True(t, lines[0].UnitCost.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, domain.SourceCatalog, lines[0].Source)
}

func TestLinesAdd_ValidationNeverReachesStore(t *testing.T) {
	app := testApp(t)
	job := seedJob(t, app)

	_, err := executeCmd(t, app, "lines", "add", "job", job.ID, "--qty", "0", "--description", "x")
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "quantity", verr.Field)
	assert.Empty(t, jobDescriptions(t, app, job.ID))
}

func TestLinesUpdateMoveRemove(t *testing.T) {
	app := testApp(t)
	job := seedJob(t, app, "a", "b", "c")
	lines, err := app.Lines.List(context.Background(), domain.ParentJob, job.ID)
	require.NoError(t, err)

	_, err = executeCmd(t, app, "lines", "update", "job", job.ID, lines[1].ID[:8], "--description", "b2")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b2", "c"}, jobDescriptions(t, app, job.ID))

	_, err = executeCmd(t, app, "lines", "move", "jobs", job.ID, lines[2].ID, "1")
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a", "b2"}, jobDescriptions(t, app, job.ID))

	_, err = executeCmd(t, app, "lines", "remove", "job", job.ID, lines[0].ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b2"}, jobDescriptions(t, app, job.ID))

	out, err := executeCmd(t, app, "lines", "list", "job", job.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "Total $5.00")
}

func TestLinesCommands_RejectUnknownKind(t *testing.T) {
	app := testApp(t)

	_, err := executeCmd(t, app, "lines", "list", "quote", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown line parent")
}

func TestUpcomingCmd(t *testing.T) {
	app := testApp(t)
	_, err := app.Plans.Configure(context.Background(), service.PlanConfig{
		LocationID: "loc-1", EligibleMonths: []int{2}, HasRecurringService: true,
	})
	require.NoError(t, err)

	out, err := executeCmd(t, app, "upcoming", "--days", "400", "--from", time.Now().Format("2006-01-02"))
	require.NoError(t, err)
	assert.Contains(t, out, "loc-1")

	out, err = executeCmd(t, app, "upcoming", "--days", "0", "--from", "1990-01-01")
	require.NoError(t, err)
	assert.Contains(t, out, "No visits due")
}
