package main

import (
	"database/sql"
	"fmt"
	"os"

	"github.com/alexanderramin/fieldops/internal/catalog"
	"github.com/alexanderramin/fieldops/internal/cli"
	"github.com/alexanderramin/fieldops/internal/config"
	"github.com/alexanderramin/fieldops/internal/db"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/alexanderramin/fieldops/internal/service"
	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		database *sql.DB
		logger   *zap.Logger
	)
	defer func() {
		if database != nil {
			_ = database.Close()
		}
		if logger != nil {
			_ = logger.Sync()
		}
	}()

	app := &cli.App{}

	// Detect interactive terminal for the form and editor commands.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}

	// Config is only known once flags are parsed, so wiring happens here.
	app.Bootstrap = func(configPath string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		logger, err = cfg.Log.Logger()
		if err != nil {
			return fmt.Errorf("building logger: %w", err)
		}
		policy, err := cfg.Lines.Policy()
		if err != nil {
			return err
		}

		database, err = db.OpenDB(cfg.Database.Path)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}

		// Wire repositories
		planRepo := repository.NewSQLitePlanRepo(database)
		templateRepo := repository.NewSQLitePartTemplateRepo(database)
		catalogRepo := repository.NewSQLiteCatalogRepo(database)
		jobRepo := repository.NewSQLiteJobRepo(database)
		invoiceRepo := repository.NewSQLiteInvoiceRepo(database)
		lineRepo := repository.NewSQLiteLineRepo(database)

		// Wire unit of work for transactional operations
		uow := db.NewSQLiteUnitOfWork(database)

		resolver := catalog.NewResolver(catalogRepo)
		observer := service.NewZapUseCaseObserver(logger)
		anchor := cfg.Schedule.AnchorDay

		app.Plans = service.NewPlanService(planRepo, templateRepo, uow, anchor, observer)
		app.Catalog = service.NewCatalogService(catalogRepo, resolver, observer)
		app.Jobs = service.NewJobService(planRepo, templateRepo, jobRepo, lineRepo, resolver, uow, anchor, observer)
		app.Invoices = service.NewInvoiceService(invoiceRepo, lineRepo, uow, observer)
		app.Lines = service.NewLineService(lineRepo, uow, observer)
		app.Upcoming = service.NewUpcomingService(planRepo, anchor, observer)

		app.Resolver = resolver
		app.ReorderPolicy = policy
		app.UpcomingDays = cfg.Schedule.UpcomingDays
		app.HTTPAddr = cfg.HTTP.Addr
		app.Logger = logger
		return nil
	}

	return cli.NewRootCmd(app).Execute()
}
