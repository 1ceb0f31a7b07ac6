package cli

import (
	"time"

	"github.com/alexanderramin/fieldops/internal/reconcile"
	"github.com/alexanderramin/fieldops/internal/service"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// App holds references to all services and settings used by CLI commands.
type App struct {
	Plans    service.PlanService
	Catalog  service.CatalogService
	Jobs     service.JobService
	Invoices service.InvoiceService
	Lines    service.LineService
	Upcoming service.UpcomingService

	// Resolver backs catalog binding and quick-add inside line sessions.
	Resolver      reconcile.Catalog
	ReorderPolicy reconcile.ReorderPolicy
	UpcomingDays  int
	HTTPAddr      string
	Logger        *zap.Logger

	IsInteractive func() bool
	Now           func() time.Time

	// Bootstrap wires the fields above from the --config path before any
	// subcommand runs. Tests leave it nil and preset the services.
	Bootstrap func(configPath string) error
}

func (a *App) now() time.Time {
	if a.Now != nil {
		return a.Now()
	}
	return time.Now()
}

func (a *App) interactive() bool {
	return a.IsInteractive != nil && a.IsInteractive()
}

func (a *App) logger() *zap.Logger {
	if a.Logger == nil {
		return zap.NewNop()
	}
	return a.Logger
}

// NewRootCmd creates the top-level "fieldops" command and registers all
// subcommands against the provided App.
func NewRootCmd(app *App) *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "fieldops",
		Short:         "Preventive maintenance plans, job generation and line items",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if app.Bootstrap == nil {
				return nil
			}
			return app.Bootstrap(configPath)
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "Path to a fieldops.yaml config file")

	root.AddCommand(
		newPlanCmd(app),
		newCatalogCmd(app),
		newJobCmd(app),
		newInvoiceCmd(app),
		newLinesCmd(app),
		newUpcomingCmd(app),
		newServeCmd(app),
	)

	return root
}
