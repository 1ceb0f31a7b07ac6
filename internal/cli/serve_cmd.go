package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexanderramin/fieldops/internal/api"
	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/spf13/cobra"
)

func newUpcomingCmd(app *App) *cobra.Command {
	var (
		days int
		from time.Time
	)

	cmd := &cobra.Command{
		Use:   "upcoming",
		Short: "List maintenance visits due soon, overdue ones first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := from
			if ref.IsZero() {
				ref = app.now()
			}
			window := days
			if !cmd.Flags().Changed("days") && app.UpcomingDays > 0 {
				window = app.UpcomingDays
			}
			visits, err := app.Upcoming.List(cmd.Context(), ref, window)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatUpcoming(visits))
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 60, "Window length in days")
	cmd.Flags().Var(newDateValue(&from), "from", "Window start (YYYY-MM-DD, default today)")
	return cmd
}

func newServeCmd(app *App) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = app.HTTPAddr
			}
			srv := api.NewServer(api.Services{
				Plans:    app.Plans,
				Catalog:  app.Catalog,
				Jobs:     app.Jobs,
				Invoices: app.Invoices,
				Lines:    app.Lines,
				Upcoming: app.Upcoming,
			}, app.logger(), api.WithUpcomingDays(app.UpcomingDays))

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() { errCh <- srv.Start(addr) }()

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
				return fmt.Errorf("shutting down api: %w", err)
			}
			return <-errCh
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (default from config)")
	return cmd
}
