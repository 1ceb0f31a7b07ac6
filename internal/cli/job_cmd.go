package cli

import (
	"fmt"
	"time"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/spf13/cobra"
)

func newJobCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "job",
		Short: "Generate and manage scheduled jobs",
	}
	cmd.AddCommand(
		newJobGenerateCmd(app),
		newJobCreateCmd(app),
		newJobShowCmd(app),
		newJobListCmd(app),
		newJobStatusCmd(app),
	)
	return cmd
}

func newJobGenerateCmd(app *App) *cobra.Command {
	var date time.Time

	cmd := &cobra.Command{
		Use:   "generate LOCATION",
		Short: "Generate a job from the location's plan",
		Long: "Generate a job from the location's plan. Each part template becomes a line\n" +
			"priced from the catalog at this moment. Templates whose catalog item is\n" +
			"gone are skipped with a warning.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := app.Jobs.Generate(cmd.Context(), args[0], date)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Generated job %s for %s\n", res.Job.ID, formatter.Date(res.Job.ScheduledDate))
			fmt.Fprint(out, formatter.FormatLines(res.Job.Lines))
			fmt.Fprint(out, formatter.FormatWarnings(res.Warnings))
			return nil
		},
	}

	cmd.Flags().Var(newDateValue(&date), "date", "Scheduled date (YYYY-MM-DD, default next due)")
	return cmd
}

func newJobCreateCmd(app *App) *cobra.Command {
	var date time.Time

	cmd := &cobra.Command{
		Use:   "create LOCATION",
		Short: "Create an empty manual job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := app.Jobs.Create(cmd.Context(), args[0], date)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created job %s for %s\n", job.ID, formatter.Date(job.ScheduledDate))
			return nil
		},
	}

	cmd.Flags().Var(newDateValue(&date), "date", "Scheduled date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("date")
	return cmd
}

func newJobShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show JOB",
		Short: "Show a job with its lines and totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := app.Jobs.GetByID(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatJob(job))
			return nil
		},
	}
}

func newJobListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list LOCATION",
		Short: "List a location's jobs",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jobs, err := app.Jobs.ListByLocation(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatJobList(jobs))
			return nil
		},
	}
}

func newJobStatusCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:       "status JOB STATUS",
		Short:     "Move a job to scheduled, in_progress, completed or cancelled",
		Long:      "Move a job to a new status. Completing a plan-generated job advances\nthe plan's next due date past the job's scheduled date.",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{"scheduled", "in_progress", "completed", "cancelled"},
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := app.Jobs.UpdateStatus(cmd.Context(), args[0], domain.JobStatus(args[1]))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Job %s is now %s\n", job.ID, formatter.JobStatusPill(job.Status))
			return nil
		},
	}
}

func newInvoiceCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "invoice",
		Short: "Create and inspect invoices",
	}

	fromJob := &cobra.Command{
		Use:   "from-job JOB",
		Short: "Create a draft invoice holding a copy of the job's lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inv, err := app.Invoices.CreateFromJob(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created invoice %s\n", inv.ID)
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatLines(inv.Lines))
			return nil
		},
	}

	show := &cobra.Command{
		Use:   "show INVOICE",
		Short: "Show an invoice with its lines and totals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveInvoiceID(ctx, app, args[0])
			if err != nil {
				return err
			}
			inv, err := app.Invoices.GetByID(ctx, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatInvoice(inv))
			return nil
		},
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List invoices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			invoices, err := app.Invoices.List(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatInvoiceList(invoices))
			return nil
		},
	}

	cmd.AddCommand(fromJob, show, list)
	return cmd
}
