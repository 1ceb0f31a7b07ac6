package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/repository"
	"github.com/alexanderramin/fieldops/internal/service"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newPlanCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage a location's maintenance plan",
	}

	template := &cobra.Command{
		Use:   "template",
		Short: "Manage the parts added to every generated visit",
	}
	template.AddCommand(
		newPlanTemplateAddCmd(app),
		newPlanTemplateListCmd(app),
		newPlanTemplateRemoveCmd(app),
	)

	cmd.AddCommand(
		newPlanShowCmd(app),
		newPlanSetCmd(app),
		newPlanNextDueCmd(app),
		template,
	)
	return cmd
}

// catalogNames maps every catalog item, inactive ones included, to its name.
func catalogNames(ctx context.Context, app *App) (map[string]string, error) {
	items, err := app.Catalog.List(ctx, true)
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(items))
	for _, it := range items {
		names[it.ID] = it.Name
	}
	return names, nil
}

func printPlan(cmd *cobra.Command, app *App, plan *domain.MaintenancePlan) error {
	ctx := cmd.Context()
	templates, err := app.Plans.ListTemplates(ctx, plan.LocationID)
	if err != nil {
		return err
	}
	names, err := catalogNames(ctx, app)
	if err != nil {
		return err
	}
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatPlan(plan, templates, names))
	return nil
}

func newPlanShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show LOCATION",
		Short: "Show a location's plan and part templates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := app.Plans.Get(cmd.Context(), args[0])
			if errors.Is(err, repository.ErrNotFound) {
				return fmt.Errorf("location %s has no maintenance plan; create one with \"plan set\"", args[0])
			}
			if err != nil {
				return err
			}
			return printPlan(cmd, app, plan)
		},
	}
}

func newPlanSetCmd(app *App) *cobra.Command {
	var (
		months    []int
		recurring bool
		planType  string
		notes     string
	)

	cmd := &cobra.Command{
		Use:   "set LOCATION",
		Short: "Create or update a location's plan",
		Long: "Create or update a location's plan. Flags that are not given keep the\n" +
			"stored value. The next due date is recomputed on every change.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg := service.PlanConfig{LocationID: args[0], HasRecurringService: true}
			existing, err := app.Plans.Get(ctx, args[0])
			switch {
			case err == nil:
				cfg.EligibleMonths = existing.EligibleMonths
				cfg.HasRecurringService = existing.HasRecurringService
				cfg.PlanType = existing.PlanType
				cfg.Notes = existing.Notes
			case !errors.Is(err, repository.ErrNotFound):
				return err
			}

			flags := cmd.Flags()
			if flags.Changed("months") {
				cfg.EligibleMonths = months
			}
			if flags.Changed("recurring") {
				cfg.HasRecurringService = recurring
			}
			if flags.Changed("type") {
				cfg.PlanType = domain.PlanType(planType)
			}
			if flags.Changed("notes") {
				cfg.Notes = notes
			}

			plan, err := app.Plans.Configure(ctx, cfg)
			if err != nil {
				return err
			}
			return printPlan(cmd, app, plan)
		},
	}

	cmd.Flags().Var(newMonthsValue(&months), "months", "Eligible months, e.g. mar,sep or 3,9")
	cmd.Flags().BoolVar(&recurring, "recurring", true, "Whether recurring service is enabled")
	cmd.Flags().StringVar(&planType, "type", "", "Plan type (monthly, quarterly, semi_annual, annual, custom)")
	cmd.Flags().StringVar(&notes, "notes", "", "Free-form notes")

	return cmd
}

func newPlanNextDueCmd(app *App) *cobra.Command {
	var from time.Time

	cmd := &cobra.Command{
		Use:   "next-due LOCATION",
		Short: "Compute the next visit after a date without storing it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := from
			if ref.IsZero() {
				ref = app.now()
			}
			next, err := app.Plans.NextDue(cmd.Context(), args[0], ref)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatNextDue(args[0], ref, next))
			return nil
		},
	}

	cmd.Flags().Var(newDateValue(&from), "from", "Reference date (YYYY-MM-DD, default today)")
	return cmd
}

func newPlanTemplateAddCmd(app *App) *cobra.Command {
	var (
		item        string
		qty         = decimal.NewFromInt(1)
		label       string
		description string
	)

	cmd := &cobra.Command{
		Use:   "add LOCATION",
		Short: "Add a catalog part to every generated visit",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			itemID, err := resolveCatalogItemID(ctx, app, item)
			if err != nil {
				return err
			}
			t := &domain.PartTemplate{
				LocationID:       args[0],
				CatalogItemID:    itemID,
				QuantityPerVisit: qty,
			}
			if label != "" {
				t.EquipmentLabel = &label
			}
			if description != "" {
				t.DescriptionOverride = &description
			}
			if err := app.Plans.AddTemplate(ctx, t); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added template %s to %s\n", formatter.TruncID(t.ID), args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&item, "item", "", "Catalog item ID or unique prefix")
	cmd.Flags().Var(newDecimalValue(&qty), "qty", "Quantity per visit")
	cmd.Flags().StringVar(&label, "label", "", "Equipment label, e.g. RTU-1")
	cmd.Flags().StringVar(&description, "description", "", "Description to use instead of the item name")
	_ = cmd.MarkFlagRequired("item")

	return cmd
}

func newPlanTemplateListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list LOCATION",
		Short: "List a location's part templates",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			templates, err := app.Plans.ListTemplates(ctx, args[0])
			if err != nil {
				return err
			}
			names, err := catalogNames(ctx, app)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTemplates(templates, names))
			return nil
		},
	}
}

func newPlanTemplateRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove LOCATION TEMPLATE",
		Short: "Remove a part template",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveTemplateID(ctx, app, args[0], args[1])
			if err != nil {
				return err
			}
			if err := app.Plans.RemoveTemplate(ctx, args[0], id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed template %s\n", formatter.TruncID(id))
			return nil
		},
	}
}
