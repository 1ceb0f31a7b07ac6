package cli

import (
	"errors"
	"fmt"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func newCatalogCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the parts and services catalog",
	}
	cmd.AddCommand(
		newCatalogAddCmd(app),
		newCatalogQuickAddCmd(app),
		newCatalogListCmd(app),
		newCatalogPriceCmd(app),
		newCatalogDeactivateCmd(app),
	)
	return cmd
}

func printCatalogItem(cmd *cobra.Command, verb string, item *domain.CatalogItem) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s %s [%s] cost %s price %s\n",
		verb, formatter.Bold(item.Name), item.ID, formatter.Money(item.Cost), formatter.Money(item.UnitPrice))
}

func newCatalogAddCmd(app *App) *cobra.Command {
	var (
		name  string
		cost  decimal.Decimal
		price decimal.Decimal
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a catalog item",
		RunE: func(cmd *cobra.Command, args []string) error {
			item, err := app.Catalog.Create(cmd.Context(), domain.NewCatalogItem{Name: name, Cost: cost, UnitPrice: price})
			if err != nil {
				return err
			}
			printCatalogItem(cmd, "Added", item)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Item name")
	cmd.Flags().Var(newDecimalValue(&cost), "cost", "Unit cost")
	cmd.Flags().Var(newDecimalValue(&price), "price", "Unit price")
	_ = cmd.MarkFlagRequired("name")

	return cmd
}

func newCatalogQuickAddCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "quick-add",
		Short: "Add a catalog item through an interactive form",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return errors.New("quick-add needs an interactive terminal; use \"catalog add\"")
			}
			var values catalogFormValues
			if err := catalogItemForm(&values).Run(); err != nil {
				return err
			}
			in, err := values.toNewCatalogItem()
			if err != nil {
				return err
			}
			item, err := app.Catalog.Create(cmd.Context(), in)
			if err != nil {
				return err
			}
			printCatalogItem(cmd, "Added", item)
			return nil
		},
	}
}

func newCatalogListCmd(app *App) *cobra.Command {
	var (
		all    bool
		search string
		limit  int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List or search catalog items",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var (
				items []*domain.CatalogItem
				err   error
			)
			if search != "" {
				items, err = app.Catalog.Search(ctx, search, limit)
			} else {
				items, err = app.Catalog.List(ctx, all)
			}
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatCatalog(items))
			return nil
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Include inactive items")
	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive name search")
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum search results")

	return cmd
}

func newCatalogPriceCmd(app *App) *cobra.Command {
	var cost, price decimal.Decimal

	cmd := &cobra.Command{
		Use:   "price ITEM",
		Short: "Change an item's cost and price",
		Long: "Change an item's cost and price. Lines already on jobs and invoices keep\n" +
			"the prices they were created with.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveCatalogItemID(ctx, app, args[0])
			if err != nil {
				return err
			}
			current, err := app.Catalog.GetByID(ctx, id)
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("cost") {
				cost = current.Cost
			}
			if !cmd.Flags().Changed("price") {
				price = current.UnitPrice
			}
			item, err := app.Catalog.UpdatePrice(ctx, id, cost, price)
			if err != nil {
				return err
			}
			printCatalogItem(cmd, "Updated", item)
			return nil
		},
	}

	cmd.Flags().Var(newDecimalValue(&cost), "cost", "New unit cost")
	cmd.Flags().Var(newDecimalValue(&price), "price", "New unit price")
	cmd.MarkFlagsOneRequired("cost", "price")

	return cmd
}

func newCatalogDeactivateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "deactivate ITEM",
		Short: "Hide an item from lists and searches",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			id, err := resolveCatalogItemID(ctx, app, args[0])
			if err != nil {
				return err
			}
			if err := app.Catalog.Deactivate(ctx, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deactivated %s\n", formatter.TruncID(id))
			return nil
		},
	}
}
