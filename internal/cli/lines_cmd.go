package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/reconcile"
	"github.com/alexanderramin/fieldops/internal/service"
	"github.com/spf13/cobra"
)

func newLinesCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lines",
		Short: "Edit the line items of a job or invoice",
		Long: "Edit the line items of a job or invoice. KIND is job or invoice;\n" +
			"PARENT is the job or invoice ID.",
	}
	cmd.AddCommand(
		newLinesListCmd(app),
		newLinesAddCmd(app),
		newLinesUpdateCmd(app),
		newLinesRemoveCmd(app),
		newLinesMoveCmd(app),
		newLinesEditCmd(app),
	)
	return cmd
}

// openSession loads a reconcile session over the parent's lines.
func openSession(ctx context.Context, app *App, kindArg, parentID string, notifier reconcile.Notifier) (*reconcile.Session, error) {
	kind, err := parseKind(kindArg)
	if err != nil {
		return nil, err
	}
	opts := []reconcile.Option{
		reconcile.WithNotifier(reconcile.MultiNotifier{notifier, reconcile.NewLogNotifier(app.logger())}),
		reconcile.WithReorderPolicy(app.ReorderPolicy),
	}
	if app.Resolver != nil {
		opts = append(opts, reconcile.WithCatalog(app.Resolver))
	}
	s := reconcile.NewSession(parentID, service.NewLineStore(app.Lines, kind), opts...)
	if err := s.Load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// lineFields are the flags shared by "lines add" and "lines update".
type lineFields struct {
	item        string
	description string
	notes       string
	label       string
	qty         string
	cost        string
	price       string
}

func (f *lineFields) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.item, "item", "", "Catalog item ID or prefix; fills blank description and prices")
	cmd.Flags().StringVar(&f.description, "description", "", "Line description")
	cmd.Flags().StringVar(&f.notes, "notes", "", "Notes")
	cmd.Flags().StringVar(&f.label, "label", "", "Equipment label")
	cmd.Flags().StringVar(&f.qty, "qty", "", "Quantity")
	cmd.Flags().StringVar(&f.cost, "cost", "", "Unit cost")
	cmd.Flags().StringVar(&f.price, "price", "", "Unit price")
}

// apply writes every changed flag into the row. Explicit values go in before
// the catalog item is bound so binding only fills what is still blank.
func (f *lineFields) apply(ctx context.Context, cmd *cobra.Command, app *App, s *reconcile.Session, key string) error {
	set := []struct{ flag, field, value string }{
		{"description", reconcile.FieldDescription, f.description},
		{"notes", reconcile.FieldNotes, f.notes},
		{"label", reconcile.FieldEquipment, f.label},
		{"qty", reconcile.FieldQuantity, f.qty},
		{"cost", reconcile.FieldUnitCost, f.cost},
		{"price", reconcile.FieldUnitPrice, f.price},
	}
	for _, x := range set {
		if !cmd.Flags().Changed(x.flag) {
			continue
		}
		if err := s.SetField(key, x.field, x.value); err != nil {
			return err
		}
	}
	if f.item == "" {
		return nil
	}
	itemID, err := resolveCatalogItemID(ctx, app, f.item)
	if err != nil {
		return err
	}
	return s.SelectCatalogItem(ctx, key, itemID)
}

func printRow(cmd *cobra.Command, verb string, v reconcile.RowView) {
	fmt.Fprintf(cmd.OutOrStdout(), "%s line %s: %s x%s = %s\n",
		verb, formatter.TruncID(v.LineID), v.Draft.Description, formatter.Quantity(v.Draft.Quantity), formatter.Money(v.LineTotal))
}

func printSessionTotals(cmd *cobra.Command, s *reconcile.Session) {
	fmt.Fprint(cmd.OutOrStdout(), formatter.FormatTotals(s.Totals()))
}

func newLinesListCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "list KIND PARENT",
		Short: "List lines in order with totals",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKind(args[0])
			if err != nil {
				return err
			}
			lines, err := app.Lines.List(cmd.Context(), kind, args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatLines(lines))
			return nil
		},
	}
}

func newLinesAddCmd(app *App) *cobra.Command {
	var f lineFields

	cmd := &cobra.Command{
		Use:   "add KIND PARENT",
		Short: "Append a line",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, app, args[0], args[1], consoleNotifier(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			key := s.AddLine()
			if err := f.apply(ctx, cmd, app, s, key); err != nil {
				return err
			}
			v, err := s.Save(ctx, key)
			if err != nil {
				return err
			}
			printRow(cmd, "Added", v)
			printSessionTotals(cmd, s)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func newLinesUpdateCmd(app *App) *cobra.Command {
	var f lineFields

	cmd := &cobra.Command{
		Use:   "update KIND PARENT LINE",
		Short: "Change fields of a line; flags not given keep their values",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, app, args[0], args[1], consoleNotifier(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			key, err := resolveLineKey(s, args[2])
			if err != nil {
				return err
			}
			if err := s.BeginEdit(key); err != nil {
				return err
			}
			if err := f.apply(ctx, cmd, app, s, key); err != nil {
				return err
			}
			v, err := s.Save(ctx, key)
			if err != nil {
				return err
			}
			printRow(cmd, "Updated", v)
			printSessionTotals(cmd, s)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func newLinesRemoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "remove KIND PARENT LINE",
		Short: "Delete a line; the remaining lines close the gap",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s, err := openSession(ctx, app, args[0], args[1], consoleNotifier(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			key, err := resolveLineKey(s, args[2])
			if err != nil {
				return err
			}
			if err := s.Delete(ctx, key); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed line %s\n", formatter.TruncID(key))
			printSessionTotals(cmd, s)
			return nil
		},
	}
}

func newLinesMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move KIND PARENT LINE POSITION",
		Short: "Move a line to a 1-based position",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			pos, err := strconv.Atoi(args[3])
			if err != nil || pos < 1 {
				return fmt.Errorf("invalid position %q", args[3])
			}
			ctx := cmd.Context()
			s, err := openSession(ctx, app, args[0], args[1], consoleNotifier(cmd.ErrOrStderr()))
			if err != nil {
				return err
			}
			key, err := resolveLineKey(s, args[2])
			if err != nil {
				return err
			}
			if err := s.Move(ctx, key, pos-1); err != nil {
				var perr *domain.PersistenceError
				if errors.As(err, &perr) {
					return fmt.Errorf("order was not saved: %w", err)
				}
				return err
			}
			kind, _ := parseKind(args[0])
			lines, err := app.Lines.List(ctx, kind, args[1])
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), formatter.FormatLines(lines))
			return nil
		},
	}
}

func newLinesEditCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "edit KIND PARENT",
		Short: "Edit lines interactively",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.interactive() {
				return errors.New("lines edit needs an interactive terminal")
			}
			ctx := cmd.Context()
			notes := newNoteLog()
			s, err := openSession(ctx, app, args[0], args[1], notes)
			if err != nil {
				return err
			}
			return runLineEditor(ctx, newLineEditor(ctx, s, notes, args[0]+" "+args[1]))
		},
	}
}
