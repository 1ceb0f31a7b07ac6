package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/reconcile"
)

// resolvePrefix matches input against ids: exact match first, then a unique
// prefix.
func resolvePrefix(what, input string, ids []string) (string, error) {
	if input == "" {
		return "", fmt.Errorf("%s ID is required", what)
	}
	var matches []string
	for _, id := range ids {
		if id == input {
			return id, nil
		}
		if strings.HasPrefix(id, input) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 0:
		return "", fmt.Errorf("%s not found: %q", what, input)
	case 1:
		return matches[0], nil
	default:
		return "", fmt.Errorf("%s ID prefix %q is ambiguous (%d matches)", what, input, len(matches))
	}
}

func resolveCatalogItemID(ctx context.Context, app *App, input string) (string, error) {
	items, err := app.Catalog.List(ctx, true)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	return resolvePrefix("catalog item", input, ids)
}

func resolveTemplateID(ctx context.Context, app *App, locationID, input string) (string, error) {
	templates, err := app.Plans.ListTemplates(ctx, locationID)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(templates))
	for i, t := range templates {
		ids[i] = t.ID
	}
	return resolvePrefix("template", input, ids)
}

func resolveInvoiceID(ctx context.Context, app *App, input string) (string, error) {
	invoices, err := app.Invoices.List(ctx)
	if err != nil {
		return "", err
	}
	ids := make([]string, len(invoices))
	for i, inv := range invoices {
		ids[i] = inv.ID
	}
	return resolvePrefix("invoice", input, ids)
}

func resolveLineKey(s *reconcile.Session, input string) (string, error) {
	rows := s.Rows()
	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		if r.LineID != "" {
			ids = append(ids, r.LineID)
		}
	}
	return resolvePrefix("line", input, ids)
}

func parseKind(s string) (domain.ParentKind, error) {
	kind, ok := domain.ParseParentKind(strings.ToLower(s))
	if !ok {
		return "", fmt.Errorf("unknown line parent %q (use job or invoice)", s)
	}
	return kind, nil
}

// consoleNotifier prints session notifications to w.
func consoleNotifier(w io.Writer) reconcile.Notifier {
	return reconcile.NotifierFunc(func(kind reconcile.NotifyKind, message string) {
		if kind == reconcile.NotifyError {
			fmt.Fprintf(w, "%s %s\n", formatter.StyleRed.Render("error:"), message)
			return
		}
		fmt.Fprintf(w, "%s\n", formatter.Dim(message))
	})
}
