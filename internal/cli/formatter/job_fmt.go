package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/fieldops/internal/domain"
)

func FormatCatalog(items []*domain.CatalogItem) string {
	if len(items) == 0 {
		return Dim("Catalog is empty.") + "\n"
	}
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		name := it.Name
		if !it.IsActive {
			name = StyleDim.Render(name + " (inactive)")
		}
		rows = append(rows, []string{TruncID(it.ID), name, Money(it.Cost), Money(it.UnitPrice)})
	}
	return RenderTable([]string{"ID", "NAME", "COST", "PRICE"}, rows, 2, 3)
}

// FormatLines renders lines in sort order with a totals footer.
func FormatLines(lines []domain.LineItem) string {
	if len(lines) == 0 {
		return Dim("No line items.") + "\n"
	}
	rows := make([][]string, 0, len(lines))
	for _, l := range lines {
		desc := l.Description
		if l.EquipmentLabel != "" {
			desc += " " + Dim("["+l.EquipmentLabel+"]")
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", l.SortOrder+1),
			TruncID(l.ID),
			desc,
			Quantity(l.Quantity),
			Money(l.UnitCost),
			Money(l.UnitPrice),
			Money(l.LineTotal()),
			Dim(string(l.Source)),
		})
	}
	var b strings.Builder
	b.WriteString(RenderTable([]string{"#", "ID", "DESCRIPTION", "QTY", "COST", "PRICE", "TOTAL", "SOURCE"}, rows, 3, 4, 5, 6))
	b.WriteString(FormatTotals(domain.ComputeTotals(lines)))
	return b.String()
}

func FormatTotals(t domain.Totals) string {
	margin := Percent(t.MarginPercent)
	switch {
	case t.Profit.IsNegative():
		margin = StyleRed.Render(margin)
	case t.Profit.IsPositive():
		margin = StyleGreen.Render(margin)
	}
	return fmt.Sprintf("%s %s   %s %s   %s %s   %s %s\n",
		Dim("Total"), Bold(Money(t.TotalPrice)),
		Dim("Cost"), Money(t.TotalCost),
		Dim("Profit"), Money(t.Profit),
		Dim("Margin"), margin)
}

func FormatJob(j *domain.ScheduledJob) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Dim("Job:      "), j.ID)
	fmt.Fprintf(&b, "%s  %s\n", Dim("Location: "), j.LocationID)
	fmt.Fprintf(&b, "%s  %s\n", Dim("Scheduled:"), Date(j.ScheduledDate))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Status:   "), JobStatusPill(j.Status))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Origin:   "), string(j.Origin))
	return RenderBox("Job", strings.TrimRight(b.String(), "\n")) + "\n" + FormatLines(j.Lines)
}

func FormatJobList(jobs []*domain.ScheduledJob) string {
	if len(jobs) == 0 {
		return Dim("No jobs.") + "\n"
	}
	rows := make([][]string, 0, len(jobs))
	for _, j := range jobs {
		rows = append(rows, []string{j.ID, Date(j.ScheduledDate), JobStatusPill(j.Status), string(j.Origin)})
	}
	return RenderTable([]string{"ID", "SCHEDULED", "STATUS", "ORIGIN"}, rows)
}

func FormatWarnings(ws []domain.CatalogItemMissingWarning) string {
	if len(ws) == 0 {
		return ""
	}
	var b strings.Builder
	for _, w := range ws {
		fmt.Fprintf(&b, "%s %s\n", StyleYellow.Render("warning:"), w.String())
	}
	return b.String()
}

func FormatInvoice(inv *domain.Invoice) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  %s\n", Dim("Invoice: "), inv.ID)
	fmt.Fprintf(&b, "%s  %s\n", Dim("Location:"), inv.LocationID)
	fmt.Fprintf(&b, "%s  %s\n", Dim("Job:     "), Deref(inv.JobID, "--"))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Status:  "), InvoiceStatusPill(inv.Status))
	return RenderBox("Invoice", strings.TrimRight(b.String(), "\n")) + "\n" + FormatLines(inv.Lines)
}

func FormatInvoiceList(invoices []*domain.Invoice) string {
	if len(invoices) == 0 {
		return Dim("No invoices.") + "\n"
	}
	rows := make([][]string, 0, len(invoices))
	for _, inv := range invoices {
		rows = append(rows, []string{TruncID(inv.ID), inv.LocationID, TruncID(Deref(inv.JobID, "--")), InvoiceStatusPill(inv.Status)})
	}
	return RenderTable([]string{"ID", "LOCATION", "JOB", "STATUS"}, rows)
}
