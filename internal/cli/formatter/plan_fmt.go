package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/scheduler"
)

// FormatPlan renders a plan summary followed by its part templates.
// names maps catalog item IDs to display names; unknown items are flagged.
func FormatPlan(p *domain.MaintenancePlan, templates []*domain.PartTemplate, names map[string]string) string {
	var b strings.Builder
	b.WriteString(Header("Maintenance plan " + p.LocationID))
	b.WriteString("\n")

	active := StyleGreen.Render("● recurring service on")
	if !p.HasRecurringService {
		active = StyleDim.Render("○ recurring service off")
	}
	fmt.Fprintf(&b, "%s  %s\n", Dim("Status:  "), active)
	fmt.Fprintf(&b, "%s  %s\n", Dim("Type:    "), string(p.PlanType))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Months:  "), MonthNames(p.EligibleMonths))
	fmt.Fprintf(&b, "%s  %s\n", Dim("Next due:"), DatePtr(p.NextDueDate))
	if p.Notes != "" {
		fmt.Fprintf(&b, "%s  %s\n", Dim("Notes:   "), p.Notes)
	}

	b.WriteString("\n")
	b.WriteString(FormatTemplates(templates, names))
	return b.String()
}

func FormatTemplates(templates []*domain.PartTemplate, names map[string]string) string {
	if len(templates) == 0 {
		return Dim("No part templates.") + "\n"
	}
	rows := make([][]string, 0, len(templates))
	for i, t := range templates {
		name, ok := names[t.CatalogItemID]
		if !ok {
			name = StyleRed.Render("missing " + TruncID(t.CatalogItemID))
		}
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			TruncID(t.ID),
			Deref(t.DescriptionOverride, name),
			Quantity(t.QuantityPerVisit),
			Deref(t.EquipmentLabel, "--"),
		})
	}
	return RenderTable([]string{"#", "ID", "PART", "QTY", "EQUIPMENT"}, rows, 3)
}

func FormatNextDue(locationID string, from, next time.Time) string {
	return fmt.Sprintf("%s next visit after %s: %s\n", Bold(locationID), Date(from), StyleGreen.Render(Date(next)))
}

func FormatUpcoming(visits []scheduler.UpcomingVisit) string {
	if len(visits) == 0 {
		return Dim("No visits due in this window.") + "\n"
	}
	rows := make([][]string, 0, len(visits))
	for _, v := range visits {
		rows = append(rows, []string{Date(v.DueDate), DaysUntil(v.DaysUntil), v.LocationID, string(v.PlanType)})
	}
	return RenderTable([]string{"DUE", "WHEN", "LOCATION", "PLAN"}, rows)
}
