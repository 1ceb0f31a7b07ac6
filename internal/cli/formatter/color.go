package formatter

import (
	"fmt"
	"strings"

	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/alexanderramin/fieldops/internal/reconcile"
	"github.com/charmbracelet/lipgloss"
)

// Gruvbox-inspired color palette.
var (
	ColorGreen  = lipgloss.Color("#8ec07c")
	ColorYellow = lipgloss.Color("#fabd2f")
	ColorRed    = lipgloss.Color("#fb4934")
	ColorBlue   = lipgloss.Color("#83a598")
	ColorPurple = lipgloss.Color("#d3869b")
	ColorDim    = lipgloss.Color("#928374")
	ColorFg     = lipgloss.Color("#ebdbb2")
	ColorHeader = lipgloss.Color("#fe8019")
)

var (
	StyleGreen  = lipgloss.NewStyle().Foreground(ColorGreen)
	StyleYellow = lipgloss.NewStyle().Foreground(ColorYellow)
	StyleRed    = lipgloss.NewStyle().Foreground(ColorRed)
	StyleBlue   = lipgloss.NewStyle().Foreground(ColorBlue)
	StylePurple = lipgloss.NewStyle().Foreground(ColorPurple)
	StyleDim    = lipgloss.NewStyle().Foreground(ColorDim)
	StyleFg     = lipgloss.NewStyle().Foreground(ColorFg)
	StyleHeader = lipgloss.NewStyle().Foreground(ColorHeader).Bold(true)
	StyleBold   = lipgloss.NewStyle().Foreground(ColorFg).Bold(true)
)

// JobStatusPill returns a colored indicator such as "● Scheduled".
func JobStatusPill(status domain.JobStatus) string {
	switch status {
	case domain.JobScheduled:
		return StyleBlue.Render("○ Scheduled")
	case domain.JobInProgress:
		return StyleYellow.Render("● In progress")
	case domain.JobCompleted:
		return StyleGreen.Render("✔ Completed")
	case domain.JobCancelled:
		return StyleDim.Render("✖ Cancelled")
	default:
		return StyleDim.Render(string(status))
	}
}

func InvoiceStatusPill(status domain.InvoiceStatus) string {
	switch status {
	case domain.InvoiceDraft:
		return StyleYellow.Render("○ Draft")
	case domain.InvoiceSent:
		return StyleBlue.Render("● Sent")
	case domain.InvoicePaid:
		return StyleGreen.Render("✔ Paid")
	case domain.InvoiceVoid:
		return StyleDim.Render("✖ Void")
	default:
		return StyleDim.Render(string(status))
	}
}

// RowStateMarker is the one-character gutter mark of an editor row.
func RowStateMarker(state reconcile.RowState, hasErr bool) string {
	if hasErr {
		return StyleRed.Render("!")
	}
	switch state {
	case reconcile.StateEditing:
		return StyleYellow.Render("✎")
	case reconcile.StateNew:
		return StyleGreen.Render("+")
	case reconcile.StateSaving:
		return StyleBlue.Render("…")
	default:
		return " "
	}
}

// Header renders a section header with the orange header style and an underline.
func Header(text string) string {
	upper := strings.ToUpper(text)
	line := strings.Repeat("─", len(upper))
	return fmt.Sprintf("%s\n%s", StyleHeader.Render(upper), StyleDim.Render(line))
}

func Dim(text string) string {
	return StyleDim.Render(text)
}

func Bold(text string) string {
	return StyleBold.Render(text)
}
