package formatter

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

var monthAbbrev = [12]string{"Jan", "Feb", "Mar", "Apr", "May", "Jun", "Jul", "Aug", "Sep", "Oct", "Nov", "Dec"}

// RenderBox wraps content in a rounded-border box with an optional title.
func RenderBox(title string, content string) string {
	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(ColorDim).
		PaddingLeft(2).
		PaddingRight(2)

	if title != "" {
		return boxStyle.Render(StyleHeader.Render(strings.ToUpper(title)) + "\n\n" + content)
	}
	return boxStyle.Render(content)
}

// Money renders an amount with two decimals and a leading dollar sign.
func Money(d decimal.Decimal) string {
	if d.IsNegative() {
		return "-$" + d.Neg().StringFixed(2)
	}
	return "$" + d.StringFixed(2)
}

// Quantity renders a quantity without trailing zeros.
func Quantity(d decimal.Decimal) string {
	return d.String()
}

// Percent renders a margin with one decimal.
func Percent(d decimal.Decimal) string {
	return d.StringFixed(1) + "%"
}

func Date(t time.Time) string {
	return t.Format(dateLayout)
}

// DatePtr renders a nullable date, "--" when unset.
func DatePtr(t *time.Time) string {
	if t == nil {
		return StyleDim.Render("--")
	}
	return Date(*t)
}

// MonthNames renders zero-based months as "Mar, Sep".
func MonthNames(months []int) string {
	if len(months) == 0 {
		return StyleDim.Render("none")
	}
	names := make([]string, 0, len(months))
	for _, m := range months {
		if m < 0 || m > 11 {
			names = append(names, fmt.Sprintf("?%d", m))
			continue
		}
		names = append(names, monthAbbrev[m])
	}
	return strings.Join(names, ", ")
}

// DaysUntil renders a day offset as "in 12d", "today" or "3d overdue".
func DaysUntil(days int) string {
	switch {
	case days == 0:
		return StyleYellow.Render("today")
	case days < 0:
		return StyleRed.Render(fmt.Sprintf("%dd overdue", -days))
	case days <= 7:
		return StyleYellow.Render(fmt.Sprintf("in %dd", days))
	default:
		return fmt.Sprintf("in %dd", days)
	}
}

// TruncID returns the first 8 characters of an ID.
func TruncID(id string) string {
	if len(id) > 8 {
		id = id[:8]
	}
	return id
}

// Deref returns the pointed-to string or fallback.
func Deref(s *string, fallback string) string {
	if s == nil || *s == "" {
		return fallback
	}
	return *s
}
