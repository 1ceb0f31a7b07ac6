package cli

import (
	"errors"
	"strings"

	"github.com/alexanderramin/fieldops/internal/cli/formatter"
	"github.com/alexanderramin/fieldops/internal/domain"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// fieldopsHuhTheme returns the form theme matching the formatter palette.
func fieldopsHuhTheme() *huh.Theme {
	t := huh.ThemeBase()

	t.Focused.Title = lipgloss.NewStyle().Foreground(formatter.ColorHeader).Bold(true)
	t.Focused.FocusedButton = lipgloss.NewStyle().Foreground(formatter.ColorFg).Background(formatter.ColorHeader).Padding(0, 1)
	t.Focused.BlurredButton = lipgloss.NewStyle().Foreground(formatter.ColorDim).Padding(0, 1)
	t.Focused.TextInput.Cursor = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorHeader)
	t.Focused.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorFg)
	t.Focused.TextInput.Placeholder = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Focused.ErrorMessage = lipgloss.NewStyle().Foreground(formatter.ColorRed)

	t.Blurred.Title = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Prompt = lipgloss.NewStyle().Foreground(formatter.ColorDim)
	t.Blurred.TextInput.Text = lipgloss.NewStyle().Foreground(formatter.ColorDim)

	return t
}

type catalogFormValues struct {
	Name  string
	Cost  string
	Price string
}

func (v catalogFormValues) toNewCatalogItem() (domain.NewCatalogItem, error) {
	in := domain.NewCatalogItem{Name: strings.TrimSpace(v.Name)}
	var err error
	if in.Cost, err = parseOptionalMoney(v.Cost); err != nil {
		return in, err
	}
	if in.UnitPrice, err = parseOptionalMoney(v.Price); err != nil {
		return in, err
	}
	return in, in.Validate()
}

// parseOptionalMoney reads a non-negative amount; blank is zero.
func parseOptionalMoney(s string) (decimal.Decimal, error) {
	s = strings.TrimPrefix(strings.TrimSpace(s), "$")
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, errors.New("enter an amount such as 12.50")
	}
	if d.IsNegative() {
		return decimal.Zero, errors.New("amount must not be negative")
	}
	return d, nil
}

func validateMoney(s string) error {
	_, err := parseOptionalMoney(s)
	return err
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("required")
	}
	return nil
}

// catalogItemForm collects a quick-add catalog item.
func catalogItemForm(v *catalogFormValues) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Name").Placeholder("Filter 16x25x1").Value(&v.Name).Validate(validateRequired),
			huh.NewInput().Title("Unit cost").Placeholder("0.00").Value(&v.Cost).Validate(validateMoney),
			huh.NewInput().Title("Unit price").Placeholder("0.00").Value(&v.Price).Validate(validateMoney),
		),
	).WithTheme(fieldopsHuhTheme()).WithShowHelp(false)
}
