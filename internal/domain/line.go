package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// LineItem is a billable row of a job or an invoice. UnitCost and UnitPrice
// are snapshots taken when the line was created.
type LineItem struct {
	ID             string
	ParentKind     ParentKind
	ParentID       string
	CatalogItemID  *string
	Description    string
	Notes          string
	EquipmentLabel string
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	UnitPrice      decimal.Decimal
	SortOrder      int
	Source         LineSource
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// LineTotal is quantity * unit price.
func (l LineItem) LineTotal() decimal.Decimal {
	return l.Quantity.Mul(l.UnitPrice)
}

// LineCost is quantity * unit cost.
func (l LineItem) LineCost() decimal.Decimal {
	return l.Quantity.Mul(l.UnitCost)
}

// LineInput carries the writable fields of a create or update request.
type LineInput struct {
	CatalogItemID  *string
	Description    string
	Notes          string
	EquipmentLabel string
	Quantity       decimal.Decimal
	UnitCost       decimal.Decimal
	UnitPrice      decimal.Decimal
	Source         LineSource
}

// Validate enforces the pre-save rules: a description or a catalog item,
// quantity > 0, and non-negative money.
func (in LineInput) Validate() error {
	hasProduct := in.CatalogItemID != nil && *in.CatalogItemID != ""
	if strings.TrimSpace(in.Description) == "" && !hasProduct {
		return &ValidationError{Field: "description", Message: "description or catalog item is required"}
	}
	if !in.Quantity.IsPositive() {
		return &ValidationError{Field: "quantity", Message: "quantity must be greater than 0"}
	}
	if in.UnitCost.IsNegative() {
		return &ValidationError{Field: "unit_cost", Message: "unit cost must not be negative"}
	}
	if in.UnitPrice.IsNegative() {
		return &ValidationError{Field: "unit_price", Message: "unit price must not be negative"}
	}
	switch in.Source {
	case SourceManual, SourceCatalog, SourceTemplate:
	default:
		return &ValidationError{Field: "source", Message: "unknown line source " + string(in.Source)}
	}
	return nil
}

// Input extracts the writable fields of a line.
func (l LineItem) Input() LineInput {
	return LineInput{
		CatalogItemID:  l.CatalogItemID,
		Description:    l.Description,
		Notes:          l.Notes,
		EquipmentLabel: l.EquipmentLabel,
		Quantity:       l.Quantity,
		UnitCost:       l.UnitCost,
		UnitPrice:      l.UnitPrice,
		Source:         l.Source,
	}
}

// LineOrder is one entry of a set-order request.
type LineOrder struct {
	ID        string
	SortOrder int
}
