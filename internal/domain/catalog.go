package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CatalogItem struct {
	ID        string
	Name      string
	Cost      decimal.Decimal
	UnitPrice decimal.Decimal
	IsActive  bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewCatalogItem is the payload of a catalog create or quick-add request.
type NewCatalogItem struct {
	Name      string
	Cost      decimal.Decimal
	UnitPrice decimal.Decimal
}

func (n NewCatalogItem) Validate() error {
	if strings.TrimSpace(n.Name) == "" {
		return &ValidationError{Field: "name", Message: "name is required"}
	}
	if n.Cost.IsNegative() {
		return &ValidationError{Field: "cost", Message: "cost must not be negative"}
	}
	if n.UnitPrice.IsNegative() {
		return &ValidationError{Field: "unit_price", Message: "unit price must not be negative"}
	}
	return nil
}
