package domain

import "github.com/shopspring/decimal"

var hundred = decimal.NewFromInt(100)

type Totals struct {
	TotalPrice    decimal.Decimal
	TotalCost     decimal.Decimal
	Profit        decimal.Decimal
	MarginPercent decimal.Decimal
}

// ComputeTotals aggregates price, cost, profit and margin over lines.
// MarginPercent is zero when TotalPrice is zero.
func ComputeTotals(lines []LineItem) Totals {
	var t Totals
	for _, l := range lines {
		t.TotalPrice = t.TotalPrice.Add(l.LineTotal())
		t.TotalCost = t.TotalCost.Add(l.LineCost())
	}
	t.Profit = t.TotalPrice.Sub(t.TotalCost)
	if t.TotalPrice.IsPositive() {
		t.MarginPercent = t.Profit.Div(t.TotalPrice).Mul(hundred)
	}
	return t
}
