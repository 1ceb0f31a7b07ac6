package domain

import "github.com/shopspring/decimal"

// CoalesceStr returns the first non-empty string from vals.
func CoalesceStr(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// StrFromPtr returns *p, or "" when p is nil.
func StrFromPtr(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

// OptionalStr returns nil for an empty string, otherwise a pointer to a copy.
func OptionalStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// CoalesceDecimal returns the first valid value from vals, or zero.
func CoalesceDecimal(vals ...decimal.NullDecimal) decimal.Decimal {
	for _, v := range vals {
		if v.Valid {
			return v.Decimal
		}
	}
	return decimal.Zero
}
