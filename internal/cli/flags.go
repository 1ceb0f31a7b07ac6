package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/pflag"
)

var monthByName = map[string]int{
	"jan": 0, "feb": 1, "mar": 2, "apr": 3, "may": 4, "jun": 5,
	"jul": 6, "aug": 7, "sep": 8, "oct": 9, "nov": 10, "dec": 11,
}

// monthsValue is a --months flag. It accepts month names ("mar,sep") or
// calendar numbers 1-12 and stores zero-based months.
type monthsValue struct {
	months *[]int
}

var _ pflag.Value = (*monthsValue)(nil)

func newMonthsValue(p *[]int) *monthsValue {
	return &monthsValue{months: p}
}

func (v *monthsValue) Set(s string) error {
	out := []int{}
	for _, part := range strings.Split(s, ",") {
		part = strings.ToLower(strings.TrimSpace(part))
		if part == "" {
			continue
		}
		if len(part) >= 3 {
			if m, ok := monthByName[part[:3]]; ok {
				out = append(out, m)
				continue
			}
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > 12 {
			return fmt.Errorf("invalid month %q (use 1-12 or jan..dec)", part)
		}
		out = append(out, n-1)
	}
	*v.months = out
	return nil
}

func (v *monthsValue) String() string {
	if v.months == nil {
		return ""
	}
	parts := make([]string, len(*v.months))
	for i, m := range *v.months {
		parts[i] = strconv.Itoa(m + 1)
	}
	return strings.Join(parts, ",")
}

func (v *monthsValue) Type() string { return "months" }

// decimalValue is a money or quantity flag.
type decimalValue struct {
	d *decimal.Decimal
}

var _ pflag.Value = (*decimalValue)(nil)

func newDecimalValue(p *decimal.Decimal) *decimalValue {
	return &decimalValue{d: p}
}

func (v *decimalValue) Set(s string) error {
	d, err := decimal.NewFromString(strings.TrimPrefix(strings.TrimSpace(s), "$"))
	if err != nil {
		return fmt.Errorf("invalid amount %q", s)
	}
	*v.d = d
	return nil
}

func (v *decimalValue) String() string {
	if v.d == nil {
		return "0"
	}
	return v.d.String()
}

func (v *decimalValue) Type() string { return "decimal" }

// dateValue is a YYYY-MM-DD flag; the zero time means unset.
type dateValue struct {
	t *time.Time
}

var _ pflag.Value = (*dateValue)(nil)

func newDateValue(p *time.Time) *dateValue {
	return &dateValue{t: p}
}

func (v *dateValue) Set(s string) error {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return fmt.Errorf("invalid date %q (use YYYY-MM-DD)", s)
	}
	*v.t = t
	return nil
}

func (v *dateValue) String() string {
	if v.t == nil || v.t.IsZero() {
		return ""
	}
	return v.t.Format("2006-01-02")
}

func (v *dateValue) Type() string { return "date" }
