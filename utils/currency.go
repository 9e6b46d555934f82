package utils

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal accepts both "1234.50" and "1234,50", with an optional thousands
// separator of the other kind ("1.234,50", "1,234.50").
func ParseDecimal(raw string) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, " ", "")
	if s == "" {
		return decimal.Zero, fmt.Errorf("'%s' is not a valid number", raw)
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return decimal.Zero, fmt.Errorf("'%s' is not a valid number", raw)
		}
		s = strings.Replace(s, ",", ".", 1)
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("'%s' is not a valid number", raw)
	}
	return d, nil
}

// FormatCurrency renders an amount as "1.234,56 TL".
func FormatCurrency(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	parts := strings.SplitN(amount.StringFixed(2), ".", 2)
	integerPart := parts[0]

	var groups []string
	for i := len(integerPart); i > 0; i -= 3 {
		start := i - 3
		if start < 0 {
			start = 0
		}
		groups = append([]string{integerPart[start:i]}, groups...)
	}

	return sign + strings.Join(groups, ".") + "," + parts[1] + " TL"
}

// Percent returns part/whole*100 rounded to two places, or zero when whole is zero.
func Percent(part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return part.Div(whole).Mul(decimal.NewFromInt(100)).Round(2)
}

// Amount binds a money value from a JSON number, a JSON string or a form
// field, accepting both "12.50" and "12,50".
type Amount struct {
	decimal.Decimal
	Present bool
}

func (a *Amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	if s == "" || s == "null" {
		return nil
	}
	return a.UnmarshalParam(s)
}

// UnmarshalParam lets gin's form binding use ParseDecimal.
func (a *Amount) UnmarshalParam(s string) error {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	d, err := ParseDecimal(s)
	if err != nil {
		return err
	}
	a.Decimal = d
	a.Present = true
	return nil
}
