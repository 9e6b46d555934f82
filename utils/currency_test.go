package utils

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDecimal(t *testing.T) {
	cases := map[string]string{
		"12.50":     "12.50",
		"12,50":     "12.50",
		" 7 ":       "7.00",
		"1.234,50":  "1234.50",
		"1,234.50":  "1234.50",
		"1 234,5":   "1234.50",
		"-3,25":     "-3.25",
	}
	for in, want := range cases {
		d, err := ParseDecimal(in)
		if assert.NoError(t, err, in) {
			assert.Equal(t, want, d.StringFixed(2), in)
		}
	}

	for _, in := range []string{"", "   ", "abc", "1,2,3", "12.5x", "1.000.000"} {
		_, err := ParseDecimal(in)
		assert.Error(t, err, in)
	}
}

func TestFormatCurrency(t *testing.T) {
	assert.Equal(t, "0,00 TL", FormatCurrency(decimal.Zero))
	assert.Equal(t, "12,50 TL", FormatCurrency(decimal.RequireFromString("12.5")))
	assert.Equal(t, "1.234,56 TL", FormatCurrency(decimal.RequireFromString("1234.56")))
	assert.Equal(t, "1.000.000,00 TL", FormatCurrency(decimal.NewFromInt(1000000)))
	assert.Equal(t, "-950,10 TL", FormatCurrency(decimal.RequireFromString("-950.1")))
}

func TestPercent(t *testing.T) {
	assert.True(t, Percent(decimal.NewFromInt(5), decimal.Zero).IsZero())
	assert.Equal(t, "71.43", Percent(decimal.NewFromInt(20), decimal.NewFromInt(28)).StringFixed(2))
	assert.Equal(t, "50.00", Percent(decimal.NewFromInt(1), decimal.NewFromInt(2)).StringFixed(2))
}

func TestAmountUnmarshal(t *testing.T) {
	var body struct {
		Price  Amount `json:"price"`
		Amount Amount `json:"amount"`
		Tip    Amount `json:"tip"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"price":"12,50","amount":40.5,"tip":null}`), &body))
	assert.True(t, body.Price.Present)
	assert.Equal(t, "12.50", body.Price.StringFixed(2))
	assert.True(t, body.Amount.Present)
	assert.Equal(t, "40.50", body.Amount.StringFixed(2))
	assert.False(t, body.Tip.Present)

	assert.Error(t, json.Unmarshal([]byte(`{"price":"twelve"}`), &body))

	var a Amount
	require.NoError(t, a.UnmarshalParam("1.234,00"))
	assert.Equal(t, "1234.00", a.StringFixed(2))
	var empty Amount
	require.NoError(t, empty.UnmarshalParam(" "))
	assert.False(t, empty.Present)
}
