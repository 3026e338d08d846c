package format

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestCurrency(t *testing.T) {
	cases := []struct {
		amount   string
		currency string
		want     string
	}{
		{"30000000", "IDR", "Rp 30.000.000"},
		{"100000000.00", "idr", "Rp 100.000.000"},
		{"33333333.5", "IDR", "Rp 33.333.334"},
		{"0", "IDR", "Rp 0"},
		{"1234.5", "USD", "US$ 1.235"},
		{"1234.49", "usd", "US$ 1.234"},
		{"30000000", "EUR", "€ 30.000.000"},
		{"123456789.5", "SGD", "S$ 123.456.790"},
		{"1000", "AUD", "AUD 1.000"},
	}
	for _, tc := range cases {
		t.Run(tc.currency+"_"+tc.amount, func(t *testing.T) {
			assert.Equal(t, tc.want, Currency(decimal.RequireFromString(tc.amount), tc.currency))
		})
	}
}

func TestPercent(t *testing.T) {
	assert.Equal(t, "30%", Percent(decimal.RequireFromString("30.00")))
	assert.Equal(t, "33,5%", Percent(decimal.RequireFromString("33.50")))
}

func TestLongDate(t *testing.T) {
	assert.Equal(t, "15 Januari 2026", LongDate(time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "1 Desember 2025", LongDate(time.Date(2025, 12, 1, 23, 0, 0, 0, time.UTC)))
}
