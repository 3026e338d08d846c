// Package format renders amounts and dates the way the SPK document prints
// them (Indonesian locale).
package format

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

var printer = message.NewPrinter(language.Indonesian)

var symbols = map[string]string{
	"IDR": "Rp",
	"USD": "US$",
	"SGD": "S$",
	"EUR": "€",
	"JPY": "¥",
}

var months = [...]string{
	"Januari", "Februari", "Maret", "April", "Mei", "Juni",
	"Juli", "Agustus", "September", "Oktober", "November", "Desember",
}

// Currency formats amount in whole units with id-ID grouping, e.g.
// "Rp 30.000.000". Fractions are rounded half away from zero.
func Currency(amount decimal.Decimal, currency string) string {
	code := strings.ToUpper(strings.TrimSpace(currency))
	digits := printer.Sprint(number.Decimal(amount.Round(0).IntPart()))

	symbol, ok := symbols[code]
	if !ok {
		symbol = code
	}
	if symbol == "" {
		return digits
	}
	return symbol + " " + digits
}

// Percent prints a split percentage without trailing zeros: "30%", "33,5%".
func Percent(pct decimal.Decimal) string {
	return strings.Replace(pct.String(), ".", ",", 1) + "%"
}

// LongDate formats t as "15 Januari 2026".
func LongDate(t time.Time) string {
	t = t.UTC()
	return fmt.Sprintf("%d %s %d", t.Day(), months[t.Month()-1], t.Year())
}
