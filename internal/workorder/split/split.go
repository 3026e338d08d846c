// Package split turns a contract value and the three installment percentages
// into installment amounts.
package split

import (
	"strings"

	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

var zeroDecimalCurrencies = map[string]struct{}{
	"IDR": {},
	"JPY": {},
	"KRW": {},
	"VND": {},
}

// MinorUnits is the number of fractional digits amounts are rounded to.
func MinorUnits(currency string) int32 {
	if _, ok := zeroDecimalCurrencies[strings.ToUpper(strings.TrimSpace(currency))]; ok {
		return 0
	}
	return 2
}

type Amounts struct {
	DP       decimal.Decimal
	Progress decimal.Decimal
	Final    decimal.Decimal
}

func (a Amounts) Total() decimal.Decimal {
	return a.DP.Add(a.Progress).Add(a.Final)
}

// Calculate computes contractValue * pct / 100 for each term, rounded half away
// from zero to the currency's minor unit. It does not check the percentage sum.
//
// When the percentages total exactly 100 the later terms are rounded on the
// running total instead, so the installments add up to the contract value and
// none goes negative. Each still lands within one minor unit of its exact share.
func Calculate(contractValue, dp, progress, final decimal.Decimal, currency string) Amounts {
	places := MinorUnits(currency)
	if !dp.Add(progress).Add(final).Equal(hundred) {
		return Amounts{
			DP:       amount(contractValue, dp, places),
			Progress: amount(contractValue, progress, places),
			Final:    amount(contractValue, final, places),
		}
	}

	total := contractValue.Round(places)
	dpAmount := amount(total, dp, places)
	throughProgress := amount(total, dp.Add(progress), places)
	return Amounts{
		DP:       dpAmount,
		Progress: throughProgress.Sub(dpAmount),
		Final:    total.Sub(throughProgress),
	}
}

func amount(value, pct decimal.Decimal, places int32) decimal.Decimal {
	return value.Mul(pct).Div(hundred).Round(places)
}
