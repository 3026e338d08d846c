package split

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func d(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func TestCalculateThirtyFortyThirty(t *testing.T) {
	got := Calculate(d("100000000"), d("30"), d("40"), d("30"), "IDR")

	assert.True(t, got.DP.Equal(d("30000000")), got.DP.String())
	assert.True(t, got.Progress.Equal(d("40000000")), got.Progress.String())
	assert.True(t, got.Final.Equal(d("30000000")), got.Final.String())
	assert.True(t, got.Total().Equal(d("100000000")))
}

func TestCalculateRoundsToMinorUnit(t *testing.T) {
	idr := Calculate(d("1000"), d("33.33"), d("33.33"), d("33.34"), "IDR")
	assert.Equal(t, "333", idr.DP.String())
	assert.Equal(t, "334", idr.Progress.String())
	assert.Equal(t, "333", idr.Final.String())
	assert.Equal(t, "1000", idr.Total().String())

	usd := Calculate(d("1000"), d("33.33"), d("33.33"), d("33.34"), "usd")
	assert.Equal(t, "333.3", usd.DP.String())
	assert.Equal(t, "333.4", usd.Final.String())
}

func TestCalculateDoesNotEnforceSum(t *testing.T) {
	got := Calculate(d("1000"), d("50"), d("50"), d("50"), "IDR")
	assert.True(t, got.Total().Equal(d("1500")))
}

func TestValidSplitsSumToContractValue(t *testing.T) {
	values := []string{"1", "3", "7", "999", "1001", "100000000", "123456789", "1000.55"}
	currencies := []string{"IDR", "USD"}

	for _, currency := range currencies {
		places := MinorUnits(currency)
		for _, raw := range values {
			value := d(raw).Round(places)
			// basis points, so percentages carry two decimals
			for dp := 0; dp <= 10000; dp += 333 {
				for progress := 0; progress <= 10000-dp; progress += 1247 {
					final := 10000 - dp - progress
					got := Calculate(value, decimal.New(int64(dp), -2), decimal.New(int64(progress), -2), decimal.New(int64(final), -2), currency)
					assert.Truef(t, got.Total().Equal(value),
						"%s %s %d/%d/%d: total %s", currency, value, dp, progress, final, got.Total())

					unit := decimal.New(1, -places)
					for _, term := range []struct {
						got decimal.Decimal
						bp  int
					}{{got.DP, dp}, {got.Progress, progress}, {got.Final, final}} {
						exact := value.Mul(decimal.New(int64(term.bp), -4))
						assert.Falsef(t, term.got.IsNegative(), "%s %s: negative term %s", currency, value, term.got)
						assert.Truef(t, term.got.Sub(exact).Abs().LessThanOrEqual(unit),
							"%s %s %d/%d/%d: term %s vs exact %s", currency, value, dp, progress, final, term.got, exact)
					}
				}
			}
		}
	}
}

func TestCalculateThirdsOnHundredMillion(t *testing.T) {
	got := Calculate(d("100000000"), d("33.33"), d("33.33"), d("33.34"), "IDR")
	assert.Equal(t, "33330000", got.DP.String())
	assert.Equal(t, "33330000", got.Progress.String())
	assert.Equal(t, "33340000", got.Final.String())

	got = Calculate(d("1"), d("50"), d("50"), d("0"), "IDR")
	assert.Equal(t, "1", got.DP.String())
	assert.Equal(t, "0", got.Progress.String())
	assert.Equal(t, "0", got.Final.String())
}

func TestMinorUnits(t *testing.T) {
	assert.Equal(t, int32(0), MinorUnits("IDR"))
	assert.Equal(t, int32(0), MinorUnits(" jpy "))
	assert.Equal(t, int32(2), MinorUnits("USD"))
	assert.Equal(t, int32(2), MinorUnits(""))
}
