// Package decimal centralizes the exact-precision money helpers shared by
// the extraction pipeline: amount parsing and the period-normalization math
// the Consistency Checker needs to compare income recorded on different
// cadences.
package decimal

import (
	"github.com/shopspring/decimal"

	"github.com/rezonia/docingest/internal/model"
)

// Zero is decimal zero.
var Zero = decimal.Zero

// FromString parses a decimal amount.
func FromString(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(s)
}

// MustFromString parses a decimal amount, panicking on error. Used only with
// literal constants (tests, defaults), never with extracted input.
func MustFromString(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Sum totals a slice of decimals.
func Sum(values []decimal.Decimal) decimal.Decimal {
	result := Zero
	for _, v := range values {
		result = result.Add(v)
	}
	return result
}

// IsPositive reports whether d is strictly greater than zero.
func IsPositive(d decimal.Decimal) bool {
	return d.GreaterThan(Zero)
}

// IsNonNegative reports whether d is zero or positive.
func IsNonNegative(d decimal.Decimal) bool {
	return d.GreaterThanOrEqual(Zero)
}

var periodsPerYear = map[model.IncomePeriod]int64{
	model.PeriodAnnual:   1,
	model.PeriodMonthly:  12,
	model.PeriodWeekly:   52,
	model.PeriodBiweekly: 26,
}

// AnnualizedAmount scales amount up to an annual figure so that income
// recorded on different cadences (a monthly pay stub, an annual W2) can be
// compared on the same basis. An unrecognized period is treated as already
// annual rather than rejected outright.
func AnnualizedAmount(amount decimal.Decimal, period model.IncomePeriod) decimal.Decimal {
	multiplier, ok := periodsPerYear[period]
	if !ok || multiplier == 1 {
		return amount
	}
	return amount.Mul(decimal.NewFromInt(multiplier))
}
