// Package money holds the Ghana tax-rate table and the cent rounding every
// invoice total goes through.
package money

import (
	"math"

	"github.com/shopspring/decimal"
)

// Ghana tax rates applied to tax-inclusive prices
const (
	VATRate     = 0.15
	NHILRate    = 0.025
	GetFundRate = 0.025

	// CombinedTaxRate is VAT + NHIL + GetFund (20%)
	CombinedTaxRate = VATRate + NHILRate + GetFundRate
)

var half = decimal.NewFromFloat(0.5)

// Round rounds x to the nearest cent as floor(x*100 + 0.5) / 100.
// The scaled value is taken from the float product x*100, so inputs such as
// 1.005 (stored as 1.00499...) round down exactly like the stored data does.
func Round(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	cents := decimal.NewFromFloat(x * 100).Add(half).Floor()
	return cents.InexactFloat64() / 100
}

// Format renders an amount with two decimal places
func Format(x float64) string {
	return decimal.NewFromFloat(x).StringFixed(2)
}

// IsFinite reports whether x is neither NaN nor infinite
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
