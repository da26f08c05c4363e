package util

import "github.com/shopspring/decimal"

// Round2 rounds half away from zero to two decimal places.
func Round2(f float64) float64 {
	return decimal.NewFromFloat(f).Round(2).InexactFloat64()
}
