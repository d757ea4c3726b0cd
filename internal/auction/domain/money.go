package domain

import "github.com/shopspring/decimal"

const monetaryPrecision int32 = 2

// AmountExceeds reports whether a is strictly greater than b, comparing with
// decimal arithmetic at monetary precision to avoid floating-point noise.
func AmountExceeds(a, b float64) bool {
	return decimal.NewFromFloat(a).Round(monetaryPrecision).
		GreaterThan(decimal.NewFromFloat(b).Round(monetaryPrecision))
}

// MeetsFloor reports whether amount meets or exceeds floor.
func MeetsFloor(amount, floor float64) bool {
	return decimal.NewFromFloat(amount).Round(monetaryPrecision).
		GreaterThanOrEqual(decimal.NewFromFloat(floor).Round(monetaryPrecision))
}
