package types

import "github.com/shopspring/decimal"

// DollarsFromCents renders an integer cent amount as a decimal dollar string
// with exactly two fraction digits. Storage stays in cents; only response
// DTOs carry the formatted value.
func DollarsFromCents(cents int) string {
	return decimal.NewFromInt(int64(cents)).Div(decimal.NewFromInt(100)).StringFixed(2)
}

// CentsLineTotal multiplies a unit price by a quantity without overflow for
// any realistic cart size.
func CentsLineTotal(unitPriceCents, qty int) int {
	return int(decimal.NewFromInt(int64(unitPriceCents)).Mul(decimal.NewFromInt(int64(qty))).IntPart())
}
