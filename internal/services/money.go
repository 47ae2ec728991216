package services

import "github.com/shopspring/decimal"

var centsPerUnit = decimal.NewFromInt(100)

// MinorUnits converts a major-unit amount (euros) to minor units (cents),
// rounding half away from zero. 49.99 becomes 4999.
func MinorUnits(amount decimal.Decimal) int64 {
	return amount.Mul(centsPerUnit).Round(0).IntPart()
}
