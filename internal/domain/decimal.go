package domain

import "github.com/shopspring/decimal"

// Common decimal constants.
var (
	ZeroBD = decimal.Zero
	OneBD  = decimal.NewFromInt(1)
	TwoBD  = decimal.NewFromInt(2)
)

// divisionPrecision bounds the scale of non-terminating quotients.
const divisionPrecision = 36

// SafeDiv returns a / b, or zero when b is zero.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.DivRound(b, divisionPrecision)
}
