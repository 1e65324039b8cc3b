package domain

import "github.com/shopspring/decimal"

// BundleID is the fixed key of the singleton Bundle.
const BundleID = "1"

// Bundle holds the USD price of one unit of base currency.
type Bundle struct {
	ID        string
	ETHPrice  decimal.Decimal
	UpdatedAt int64 // last update timestamp (ms)
}
