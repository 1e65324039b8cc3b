package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Token represents a traded asset.
// Corresponds to tokens table in PostgreSQL.
type Token struct {
	ID         common.Address  // PRIMARY KEY, token contract address
	Symbol     string          // token symbol
	Name       string          // token name
	Decimals   int             // token decimals
	DerivedETH decimal.Decimal // price of one unit in base-currency units, zero until derived
	UpdatedAt  int64           // last update timestamp (ms)
}
