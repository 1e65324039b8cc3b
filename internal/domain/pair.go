package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Pair represents an AMM pool of two distinct tokens.
// Corresponds to pairs table in PostgreSQL.
type Pair struct {
	ID     common.Address // PRIMARY KEY, pool address
	Token0 common.Address // FK to tokens
	Token1 common.Address // FK to tokens

	Reserve0    decimal.Decimal
	Reserve1    decimal.Decimal
	Token0Price decimal.Decimal // reserve0 / reserve1
	Token1Price decimal.Decimal // reserve1 / reserve0

	ReserveETH        decimal.Decimal // total reserves in base-currency units
	ReserveUSD        decimal.Decimal // ReserveETH * Bundle.ETHPrice
	TrackedReserveETH decimal.Decimal // whitelist-gated reserves in base-currency units

	LiquidityProviderCount int64
	UpdatedAt              int64 // last update timestamp (ms)
}

// Other returns the counterpart of token in the pair and whether token is a member.
func (p *Pair) Other(token common.Address) (common.Address, bool) {
	switch token {
	case p.Token0:
		return p.Token1, true
	case p.Token1:
		return p.Token0, true
	default:
		return common.Address{}, false
	}
}

// SyncReserves sets the reserves and recomputes both exchange prices.
// A zero reserve yields a zero price on the side that would divide by it.
func (p *Pair) SyncReserves(reserve0, reserve1 decimal.Decimal) {
	p.Reserve0 = reserve0
	p.Reserve1 = reserve1
	p.Token0Price = SafeDiv(reserve0, reserve1)
	p.Token1Price = SafeDiv(reserve1, reserve0)
}
