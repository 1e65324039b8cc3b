package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Swap represents a trade executed against a pair.
// Corresponds to swaps table in PostgreSQL.
type Swap struct {
	ID          int64          // BIGSERIAL primary key
	Pair        common.Address // FK to pairs
	TxHash      common.Hash    // transaction hash
	LogIndex    int            // index of the log within the transaction
	BlockNumber int64
	Timestamp   int64 // Unix timestamp in milliseconds

	Amount0In  decimal.Decimal
	Amount1In  decimal.Decimal
	Amount0Out decimal.Decimal
	Amount1Out decimal.Decimal
}

// Amount0 returns the total token0 leg of the swap (in + out).
func (s *Swap) Amount0() decimal.Decimal {
	return s.Amount0In.Add(s.Amount0Out)
}

// Amount1 returns the total token1 leg of the swap (in + out).
func (s *Swap) Amount1() decimal.Decimal {
	return s.Amount1In.Add(s.Amount1Out)
}
