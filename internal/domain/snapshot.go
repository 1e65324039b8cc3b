package domain

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

// Snapshot kinds
const (
	SnapshotKindToken = "token"
	SnapshotKindPair  = "pair"
)

// PriceSnapshot is one computed pricing result recorded by a repricing run.
// Corresponds to price_snapshots table in ClickHouse.
type PriceSnapshot struct {
	RunID       string         // repricing run identifier
	Kind        string         // "token" | "pair"
	Entity      common.Address // token or pair address
	TimestampMs int64
	ETHPrice    decimal.Decimal // bundle price at run time
	DerivedETH  decimal.Decimal // tokens only
	ReserveUSD  decimal.Decimal // pairs only
	TrackedUSD  decimal.Decimal // pairs only: tracked liquidity in USD
	VolumeUSD   decimal.Decimal // pairs only: tracked volume attributed in this run
}
