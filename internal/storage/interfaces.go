package storage

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"amm-pricing/internal/domain"
)

// TokenStore provides access to tokens storage.
type TokenStore interface {
	// Upsert inserts or replaces a token.
	Upsert(ctx context.Context, t *domain.Token) error

	// GetByID retrieves a token by address. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id common.Address) (*domain.Token, error)

	// GetAll retrieves all tokens ordered by address.
	GetAll(ctx context.Context) ([]*domain.Token, error)

	// UpdateDerivedETH sets the derived base-currency price. Returns ErrNotFound if not exists.
	UpdateDerivedETH(ctx context.Context, id common.Address, derivedETH decimal.Decimal) error
}

// PairFactory resolves the canonical pair of two tokens.
type PairFactory interface {
	// GetPair returns the pair address for an unordered token pair,
	// or the zero address if no pair exists.
	GetPair(ctx context.Context, tokenA, tokenB common.Address) (common.Address, error)
}

// PairStore provides access to pairs storage.
type PairStore interface {
	PairFactory

	// Upsert inserts or replaces a pair. Returns ErrInvalidInput if both tokens are equal.
	Upsert(ctx context.Context, p *domain.Pair) error

	// GetByID retrieves a pair by address. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, id common.Address) (*domain.Pair, error)

	// GetAll retrieves all pairs ordered by address.
	GetAll(ctx context.Context) ([]*domain.Pair, error)

	// UpdateValuation sets ReserveETH, ReserveUSD and TrackedReserveETH. Returns ErrNotFound if not exists.
	UpdateValuation(ctx context.Context, id common.Address, reserveETH, reserveUSD, trackedReserveETH decimal.Decimal) error
}

// BundleStore provides access to the singleton bundle.
type BundleStore interface {
	// Get retrieves the bundle. Returns ErrNotFound if not exists.
	Get(ctx context.Context) (*domain.Bundle, error)

	// Put inserts or replaces the bundle.
	Put(ctx context.Context, b *domain.Bundle) error
}

// SwapStore provides access to swaps storage.
type SwapStore interface {
	// Insert adds a new swap. Returns ErrDuplicateKey if (tx_hash, log_index) exists.
	Insert(ctx context.Context, s *domain.Swap) error

	// GetByPair retrieves all swaps of a pair, ordered by (block_number, log_index) ASC.
	GetByPair(ctx context.Context, pair common.Address) ([]*domain.Swap, error)

	// GetByBlockRange retrieves swaps of a pair within [from, to] (inclusive).
	GetByBlockRange(ctx context.Context, pair common.Address, from, to int64) ([]*domain.Swap, error)
}

// PriceSnapshotStore provides access to price_snapshots storage.
type PriceSnapshotStore interface {
	// InsertBulk appends snapshots. Fails entire batch on duplicate (run_id, kind, entity).
	InsertBulk(ctx context.Context, snapshots []*domain.PriceSnapshot) error

	// GetByRun retrieves all snapshots of a run, ordered by (kind, entity).
	GetByRun(ctx context.Context, runID string) ([]*domain.PriceSnapshot, error)
}
