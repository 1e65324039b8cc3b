package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

// PairStore implements storage.PairStore using PostgreSQL.
// GetPair resolves pairs from the same table, standing in for the factory.
type PairStore struct {
	pool *Pool
}

// NewPairStore creates a new PairStore.
func NewPairStore(pool *Pool) *PairStore {
	return &PairStore{pool: pool}
}

// Compile-time interface check.
var _ storage.PairStore = (*PairStore)(nil)

const pairColumns = `
	id, token0, token1, reserve0, reserve1, token0_price, token1_price,
	reserve_eth, reserve_usd, tracked_reserve_eth, liquidity_provider_count, updated_at
`

// Upsert inserts or replaces a pair. Returns ErrInvalidInput if both tokens are equal.
func (s *PairStore) Upsert(ctx context.Context, p *domain.Pair) (err error) {
	if p == nil || p.ID == (common.Address{}) || p.Token0 == p.Token1 {
		return storage.ErrInvalidInput
	}
	defer observe("upsert_pair")(&err)

	query := `
		INSERT INTO pairs (` + pairColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			token0 = EXCLUDED.token0,
			token1 = EXCLUDED.token1,
			reserve0 = EXCLUDED.reserve0,
			reserve1 = EXCLUDED.reserve1,
			token0_price = EXCLUDED.token0_price,
			token1_price = EXCLUDED.token1_price,
			reserve_eth = EXCLUDED.reserve_eth,
			reserve_usd = EXCLUDED.reserve_usd,
			tracked_reserve_eth = EXCLUDED.tracked_reserve_eth,
			liquidity_provider_count = EXCLUDED.liquidity_provider_count,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.pool.Exec(ctx, query,
		p.ID,
		p.Token0,
		p.Token1,
		p.Reserve0,
		p.Reserve1,
		p.Token0Price,
		p.Token1Price,
		p.ReserveETH,
		p.ReserveUSD,
		p.TrackedReserveETH,
		p.LiquidityProviderCount,
		p.UpdatedAt,
	)
	if err != nil {
		if isConstraintError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("upsert pair: %w", err)
	}
	return nil
}

// GetPair returns the pair address for an unordered token pair, or the zero address.
func (s *PairStore) GetPair(ctx context.Context, tokenA, tokenB common.Address) (_ common.Address, err error) {
	defer observe("get_pair_by_tokens")(&err)

	query := `
		SELECT id FROM pairs
		WHERE (token0 = $1 AND token1 = $2) OR (token0 = $2 AND token1 = $1)
		ORDER BY id ASC
		LIMIT 1
	`

	var id common.Address
	err = s.pool.QueryRow(ctx, query, tokenA, tokenB).Scan(&id)
	if err != nil {
		if isNotFoundError(err) {
			return common.Address{}, nil
		}
		return common.Address{}, fmt.Errorf("get pair by tokens: %w", err)
	}
	return id, nil
}

// GetByID retrieves a pair by address. Returns ErrNotFound if not exists.
func (s *PairStore) GetByID(ctx context.Context, id common.Address) (_ *domain.Pair, err error) {
	defer observe("get_pair")(&err)

	query := `SELECT ` + pairColumns + ` FROM pairs WHERE id = $1`

	p, err := scanPair(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get pair by id: %w", err)
	}
	return p, nil
}

// GetAll retrieves all pairs ordered by address.
func (s *PairStore) GetAll(ctx context.Context) ([]*domain.Pair, error) {
	query := `SELECT ` + pairColumns + ` FROM pairs ORDER BY id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer rows.Close()

	var pairs []*domain.Pair
	for rows.Next() {
		p, err := scanPair(rows)
		if err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		pairs = append(pairs, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pairs: %w", err)
	}

	return pairs, nil
}

// UpdateValuation sets the pair's derived reserve values. Returns ErrNotFound if not exists.
func (s *PairStore) UpdateValuation(ctx context.Context, id common.Address, reserveETH, reserveUSD, trackedReserveETH decimal.Decimal) (err error) {
	defer observe("update_pair_valuation")(&err)

	tag, err := s.pool.Exec(ctx, `
		UPDATE pairs
		SET reserve_eth = $2, reserve_usd = $3, tracked_reserve_eth = $4
		WHERE id = $1
	`, id, reserveETH, reserveUSD, trackedReserveETH)
	if err != nil {
		return fmt.Errorf("update pair valuation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanPair scans a single row into Pair.
func scanPair(row pgx.Row) (*domain.Pair, error) {
	var p domain.Pair

	err := row.Scan(
		&p.ID,
		&p.Token0,
		&p.Token1,
		&p.Reserve0,
		&p.Reserve1,
		&p.Token0Price,
		&p.Token1Price,
		&p.ReserveETH,
		&p.ReserveUSD,
		&p.TrackedReserveETH,
		&p.LiquidityProviderCount,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &p, nil
}
