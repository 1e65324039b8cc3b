package postgres

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"

	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

// SwapStore implements storage.SwapStore using PostgreSQL.
type SwapStore struct {
	pool *Pool
}

// NewSwapStore creates a new SwapStore.
func NewSwapStore(pool *Pool) *SwapStore {
	return &SwapStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SwapStore = (*SwapStore)(nil)

// Insert adds a new swap. Returns ErrDuplicateKey if (tx_hash, log_index) exists.
func (s *SwapStore) Insert(ctx context.Context, sw *domain.Swap) (err error) {
	if sw == nil || sw.Pair == (common.Address{}) {
		return storage.ErrInvalidInput
	}
	defer observe("insert_swap")(&err)

	query := `
		INSERT INTO swaps (
			pair_id, tx_hash, log_index, block_number, timestamp,
			amount0_in, amount1_in, amount0_out, amount1_out
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = s.pool.Exec(ctx, query,
		sw.Pair,
		sw.TxHash,
		sw.LogIndex,
		sw.BlockNumber,
		sw.Timestamp,
		sw.Amount0In,
		sw.Amount1In,
		sw.Amount0Out,
		sw.Amount1Out,
	)
	if err != nil {
		if isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		if isConstraintError(err) {
			return storage.ErrInvalidInput
		}
		return fmt.Errorf("insert swap: %w", err)
	}
	return nil
}

// GetByPair retrieves all swaps of a pair, ordered by (block_number, log_index) ASC.
func (s *SwapStore) GetByPair(ctx context.Context, pair common.Address) ([]*domain.Swap, error) {
	query := `
		SELECT id, pair_id, tx_hash, log_index, block_number, timestamp,
			amount0_in, amount1_in, amount0_out, amount1_out
		FROM swaps
		WHERE pair_id = $1
		ORDER BY block_number ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, pair)
	if err != nil {
		return nil, fmt.Errorf("query swaps by pair: %w", err)
	}
	defer rows.Close()

	return scanSwaps(rows)
}

// GetByBlockRange retrieves swaps of a pair within [from, to] (inclusive).
func (s *SwapStore) GetByBlockRange(ctx context.Context, pair common.Address, from, to int64) ([]*domain.Swap, error) {
	query := `
		SELECT id, pair_id, tx_hash, log_index, block_number, timestamp,
			amount0_in, amount1_in, amount0_out, amount1_out
		FROM swaps
		WHERE pair_id = $1 AND block_number >= $2 AND block_number <= $3
		ORDER BY block_number ASC, log_index ASC
	`

	rows, err := s.pool.Query(ctx, query, pair, from, to)
	if err != nil {
		return nil, fmt.Errorf("query swaps by block range: %w", err)
	}
	defer rows.Close()

	return scanSwaps(rows)
}

// scanSwaps scans multiple rows into Swaps.
func scanSwaps(rows pgx.Rows) ([]*domain.Swap, error) {
	var swaps []*domain.Swap

	for rows.Next() {
		var sw domain.Swap
		err := rows.Scan(
			&sw.ID,
			&sw.Pair,
			&sw.TxHash,
			&sw.LogIndex,
			&sw.BlockNumber,
			&sw.Timestamp,
			&sw.Amount0In,
			&sw.Amount1In,
			&sw.Amount0Out,
			&sw.Amount1Out,
		)
		if err != nil {
			return nil, fmt.Errorf("scan swap: %w", err)
		}
		swaps = append(swaps, &sw)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate swaps: %w", err)
	}

	return swaps, nil
}
