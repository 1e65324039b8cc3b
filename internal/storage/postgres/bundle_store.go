package postgres

import (
	"context"
	"fmt"

	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

// BundleStore implements storage.BundleStore using PostgreSQL.
type BundleStore struct {
	pool *Pool
}

// NewBundleStore creates a new BundleStore.
func NewBundleStore(pool *Pool) *BundleStore {
	return &BundleStore{pool: pool}
}

// Compile-time interface check.
var _ storage.BundleStore = (*BundleStore)(nil)

// Get retrieves the bundle. Returns ErrNotFound if not exists.
func (s *BundleStore) Get(ctx context.Context) (_ *domain.Bundle, err error) {
	defer observe("get_bundle")(&err)

	var b domain.Bundle
	err = s.pool.QueryRow(ctx, `
		SELECT id, eth_price, updated_at FROM bundles WHERE id = $1
	`, domain.BundleID).Scan(&b.ID, &b.ETHPrice, &b.UpdatedAt)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get bundle: %w", err)
	}
	return &b, nil
}

// Put inserts or replaces the bundle.
func (s *BundleStore) Put(ctx context.Context, b *domain.Bundle) (err error) {
	if b == nil {
		return storage.ErrInvalidInput
	}
	defer observe("put_bundle")(&err)

	_, err = s.pool.Exec(ctx, `
		INSERT INTO bundles (id, eth_price, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			eth_price = EXCLUDED.eth_price,
			updated_at = EXCLUDED.updated_at
	`, domain.BundleID, b.ETHPrice, b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("put bundle: %w", err)
	}
	return nil
}
