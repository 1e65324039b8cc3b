package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

// TokenStore implements storage.TokenStore using PostgreSQL.
type TokenStore struct {
	pool *Pool
}

// NewTokenStore creates a new TokenStore.
func NewTokenStore(pool *Pool) *TokenStore {
	return &TokenStore{pool: pool}
}

// Compile-time interface check.
var _ storage.TokenStore = (*TokenStore)(nil)

// Upsert inserts or replaces a token.
func (s *TokenStore) Upsert(ctx context.Context, t *domain.Token) (err error) {
	if t == nil || t.ID == (common.Address{}) {
		return storage.ErrInvalidInput
	}
	defer observe("upsert_token")(&err)

	query := `
		INSERT INTO tokens (id, symbol, name, decimals, derived_eth, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			symbol = EXCLUDED.symbol,
			name = EXCLUDED.name,
			decimals = EXCLUDED.decimals,
			derived_eth = EXCLUDED.derived_eth,
			updated_at = EXCLUDED.updated_at
	`

	_, err = s.pool.Exec(ctx, query,
		t.ID,
		t.Symbol,
		t.Name,
		t.Decimals,
		t.DerivedETH,
		t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// GetByID retrieves a token by address. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByID(ctx context.Context, id common.Address) (_ *domain.Token, err error) {
	defer observe("get_token")(&err)

	query := `
		SELECT id, symbol, name, decimals, derived_eth, updated_at
		FROM tokens
		WHERE id = $1
	`

	row := s.pool.QueryRow(ctx, query, id)
	t, err := scanToken(row)
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get token by id: %w", err)
	}
	return t, nil
}

// GetAll retrieves all tokens ordered by address.
func (s *TokenStore) GetAll(ctx context.Context) ([]*domain.Token, error) {
	query := `
		SELECT id, symbol, name, decimals, derived_eth, updated_at
		FROM tokens
		ORDER BY id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query tokens: %w", err)
	}
	defer rows.Close()

	var tokens []*domain.Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan token: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tokens: %w", err)
	}

	return tokens, nil
}

// UpdateDerivedETH sets the derived price. Returns ErrNotFound if not exists.
func (s *TokenStore) UpdateDerivedETH(ctx context.Context, id common.Address, derivedETH decimal.Decimal) (err error) {
	defer observe("update_token_price")(&err)

	tag, err := s.pool.Exec(ctx, `
		UPDATE tokens SET derived_eth = $2, updated_at = $3 WHERE id = $1
	`, id, derivedETH, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("update derived eth: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanToken scans a single row into Token.
func scanToken(row pgx.Row) (*domain.Token, error) {
	var t domain.Token

	err := row.Scan(
		&t.ID,
		&t.Symbol,
		&t.Name,
		&t.Decimals,
		&t.DerivedETH,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &t, nil
}
