package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

// TokenStore is an in-memory implementation of storage.TokenStore.
type TokenStore struct {
	mu   sync.RWMutex
	data map[common.Address]*domain.Token
}

// NewTokenStore creates a new in-memory token store.
func NewTokenStore() *TokenStore {
	return &TokenStore{
		data: make(map[common.Address]*domain.Token),
	}
}

// Upsert inserts or replaces a token.
func (s *TokenStore) Upsert(_ context.Context, t *domain.Token) error {
	if t == nil || t.ID == (common.Address{}) {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tokenCopy := *t
	s.data[t.ID] = &tokenCopy
	return nil
}

// GetByID retrieves a token by address. Returns ErrNotFound if not exists.
func (s *TokenStore) GetByID(_ context.Context, id common.Address) (*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	tokenCopy := *t
	return &tokenCopy, nil
}

// GetAll retrieves all tokens ordered by address.
func (s *TokenStore) GetAll(_ context.Context) ([]*domain.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Token, 0, len(s.data))
	for _, t := range s.data {
		tokenCopy := *t
		result = append(result, &tokenCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].ID.Bytes(), result[j].ID.Bytes()) < 0
	})

	return result, nil
}

// UpdateDerivedETH sets the derived price. Returns ErrNotFound if not exists.
func (s *TokenStore) UpdateDerivedETH(_ context.Context, id common.Address, derivedETH decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}

	t.DerivedETH = derivedETH
	return nil
}

var _ storage.TokenStore = (*TokenStore)(nil)
