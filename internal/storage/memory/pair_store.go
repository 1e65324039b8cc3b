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

// tokenKey is an order-independent key of two tokens.
type tokenKey struct {
	lo, hi common.Address
}

// sortTokens orders two tokens the way the factory does.
func sortTokens(a, b common.Address) tokenKey {
	if bytes.Compare(a.Bytes(), b.Bytes()) > 0 {
		a, b = b, a
	}
	return tokenKey{lo: a, hi: b}
}

// PairStore is an in-memory implementation of storage.PairStore.
// It doubles as the pair factory by indexing pairs by their tokens.
type PairStore struct {
	mu       sync.RWMutex
	data     map[common.Address]*domain.Pair // keyed by pair address
	byTokens map[tokenKey]common.Address     // unordered token pair -> pair address
}

// NewPairStore creates a new in-memory pair store.
func NewPairStore() *PairStore {
	return &PairStore{
		data:     make(map[common.Address]*domain.Pair),
		byTokens: make(map[tokenKey]common.Address),
	}
}

// Upsert inserts or replaces a pair. Returns ErrInvalidInput if both tokens are equal.
func (s *PairStore) Upsert(_ context.Context, p *domain.Pair) error {
	if p == nil || p.ID == (common.Address{}) || p.Token0 == p.Token1 {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, exists := s.data[p.ID]; exists {
		delete(s.byTokens, sortTokens(prev.Token0, prev.Token1))
	}

	pairCopy := *p
	s.data[p.ID] = &pairCopy
	s.byTokens[sortTokens(p.Token0, p.Token1)] = p.ID
	return nil
}

// GetPair returns the pair address for an unordered token pair, or the zero address.
func (s *PairStore) GetPair(_ context.Context, tokenA, tokenB common.Address) (common.Address, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byTokens[sortTokens(tokenA, tokenB)], nil
}

// GetByID retrieves a pair by address. Returns ErrNotFound if not exists.
func (s *PairStore) GetByID(_ context.Context, id common.Address) (*domain.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, exists := s.data[id]
	if !exists {
		return nil, storage.ErrNotFound
	}

	pairCopy := *p
	return &pairCopy, nil
}

// GetAll retrieves all pairs ordered by address.
func (s *PairStore) GetAll(_ context.Context) ([]*domain.Pair, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Pair, 0, len(s.data))
	for _, p := range s.data {
		pairCopy := *p
		result = append(result, &pairCopy)
	}

	sort.Slice(result, func(i, j int) bool {
		return bytes.Compare(result[i].ID.Bytes(), result[j].ID.Bytes()) < 0
	})

	return result, nil
}

// UpdateValuation sets the pair's derived reserve values. Returns ErrNotFound if not exists.
func (s *PairStore) UpdateValuation(_ context.Context, id common.Address, reserveETH, reserveUSD, trackedReserveETH decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, exists := s.data[id]
	if !exists {
		return storage.ErrNotFound
	}

	p.ReserveETH = reserveETH
	p.ReserveUSD = reserveUSD
	p.TrackedReserveETH = trackedReserveETH
	return nil
}

var _ storage.PairStore = (*PairStore)(nil)
