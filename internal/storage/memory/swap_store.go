package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

// swapKey uniquely identifies a swap log.
type swapKey struct {
	txHash   common.Hash
	logIndex int
}

// SwapStore is an in-memory implementation of storage.SwapStore.
type SwapStore struct {
	mu   sync.RWMutex
	data map[swapKey]*domain.Swap
}

// NewSwapStore creates a new in-memory swap store.
func NewSwapStore() *SwapStore {
	return &SwapStore{
		data: make(map[swapKey]*domain.Swap),
	}
}

// Insert adds a new swap. Returns ErrDuplicateKey if exists.
func (s *SwapStore) Insert(_ context.Context, swap *domain.Swap) error {
	if swap == nil || swap.Pair == (common.Address{}) {
		return storage.ErrInvalidInput
	}

	key := swapKey{txHash: swap.TxHash, logIndex: swap.LogIndex}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[key]; exists {
		return storage.ErrDuplicateKey
	}

	swapCopy := *swap
	s.data[key] = &swapCopy
	return nil
}

// GetByPair retrieves all swaps of a pair, ordered by (block_number, log_index) ASC.
func (s *SwapStore) GetByPair(_ context.Context, pair common.Address) ([]*domain.Swap, error) {
	return s.filter(pair, func(*domain.Swap) bool { return true }), nil
}

// GetByBlockRange retrieves swaps of a pair within [from, to] (inclusive).
func (s *SwapStore) GetByBlockRange(_ context.Context, pair common.Address, from, to int64) ([]*domain.Swap, error) {
	return s.filter(pair, func(sw *domain.Swap) bool {
		return sw.BlockNumber >= from && sw.BlockNumber <= to
	}), nil
}

func (s *SwapStore) filter(pair common.Address, keep func(*domain.Swap) bool) []*domain.Swap {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Swap
	for _, swap := range s.data {
		if swap.Pair == pair && keep(swap) {
			swapCopy := *swap
			result = append(result, &swapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].BlockNumber != result[j].BlockNumber {
			return result[i].BlockNumber < result[j].BlockNumber
		}
		return result[i].LogIndex < result[j].LogIndex
	})

	return result
}

var _ storage.SwapStore = (*SwapStore)(nil)
