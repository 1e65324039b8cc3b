package memory

import (
	"context"
	"sync"

	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

// BundleStore is an in-memory implementation of storage.BundleStore.
type BundleStore struct {
	mu     sync.RWMutex
	bundle *domain.Bundle
}

// NewBundleStore creates a new in-memory bundle store with no bundle.
func NewBundleStore() *BundleStore {
	return &BundleStore{}
}

// Get retrieves the bundle. Returns ErrNotFound if not exists.
func (s *BundleStore) Get(_ context.Context) (*domain.Bundle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.bundle == nil {
		return nil, storage.ErrNotFound
	}

	bundleCopy := *s.bundle
	return &bundleCopy, nil
}

// Put inserts or replaces the bundle.
func (s *BundleStore) Put(_ context.Context, b *domain.Bundle) error {
	if b == nil {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bundleCopy := *b
	bundleCopy.ID = domain.BundleID
	s.bundle = &bundleCopy
	return nil
}

var _ storage.BundleStore = (*BundleStore)(nil)
