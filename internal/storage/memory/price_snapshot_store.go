package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

type snapshotKey struct {
	runID  string
	kind   string
	entity common.Address
}

// PriceSnapshotStore is an in-memory implementation of storage.PriceSnapshotStore.
type PriceSnapshotStore struct {
	mu   sync.RWMutex
	data map[snapshotKey]*domain.PriceSnapshot
}

// NewPriceSnapshotStore creates a new in-memory snapshot store.
func NewPriceSnapshotStore() *PriceSnapshotStore {
	return &PriceSnapshotStore{
		data: make(map[snapshotKey]*domain.PriceSnapshot),
	}
}

// InsertBulk appends snapshots atomically. Fails entire batch on any duplicate.
func (s *PriceSnapshotStore) InsertBulk(_ context.Context, snapshots []*domain.PriceSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batchKeys := make(map[snapshotKey]struct{}, len(snapshots))
	for _, snap := range snapshots {
		if snap == nil || snap.RunID == "" {
			return storage.ErrInvalidInput
		}
		key := snapshotKey{snap.RunID, snap.Kind, snap.Entity}
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batchKeys[key]; exists {
			return storage.ErrDuplicateKey
		}
		batchKeys[key] = struct{}{}
	}

	for _, snap := range snapshots {
		snapCopy := *snap
		s.data[snapshotKey{snap.RunID, snap.Kind, snap.Entity}] = &snapCopy
	}

	return nil
}

// GetByRun retrieves all snapshots of a run, ordered by (kind, entity).
func (s *PriceSnapshotStore) GetByRun(_ context.Context, runID string) ([]*domain.PriceSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.PriceSnapshot
	for _, snap := range s.data {
		if snap.RunID == runID {
			snapCopy := *snap
			result = append(result, &snapCopy)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Kind != result[j].Kind {
			return result[i].Kind < result[j].Kind
		}
		return bytes.Compare(result[i].Entity.Bytes(), result[j].Entity.Bytes()) < 0
	})

	return result, nil
}

var _ storage.PriceSnapshotStore = (*PriceSnapshotStore)(nil)
