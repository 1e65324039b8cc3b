package memory

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

func TestSwapStore_InsertDuplicate(t *testing.T) {
	store := NewSwapStore()
	ctx := context.Background()

	swap := &domain.Swap{Pair: common.HexToAddress("0xab"), TxHash: common.HexToHash("0x01"), LogIndex: 2}
	require.NoError(t, store.Insert(ctx, swap))
	assert.ErrorIs(t, store.Insert(ctx, swap), storage.ErrDuplicateKey)
	assert.ErrorIs(t, store.Insert(ctx, &domain.Swap{}), storage.ErrInvalidInput)
}

func TestSwapStore_GetByPairOrdered(t *testing.T) {
	store := NewSwapStore()
	ctx := context.Background()
	pair := common.HexToAddress("0xab")
	other := common.HexToAddress("0xcd")

	swaps := []*domain.Swap{
		{Pair: pair, TxHash: common.HexToHash("0x03"), BlockNumber: 20, LogIndex: 0},
		{Pair: pair, TxHash: common.HexToHash("0x02"), BlockNumber: 10, LogIndex: 5},
		{Pair: pair, TxHash: common.HexToHash("0x01"), BlockNumber: 10, LogIndex: 1},
		{Pair: other, TxHash: common.HexToHash("0x04"), BlockNumber: 15, LogIndex: 0},
	}
	for _, s := range swaps {
		require.NoError(t, store.Insert(ctx, s))
	}

	result, err := store.GetByPair(ctx, pair)
	require.NoError(t, err)
	require.Len(t, result, 3)
	assert.Equal(t, common.HexToHash("0x01"), result[0].TxHash)
	assert.Equal(t, common.HexToHash("0x02"), result[1].TxHash)
	assert.Equal(t, common.HexToHash("0x03"), result[2].TxHash)

	ranged, err := store.GetByBlockRange(ctx, pair, 11, 20)
	require.NoError(t, err)
	require.Len(t, ranged, 1)
	assert.Equal(t, int64(20), ranged[0].BlockNumber)
}

func TestPriceSnapshotStore_InsertBulk(t *testing.T) {
	store := NewPriceSnapshotStore()
	ctx := context.Background()

	snaps := []*domain.PriceSnapshot{
		{RunID: "run-1", Kind: domain.SnapshotKindToken, Entity: common.HexToAddress("0x02")},
		{RunID: "run-1", Kind: domain.SnapshotKindPair, Entity: common.HexToAddress("0x01")},
		{RunID: "run-1", Kind: domain.SnapshotKindToken, Entity: common.HexToAddress("0x01")},
	}
	require.NoError(t, store.InsertBulk(ctx, snaps))

	// Whole batch rejected on a duplicate
	err := store.InsertBulk(ctx, []*domain.PriceSnapshot{
		{RunID: "run-2", Kind: domain.SnapshotKindToken, Entity: common.HexToAddress("0x09")},
		snaps[0],
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)

	run2, err := store.GetByRun(ctx, "run-2")
	require.NoError(t, err)
	assert.Empty(t, run2)

	run1, err := store.GetByRun(ctx, "run-1")
	require.NoError(t, err)
	require.Len(t, run1, 3)
	assert.Equal(t, domain.SnapshotKindPair, run1[0].Kind)
	assert.Equal(t, common.HexToAddress("0x01"), run1[1].Entity)
	assert.Equal(t, common.HexToAddress("0x02"), run1[2].Entity)
}
