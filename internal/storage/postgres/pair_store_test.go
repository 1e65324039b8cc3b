package postgres

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

func TestPairStore_UpsertAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	want := seedPair(t, ctx, pool, addrPair, addrUSDT, addrWTRX, "1100", "1")

	got, err := NewPairStore(pool).GetByID(ctx, addrPair)
	require.NoError(t, err)
	assert.Equal(t, addrUSDT, got.Token0)
	assert.Equal(t, addrWTRX, got.Token1)
	assert.True(t, got.Reserve0.Equal(dec("1100")))
	assert.True(t, got.Reserve1.Equal(dec("1")))
	assert.True(t, got.Token0Price.Equal(want.Token0Price))
	assert.True(t, got.Token1Price.Equal(want.Token1Price), "got %s", got.Token1Price)
	assert.Equal(t, int64(3), got.LiquidityProviderCount)
}

func TestPairStore_GetPair_Unordered(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedPair(t, ctx, pool, addrPair, addrUSDT, addrWTRX, "1100", "1")
	store := NewPairStore(pool)

	id, err := store.GetPair(ctx, addrUSDT, addrWTRX)
	require.NoError(t, err)
	assert.Equal(t, addrPair, id)

	id, err = store.GetPair(ctx, addrWTRX, addrUSDT)
	require.NoError(t, err)
	assert.Equal(t, addrPair, id)

	id, err = store.GetPair(ctx, addrX, addrWTRX)
	require.NoError(t, err)
	assert.Equal(t, common.Address{}, id)
}

func TestPairStore_Upsert_SameTokens(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	err := NewPairStore(pool).Upsert(context.Background(), &domain.Pair{
		ID: addrPair, Token0: addrX, Token1: addrX,
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestPairStore_Upsert_UnknownToken(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	err := NewPairStore(pool).Upsert(context.Background(), &domain.Pair{
		ID: addrPair, Token0: addrX, Token1: addrWTRX,
	})
	assert.ErrorIs(t, err, storage.ErrInvalidInput)
}

func TestPairStore_UpdateValuation(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedPair(t, ctx, pool, addrPair, addrUSDT, addrWTRX, "1100", "1")
	store := NewPairStore(pool)

	require.NoError(t, store.UpdateValuation(ctx, addrPair, dec("2"), dec("2200"), dec("2")))

	got, err := store.GetByID(ctx, addrPair)
	require.NoError(t, err)
	assert.True(t, got.ReserveETH.Equal(dec("2")))
	assert.True(t, got.ReserveUSD.Equal(dec("2200")))
	assert.True(t, got.TrackedReserveETH.Equal(dec("2")))

	err = store.UpdateValuation(ctx, addrXW, dec("1"), dec("1"), dec("1"))
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestPairStore_GetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	seedPair(t, ctx, pool, addrPair, addrUSDT, addrWTRX, "1100", "1")
	seedPair(t, ctx, pool, addrXW, addrX, addrWTRX, "2000000", "1000")

	pairs, err := NewPairStore(pool).GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, pairs, 2)
	assert.Equal(t, addrXW, pairs[0].ID)
	assert.Equal(t, addrPair, pairs[1].ID)
}

func TestBundleStore_PutAndGet(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	ctx := context.Background()
	store := NewBundleStore(pool)

	_, err := store.Get(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, store.Put(ctx, &domain.Bundle{ETHPrice: dec("1100"), UpdatedAt: 5}))
	require.NoError(t, store.Put(ctx, &domain.Bundle{ETHPrice: dec("1200"), UpdatedAt: 6}))

	got, err := store.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.BundleID, got.ID)
	assert.True(t, got.ETHPrice.Equal(dec("1200")))
	assert.Equal(t, int64(6), got.UpdatedAt)
}
