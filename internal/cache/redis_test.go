package cache

import (
	"context"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"amm-pricing/internal/domain"
)

func setupRedis(t *testing.T) (*RedisCache, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor: wait.ForLog("Ready to accept connections").
				WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	c, err := NewRedisCache(ctx, Options{Addr: endpoint})
	require.NoError(t, err)

	return c, func() {
		c.Close()
		_ = container.Terminate(ctx)
	}
}

var (
	tokenW = common.HexToAddress("0x891cdb91d149f23b1a45d9c5ca78a88d0cb44c18")
	tokenU = common.HexToAddress("0xa614f803b6fd780986a42c78ec9c7f77e6ded13c")
	tokenX = common.HexToAddress("0x00000000000000000000000000000000000000aa")
)

func TestRedisCache_PublishAndRead(t *testing.T) {
	c, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()

	_, err := c.Bundle(ctx)
	assert.ErrorIs(t, err, ErrMiss)

	require.NoError(t, c.PublishBundle(ctx, &domain.Bundle{ID: domain.BundleID, ETHPrice: decimal.NewFromInt(1100), UpdatedAt: 7}))
	require.NoError(t, c.PublishTokens(ctx, []*domain.Token{
		{ID: tokenW, Symbol: "WTRX", DerivedETH: decimal.NewFromInt(1)},
		{ID: tokenU, Symbol: "USDT", DerivedETH: decimal.RequireFromString("0.0005")},
	}))

	b, err := c.Bundle(ctx)
	require.NoError(t, err)
	assert.True(t, b.ETHPrice.Equal(decimal.NewFromInt(1100)))
	assert.Equal(t, int64(7), b.UpdatedAt)

	price, err := c.TokenPrice(ctx, tokenU)
	require.NoError(t, err)
	assert.True(t, price.Equal(decimal.RequireFromString("0.0005")))

	_, err = c.TokenPrice(ctx, tokenX)
	assert.ErrorIs(t, err, ErrMiss)

	usd, err := c.TokenPricesUSD(ctx, []common.Address{tokenW, tokenU, tokenX})
	require.NoError(t, err)
	require.Len(t, usd, 2)
	assert.True(t, usd[tokenW].Equal(decimal.NewFromInt(1100)))
	assert.True(t, usd[tokenU].Equal(decimal.RequireFromString("0.55")))
}

func TestRedisCache_TTL(t *testing.T) {
	c, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()
	c.ttl = time.Minute

	require.NoError(t, c.PublishBundle(ctx, &domain.Bundle{ETHPrice: decimal.NewFromInt(1)}))

	ttl, err := c.client.TTL(ctx, bundleKey).Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)
}

func TestTokenKey(t *testing.T) {
	assert.Equal(t, "amm:token:0xa614f803b6fd780986a42c78ec9c7f77e6ded13c", tokenKey(tokenU))
}

func TestRedisCache_TokenPricesUSD_CorruptEntry(t *testing.T) {
	c, cleanup := setupRedis(t)
	defer cleanup()

	ctx := context.Background()

	require.NoError(t, c.PublishBundle(ctx, &domain.Bundle{ETHPrice: decimal.NewFromInt(1100)}))
	require.NoError(t, c.PublishTokens(ctx, []*domain.Token{{ID: tokenW, DerivedETH: decimal.NewFromInt(1)}}))
	require.NoError(t, c.client.Set(ctx, tokenKey(tokenU), "{not json", 0).Err())

	_, err := c.TokenPricesUSD(ctx, []common.Address{tokenW, tokenU, tokenX})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unmarshal token "+tokenU.Hex())
	assert.NotErrorIs(t, err, ErrMiss)
}
