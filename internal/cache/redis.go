package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"amm-pricing/internal/domain"
)

const (
	bundleKey      = "amm:bundle"
	tokenKeyPrefix = "amm:token:"
)

// ErrMiss is returned when a key is not cached.
var ErrMiss = errors.New("cache miss")

// RedisCache publishes the bundle and derived token prices to Redis so
// downstream readers do not query the entity store.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
	// TTL of published keys. Zero keeps them until the next run overwrites them.
	TTL time.Duration
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, opts Options) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client, ttl: opts.TTL}, nil
}

// Close closes the client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

type cachedBundle struct {
	ETHPrice  decimal.Decimal `json:"eth_price"`
	UpdatedAt int64           `json:"updated_at"`
}

type cachedToken struct {
	Symbol     string          `json:"symbol"`
	DerivedETH decimal.Decimal `json:"derived_eth"`
	UpdatedAt  int64           `json:"updated_at"`
}

func tokenKey(id common.Address) string {
	return tokenKeyPrefix + hexutil.Encode(id.Bytes())
}

// PublishBundle stores the current base-currency USD price.
func (c *RedisCache) PublishBundle(ctx context.Context, b *domain.Bundle) error {
	if b == nil {
		return nil
	}
	data, err := json.Marshal(cachedBundle{ETHPrice: b.ETHPrice, UpdatedAt: b.UpdatedAt})
	if err != nil {
		return fmt.Errorf("marshal bundle: %w", err)
	}
	if err := c.client.Set(ctx, bundleKey, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set bundle: %w", err)
	}
	return nil
}

// PublishTokens stores derived prices of all tokens in one transaction.
func (c *RedisCache) PublishTokens(ctx context.Context, tokens []*domain.Token) error {
	if len(tokens) == 0 {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, t := range tokens {
			data, err := json.Marshal(cachedToken{Symbol: t.Symbol, DerivedETH: t.DerivedETH, UpdatedAt: t.UpdatedAt})
			if err != nil {
				return fmt.Errorf("marshal token %s: %w", t.ID.Hex(), err)
			}
			pipe.Set(ctx, tokenKey(t.ID), data, c.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("publish tokens: %w", err)
	}
	return nil
}

// Bundle returns the published bundle or ErrMiss.
func (c *RedisCache) Bundle(ctx context.Context) (*domain.Bundle, error) {
	data, err := c.client.Get(ctx, bundleKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, fmt.Errorf("get bundle: %w", err)
	}

	var cb cachedBundle
	if err := json.Unmarshal(data, &cb); err != nil {
		return nil, fmt.Errorf("unmarshal bundle: %w", err)
	}
	return &domain.Bundle{ID: domain.BundleID, ETHPrice: cb.ETHPrice, UpdatedAt: cb.UpdatedAt}, nil
}

// TokenPrice returns the published derived price of a token or ErrMiss.
func (c *RedisCache) TokenPrice(ctx context.Context, id common.Address) (decimal.Decimal, error) {
	data, err := c.client.Get(ctx, tokenKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return decimal.Zero, ErrMiss
		}
		return decimal.Zero, fmt.Errorf("get token %s: %w", id.Hex(), err)
	}

	var ct cachedToken
	if err := json.Unmarshal(data, &ct); err != nil {
		return decimal.Zero, fmt.Errorf("unmarshal token %s: %w", id.Hex(), err)
	}
	return ct.DerivedETH, nil
}

// TokenPricesUSD returns USD prices of the given tokens, skipping misses.
// Uses the published bundle, so both values come from the same run.
func (c *RedisCache) TokenPricesUSD(ctx context.Context, ids []common.Address) (map[common.Address]decimal.Decimal, error) {
	bundle, err := c.Bundle(ctx)
	if err != nil {
		return nil, err
	}

	pipe := c.client.Pipeline()
	cmds := make([]*redis.StringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.Get(ctx, tokenKey(id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("get token prices: %w", err)
	}

	result := make(map[common.Address]decimal.Decimal, len(ids))
	for i, cmd := range cmds {
		data, err := cmd.Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("get token %s: %w", ids[i].Hex(), err)
		}
		var ct cachedToken
		if err := json.Unmarshal(data, &ct); err != nil {
			return nil, fmt.Errorf("unmarshal token %s: %w", ids[i].Hex(), err)
		}
		result[ids[i]] = ct.DerivedETH.Mul(bundle.ETHPrice)
	}
	return result, nil
}
