package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"amm-pricing/internal/cache"
	"amm-pricing/internal/fixtures"
	"amm-pricing/internal/reprice"
	"amm-pricing/internal/storage"
	chstore "amm-pricing/internal/storage/clickhouse"
	"amm-pricing/internal/storage/memory"
	"amm-pricing/internal/storage/migrations"
	pgstore "amm-pricing/internal/storage/postgres"
)

type storeOptions struct {
	postgresDSN   string
	clickhouseDSN string
	redisAddr     string
	redisPassword string
	redisDB       int
	redisTTL      time.Duration
	useFixtures   bool
	fixtureFile   string
	migrate       bool
}

// allStores holds the stores and outputs the runner needs.
type allStores struct {
	tokens    storage.TokenStore
	pairs     storage.PairStore
	bundle    storage.BundleStore
	swaps     storage.SwapStore
	snapshots storage.PriceSnapshotStore // nil without ClickHouse in database mode
	publisher reprice.Publisher          // nil without Redis
}

// createStores builds memory or database stores. On error every connection
// opened so far is already closed.
func createStores(ctx context.Context, opts storeOptions, logger zerolog.Logger) (*allStores, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	stores := &allStores{}

	if opts.useFixtures {
		stores.tokens = memory.NewTokenStore()
		stores.pairs = memory.NewPairStore()
		stores.bundle = memory.NewBundleStore()
		stores.swaps = memory.NewSwapStore()
		stores.snapshots = memory.NewPriceSnapshotStore()
	} else {
		pool, err := pgstore.NewPool(ctx, opts.postgresDSN)
		if err != nil {
			return nil, func() {}, fmt.Errorf("connect to postgres: %w", err)
		}
		closers = append(closers, pool.Close)

		if opts.migrate {
			applied, err := migrations.RunPostgresMigrations(ctx, pool)
			if err != nil {
				cleanup()
				return nil, func() {}, fmt.Errorf("postgres migrations: %w", err)
			}
			logger.Info().Int("applied", applied).Msg("postgres migrations done")
		}

		stores.tokens = pgstore.NewTokenStore(pool)
		stores.pairs = pgstore.NewPairStore(pool)
		stores.bundle = pgstore.NewBundleStore(pool)
		stores.swaps = pgstore.NewSwapStore(pool)

		if opts.clickhouseDSN != "" {
			var conn *chstore.Conn
			if opts.migrate {
				conn, err = migrations.RunClickhouseMigrations(ctx, opts.clickhouseDSN)
			} else {
				conn, err = chstore.NewConn(ctx, opts.clickhouseDSN)
			}
			if err != nil {
				cleanup()
				return nil, func() {}, fmt.Errorf("connect to clickhouse: %w", err)
			}
			closers = append(closers, func() { _ = conn.Close() })
			stores.snapshots = chstore.NewPriceSnapshotStore(conn)
		}
	}

	if opts.redisAddr != "" {
		rc, err := cache.NewRedisCache(ctx, cache.Options{
			Addr:     opts.redisAddr,
			Password: opts.redisPassword,
			DB:       opts.redisDB,
			TTL:      opts.redisTTL,
		})
		if err != nil {
			cleanup()
			return nil, func() {}, fmt.Errorf("connect to redis: %w", err)
		}
		closers = append(closers, func() { _ = rc.Close() })
		stores.publisher = rc
	}

	if opts.useFixtures || opts.fixtureFile != "" {
		if err := seed(ctx, stores, opts.fixtureFile, logger); err != nil {
			cleanup()
			return nil, func() {}, err
		}
	}

	return stores, cleanup, nil
}

func seed(ctx context.Context, stores *allStores, path string, logger zerolog.Logger) error {
	var (
		g   *fixtures.Graph
		err error
	)
	if path != "" {
		g, err = fixtures.Load(path)
	} else {
		g, err = fixtures.Default()
	}
	if err != nil {
		return fmt.Errorf("load fixtures: %w", err)
	}

	if err := fixtures.Seed(ctx, g, stores.tokens, stores.pairs, stores.swaps); err != nil {
		return fmt.Errorf("seed fixtures: %w", err)
	}

	logger.Info().
		Int("tokens", len(g.Tokens)).
		Int("pairs", len(g.Pairs)).
		Int("swaps", len(g.Swaps)).
		Msg("fixtures seeded")
	return nil
}
