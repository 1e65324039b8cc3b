// Package reprice refreshes derived prices and valuations across the
// whole token/pair graph. It is the caller of the pricing core: it reads
// entities, invokes the oracle and attributor, and persists their results.
package reprice

import (
	"bytes"
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"amm-pricing/internal/config"
	"amm-pricing/internal/domain"
	"amm-pricing/internal/idhash"
	"amm-pricing/internal/observability"
	"amm-pricing/internal/pricing"
	"amm-pricing/internal/storage"
)

// Runner recomputes the bundle, token prices and pair valuations.
type Runner struct {
	tokenStore    storage.TokenStore
	pairStore     storage.PairStore
	bundleStore   storage.BundleStore
	swapStore     storage.SwapStore          // optional
	snapshotStore storage.PriceSnapshotStore // optional
	publisher     Publisher                  // optional
	oracle        *pricing.Oracle
	attributor    *pricing.Attributor
	venue         config.Venue
	strategy      pricing.Strategy
	clock         func() time.Time
	logger        zerolog.Logger
}

// Publisher receives the bundle and derived token prices after a run.
type Publisher interface {
	PublishBundle(ctx context.Context, b *domain.Bundle) error
	PublishTokens(ctx context.Context, tokens []*domain.Token) error
}

// RunnerOptions contains configuration for creating a Runner.
type RunnerOptions struct {
	TokenStore    storage.TokenStore
	PairStore     storage.PairStore
	BundleStore   storage.BundleStore
	SwapStore     storage.SwapStore          // nil skips volume attribution
	SnapshotStore storage.PriceSnapshotStore // nil skips snapshots
	Publisher     Publisher                  // nil skips publishing
	Venue         config.Venue
	Strategy      pricing.Strategy
	// EnforceThreshold enables thin-pair gating of tracked volume.
	EnforceThreshold bool
	Clock            func() time.Time
	Logger           *zerolog.Logger
}

// NewRunner creates a new repricing runner.
func NewRunner(opts RunnerOptions) *Runner {
	clock := opts.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := zerolog.Nop()
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	oracle := pricing.NewOracle(opts.TokenStore, opts.PairStore, opts.Venue).WithStrategy(opts.Strategy)
	attributor := pricing.NewAttributor(oracle.Whitelist())
	if opts.EnforceThreshold {
		attributor.WithThreshold(pricing.NewThresholdPolicy(opts.Venue.MinimumUSDThresholdNewPairs))
	}

	return &Runner{
		tokenStore:    opts.TokenStore,
		pairStore:     opts.PairStore,
		bundleStore:   opts.BundleStore,
		swapStore:     opts.SwapStore,
		snapshotStore: opts.SnapshotStore,
		publisher:     opts.Publisher,
		oracle:        oracle,
		attributor:    attributor,
		venue:         opts.Venue,
		strategy:      opts.Strategy,
		clock:         clock,
		logger:        logger.With().Str("component", "reprice").Logger(),
	}
}

// Result summarizes one repricing run.
type Result struct {
	RunID               string
	ETHPrice            decimal.Decimal
	TokensPriced        int
	TokensUnpriced      int
	PairsValued         int
	SwapsAttributed     int
	TrackedVolumeUSD    decimal.Decimal
	TrackedLiquidityUSD decimal.Decimal
}

// Run performs one full repricing pass:
//  1. Refresh Bundle.ETHPrice from the anchor pair
//  2. Derive every token's price, base and whitelist tokens first
//  3. Recompute every pair's ReserveETH, ReserveUSD and TrackedReserveETH
//  4. Attribute tracked volume of recorded swaps
//  5. Append price snapshots and publish prices
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	start := r.clock()
	result, err := r.run(ctx, start)

	status := "success"
	if err != nil {
		status = "error"
	}
	observability.RecordRun(status, time.Since(start).Seconds())

	if err != nil {
		r.logger.Error().Err(err).Msg("repricing run failed")
		return nil, err
	}

	observability.DefaultMetrics.LastSuccessfulRun.Set(float64(r.clock().Unix()))
	r.logger.Info().
		Str("run_id", result.RunID).
		Str("eth_price_usd", result.ETHPrice.String()).
		Int("tokens_priced", result.TokensPriced).
		Int("tokens_unpriced", result.TokensUnpriced).
		Int("pairs_valued", result.PairsValued).
		Int("swaps_attributed", result.SwapsAttributed).
		Str("tracked_volume_usd", result.TrackedVolumeUSD.String()).
		Str("tracked_liquidity_usd", result.TrackedLiquidityUSD.String()).
		Msg("repricing run complete")

	return result, nil
}

func (r *Runner) run(ctx context.Context, start time.Time) (*Result, error) {
	result := &Result{
		RunID:               idhash.ComputeRunID(r.venue.AnchorPair, r.strategy.String(), start.UnixMilli()),
		TrackedVolumeUSD:    decimal.Zero,
		TrackedLiquidityUSD: decimal.Zero,
	}

	// 1. Bundle
	ethPrice, err := r.oracle.EthPriceInUSD(ctx)
	if err != nil {
		return nil, fmt.Errorf("eth price: %w", err)
	}
	bundle := &domain.Bundle{ID: domain.BundleID, ETHPrice: ethPrice, UpdatedAt: start.UnixMilli()}
	if err := r.bundleStore.Put(ctx, bundle); err != nil {
		return nil, fmt.Errorf("put bundle: %w", err)
	}
	result.ETHPrice = ethPrice
	observability.DefaultMetrics.ETHPriceUSD.Set(ethPrice.InexactFloat64())

	if ethPrice.IsZero() {
		r.logger.Warn().Str("anchor_pair", r.venue.AnchorPair.Hex()).Msg("anchor pair missing or empty, USD values will be zero")
	}

	// 2. Tokens
	tokens, err := r.tokenStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list tokens: %w", err)
	}
	r.orderTokens(tokens)

	byID := make(map[common.Address]*domain.Token, len(tokens))
	var snapshots []*domain.PriceSnapshot
	for _, t := range tokens {
		q, err := r.oracle.Quote(ctx, t, bundle)
		if err != nil {
			return nil, fmt.Errorf("price token %s: %w", t.ID.Hex(), err)
		}
		if err := r.tokenStore.UpdateDerivedETH(ctx, t.ID, q.DerivedETH); err != nil {
			return nil, fmt.Errorf("update token %s: %w", t.ID.Hex(), err)
		}
		t.DerivedETH = q.DerivedETH
		byID[t.ID] = t

		observability.RecordTokenPriced(q.Found)
		if q.Found {
			result.TokensPriced++
		} else {
			result.TokensUnpriced++
			r.logger.Debug().Str("token", t.ID.Hex()).Msg("no whitelist route, price unknown")
		}

		snapshots = append(snapshots, &domain.PriceSnapshot{
			RunID:       result.RunID,
			Kind:        domain.SnapshotKindToken,
			Entity:      t.ID,
			TimestampMs: start.UnixMilli(),
			ETHPrice:    ethPrice,
			DerivedETH:  q.DerivedETH,
		})
	}

	// 3 + 4. Pairs
	pairs, err := r.pairStore.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list pairs: %w", err)
	}

	for _, p := range pairs {
		token0, token1 := byID[p.Token0], byID[p.Token1]
		if token0 == nil || token1 == nil {
			r.logger.Warn().Str("pair", p.ID.Hex()).Msg("pair references unknown token, skipping")
			continue
		}

		trackedUSD := r.valuePair(bundle, p, token0, token1)
		if err := r.pairStore.UpdateValuation(ctx, p.ID, p.ReserveETH, p.ReserveUSD, p.TrackedReserveETH); err != nil {
			return nil, fmt.Errorf("update pair %s: %w", p.ID.Hex(), err)
		}
		result.PairsValued++
		result.TrackedLiquidityUSD = result.TrackedLiquidityUSD.Add(trackedUSD)
		observability.DefaultMetrics.PairsValued.Inc()

		volumeUSD, swapCount, err := r.attributeSwaps(ctx, bundle, p, token0, token1)
		if err != nil {
			return nil, err
		}
		result.SwapsAttributed += swapCount
		result.TrackedVolumeUSD = result.TrackedVolumeUSD.Add(volumeUSD)

		snapshots = append(snapshots, &domain.PriceSnapshot{
			RunID:       result.RunID,
			Kind:        domain.SnapshotKindPair,
			Entity:      p.ID,
			TimestampMs: start.UnixMilli(),
			ETHPrice:    ethPrice,
			ReserveUSD:  p.ReserveUSD,
			TrackedUSD:  trackedUSD,
			VolumeUSD:   volumeUSD,
		})
	}

	observability.DefaultMetrics.TrackedVolumeUSD.Set(result.TrackedVolumeUSD.InexactFloat64())
	observability.DefaultMetrics.TrackedLiquidityUSD.Set(result.TrackedLiquidityUSD.InexactFloat64())

	// 5. Outputs
	if r.snapshotStore != nil {
		if err := r.snapshotStore.InsertBulk(ctx, snapshots); err != nil {
			return nil, fmt.Errorf("insert snapshots: %w", err)
		}
	}

	if r.publisher != nil {
		if err := r.publisher.PublishBundle(ctx, bundle); err != nil {
			return nil, fmt.Errorf("publish bundle: %w", err)
		}
		if err := r.publisher.PublishTokens(ctx, tokens); err != nil {
			return nil, fmt.Errorf("publish tokens: %w", err)
		}
	}

	return result, nil
}

// valuePair sets the pair's reserve valuation in place and returns its
// tracked liquidity in USD.
func (r *Runner) valuePair(bundle *domain.Bundle, p *domain.Pair, token0, token1 *domain.Token) decimal.Decimal {
	p.ReserveETH = p.Reserve0.Mul(token0.DerivedETH).Add(p.Reserve1.Mul(token1.DerivedETH))
	p.ReserveUSD = p.ReserveETH.Mul(bundle.ETHPrice)

	trackedUSD := r.attributor.TrackedLiquidityUSD(bundle, p.Reserve0, token0, p.Reserve1, token1)
	p.TrackedReserveETH = domain.SafeDiv(trackedUSD, bundle.ETHPrice)
	return trackedUSD
}

// attributeSwaps sums the tracked USD volume of the pair's recorded swaps.
func (r *Runner) attributeSwaps(ctx context.Context, bundle *domain.Bundle, p *domain.Pair, token0, token1 *domain.Token) (decimal.Decimal, int, error) {
	if r.swapStore == nil {
		return decimal.Zero, 0, nil
	}

	swaps, err := r.swapStore.GetByPair(ctx, p.ID)
	if err != nil {
		return decimal.Zero, 0, fmt.Errorf("list swaps of %s: %w", p.ID.Hex(), err)
	}

	total := decimal.Zero
	for _, s := range swaps {
		total = total.Add(r.attributor.TrackedVolumeUSD(bundle, s.Amount0(), token0, s.Amount1(), token1, p))
	}
	observability.DefaultMetrics.SwapsAttributed.Add(float64(len(swaps)))
	return total, len(swaps), nil
}

// orderTokens sorts tokens so the base token comes first, then whitelist
// tokens in priority order, then everything else by address. One-hop
// routes then read counterpart prices refreshed earlier in the same run.
func (r *Runner) orderTokens(tokens []*domain.Token) {
	rank := make(map[common.Address]int, len(r.venue.Whitelist)+1)
	rank[r.venue.BaseToken] = 0
	for i, w := range r.venue.Whitelist {
		if _, seen := rank[w]; !seen {
			rank[w] = i + 1
		}
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		ri, okI := rank[tokens[i].ID]
		rj, okJ := rank[tokens[j].ID]
		switch {
		case okI && okJ:
			return ri < rj
		case okI != okJ:
			return okI
		default:
			return bytes.Compare(tokens[i].ID.Bytes(), tokens[j].ID.Bytes()) < 0
		}
	})
}
