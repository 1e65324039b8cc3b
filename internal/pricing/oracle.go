// Package pricing derives base-currency prices for tokens and the
// whitelist-gated USD value of trades and pool reserves.
//
// Every function is a pure computation over entity snapshots read through
// TokenLoader and PairLoader. Unresolved lookups degrade to a zero price.
package pricing

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"

	"amm-pricing/internal/config"
	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

// TokenLoader loads tokens by address.
type TokenLoader interface {
	// GetByID returns storage.ErrNotFound if the token does not exist.
	GetByID(ctx context.Context, id common.Address) (*domain.Token, error)
}

// PairLoader loads pairs by address and resolves pairs by their tokens.
type PairLoader interface {
	storage.PairFactory

	// GetByID returns storage.ErrNotFound if the pair does not exist.
	GetByID(ctx context.Context, id common.Address) (*domain.Pair, error)
}

// Quote is the result of pricing one token.
type Quote struct {
	DerivedETH decimal.Decimal // price in base-currency units, zero when unknown
	Via        common.Address  // pair the price was read from, zero address for anchors
	Found      bool            // false when no route priced the token
}

// Oracle derives base-currency prices from the token/pair graph.
// It holds no mutable state and is safe for concurrent use.
type Oracle struct {
	tokens    TokenLoader
	pairs     PairLoader
	venue     config.Venue
	whitelist *Whitelist
	strategy  Strategy
}

// NewOracle creates an oracle for venue using the FirstWhitelistHit strategy.
func NewOracle(tokens TokenLoader, pairs PairLoader, venue config.Venue) *Oracle {
	return &Oracle{
		tokens:    tokens,
		pairs:     pairs,
		venue:     venue,
		whitelist: NewWhitelist(venue.Whitelist),
		strategy:  FirstWhitelistHit,
	}
}

// WithStrategy sets the route selection strategy.
func (o *Oracle) WithStrategy(s Strategy) *Oracle {
	o.strategy = s
	return o
}

// Whitelist returns the oracle's whitelist.
func (o *Oracle) Whitelist() *Whitelist {
	return o.whitelist
}

// EthPriceInUSD returns the USD price of one unit of base currency,
// read from the anchor pair as reserve1 / reserve0.
// Returns zero if the anchor pair does not exist or its base reserve is zero.
func (o *Oracle) EthPriceInUSD(ctx context.Context) (decimal.Decimal, error) {
	pair, err := o.loadPair(ctx, o.venue.AnchorPair)
	if err != nil {
		return decimal.Zero, err
	}
	if pair == nil {
		return decimal.Zero, nil
	}
	return domain.SafeDiv(pair.Reserve1, pair.Reserve0), nil
}

// FindEthPerToken returns how many base-currency units one unit of token is worth.
// bundle supplies the USD price used for the stablecoin shortcut.
func (o *Oracle) FindEthPerToken(ctx context.Context, token *domain.Token, bundle *domain.Bundle) (decimal.Decimal, error) {
	q, err := o.Quote(ctx, token, bundle)
	if err != nil {
		return decimal.Zero, err
	}
	return q.DerivedETH, nil
}

// Quote prices token and reports the route used.
func (o *Oracle) Quote(ctx context.Context, token *domain.Token, bundle *domain.Bundle) (Quote, error) {
	if token == nil {
		return Quote{DerivedETH: decimal.Zero}, nil
	}

	if token.ID == o.venue.BaseToken {
		return Quote{DerivedETH: domain.OneBD, Found: true}, nil
	}

	if token.ID == o.venue.StableToken {
		if bundle == nil || bundle.ETHPrice.IsZero() {
			return Quote{DerivedETH: decimal.Zero}, nil
		}
		return Quote{DerivedETH: domain.SafeDiv(domain.OneBD, bundle.ETHPrice), Found: true}, nil
	}

	var (
		pair *domain.Pair
		err  error
	)
	switch o.strategy {
	case DeepestLiquidity:
		pair, err = o.deepestPair(ctx, token.ID)
	default:
		pair, err = o.firstPair(ctx, token.ID)
	}
	if err != nil {
		return Quote{DerivedETH: decimal.Zero}, err
	}
	if pair == nil {
		return Quote{DerivedETH: decimal.Zero}, nil
	}

	price, ok, err := o.priceThrough(ctx, pair, token.ID)
	if err != nil {
		return Quote{DerivedETH: decimal.Zero}, err
	}
	if !ok {
		return Quote{DerivedETH: decimal.Zero}, nil
	}
	return Quote{DerivedETH: price, Via: pair.ID, Found: true}, nil
}

// firstPair returns the pair of token with the first whitelist entry that has one.
func (o *Oracle) firstPair(ctx context.Context, token common.Address) (*domain.Pair, error) {
	for _, w := range o.whitelist.tokens {
		pair, err := o.pairWith(ctx, token, w)
		if err != nil {
			return nil, err
		}
		if pair != nil {
			return pair, nil
		}
	}
	return nil, nil
}

// deepestPair returns the whitelisted pair of token with the most liquidity
// in base-currency units. Depth is read from current reserves and the
// counterpart's current price, so pairs that were never valued still rank.
func (o *Oracle) deepestPair(ctx context.Context, token common.Address) (*domain.Pair, error) {
	var (
		best      *domain.Pair
		bestDepth decimal.Decimal
	)
	for _, w := range o.whitelist.tokens {
		pair, err := o.pairWith(ctx, token, w)
		if err != nil {
			return nil, err
		}
		if pair == nil {
			continue
		}
		depth, err := o.depthETH(ctx, pair, w)
		if err != nil {
			return nil, err
		}
		if depth.LessThan(o.venue.MinimumLiquidityThresholdETH) {
			continue
		}
		if best == nil || depth.GreaterThan(bestDepth) {
			best, bestDepth = pair, depth
		}
	}
	return best, nil
}

// depthETH values both sides of pair at the whitelisted side w, as
// reserve(w) * derivedETH(w) * 2. Zero if w's record does not exist.
func (o *Oracle) depthETH(ctx context.Context, pair *domain.Pair, w common.Address) (decimal.Decimal, error) {
	var reserve decimal.Decimal
	switch w {
	case pair.Token0:
		reserve = pair.Reserve0
	case pair.Token1:
		reserve = pair.Reserve1
	default:
		return decimal.Zero, nil
	}

	counterpart, err := o.loadToken(ctx, w)
	if err != nil {
		return decimal.Zero, err
	}
	if counterpart == nil {
		return decimal.Zero, nil
	}
	return reserve.Mul(counterpart.DerivedETH).Mul(domain.TwoBD), nil
}

// pairWith resolves and loads the pair of token and w. Returns nil if none exists.
func (o *Oracle) pairWith(ctx context.Context, token, w common.Address) (*domain.Pair, error) {
	if token == w {
		return nil, nil
	}

	id, err := o.pairs.GetPair(ctx, token, w)
	if err != nil {
		return nil, fmt.Errorf("get pair %s/%s: %w", token.Hex(), w.Hex(), err)
	}
	if id == (common.Address{}) {
		return nil, nil
	}
	return o.loadPair(ctx, id)
}

// priceThrough converts the pair's exchange rate into base-currency units
// using the counterpart token's derived price. ok is false when the pair
// does not hold token or the counterpart record does not exist.
func (o *Oracle) priceThrough(ctx context.Context, pair *domain.Pair, token common.Address) (_ decimal.Decimal, ok bool, err error) {
	var (
		rate  decimal.Decimal
		other common.Address
	)
	switch token {
	case pair.Token0:
		rate, other = pair.Token1Price, pair.Token1
	case pair.Token1:
		rate, other = pair.Token0Price, pair.Token0
	default:
		return decimal.Zero, false, nil
	}

	counterpart, err := o.loadToken(ctx, other)
	if err != nil {
		return decimal.Zero, false, err
	}
	if counterpart == nil {
		return decimal.Zero, false, nil
	}
	return rate.Mul(counterpart.DerivedETH), true, nil
}

// loadPair returns nil, nil when the pair does not exist.
func (o *Oracle) loadPair(ctx context.Context, id common.Address) (*domain.Pair, error) {
	pair, err := o.pairs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load pair %s: %w", id.Hex(), err)
	}
	return pair, nil
}

// loadToken returns nil, nil when the token does not exist.
func (o *Oracle) loadToken(ctx context.Context, id common.Address) (*domain.Token, error) {
	token, err := o.tokens.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load token %s: %w", id.Hex(), err)
	}
	return token, nil
}
