package pricing

import (
	"github.com/shopspring/decimal"

	"amm-pricing/internal/domain"
)

// Attributor converts raw token amounts into tracked USD figures,
// counting only legs of whitelisted tokens.
type Attributor struct {
	whitelist *Whitelist
	threshold *ThresholdPolicy // nil disables thin-pair gating
}

// NewAttributor creates an attributor with threshold gating disabled.
func NewAttributor(whitelist *Whitelist) *Attributor {
	return &Attributor{whitelist: whitelist}
}

// WithThreshold enables thin-pair gating of tracked volume.
func (a *Attributor) WithThreshold(p *ThresholdPolicy) *Attributor {
	a.threshold = p
	return a
}

// usdPrices returns the USD price per unit of both tokens.
func usdPrices(bundle *domain.Bundle, token0, token1 *domain.Token) (decimal.Decimal, decimal.Decimal) {
	if bundle == nil || token0 == nil || token1 == nil {
		return decimal.Zero, decimal.Zero
	}
	return token0.DerivedETH.Mul(bundle.ETHPrice), token1.DerivedETH.Mul(bundle.ETHPrice)
}

// membership reports whether each token is whitelisted.
func (a *Attributor) membership(token0, token1 *domain.Token) (bool, bool) {
	if token0 == nil || token1 == nil {
		return false, false
	}
	return a.whitelist.Contains(token0.ID), a.whitelist.Contains(token1.ID)
}

// TrackedVolumeUSD returns the USD volume of a trade that counts toward aggregates:
//   - both tokens whitelisted: average of both legs
//   - one token whitelisted: that leg
//   - neither: zero
//
// With a threshold policy set, pairs whose tracked reserves fall below it
// contribute zero.
func (a *Attributor) TrackedVolumeUSD(
	bundle *domain.Bundle,
	amount0 decimal.Decimal, token0 *domain.Token,
	amount1 decimal.Decimal, token1 *domain.Token,
	pair *domain.Pair,
) decimal.Decimal {
	price0, price1 := usdPrices(bundle, token0, token1)
	listed0, listed1 := a.membership(token0, token1)

	if a.threshold != nil && pair != nil && !a.aboveThreshold(pair, price0, price1, listed0, listed1) {
		return decimal.Zero
	}

	switch {
	case listed0 && listed1:
		return domain.SafeDiv(amount0.Mul(price0).Add(amount1.Mul(price1)), domain.TwoBD)
	case listed0:
		return amount0.Mul(price0)
	case listed1:
		return amount1.Mul(price1)
	default:
		return decimal.Zero
	}
}

// aboveThreshold applies the threshold policy to the pair's reserves.
// A single whitelisted side stands in for both sides of the pool.
func (a *Attributor) aboveThreshold(pair *domain.Pair, price0, price1 decimal.Decimal, listed0, listed1 bool) bool {
	reserve0USD := pair.Reserve0.Mul(price0)
	reserve1USD := pair.Reserve1.Mul(price1)

	switch {
	case listed0 && listed1:
		return a.threshold.IsLiquidityAboveThreshold(reserve0USD, reserve1USD, pair.LiquidityProviderCount)
	case listed0:
		return a.threshold.IsLiquidityAboveThreshold(reserve0USD, reserve0USD, pair.LiquidityProviderCount)
	case listed1:
		return a.threshold.IsLiquidityAboveThreshold(reserve1USD, reserve1USD, pair.LiquidityProviderCount)
	default:
		return true
	}
}

// TrackedLiquidityUSD returns the USD value of pool reserves that counts toward aggregates:
//   - both tokens whitelisted: sum of both sides
//   - one token whitelisted: that side doubled
//   - neither: zero
func (a *Attributor) TrackedLiquidityUSD(
	bundle *domain.Bundle,
	amount0 decimal.Decimal, token0 *domain.Token,
	amount1 decimal.Decimal, token1 *domain.Token,
) decimal.Decimal {
	price0, price1 := usdPrices(bundle, token0, token1)
	listed0, listed1 := a.membership(token0, token1)

	switch {
	case listed0 && listed1:
		return amount0.Mul(price0).Add(amount1.Mul(price1))
	case listed0:
		return amount0.Mul(price0).Mul(domain.TwoBD)
	case listed1:
		return amount1.Mul(price1).Mul(domain.TwoBD)
	default:
		return decimal.Zero
	}
}
