package pricing

import "github.com/shopspring/decimal"

// DefaultMinProviders is the provider count from which a pair is
// no longer considered new and the USD threshold stops applying.
const DefaultMinProviders = 5

// ThresholdPolicy guards tracked volume against thin pairs with few
// liquidity providers.
type ThresholdPolicy struct {
	MinimumUSD   decimal.Decimal // minimum tracked reserves in USD for new pairs
	MinProviders int64           // pairs with at least this many providers always pass
}

// NewThresholdPolicy creates a policy with DefaultMinProviders.
func NewThresholdPolicy(minimumUSD decimal.Decimal) *ThresholdPolicy {
	return &ThresholdPolicy{
		MinimumUSD:   minimumUSD,
		MinProviders: DefaultMinProviders,
	}
}

// IsLiquidityAboveThreshold reports whether a pair holding reserveUSD0 and
// reserveUSD1 may contribute tracked volume.
func (p *ThresholdPolicy) IsLiquidityAboveThreshold(reserveUSD0, reserveUSD1 decimal.Decimal, providerCount int64) bool {
	if providerCount >= p.MinProviders {
		return true
	}
	return reserveUSD0.Add(reserveUSD1).GreaterThanOrEqual(p.MinimumUSD)
}
