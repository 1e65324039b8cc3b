package pricing

import "fmt"

// Strategy selects which whitelisted pair prices a token.
type Strategy int

const (
	// FirstWhitelistHit prices through the first whitelist entry, in list
	// order, that has a pair with the token, regardless of its depth.
	FirstWhitelistHit Strategy = iota

	// DeepestLiquidity prices through the whitelisted pair with the largest
	// ReserveETH. Pairs below the minimum ETH liquidity threshold are skipped.
	// Ties go to the earlier whitelist entry.
	DeepestLiquidity
)

// String returns the flag name of the strategy.
func (s Strategy) String() string {
	switch s {
	case FirstWhitelistHit:
		return "first-hit"
	case DeepestLiquidity:
		return "deepest"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// ParseStrategy parses a flag name into a Strategy.
func ParseStrategy(name string) (Strategy, error) {
	switch name {
	case "", "first-hit":
		return FirstWhitelistHit, nil
	case "deepest":
		return DeepestLiquidity, nil
	default:
		return 0, fmt.Errorf("unknown pricing strategy %q", name)
	}
}
