package pricing

import "github.com/ethereum/go-ethereum/common"

// Whitelist is an ordered, immutable set of trusted tokens.
// Order is priority: earlier entries are preferred during price discovery.
type Whitelist struct {
	tokens []common.Address
	set    map[common.Address]struct{}
}

// NewWhitelist creates a whitelist from tokens. Duplicates keep their first position.
func NewWhitelist(tokens []common.Address) *Whitelist {
	w := &Whitelist{
		tokens: make([]common.Address, 0, len(tokens)),
		set:    make(map[common.Address]struct{}, len(tokens)),
	}
	for _, t := range tokens {
		if _, exists := w.set[t]; exists {
			continue
		}
		w.set[t] = struct{}{}
		w.tokens = append(w.tokens, t)
	}
	return w
}

// Contains reports whether token is whitelisted.
func (w *Whitelist) Contains(token common.Address) bool {
	_, ok := w.set[token]
	return ok
}

// Tokens returns a copy of the whitelist in priority order.
func (w *Whitelist) Tokens() []common.Address {
	out := make([]common.Address, len(w.tokens))
	copy(out, w.tokens)
	return out
}

// Len returns the number of whitelisted tokens.
func (w *Whitelist) Len() int {
	return len(w.tokens)
}
