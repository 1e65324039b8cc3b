// Package fixtures loads a token/pair graph from YAML into entity stores.
// It backs --use-fixtures runs and local demos against an empty database.
package fixtures

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"amm-pricing/internal/domain"
	"amm-pricing/internal/storage"
)

//go:embed default.yaml
var defaultFixture []byte

// Graph is a decoded fixture file.
type Graph struct {
	Tokens []*domain.Token
	Pairs  []*domain.Pair
	Swaps  []*domain.Swap
}

type file struct {
	Tokens []tokenEntry `yaml:"tokens" validate:"dive"`
	Pairs  []pairEntry  `yaml:"pairs" validate:"dive"`
	Swaps  []swapEntry  `yaml:"swaps" validate:"dive"`
}

type tokenEntry struct {
	ID       string `yaml:"id" validate:"required,eth_addr"`
	Symbol   string `yaml:"symbol" validate:"required"`
	Name     string `yaml:"name"`
	Decimals int    `yaml:"decimals" validate:"gte=0,lte=77"`
}

type pairEntry struct {
	ID        string `yaml:"id" validate:"required,eth_addr"`
	Token0    string `yaml:"token0" validate:"required,eth_addr"`
	Token1    string `yaml:"token1" validate:"required,eth_addr,nefield=Token0"`
	Reserve0  string `yaml:"reserve0" validate:"required,numeric"`
	Reserve1  string `yaml:"reserve1" validate:"required,numeric"`
	Providers int64  `yaml:"providers" validate:"gte=0"`
}

type swapEntry struct {
	Pair       string `yaml:"pair" validate:"required,eth_addr"`
	TxHash     string `yaml:"tx_hash" validate:"required,hexadecimal"`
	LogIndex   int    `yaml:"log_index" validate:"gte=0"`
	Block      int64  `yaml:"block" validate:"gte=0"`
	Timestamp  int64  `yaml:"timestamp"`
	Amount0In  string `yaml:"amount0_in" validate:"omitempty,numeric"`
	Amount1In  string `yaml:"amount1_in" validate:"omitempty,numeric"`
	Amount0Out string `yaml:"amount0_out" validate:"omitempty,numeric"`
	Amount1Out string `yaml:"amount1_out" validate:"omitempty,numeric"`
}

// Default returns the built-in fixture: the deployed venue's whitelist with
// sample reserves.
func Default() (*Graph, error) {
	return Parse(defaultFixture)
}

// Load reads a fixture file.
func Load(path string) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixture file: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates fixture YAML.
func Parse(data []byte) (*Graph, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode fixture: %w", err)
	}
	if err := validator.New().Struct(f); err != nil {
		return nil, fmt.Errorf("validate fixture: %w", err)
	}

	g := &Graph{}
	for _, t := range f.Tokens {
		g.Tokens = append(g.Tokens, &domain.Token{
			ID:         common.HexToAddress(t.ID),
			Symbol:     t.Symbol,
			Name:       t.Name,
			Decimals:   t.Decimals,
			DerivedETH: decimal.Zero,
		})
	}
	for _, p := range f.Pairs {
		pair := &domain.Pair{
			ID:                     common.HexToAddress(p.ID),
			Token0:                 common.HexToAddress(p.Token0),
			Token1:                 common.HexToAddress(p.Token1),
			LiquidityProviderCount: p.Providers,
		}
		pair.SyncReserves(decimal.RequireFromString(p.Reserve0), decimal.RequireFromString(p.Reserve1))
		g.Pairs = append(g.Pairs, pair)
	}
	for _, s := range f.Swaps {
		g.Swaps = append(g.Swaps, &domain.Swap{
			Pair:        common.HexToAddress(s.Pair),
			TxHash:      common.HexToHash(s.TxHash),
			LogIndex:    s.LogIndex,
			BlockNumber: s.Block,
			Timestamp:   s.Timestamp,
			Amount0In:   amount(s.Amount0In),
			Amount1In:   amount(s.Amount1In),
			Amount0Out:  amount(s.Amount0Out),
			Amount1Out:  amount(s.Amount1Out),
		})
	}
	return g, nil
}

func amount(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	return decimal.RequireFromString(s)
}

// Seed writes the graph into the stores. Tokens and pairs are upserted;
// swaps already recorded are skipped. swaps may be nil.
func Seed(ctx context.Context, g *Graph, tokens storage.TokenStore, pairs storage.PairStore, swaps storage.SwapStore) error {
	for _, t := range g.Tokens {
		if err := tokens.Upsert(ctx, t); err != nil {
			return fmt.Errorf("seed token %s: %w", t.ID.Hex(), err)
		}
	}
	for _, p := range g.Pairs {
		if err := pairs.Upsert(ctx, p); err != nil {
			return fmt.Errorf("seed pair %s: %w", p.ID.Hex(), err)
		}
	}
	if swaps == nil {
		return nil
	}
	for _, s := range g.Swaps {
		if err := swaps.Insert(ctx, s); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
			return fmt.Errorf("seed swap %s/%d: %w", s.TxHash.Hex(), s.LogIndex, err)
		}
	}
	return nil
}
