// Package config holds venue constants and runtime settings.
package config

import (
	"fmt"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Venue holds the constants that must match the deployed venue.
type Venue struct {
	// BaseToken is the wrapped native asset every price is expressed in.
	BaseToken common.Address
	// StableToken is priced as 1 / Bundle.ETHPrice without a graph walk.
	StableToken common.Address
	// AnchorPair is the base/stablecoin pool the USD price is read from.
	// reserve0 is the base side, reserve1 the stablecoin side.
	AnchorPair common.Address
	// Whitelist is ordered by priority: the first entry with a pair wins.
	Whitelist []common.Address

	MinimumUSDThresholdNewPairs  decimal.Decimal
	MinimumLiquidityThresholdETH decimal.Decimal
}

// Default venue constants.
var (
	WTRX = common.HexToAddress("0x891cdb91d149f23b1a45d9c5ca78a88d0cb44c18")
	USDT = common.HexToAddress("0xa614f803b6fd780986a42c78ec9c7f77e6ded13c")
	SUSD = common.HexToAddress("0xda2853b2bede0e3018f56d47624a413b2abe0831")
	OKS  = common.HexToAddress("0xe11cdc164a9d8c1ae19d95b0165278690d39d84b")
	SETH = common.HexToAddress("0xa1402557c4c7a50f958e15c0527a60bf6666c77e")
	STRX = common.HexToAddress("0xa099cc498284ed6e25f3c99e6d55074e6ba42911")

	// USDTWTRXPair was created at block 24445751.
	USDTWTRXPair = common.HexToAddress("0xc4488fa262236619425e19f6ba4a8639b8ca1973")
)

// DefaultVenue returns the constants of the deployed venue.
func DefaultVenue() Venue {
	return Venue{
		BaseToken:   WTRX,
		StableToken: SUSD,
		AnchorPair:  USDTWTRXPair,
		Whitelist:   []common.Address{USDT, WTRX, OKS, SETH, STRX, SUSD},

		MinimumUSDThresholdNewPairs:  decimal.RequireFromString("400000"),
		MinimumLiquidityThresholdETH: decimal.RequireFromString("2"),
	}
}

// venueFile is the YAML layout of a venue override file.
type venueFile struct {
	BaseToken                    string   `yaml:"base_token" validate:"required,eth_addr"`
	StableToken                  string   `yaml:"stable_token" validate:"required,eth_addr"`
	AnchorPair                   string   `yaml:"anchor_pair" validate:"required,eth_addr"`
	Whitelist                    []string `yaml:"whitelist" validate:"required,min=1,unique,dive,eth_addr"`
	MinimumUSDThresholdNewPairs  string   `yaml:"minimum_usd_threshold_new_pairs" validate:"omitempty,numeric"`
	MinimumLiquidityThresholdETH string   `yaml:"minimum_liquidity_threshold_eth" validate:"omitempty,numeric"`
}

// LoadVenue reads a venue override file. Thresholds missing from the file
// keep their default values.
func LoadVenue(path string) (Venue, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Venue{}, fmt.Errorf("read venue file %s: %w", path, err)
	}
	return ParseVenue(data)
}

// ParseVenue parses and validates a YAML venue document.
func ParseVenue(data []byte) (Venue, error) {
	var f venueFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Venue{}, fmt.Errorf("parse venue: %w", err)
	}

	if err := validator.New().Struct(f); err != nil {
		return Venue{}, fmt.Errorf("validate venue: %w", err)
	}

	v := DefaultVenue()
	v.BaseToken = common.HexToAddress(f.BaseToken)
	v.StableToken = common.HexToAddress(f.StableToken)
	v.AnchorPair = common.HexToAddress(f.AnchorPair)

	v.Whitelist = make([]common.Address, 0, len(f.Whitelist))
	for _, w := range f.Whitelist {
		v.Whitelist = append(v.Whitelist, common.HexToAddress(w))
	}

	if f.MinimumUSDThresholdNewPairs != "" {
		v.MinimumUSDThresholdNewPairs = decimal.RequireFromString(f.MinimumUSDThresholdNewPairs)
	}
	if f.MinimumLiquidityThresholdETH != "" {
		v.MinimumLiquidityThresholdETH = decimal.RequireFromString(f.MinimumLiquidityThresholdETH)
	}

	return v, nil
}
