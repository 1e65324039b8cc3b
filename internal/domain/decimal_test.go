package domain

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestSafeDiv(t *testing.T) {
	assert.True(t, SafeDiv(decimal.NewFromInt(1100000), decimal.NewFromInt(1000)).Equal(decimal.NewFromInt(1100)))
	assert.True(t, SafeDiv(decimal.NewFromInt(5), decimal.Zero).IsZero())
	assert.True(t, SafeDiv(decimal.Zero, decimal.Zero).IsZero())

	// 1/3 keeps far more precision than float64
	third := SafeDiv(OneBD, decimal.NewFromInt(3))
	assert.Equal(t, "0.333333333333333333333333333333333333", third.String())
}

func TestPair_SyncReserves(t *testing.T) {
	p := &Pair{}
	p.SyncReserves(decimal.NewFromInt(2000000), decimal.NewFromInt(1000))

	assert.Equal(t, "2000", p.Token0Price.String())
	assert.Equal(t, "0.0005", p.Token1Price.String())

	p.SyncReserves(decimal.Zero, decimal.NewFromInt(10))
	assert.True(t, p.Token0Price.IsZero())
	assert.True(t, p.Token1Price.IsZero())
}

func TestPair_Other(t *testing.T) {
	a := common.HexToAddress("0xa")
	b := common.HexToAddress("0xb")
	p := &Pair{Token0: a, Token1: b}

	other, ok := p.Other(a)
	assert.True(t, ok)
	assert.Equal(t, b, other)

	other, ok = p.Other(b)
	assert.True(t, ok)
	assert.Equal(t, a, other)

	_, ok = p.Other(common.HexToAddress("0xc"))
	assert.False(t, ok)
}

func TestSwap_Amounts(t *testing.T) {
	s := &Swap{
		Amount0In:  decimal.NewFromInt(100),
		Amount0Out: decimal.Zero,
		Amount1In:  decimal.Zero,
		Amount1Out: decimal.NewFromInt(50),
	}
	assert.Equal(t, "100", s.Amount0().String())
	assert.Equal(t, "50", s.Amount1().String())
}
