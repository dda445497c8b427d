package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPortfolio_DebitAndInvariant(t *testing.T) {
	p := NewPortfolio(decimal.NewFromInt(10))

	stake := decimal.NewFromInt(3)
	require.NoError(t, p.Debit(stake))
	p.Record(&Order{ID: "a", MarketID: "m", Stake: stake, Status: StatusOpen})

	assert.True(t, p.Available.Equal(decimal.NewFromInt(7)))
	assert.True(t, p.MarketExposure("m").Equal(stake))
	require.NoError(t, p.CheckInvariant())
}

func TestPortfolio_DebitInsufficient(t *testing.T) {
	p := NewPortfolio(decimal.NewFromInt(1))
	err := p.Debit(decimal.NewFromInt(2))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInsufficientBalance))
	assert.True(t, p.Available.Equal(decimal.NewFromInt(1)))
}

func TestPortfolio_ReleaseAndFill(t *testing.T) {
	p := NewPortfolio(decimal.NewFromInt(10))
	a := &Order{ID: "a", MarketID: "m1", Stake: decimal.NewFromInt(2), Status: StatusOpen}
	b := &Order{ID: "b", MarketID: "m2", Stake: decimal.NewFromInt(3), Status: StatusOpen}
	require.NoError(t, p.Debit(a.Stake))
	p.Record(a)
	require.NoError(t, p.Debit(b.Stake))
	p.Record(b)

	a.Status = StatusCancelled
	p.Release(a)
	b.Status = StatusFilled
	p.MarkFilled(b)

	assert.True(t, p.Available.Equal(decimal.NewFromInt(7)))
	assert.True(t, p.Filled.Equal(decimal.NewFromInt(3)))
	assert.Empty(t, p.OpenOrders())
	require.NoError(t, p.CheckInvariant())
}

func TestPortfolio_InvariantDetectsLeak(t *testing.T) {
	p := NewPortfolio(decimal.NewFromInt(10))
	require.NoError(t, p.Debit(decimal.NewFromInt(4)))
	// debit sin orden registrada
	err := p.CheckInvariant()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvariantBroken))
}

func TestPortfolio_ReleaseKeepsPartialFillInvested(t *testing.T) {
	p := NewPortfolio(decimal.NewFromInt(10))
	o := &Order{ID: "a", MarketID: "m", Stake: decimal.NewFromInt(4), MaxPrice: 0.5, Status: StatusOpen}
	require.NoError(t, p.Debit(o.Stake))
	p.Record(o)

	// 6 shares a 0.5 → 3 USDC gastados
	o.Matched = o.MatchedStake(6)
	o.Status = StatusCancelled
	p.Release(o)

	assert.True(t, p.Filled.Equal(decimal.NewFromInt(3)), p.Filled.String())
	assert.True(t, p.Available.Equal(decimal.NewFromInt(7)), p.Available.String())
	require.NoError(t, p.CheckInvariant())
}
