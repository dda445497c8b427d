package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeHoldings_WeightsRelativeToTraderCapital(t *testing.T) {
	holdings := []Holding{
		{Slug: "a", Outcome: "Yes", CurrentValue: 80},
		{Slug: "b", Outcome: "No", CurrentValue: 20},
		{Slug: "c", Outcome: "Yes", CurrentValue: 0},
		{Slug: "", Outcome: "Yes", CurrentValue: 50},
	}
	pos := NormalizeHoldings("0xw", holdings)
	require.Len(t, pos, 2)
	assert.InDelta(t, 0.8, pos[0].StakeWeight, 1e-9)
	assert.InDelta(t, 0.2, pos[1].StakeWeight, 1e-9)
	assert.Equal(t, SideFor, pos[0].Side)
	assert.Equal(t, "0xw", pos[1].TraderID)
}

func TestNormalizeHoldings_Empty(t *testing.T) {
	assert.Nil(t, NormalizeHoldings("0xw", nil))
	assert.Nil(t, NormalizeHoldings("0xw", []Holding{{Slug: "a", CurrentValue: -1}}))
}

func TestMarket_Tradeable(t *testing.T) {
	now := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	m := Market{Active: true, AcceptingOrders: true, EndDate: now.Add(48 * time.Hour)}
	assert.True(t, m.Tradeable(now))

	closed := m
	closed.Closed = true
	assert.False(t, closed.Tradeable(now))

	notAccepting := m
	notAccepting.AcceptingOrders = false
	assert.False(t, notAccepting.Tradeable(now))

	expired := m
	expired.EndDate = now.Add(-time.Hour)
	assert.False(t, expired.Tradeable(now))

	noDate := m
	noDate.EndDate = time.Time{}
	assert.True(t, noDate.Tradeable(now))
}

func TestMarket_OutcomeCaseInsensitive(t *testing.T) {
	m := Market{Outcomes: []Outcome{{Label: "Celtics", TokenID: "1"}, {Label: "Mavericks", TokenID: "2"}}}
	o, ok := m.Outcome("celtics")
	require.True(t, ok)
	assert.Equal(t, "1", o.TokenID)
	_, ok = m.Outcome("Lakers")
	assert.False(t, ok)
}

func TestRoundToTickAndClamp(t *testing.T) {
	assert.InDelta(t, 0.63, RoundToTick(0.6349, 0.01), 1e-12)
	assert.InDelta(t, 0.64, RoundToTick(0.64, 0.01), 1e-12)
	assert.Equal(t, MaxPrice, ClampPrice(1.2))
	assert.Equal(t, MinPrice, ClampPrice(0))
}
