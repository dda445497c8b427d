package domain

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestMean_Empty(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
}

func TestStdDev_Population(t *testing.T) {
	assert.InDelta(t, math.Sqrt(2.0/3.0), StdDev([]float64{1, 2, 3}), 1e-12)
}

func TestSharpeRatio_Basic(t *testing.T) {
	// mean 2, stdev sqrt(2/3)
	assert.InDelta(t, 2.449, SharpeRatio([]float64{1, 2, 3}, DefaultSharpeEpsilon), 0.001)
}

func TestSharpeRatio_ConstantReturnsDoesNotDivideByZero(t *testing.T) {
	s := SharpeRatio([]float64{2, 2, 2}, 0.5)
	assert.InDelta(t, 4.0, s, 1e-9)
	assert.False(t, math.IsInf(SharpeRatio([]float64{2, 2}, 0), 0))
}

func TestSharpeRatio_Negative(t *testing.T) {
	assert.Less(t, SharpeRatio([]float64{-1, -3, -2}, DefaultSharpeEpsilon), 0.0)
}

func TestWinRate(t *testing.T) {
	assert.InDelta(t, 50.0, WinRate([]float64{1, -1, 2, 0}), 1e-9)
	assert.Equal(t, 0.0, WinRate(nil))
}

func TestMaxDrawdown(t *testing.T) {
	// cum: 10, 4, 6, -2 → peak 10, trough -2
	assert.InDelta(t, 12.0, MaxDrawdown([]float64{10, -6, 2, -8}), 1e-9)
}

func TestMaxDrawdown_LossesFromStart(t *testing.T) {
	assert.InDelta(t, 5.0, MaxDrawdown([]float64{-2, -3, 1}), 1e-9)
}

func TestMaxDrawdown_MonotonicGains(t *testing.T) {
	assert.Equal(t, 0.0, MaxDrawdown([]float64{1, 2, 3}))
}

func TestScoreTrader(t *testing.T) {
	now := time.Now()
	tr := Trader{Wallet: "0xabc", History: []PnLPoint{
		{Timestamp: now, PnL: 1},
		{Timestamp: now, PnL: 2},
		{Timestamp: now, PnL: 3},
	}}
	s := ScoreTrader(tr, DefaultSharpeEpsilon)
	assert.Equal(t, 3, s.Samples)
	assert.InDelta(t, 2.0, s.MeanReturn, 1e-12)
	assert.InDelta(t, 100.0, s.WinRate, 1e-12)
	assert.Equal(t, 0.0, s.MaxDrawdown)
}
