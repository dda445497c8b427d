package paper_test

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/copybot/internal/adapters/paper"
	"github.com/alejandrodnm/copybot/internal/domain"
)

func TestExecutor_DefaultBalance(t *testing.T) {
	bal, err := paper.NewExecutor(0).GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, paper.DefaultBalance, bal)

	bal, err = paper.NewExecutor(120).GetBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120.0, bal)
}

func TestExecutor_SubmitSimulated(t *testing.T) {
	e := paper.NewExecutor(0)
	placed, err := e.SubmitOrder(context.Background(), domain.Order{
		MarketID: "m", Outcome: "Yes", TokenID: "1", Stake: decimal.NewFromInt(5), MaxPrice: 0.55,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SimulatedVenueID, placed.VenueOrderID)
	assert.Equal(t, 1, e.Submitted())

	open, err := e.GetOpenOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, domain.StatusOpen, open[0].Status)
}

func TestExecutor_RejectsInvalidOrders(t *testing.T) {
	e := paper.NewExecutor(0)
	_, err := e.SubmitOrder(context.Background(), domain.Order{Stake: decimal.NewFromInt(5), MaxPrice: 1})
	require.Error(t, err)
	_, err = e.SubmitOrder(context.Background(), domain.Order{Stake: decimal.Zero, MaxPrice: 0.5})
	require.Error(t, err)
	assert.Equal(t, 0, e.Submitted())
}

func TestExecutor_GetOrderNotFound(t *testing.T) {
	_, err := paper.NewExecutor(0).GetOrder(context.Background(), domain.SimulatedVenueID)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
