package storage_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alejandrodnm/copybot/internal/adapters/storage"
	"github.com/alejandrodnm/copybot/internal/domain"
)

func makeOrder(id, session string, placed time.Time) domain.Order {
	return domain.Order{
		ID:           id,
		SessionID:    session,
		MarketID:     "fed-cut-march",
		ConditionID:  "0xcond",
		TokenID:      "123",
		Title:        "Fed cuts in March?",
		Outcome:      "Yes",
		Stake:        decimal.RequireFromString("4.25"),
		Price:        0.61,
		MaxPrice:     0.63,
		NegRisk:      true,
		Status:       domain.StatusPending,
		Confidence:   0.72,
		Rationale:    "3 top traders agree",
		Citations:    []int{2, 7},
		PlacedAt:     placed,
		VenueOrderID: "",
	}
}

func TestSQLiteStorage_SaveAndGetOrders(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, db.SaveOrder(ctx, makeOrder("b", "s1", now.Add(time.Second))))
	require.NoError(t, db.SaveOrder(ctx, makeOrder("a", "s1", now)))
	require.NoError(t, db.SaveOrder(ctx, makeOrder("c", "s2", now)))

	orders, err := db.GetOrdersBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, orders, 2)

	// Ordenadas por colocación
	assert.Equal(t, "a", orders[0].ID)
	assert.Equal(t, "b", orders[1].ID)
	assert.True(t, orders[0].Stake.Equal(decimal.RequireFromString("4.25")))
	assert.Equal(t, []int{2, 7}, orders[0].Citations)
	assert.True(t, orders[0].NegRisk)
	assert.Equal(t, domain.StatusPending, orders[0].Status)
}

func TestSQLiteStorage_SaveOrderUpserts(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	o := makeOrder("a", "s1", time.Now().UTC())
	require.NoError(t, db.SaveOrder(ctx, o))
	o.Status = domain.StatusCancelled
	o.VenueOrderID = "0xhash"
	o.Matched = decimal.RequireFromString("1.5")
	require.NoError(t, db.SaveOrder(ctx, o))

	orders, err := db.GetOrdersBySession(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, domain.StatusCancelled, orders[0].Status)
	assert.Equal(t, "0xhash", orders[0].VenueOrderID)
	assert.True(t, orders[0].Matched.Equal(decimal.RequireFromString("1.5")), orders[0].Matched.String())
}

func TestSQLiteStorage_UpdateOrderStatus(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	require.NoError(t, db.SaveOrder(ctx, makeOrder("a", "s1", time.Now().UTC())))
	require.NoError(t, db.UpdateOrderStatus(ctx, "a", domain.StatusFilled))

	orders, err := db.GetOrdersBySession(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusFilled, orders[0].Status)

	err = db.UpdateOrderStatus(ctx, "missing", domain.StatusFilled)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestSQLiteStorage_EmptySession(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()

	orders, err := db.GetOrdersBySession(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(t, orders)
}

func TestSQLiteStorage_SaveAndGetSession(t *testing.T) {
	db, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer db.Close()
	ctx := context.Background()

	start := time.Now().UTC().Truncate(time.Second)
	report := domain.SessionReport{
		SessionID:            "s1",
		StartedAt:            start,
		FinishedAt:           start.Add(time.Minute),
		Iterations:           3,
		StartingBalance:      decimal.NewFromInt(50),
		FinalBalance:         decimal.RequireFromString("45.75"),
		TotalInvested:        decimal.RequireFromString("4.25"),
		CandidatesConsidered: 4,
		OrdersPlaced:         1,
		DuplicatesPrevented:  2,
		Skips: []domain.SkipRecord{
			{Iteration: 1, MarketID: "m2", Outcome: "No", Stage: domain.StageReason, Reason: "low confidence"},
		},
		Positions: []domain.PositionSummary{
			{OrderID: "a", MarketID: "fed-cut-march", Outcome: "Yes", Stake: decimal.RequireFromString("4.25"), Status: domain.StatusOpen},
		},
	}
	require.NoError(t, db.SaveSession(ctx, report))

	got, err := db.GetSession(ctx, "s1")
	require.NoError(t, err)
	assert.False(t, got.Live)
	assert.Equal(t, 3, got.Iterations)
	assert.True(t, got.FinalBalance.Equal(decimal.RequireFromString("45.75")))
	assert.Equal(t, 2, got.DuplicatesPrevented)
	require.Len(t, got.Skips, 1)
	assert.Equal(t, "low confidence", got.Skips[0].Reason)
	require.Len(t, got.Positions, 1)
	assert.True(t, got.Positions[0].Stake.Equal(decimal.RequireFromString("4.25")))

	_, err = db.GetSession(ctx, "missing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
