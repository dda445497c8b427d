package polymarket_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alejandrodnm/copybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchLeaderboard(t *testing.T) {
	data := fixture(t, "data_leaderboard.json")
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v1/leaderboard", r.URL.Path)
		if r.URL.Query().Get("offset") != "0" {
			// la API repite la misma página: el cliente debe parar
			w.Write(data)
			return
		}
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Write(data)
	}))
	defer srv.Close()

	traders, err := newTestClient(srv).FetchLeaderboard(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, traders, 2)
	assert.Equal(t, 2, calls)

	assert.Equal(t, "0xaaa1000000000000000000000000000000000001", traders[0].Wallet)
	assert.Equal(t, "whale", traders[0].Name)
	assert.Equal(t, 1, traders[0].LeaderboardRank)
	assert.InDelta(t, 1250000.5, traders[0].LeaderboardVolume, 1e-6)
	assert.InDelta(t, -1200.5, traders[1].LeaderboardPnL, 1e-6)
	assert.Empty(t, traders[1].Name)
}

func TestFetchLeaderboard_ServerErrorRetriesThenFails(t *testing.T) {
	if testing.Short() {
		t.Skip("retries with backoff")
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchLeaderboard(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "server error 502")
}

func TestFetchTraderTrades_FeedsRealizedPnL(t *testing.T) {
	data := fixture(t, "data_trades.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/trades", r.URL.Path)
		assert.Equal(t, "0xaaa1", r.URL.Query().Get("user"))
		assert.Equal(t, "500", r.URL.Query().Get("limit"))
		w.Write(data)
	}))
	defer srv.Close()

	trades, err := newTestClient(srv).FetchTraderTrades(context.Background(), "0xaaa1", 500)
	require.NoError(t, err)
	require.Len(t, trades, 2)

	assert.Equal(t, "BUY", trades[1].Side)
	assert.Equal(t, "fed-cut-march", trades[1].Slug)
	assert.Equal(t, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), trades[1].Timestamp)
	assert.Equal(t, time.Date(2026, 1, 1, 1, 0, 0, 0, time.UTC), trades[0].Timestamp)

	points := domain.RealizedPnL(trades)
	require.Len(t, points, 1)
	assert.InDelta(t, 3.0, points[0].PnL, 1e-9)
}

func TestFetchTraderPositions(t *testing.T) {
	data := fixture(t, "data_positions.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		w.Write(data)
	}))
	defer srv.Close()

	holdings, err := newTestClient(srv).FetchTraderPositions(context.Background(), "0xaaa1")
	require.NoError(t, err)
	require.Len(t, holdings, 2)

	assert.Equal(t, "fed-cut-march", holdings[0].Slug)
	assert.Equal(t, "tok_yes", holdings[0].TokenID)
	assert.InDelta(t, 91.5, holdings[0].CurrentValue, 1e-9)
	assert.Equal(t, time.Date(2026, 3, 19, 0, 0, 0, 0, time.UTC), holdings[0].EndDate)
	assert.InDelta(t, 30.5, holdings[1].CurrentValue, 1e-9)

	pos := domain.NormalizeHoldings("0xaaa1", holdings)
	require.Len(t, pos, 2)
	assert.InDelta(t, 0.75, pos[0].StakeWeight, 1e-9)
}
