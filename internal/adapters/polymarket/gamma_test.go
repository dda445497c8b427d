package polymarket_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alejandrodnm/copybot/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchMarket_ParsesStringEncodedArrays(t *testing.T) {
	data := fixture(t, "gamma_market.json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets/slug/fed-cut-march", r.URL.Path)
		w.Write(data)
	}))
	defer srv.Close()

	m, err := newTestClient(srv).FetchMarket(context.Background(), "fed-cut-march")
	require.NoError(t, err)

	assert.Equal(t, "fed-cut-march", m.ID)
	assert.Equal(t, "0xfed", m.ConditionID)
	assert.Equal(t, "Will the Fed cut rates in March?", m.Title)
	assert.True(t, m.NegRisk)
	assert.True(t, m.AcceptingOrders)
	assert.Equal(t, time.Date(2026, 3, 19, 18, 0, 0, 0, time.UTC), m.EndDate)

	require.Len(t, m.Outcomes, 2)
	yes, ok := m.Outcome("yes")
	require.True(t, ok)
	assert.Equal(t, "tok_yes", yes.TokenID)
	assert.InDelta(t, 0.61, yes.Price, 1e-9)
	assert.Equal(t, "No", m.Outcomes[1].Label)
}

func TestFetchMarket_PlainArrays(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"slug":"x","conditionId":"0x1","outcomes":["A","B"],"clobTokenIds":["1","2"],"outcomePrices":["0.3","0.7"]}`))
	}))
	defer srv.Close()

	m, err := newTestClient(srv).FetchMarket(context.Background(), "x")
	require.NoError(t, err)
	require.Len(t, m.Outcomes, 2)
	assert.InDelta(t, 0.7, m.Outcomes[1].Price, 1e-9)
	assert.True(t, m.EndDate.IsZero())
}

func TestFetchMarket_NotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchMarket(context.Background(), "gone")
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}

func TestFetchMarket_EmptyBodyIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).FetchMarket(context.Background(), "nothing")
	assert.True(t, errors.Is(err, domain.ErrNotFound))
}
