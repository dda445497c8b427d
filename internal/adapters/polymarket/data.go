package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/alejandrodnm/copybot/internal/domain"
)

const (
	leaderboardPath = "/v1/leaderboard"
	tradesPath      = "/trades"
	positionsPath   = "/positions"

	// la Data API no devuelve más de 500 posiciones por página
	positionsLimit = 500
)

// FetchLeaderboard devuelve hasta limit traders del leaderboard público.
// La API recorta a ~50 por página aunque se pida más, así que pagina por offset.
func (c *Client) FetchLeaderboard(ctx context.Context, limit int) ([]domain.Trader, error) {
	var all []domain.Trader
	seen := make(map[string]bool)

	for len(all) < limit {
		q := url.Values{}
		q.Set("limit", strconv.Itoa(limit-len(all)))
		q.Set("offset", strconv.Itoa(len(all)))

		var resp []leaderboardEntry
		if err := c.get(ctx, c.dataLimiter, c.dataBase+leaderboardPath+"?"+q.Encode(), &resp); err != nil {
			return nil, fmt.Errorf("data.FetchLeaderboard: %w", err)
		}

		added := 0
		for _, t := range mapLeaderboard(resp) {
			if seen[t.Wallet] {
				continue
			}
			seen[t.Wallet] = true
			if t.LeaderboardRank <= len(all) {
				t.LeaderboardRank = len(all) + 1
			}
			all = append(all, t)
			added++
		}
		if added == 0 {
			break
		}
	}
	if len(all) > limit {
		all = all[:limit]
	}

	slog.Debug("leaderboard fetched", "requested", limit, "total", len(all))
	return all, nil
}

// FetchTraderTrades devuelve los últimos limit fills de un wallet.
func (c *Client) FetchTraderTrades(ctx context.Context, wallet string, limit int) ([]domain.Trade, error) {
	q := url.Values{}
	q.Set("user", wallet)
	q.Set("limit", strconv.Itoa(limit))

	var resp []dataTrade
	if err := c.get(ctx, c.dataLimiter, c.dataBase+tradesPath+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("data.FetchTraderTrades %s: %w", shortWallet(wallet), err)
	}

	slog.Debug("trader trades fetched", "wallet", shortWallet(wallet), "count", len(resp))
	return mapTrades(wallet, resp), nil
}

// FetchTraderPositions devuelve las posiciones abiertas de un wallet.
func (c *Client) FetchTraderPositions(ctx context.Context, wallet string) ([]domain.Holding, error) {
	q := url.Values{}
	q.Set("user", wallet)
	q.Set("limit", strconv.Itoa(positionsLimit))
	q.Set("sizeThreshold", "1")

	var resp []dataPosition
	if err := c.get(ctx, c.dataLimiter, c.dataBase+positionsPath+"?"+q.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("data.FetchTraderPositions %s: %w", shortWallet(wallet), err)
	}

	slog.Debug("trader positions fetched", "wallet", shortWallet(wallet), "count", len(resp))
	return mapHoldings(wallet, resp), nil
}

func shortWallet(w string) string {
	if len(w) <= 10 {
		return w
	}
	return w[:6] + "…" + w[len(w)-4:]
}
