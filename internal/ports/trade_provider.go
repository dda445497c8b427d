package ports

import (
	"context"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// LeaderboardProvider devuelve el ranking público de traders.
type LeaderboardProvider interface {
	// FetchLeaderboard devuelve hasta limit traders, sin histórico.
	FetchLeaderboard(ctx context.Context, limit int) ([]domain.Trader, error)
}

// TradeProvider obtiene los trades históricos de un wallet.
type TradeProvider interface {
	FetchTraderTrades(ctx context.Context, wallet string, limit int) ([]domain.Trade, error)
}

// PositionProvider obtiene las posiciones abiertas de un wallet.
type PositionProvider interface {
	FetchTraderPositions(ctx context.Context, wallet string) ([]domain.Holding, error)
}
