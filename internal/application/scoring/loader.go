package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/copybot/internal/domain"
	"github.com/alejandrodnm/copybot/internal/ports"
)

// Loader descarga el leaderboard y el histórico de trades de cada trader.
type Loader struct {
	leaderboard ports.LeaderboardProvider
	trades      ports.TradeProvider
	cfg         Config
}

// NewLoader crea un Loader.
func NewLoader(leaderboard ports.LeaderboardProvider, trades ports.TradeProvider, cfg Config) *Loader {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Loader{leaderboard: leaderboard, trades: trades, cfg: cfg}
}

// Load devuelve los traders del leaderboard con su serie de P&L realizado.
//
// Un fallo del leaderboard es fatal (sin él no hay a quién seguir). Un fallo al
// descargar los trades de un wallet solo excluye a ese trader. El orden de
// salida es el del leaderboard, independiente del orden en que terminen los fetches.
func (l *Loader) Load(ctx context.Context, sampleSize int) ([]domain.Trader, []domain.Exclusion, error) {
	board, err := l.leaderboard.FetchLeaderboard(ctx, sampleSize)
	if err != nil {
		return nil, nil, fmt.Errorf("scoring.Load: leaderboard: %w", err)
	}
	if len(board) == 0 {
		return nil, nil, fmt.Errorf("scoring.Load: empty leaderboard")
	}

	histories := make([][]domain.PnLPoint, len(board))
	failures := make([]error, len(board))

	var g errgroup.Group
	g.SetLimit(l.cfg.Workers)
	for i, t := range board {
		g.Go(func() error {
			trades, err := l.trades.FetchTraderTrades(ctx, t.Wallet, l.cfg.TradeLimit)
			if err != nil {
				failures[i] = err
				return nil
			}
			histories[i] = domain.RealizedPnL(trades)
			return nil
		})
	}
	_ = g.Wait()

	traders := make([]domain.Trader, 0, len(board))
	var excluded []domain.Exclusion
	for i, t := range board {
		if failures[i] != nil {
			slog.Warn("scoring: trader history fetch failed, excluding",
				"wallet", t.Wallet,
				"err", failures[i],
			)
			excluded = append(excluded, domain.Exclusion{
				Wallet: t.Wallet,
				Reason: "history fetch failed: " + failures[i].Error(),
			})
			continue
		}
		t.History = histories[i]
		traders = append(traders, t)
	}

	slog.Info("scoring: trader histories loaded",
		"leaderboard", len(board),
		"loaded", len(traders),
		"failed", len(board)-len(traders),
	)
	return traders, excluded, nil
}
