// Package signal turns top-trader positions into enriched consensus candidates.
package signal

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/alejandrodnm/copybot/internal/domain"
	"github.com/alejandrodnm/copybot/internal/ports"
)

// Aggregator collects the open positions of the ranked traders.
type Aggregator struct {
	positions ports.PositionProvider
	workers   int
}

// NewAggregator creates an Aggregator. workers bounds the parallel fetches.
func NewAggregator(positions ports.PositionProvider, workers int) *Aggregator {
	if workers <= 0 {
		workers = 1
	}
	return &Aggregator{positions: positions, workers: workers}
}

// Collect fetches every trader's holdings and normalizes them to stake weights.
//
// A failed fetch excludes that trader for this iteration only. Output follows
// the ranking order of traders, whatever order the fetches complete in.
func (a *Aggregator) Collect(ctx context.Context, traders []domain.TraderScore) ([]domain.Position, []domain.Exclusion) {
	perTrader := make([][]domain.Position, len(traders))
	failures := make([]error, len(traders))

	var g errgroup.Group
	g.SetLimit(a.workers)
	for i, ts := range traders {
		g.Go(func() error {
			holdings, err := a.positions.FetchTraderPositions(ctx, ts.Trader.Wallet)
			if err != nil {
				failures[i] = err
				return nil
			}
			perTrader[i] = domain.NormalizeHoldings(ts.Trader.Wallet, holdings)
			return nil
		})
	}
	_ = g.Wait()

	var (
		positions []domain.Position
		excluded  []domain.Exclusion
	)
	for i, ts := range traders {
		if err := failures[i]; err != nil {
			slog.Warn("aggregator: positions fetch failed, excluding trader",
				"wallet", ts.Trader.Wallet,
				"err", err,
			)
			excluded = append(excluded, domain.Exclusion{
				Wallet: ts.Trader.Wallet,
				Reason: "positions fetch failed: " + err.Error(),
			})
			continue
		}
		positions = append(positions, perTrader[i]...)
	}

	slog.Debug("aggregator: positions collected",
		"traders", len(traders),
		"positions", len(positions),
		"excluded", len(excluded),
	)
	return positions, excluded
}
