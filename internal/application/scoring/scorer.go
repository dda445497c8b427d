// Package scoring ranks traders by risk-adjusted performance.
package scoring

import (
	"fmt"
	"sort"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// Config controla el ranking de traders.
type Config struct {
	MinSamples int     // observaciones mínimas de P&L para puntuar a un trader
	Epsilon    float64 // se suma a la desviación típica en el Sharpe
	TradeLimit int     // trades pedidos por wallet
	Workers    int     // fetches de histórico en paralelo
}

// DefaultConfig devuelve la configuración por defecto.
func DefaultConfig() Config {
	return Config{
		MinSamples: 5,
		Epsilon:    domain.DefaultSharpeEpsilon,
		TradeLimit: 500,
		Workers:    8,
	}
}

// Scorer puntúa y ordena traders. Es una función pura sobre datos ya descargados.
type Scorer struct {
	cfg Config
}

// New crea un Scorer.
func New(cfg Config) *Scorer {
	if cfg.Epsilon <= 0 {
		cfg.Epsilon = domain.DefaultSharpeEpsilon
	}
	return &Scorer{cfg: cfg}
}

// Rank puntúa cada trader y los ordena de mejor a peor.
//
// Los traders con menos de MinSamples observaciones no se puntúan: se devuelven
// en excluded con el motivo. Orden: Sharpe desc, win rate desc, max drawdown
// asc y wallet asc para que el resultado sea estable.
func (s *Scorer) Rank(traders []domain.Trader) (ranked []domain.TraderScore, excluded []domain.Exclusion) {
	for _, t := range traders {
		if n := len(t.History); n < s.cfg.MinSamples {
			excluded = append(excluded, domain.Exclusion{
				Wallet: t.Wallet,
				Reason: fmt.Sprintf("insufficient samples (%d/%d)", n, s.cfg.MinSamples),
			})
			continue
		}
		ranked = append(ranked, domain.ScoreTrader(t, s.cfg.Epsilon))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Sharpe != b.Sharpe {
			return a.Sharpe > b.Sharpe
		}
		if a.WinRate != b.WinRate {
			return a.WinRate > b.WinRate
		}
		if a.MaxDrawdown != b.MaxDrawdown {
			return a.MaxDrawdown < b.MaxDrawdown
		}
		return a.Trader.Wallet < b.Trader.Wallet
	})
	return ranked, excluded
}

// TopK devuelve los k primeros del ranking (todos si k <= 0 o k > len).
func TopK(ranked []domain.TraderScore, k int) []domain.TraderScore {
	if k <= 0 || k >= len(ranked) {
		return ranked
	}
	return ranked[:k]
}
