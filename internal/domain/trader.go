package domain

import "time"

// PnLPoint es una observación de P&L realizado.
type PnLPoint struct {
	Timestamp time.Time
	PnL       float64
}

// Trader es un wallet del leaderboard con su histórico de P&L.
// Inmutable por fetch: se recalcula al inicio de cada sesión.
type Trader struct {
	Wallet            string
	Name              string
	LeaderboardRank   int
	LeaderboardVolume float64
	LeaderboardPnL    float64
	History           []PnLPoint
}

// Returns devuelve los valores de P&L del histórico en orden.
func (t Trader) Returns() []float64 {
	out := make([]float64, len(t.History))
	for i, p := range t.History {
		out[i] = p.PnL
	}
	return out
}

// DisplayName devuelve el nombre del leaderboard o el wallet abreviado.
func (t Trader) DisplayName() string {
	if t.Name != "" {
		return t.Name
	}
	return TruncateQuestion("", t.Wallet, 14)
}

// TraderScore son las métricas ajustadas por riesgo de un trader.
type TraderScore struct {
	Trader      Trader
	Samples     int
	MeanReturn  float64
	Volatility  float64
	Sharpe      float64
	WinRate     float64 // % de observaciones positivas
	MaxDrawdown float64 // mayor caída pico-valle del P&L acumulado, en USDC (>= 0)
}

// Exclusion registra un trader que no entra en el ranking.
type Exclusion struct {
	Wallet string
	Reason string
}
