package domain

import "time"

// Side indica si la posición apuesta a favor o en contra del outcome.
type Side string

const (
	SideFor     Side = "FOR"
	SideAgainst Side = "AGAINST"
)

// Holding es una posición abierta tal como la devuelve la Data API.
type Holding struct {
	Wallet       string
	ConditionID  string
	Slug         string
	Title        string
	Outcome      string
	TokenID      string
	Size         float64 // shares
	AvgPrice     float64
	CurrentValue float64 // USDC
	EndDate      time.Time
}

// Position es una posición normalizada de un trader.
// StakeWeight está en [0,1] relativo al capital del propio trader, no en USDC:
// un trader con el 80% de su cartera en una apuesta pesa más que uno con el 2%.
type Position struct {
	TraderID    string
	MarketID    string
	Outcome     string
	Side        Side
	StakeWeight float64
}

// NormalizeHoldings convierte las holdings de un trader en posiciones con peso
// relativo al total de su capital asignado. Las holdings sin valor o sin
// mercado se descartan. Si el total es 0 devuelve nil.
func NormalizeHoldings(traderID string, holdings []Holding) []Position {
	var total float64
	for _, h := range holdings {
		if h.CurrentValue > 0 && h.Slug != "" {
			total += h.CurrentValue
		}
	}
	if total <= 0 {
		return nil
	}

	out := make([]Position, 0, len(holdings))
	for _, h := range holdings {
		if h.CurrentValue <= 0 || h.Slug == "" {
			continue
		}
		out = append(out, Position{
			TraderID:    traderID,
			MarketID:    h.Slug,
			Outcome:     h.Outcome,
			Side:        SideFor,
			StakeWeight: h.CurrentValue / total,
		})
	}
	return out
}
