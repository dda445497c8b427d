package domain

import (
	"sort"
	"time"
)

// Trade representa un fill histórico de un trader según la Data API.
type Trade struct {
	ID          string
	Wallet      string
	ConditionID string
	Slug        string
	Outcome     string
	TokenID     string
	Side        string // "BUY" o "SELL"
	Price       float64
	Size        float64
	Timestamp   time.Time
}

// Notional devuelve size × price en USDC.
func (t Trade) Notional() float64 {
	return t.Size * t.Price
}

// RealizedPnL reconstruye la serie de P&L realizado a partir de los trades.
// Agrupa por (conditionID, outcome), acumula compras a coste medio y genera una
// observación por cada SELL que cierra (total o parcialmente) una posición.
// Las ventas sin posición previa se ignoran. Salida en orden cronológico.
func RealizedPnL(trades []Trade) []PnLPoint {
	ordered := make([]Trade, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Timestamp.Before(ordered[j].Timestamp)
	})

	type book struct {
		size float64
		cost float64
	}
	books := make(map[string]*book)

	var points []PnLPoint
	for _, t := range ordered {
		if t.ConditionID == "" || t.Size <= 0 {
			continue
		}
		key := t.ConditionID + "|" + t.Outcome
		b, ok := books[key]
		if !ok {
			b = &book{}
			books[key] = b
		}

		switch t.Side {
		case "BUY":
			b.cost += t.Size * t.Price
			b.size += t.Size
		case "SELL":
			if b.size <= 0 {
				continue
			}
			sold := min(t.Size, b.size)
			avg := b.cost / b.size
			points = append(points, PnLPoint{
				Timestamp: t.Timestamp,
				PnL:       sold * (t.Price - avg),
			})
			b.cost -= sold * avg
			b.size -= sold
		}
	}
	return points
}
