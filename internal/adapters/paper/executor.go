package paper

// executor.go: ejecutor simulado para dry-run.
//
// Nunca toca la red. Cada orden "colocada" queda abierta con el venue id
// domain.SimulatedVenueID hasta que se cancela o expira.

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// DefaultBalance es el saldo ficticio con el que arranca un dry-run.
const DefaultBalance = 50.0

// Executor implementa ports.OrderExecutor en memoria.
type Executor struct {
	balance float64

	mu     sync.Mutex
	seq    int
	orders map[string]domain.VenueOrder
}

// NewExecutor crea un ejecutor simulado. balance <= 0 usa DefaultBalance.
func NewExecutor(balance float64) *Executor {
	if balance <= 0 {
		balance = DefaultBalance
	}
	return &Executor{balance: balance, orders: make(map[string]domain.VenueOrder)}
}

// SubmitOrder acepta cualquier orden válida sin llegar al mercado.
func (e *Executor) SubmitOrder(_ context.Context, o domain.Order) (domain.PlacedOrder, error) {
	if o.MaxPrice <= 0 || o.MaxPrice >= 1 {
		return domain.PlacedOrder{}, fmt.Errorf("paper.SubmitOrder: invalid price %.4f", o.MaxPrice)
	}
	if !o.Stake.IsPositive() {
		return domain.PlacedOrder{}, fmt.Errorf("paper.SubmitOrder: invalid stake %s", o.Stake)
	}

	e.mu.Lock()
	e.seq++
	key := fmt.Sprintf("%s-%d", domain.SimulatedVenueID, e.seq)
	e.orders[key] = domain.VenueOrder{
		VenueOrderID: domain.SimulatedVenueID,
		TokenID:      o.TokenID,
		ConditionID:  o.ConditionID,
		Status:       domain.StatusOpen,
	}
	e.mu.Unlock()

	slog.Debug("paper: simulated order",
		"market", o.MarketID,
		"outcome", o.Outcome,
		"stake", o.Stake.StringFixed(2),
		"max_price", o.MaxPrice,
	)
	return domain.PlacedOrder{VenueOrderID: domain.SimulatedVenueID, Status: "simulated"}, nil
}

// CancelOrder no hace nada: las órdenes simuladas expiran en el tracker.
func (e *Executor) CancelOrder(context.Context, string) error {
	return nil
}

// GetOpenOrders devuelve las órdenes simuladas aún abiertas.
func (e *Executor) GetOpenOrders(context.Context) ([]domain.VenueOrder, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]domain.VenueOrder, 0, len(e.orders))
	for _, o := range e.orders {
		out = append(out, o)
	}
	return out, nil
}

// GetOrder no distingue órdenes simuladas: todas comparten venue id.
func (e *Executor) GetOrder(_ context.Context, venueOrderID string) (domain.VenueOrder, error) {
	return domain.VenueOrder{}, fmt.Errorf("paper.GetOrder %s: %w", venueOrderID, domain.ErrNotFound)
}

// GetBalance devuelve el saldo ficticio inicial.
func (e *Executor) GetBalance(context.Context) (float64, error) {
	return e.balance, nil
}

// Submitted devuelve cuántas órdenes se han simulado.
func (e *Executor) Submitted() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seq
}
