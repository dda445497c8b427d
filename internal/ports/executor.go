package ports

import (
	"context"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// OrderExecutor places, cancels, and monitors orders on the venue.
// The dry-run implementation simulates every call locally.
type OrderExecutor interface {
	// SubmitOrder signs and submits a BUY limit order for order.TokenID.
	SubmitOrder(ctx context.Context, order domain.Order) (domain.PlacedOrder, error)

	// CancelOrder cancels a specific order by its venue order ID.
	CancelOrder(ctx context.Context, venueOrderID string) error

	// GetOpenOrders returns the orders the venue still considers live.
	GetOpenOrders(ctx context.Context) ([]domain.VenueOrder, error)

	// GetOrder returns the venue view of one order, whatever its state.
	GetOrder(ctx context.Context, venueOrderID string) (domain.VenueOrder, error)

	// GetBalance returns the spendable USDC balance.
	GetBalance(ctx context.Context) (float64, error)
}
