package ports

import (
	"context"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// OrderStore persists orders and session reports.
// Candidates are never persisted: only the orders they produce.
type OrderStore interface {
	SaveOrder(ctx context.Context, order domain.Order) error
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
	GetOrdersBySession(ctx context.Context, sessionID string) ([]domain.Order, error)
	SaveSession(ctx context.Context, report domain.SessionReport) error
}
