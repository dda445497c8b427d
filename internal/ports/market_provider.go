package ports

import (
	"context"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// MarketProvider obtiene la metadata de un mercado desde Gamma.
type MarketProvider interface {
	// FetchMarket devuelve el mercado identificado por su slug.
	// Devuelve domain.ErrNotFound si Gamma no lo conoce.
	FetchMarket(ctx context.Context, slug string) (domain.Market, error)
}
