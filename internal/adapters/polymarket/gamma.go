package polymarket

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	"github.com/alejandrodnm/copybot/internal/domain"
)

const gammaMarketBySlugPath = "/markets/slug/"

// FetchMarket obtiene la metadata de un mercado por su slug.
// Un slug desconocido devuelve domain.ErrNotFound.
func (c *Client) FetchMarket(ctx context.Context, slug string) (domain.Market, error) {
	if slug == "" {
		return domain.Market{}, fmt.Errorf("gamma.FetchMarket: empty slug: %w", domain.ErrNotFound)
	}

	var gm gammaMarket
	if err := c.get(ctx, c.gammaLimiter, c.gammaBase+gammaMarketBySlugPath+url.PathEscape(slug), &gm); err != nil {
		return domain.Market{}, fmt.Errorf("gamma.FetchMarket %s: %w", slug, err)
	}
	if gm.Slug == "" && gm.ConditionID == "" {
		return domain.Market{}, fmt.Errorf("gamma.FetchMarket %s: %w", slug, domain.ErrNotFound)
	}
	if gm.Slug == "" {
		gm.Slug = slug
	}

	m := mapMarket(gm)
	slog.Debug("gamma market fetched",
		"slug", slug,
		"outcomes", len(m.Outcomes),
		"tradeable", m.Tradeable(time.Now()),
	)
	return m, nil
}
