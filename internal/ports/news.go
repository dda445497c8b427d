package ports

import (
	"context"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// NewsSearcher busca titulares recientes para una consulta libre.
type NewsSearcher interface {
	SearchNews(ctx context.Context, query string, limit int) ([]domain.Headline, error)
}
