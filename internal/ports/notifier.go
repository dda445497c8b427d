package ports

import (
	"context"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// Notifier presenta los resultados al usuario.
type Notifier interface {
	// NotifySession muestra el resumen de una sesión de trading.
	NotifySession(ctx context.Context, report domain.SessionReport) error
	// NotifyAnalysis muestra el ranking de traders del comando analyze.
	NotifyAnalysis(ctx context.Context, ranked []domain.TraderScore, excluded []domain.Exclusion) error
}
