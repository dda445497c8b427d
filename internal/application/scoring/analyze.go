package scoring

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// Analysis es el resultado de puntuar una muestra del leaderboard.
type Analysis struct {
	Sampled  int
	Ranked   []domain.TraderScore
	Top      []domain.TraderScore
	Excluded []domain.Exclusion
}

// Analyze descarga, puntúa y ordena una muestra del leaderboard.
// Lo usan tanto el comando analyze como el arranque de cada sesión de trading.
func Analyze(ctx context.Context, loader *Loader, scorer *Scorer, sampleSize, top int) (Analysis, error) {
	traders, fetchExcluded, err := loader.Load(ctx, sampleSize)
	if err != nil {
		return Analysis{}, fmt.Errorf("scoring.Analyze: %w", err)
	}

	ranked, excluded := scorer.Rank(traders)
	excluded = append(fetchExcluded, excluded...)

	a := Analysis{
		Sampled:  len(traders) + len(fetchExcluded),
		Ranked:   ranked,
		Top:      TopK(ranked, top),
		Excluded: excluded,
	}

	slog.Info("scoring: analysis complete",
		"sampled", a.Sampled,
		"ranked", len(a.Ranked),
		"excluded", len(a.Excluded),
		"top", len(a.Top),
	)
	return a, nil
}
