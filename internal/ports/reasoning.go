package ports

import (
	"context"

	"github.com/alejandrodnm/copybot/internal/domain"
)

// RationaleProvider is one AI backend. Every backend shares the same contract:
// it receives the prompts and returns the raw completion text, which the
// reasoner parses. Provider identity never leaks past this interface.
type RationaleProvider interface {
	RequestTradeRationale(ctx context.Context, req domain.RationaleRequest) (string, error)
	Name() string
}
