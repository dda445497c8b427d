package llm

// client.go: ajustes comunes de los proveedores remotos.
// Los SDKs reintentan 429/5xx con backoff; aquí solo se fija el límite de
// reintentos, el timeout y un rate limiter por proveedor.

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultTimeout = 60 * time.Second

	maxRetries = 2
)

// limiter serializa las llamadas de un proveedor a ratePerSec por segundo.
type limiter struct {
	rl *rate.Limiter
}

func newLimiter(ratePerSec float64) limiter {
	return limiter{rl: rate.NewLimiter(rate.Limit(ratePerSec), 1)}
}

func (l limiter) wait(ctx context.Context) error {
	if err := l.rl.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}
	return nil
}

func timeoutOr(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultTimeout
	}
	return d
}

// sdkBaseURL compone la base que esperan los SDKs (con '/' final).
// base es solo el host configurado; vacío usa el de producción.
func sdkBaseURL(base, def, prefix string) string {
	if base == "" {
		base = def
	}
	return strings.TrimRight(base, "/") + prefix + "/"
}
