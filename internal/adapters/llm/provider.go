package llm

import (
	"fmt"
	"strings"
	"time"

	"github.com/alejandrodnm/copybot/internal/ports"
)

// Proveedores soportados.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderOffline   = "offline"
)

// Config selecciona y configura el proveedor de IA.
type Config struct {
	Provider string
	APIKey   string
	Model    string
	BaseURL  string
	Timeout  time.Duration
}

// New devuelve el proveedor indicado por cfg.Provider. El resto del sistema
// solo ve ports.RationaleProvider.
func New(cfg Config) (ports.RationaleProvider, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm.New: OPENAI_API_KEY is required for provider %q", ProviderOpenAI)
		}
		return NewOpenAI(cfg), nil
	case ProviderAnthropic, "claude":
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("llm.New: ANTHROPIC_API_KEY is required for provider %q", ProviderAnthropic)
		}
		return NewAnthropic(cfg), nil
	case ProviderOffline, "":
		return NewOffline(), nil
	default:
		return nil, fmt.Errorf("llm.New: unknown provider %q (want openai, anthropic or offline)", cfg.Provider)
	}
}
