package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/alejandrodnm/copybot/internal/domain"
)

const (
	defaultAnthropicBase  = "https://api.anthropic.com"
	defaultAnthropicModel = "claude-3-5-sonnet-20241022"
	anthropicMaxTokens    = 1024
)

// Anthropic implementa ports.RationaleProvider sobre la Messages API.
type Anthropic struct {
	client  anthropic.Client
	limiter limiter
	model   string
}

// NewAnthropic crea el proveedor. base y model vacíos usan los de producción.
func NewAnthropic(cfg Config) *Anthropic {
	model := cfg.Model
	if model == "" {
		model = defaultAnthropicModel
	}
	return &Anthropic{
		client: anthropic.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(sdkBaseURL(cfg.BaseURL, defaultAnthropicBase, "")),
			option.WithMaxRetries(maxRetries),
			option.WithRequestTimeout(timeoutOr(cfg.Timeout)),
		),
		limiter: newLimiter(1),
		model:   model,
	}
}

// Name devuelve el identificador del proveedor.
func (a *Anthropic) Name() string { return ProviderAnthropic }

// RequestTradeRationale envía los prompts y concatena los bloques de texto.
func (a *Anthropic) RequestTradeRationale(ctx context.Context, req domain.RationaleRequest) (string, error) {
	if err := a.limiter.wait(ctx); err != nil {
		return "", fmt.Errorf("llm.Anthropic: %w", err)
	}

	msg, err := a.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(a.model),
		MaxTokens: anthropicMaxTokens,
		System:    []anthropic.TextBlockParam{{Text: req.System}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm.Anthropic: %w", err)
	}

	var sb strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if strings.TrimSpace(sb.String()) == "" {
		return "", fmt.Errorf("llm.Anthropic: empty completion (stop_reason=%s)", msg.StopReason)
	}
	return sb.String(), nil
}
