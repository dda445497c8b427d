package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/alejandrodnm/copybot/internal/domain"
)

const (
	defaultOpenAIBase  = "https://api.openai.com"
	defaultOpenAIModel = "gpt-4o-mini"
)

// OpenAI implementa ports.RationaleProvider sobre Chat Completions.
type OpenAI struct {
	client  openai.Client
	limiter limiter
	model   string
}

// NewOpenAI crea el proveedor. base y model vacíos usan los de producción.
func NewOpenAI(cfg Config) *OpenAI {
	model := cfg.Model
	if model == "" {
		model = defaultOpenAIModel
	}
	return &OpenAI{
		client: openai.NewClient(
			option.WithAPIKey(cfg.APIKey),
			option.WithBaseURL(sdkBaseURL(cfg.BaseURL, defaultOpenAIBase, "/v1")),
			option.WithMaxRetries(maxRetries),
			option.WithRequestTimeout(timeoutOr(cfg.Timeout)),
		),
		limiter: newLimiter(3),
		model:   model,
	}
}

// Name devuelve el identificador del proveedor.
func (o *OpenAI) Name() string { return ProviderOpenAI }

// RequestTradeRationale envía los prompts y devuelve el texto de la respuesta.
func (o *OpenAI) RequestTradeRationale(ctx context.Context, req domain.RationaleRequest) (string, error) {
	if err := o.limiter.wait(ctx); err != nil {
		return "", fmt.Errorf("llm.OpenAI: %w", err)
	}

	resp, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: shared.ChatModel(o.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.Prompt),
		},
		Temperature: openai.Float(0.2),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
	})
	if err != nil {
		return "", fmt.Errorf("llm.OpenAI: %w", err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", fmt.Errorf("llm.OpenAI: empty completion")
	}
	return resp.Choices[0].Message.Content, nil
}
