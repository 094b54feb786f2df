package genai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultOpenAIModel is used when no model is configured.
const DefaultOpenAIModel = string(openai.ChatModelGPT4oMini)

// chatService defines minimal interface for chat completions.
type chatService interface {
	Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error)
}

// completions adapts the SDK's completion service to chatService.
type completions struct {
	svc *openai.ChatCompletionService
}

func (c completions) Create(ctx context.Context, params openai.ChatCompletionNewParams) (openai.ChatCompletion, error) {
	resp, err := c.svc.New(ctx, params)
	if err != nil {
		return openai.ChatCompletion{}, err
	}
	return *resp, nil
}

// OpenAIOpts holds configuration options for the OpenAI backend.
type OpenAIOpts struct {
	APIKey      string
	Temperature float64
	MaxTokens   int64
}

// OpenAIOption defines a function for configuring OpenAIOpts.
type OpenAIOption func(*OpenAIOpts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) OpenAIOption {
	return func(o *OpenAIOpts) { o.APIKey = key }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) OpenAIOption {
	return func(o *OpenAIOpts) { o.Temperature = t }
}

// WithMaxTokens caps the completion length.
func WithMaxTokens(n int64) OpenAIOption {
	return func(o *OpenAIOpts) { o.MaxTokens = n }
}

// OpenAIBackend calls the OpenAI chat completions API. It only sends text
// parts; inline media is rejected.
type OpenAIBackend struct {
	chat        chatService
	temperature float64
	maxTokens   int64
}

// Compile-time check that OpenAIBackend implements Backend.
var _ Backend = (*OpenAIBackend)(nil)

// NewOpenAIBackend initializes a new OpenAI backend.
func NewOpenAIBackend(opts ...OpenAIOption) (*OpenAIBackend, error) {
	cfg := OpenAIOpts{Temperature: geminiTemperature, MaxTokens: geminiMaxOutputTokens}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}
	cli := openai.NewClient(option.WithAPIKey(cfg.APIKey))
	slog.Debug("OpenAIBackend.NewOpenAIBackend: client created", "temperature", cfg.Temperature, "max_tokens", cfg.MaxTokens)
	return &OpenAIBackend{
		chat:        completions{svc: &cli.Chat.Completions},
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// GenerateText maps user turns to user messages and model turns to
// assistant messages.
func (b *OpenAIBackend) GenerateText(ctx context.Context, turns []Turn, model string) (string, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(turns))
	for _, t := range turns {
		var text string
		for i, p := range t.Parts {
			if p.IsData() {
				return "", fmt.Errorf("openai backend: %w: %s", ErrUnsupportedPart, p.MimeType)
			}
			if i > 0 {
				text += "\n"
			}
			text += p.Text
		}
		if t.Role == RoleModel {
			messages = append(messages, openai.AssistantMessage(text))
		} else {
			messages = append(messages, openai.UserMessage(text))
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: messages,
	}
	if b.temperature > 0 {
		params.Temperature = openai.Float(b.temperature)
	}
	if b.maxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(b.maxTokens)
	}

	resp, err := b.chat.Create(ctx, params)
	if err != nil {
		var apiErr *openai.Error
		if errors.As(err, &apiErr) {
			return "", &BackendError{Status: apiErr.StatusCode, Message: err.Error()}
		}
		return "", &BackendError{Message: err.Error()}
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoChoicesReturned
	}
	return resp.Choices[0].Message.Content, nil
}
