package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// OpenAIConfig defines configuration options for the OpenAI chatter.
// Setting AzureEndpoint switches the client to an Azure OpenAI deployment.
type OpenAIConfig struct {
	APIKey          string
	Model           string
	MaxTokens       int
	Temperature     float32
	Timeout         time.Duration
	AzureEndpoint   string
	AzureAPIVersion string
	AzureDeployment string
	Logger          zerolog.Logger
}

// OpenAIChatter implements Chatter against the (Azure) OpenAI chat completion API.
type OpenAIChatter struct {
	client   *openai.Client
	cfg      OpenAIConfig
	provider string
	tracer   trace.Tracer
	logger   zerolog.Logger
}

// NewOpenAIChatter builds a chatter using the provided configuration.
func NewOpenAIChatter(cfg OpenAIConfig) (*OpenAIChatter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gpt-35-turbo"
	}

	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	provider := "openai"
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.AzureEndpoint != "" {
		provider = "azure"
		config = openai.DefaultAzureConfig(cfg.APIKey, cfg.AzureEndpoint)
		if cfg.AzureAPIVersion != "" {
			config.APIVersion = cfg.AzureAPIVersion
		}
		if deployment := cfg.AzureDeployment; deployment != "" {
			config.AzureModelMapperFunc = func(string) string { return deployment }
		}
	}

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &OpenAIChatter{
		client:   openai.NewClientWithConfig(config),
		cfg:      cfg,
		provider: provider,
		tracer:   otel.Tracer("github.com/noah-isme/ai-feedback-api/pkg/ai/openai"),
		logger:   logger.With().Str("component", "openai_chatter").Logger(),
	}, nil
}

// Chat sends the conversation and returns the first choice's content.
func (c *OpenAIChatter) Chat(parent context.Context, messages []Message) (string, error) {
	ctx, span := c.tracer.Start(parent, "openai.chat", trace.WithAttributes(
		attribute.String("ai.provider", c.provider),
		attribute.String("ai.model", c.cfg.Model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	request := openai.ChatCompletionRequest{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		Temperature: c.cfg.Temperature,
		Messages:    toOpenAIMessages(messages),
	}

	start := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, request)
	chatDuration.WithLabelValues(c.provider, c.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", c.fail(span, fmt.Errorf("openai chat: %w", err))
	}

	if len(resp.Choices) == 0 {
		return "", c.fail(span, ErrEmptyCompletion)
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		return "", c.fail(span, ErrEmptyCompletion)
	}

	c.logger.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Msg("chat completion received")

	return content, nil
}

func (c *OpenAIChatter) fail(span trace.Span, err error) error {
	chatFailures.WithLabelValues(c.provider, c.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	converted := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, message := range messages {
		role := openai.ChatMessageRoleUser
		switch message.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		converted = append(converted, openai.ChatCompletionMessage{
			Role:    role,
			Content: message.Content,
		})
	}
	return converted
}
