package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"google.golang.org/api/option"
)

// GeminiConfig defines configuration options for the Gemini chatter.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float32
	Timeout     time.Duration
	Logger      zerolog.Logger
}

// GeminiChatter implements Chatter on top of Google's generative AI SDK.
type GeminiChatter struct {
	client *genai.Client
	model  *genai.GenerativeModel
	cfg    GeminiConfig
	tracer trace.Tracer
	logger zerolog.Logger
}

// NewGeminiChatter dials the Gemini API.
func NewGeminiChatter(ctx context.Context, cfg GeminiConfig) (*GeminiChatter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash"
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = 60 * time.Second
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SetTemperature(cfg.Temperature)

	logger := cfg.Logger
	if logger.GetLevel() == zerolog.Disabled {
		logger = zerolog.Nop()
	}

	return &GeminiChatter{
		client: client,
		model:  model,
		cfg:    cfg,
		tracer: otel.Tracer("github.com/noah-isme/ai-feedback-api/pkg/ai/gemini"),
		logger: logger.With().Str("component", "gemini_chatter").Logger(),
	}, nil
}

// Chat sends every message as one text part of a single prompt, see geminiParts.
func (g *GeminiChatter) Chat(parent context.Context, messages []Message) (string, error) {
	ctx, span := g.tracer.Start(parent, "gemini.chat", trace.WithAttributes(
		attribute.String("ai.provider", "gemini"),
		attribute.String("ai.model", g.cfg.Model),
	))
	defer span.End()

	ctx, cancel := context.WithTimeout(ctx, g.cfg.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.model.GenerateContent(ctx, geminiParts(messages)...)
	chatDuration.WithLabelValues("gemini", g.cfg.Model).Observe(time.Since(start).Seconds())
	if err != nil {
		return "", g.fail(span, fmt.Errorf("gemini chat: %w", err))
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", g.fail(span, ErrEmptyCompletion)
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			builder.WriteString(string(text))
		}
	}

	content := strings.TrimSpace(builder.String())
	if content == "" {
		return "", g.fail(span, ErrEmptyCompletion)
	}

	return content, nil
}

// Close releases the underlying client.
func (g *GeminiChatter) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

func (g *GeminiChatter) fail(span trace.Span, err error) error {
	chatFailures.WithLabelValues("gemini", g.cfg.Model).Inc()
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return err
}

// geminiParts flattens messages into text parts in order. System messages are
// sent as parts prefixed with "Instruction: " rather than through the model's
// SystemInstruction, which is shared by every caller of the model.
func geminiParts(messages []Message) []genai.Part {
	parts := make([]genai.Part, 0, len(messages))
	for _, message := range messages {
		if message.Role == RoleSystem {
			parts = append(parts, genai.Text("Instruction: "+message.Content))
			continue
		}
		parts = append(parts, genai.Text(message.Content))
	}
	return parts
}
