package llm

import (
	"context"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"MoexSentinel/internal/config"
)

type Claude struct {
	client      anthropic.Client
	apiKey      string
	model       string
	temperature float64
	maxTokens   int64
}

func NewClaude(cfg config.LLMConfig) *Claude {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithRequestTimeout(cfg.Timeout()),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	return &Claude{
		client:      anthropic.NewClient(opts...),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   int64(cfg.MaxTokens),
	}
}

func (p *Claude) Name() string { return ProviderClaude }

// CheckAvailability only checks that a key is configured; the API has no cheap probe.
func (p *Claude) CheckAvailability(context.Context) bool { return p.apiKey != "" }

func (p *Claude) AnalyzeSentiment(ctx context.Context, text, entity string) (Response, error) {
	msg, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(p.model),
		MaxTokens:   p.maxTokens,
		Temperature: anthropic.Float(p.temperature),
		System:      []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(BuildSentimentPrompt(text, entity))),
		},
	})
	if err != nil {
		return Response{Provider: ProviderClaude}, classify(ctx, ProviderClaude, err)
	}

	var out strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			out.WriteString(block.Text)
		}
	}
	return complete(ProviderClaude, out.String())
}
