package llm

import (
	"context"
	"errors"
	"fmt"

	"MoexSentinel/internal/config"
)

var (
	ErrUnavailable       = errors.New("llm: provider unavailable")
	ErrTimeout           = errors.New("llm: request timed out")
	ErrMalformedResponse = errors.New("llm: malformed response")
)

// Sentiment labels a provider may return.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// Response is one parsed sentiment classification.
type Response struct {
	Sentiment   string
	Score       float64
	Confidence  string
	Reasoning   string
	RawResponse string
	Provider    string
}

// Provider classifies the sentiment of a piece of financial text.
// Implementations are safe for concurrent use.
type Provider interface {
	Name() string
	CheckAvailability(ctx context.Context) bool
	AnalyzeSentiment(ctx context.Context, text, entity string) (Response, error)
}

// New builds the provider selected by cfg.Provider.
func New(ctx context.Context, cfg config.LLMConfig) (Provider, error) {
	switch cfg.Provider {
	case ProviderOllama, ProviderOpenAI, ProviderLocalAI:
		return NewOpenAICompatible(cfg.Provider, cfg), nil
	case ProviderClaude:
		return NewClaude(cfg), nil
	case ProviderGemini:
		return NewGemini(ctx, cfg)
	}
	return nil, fmt.Errorf("%w: unknown provider %q", ErrUnavailable, cfg.Provider)
}

// classify maps a transport failure onto the package sentinels.
func classify(ctx context.Context, provider string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %v", ErrTimeout, provider, err)
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, provider, err)
}

// complete turns raw model output into a Response stamped with the provider name.
func complete(provider, raw string) (Response, error) {
	resp, err := ParseSentiment(raw)
	resp.Provider = provider
	if err != nil {
		return resp, fmt.Errorf("%s: %w", provider, err)
	}
	return resp, nil
}
