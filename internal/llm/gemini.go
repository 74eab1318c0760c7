package llm

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"MoexSentinel/internal/config"
)

type Gemini struct {
	client      *genai.Client
	model       string
	temperature float32
	maxTokens   int32
}

func NewGemini(ctx context.Context, cfg config.LLMConfig) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: gemini: %v", ErrUnavailable, err)
	}
	return &Gemini{
		client:      client,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   int32(cfg.MaxTokens),
	}, nil
}

func (p *Gemini) Name() string { return ProviderGemini }

func (p *Gemini) CheckAvailability(ctx context.Context) bool {
	_, err := p.client.Models.Get(ctx, p.model, nil)
	return err == nil
}

func (p *Gemini) AnalyzeSentiment(ctx context.Context, text, entity string) (Response, error) {
	resp, err := p.client.Models.GenerateContent(ctx, p.model,
		[]*genai.Content{genai.NewContentFromText(BuildSentimentPrompt(text, entity), genai.RoleUser)},
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
			Temperature:       genai.Ptr(p.temperature),
			MaxOutputTokens:   p.maxTokens,
		})
	if err != nil {
		return Response{Provider: ProviderGemini}, classify(ctx, ProviderGemini, err)
	}
	return complete(ProviderGemini, resp.Text())
}
