package llm

import (
	"context"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"MoexSentinel/internal/config"
)

// Provider names.
const (
	ProviderOllama  = "ollama"
	ProviderOpenAI  = "openai"
	ProviderLocalAI = "localai"
	ProviderClaude  = "claude"
	ProviderGemini  = "gemini"
)

var defaultBaseURLs = map[string]string{
	ProviderOllama:  "http://localhost:11434",
	ProviderLocalAI: "http://localhost:8080",
}

// OpenAICompatible talks to any server exposing the OpenAI chat API:
// Ollama, LocalAI and OpenAI itself.
type OpenAICompatible struct {
	client      *openai.Client
	name        string
	model       string
	temperature float32
	maxTokens   int
}

func NewOpenAICompatible(name string, cfg config.LLMConfig) *OpenAICompatible {
	oc := openai.DefaultConfig(cfg.APIKey)
	base := cfg.BaseURL
	if base == "" {
		base = defaultBaseURLs[name]
	}
	if base != "" {
		oc.BaseURL = apiBase(base)
	}
	oc.HTTPClient = &http.Client{Timeout: cfg.Timeout()}

	return &OpenAICompatible{
		client:      openai.NewClientWithConfig(oc),
		name:        name,
		model:       cfg.Model,
		temperature: float32(cfg.Temperature),
		maxTokens:   cfg.MaxTokens,
	}
}

// apiBase appends the /v1 prefix the chat API lives under.
func apiBase(base string) string {
	base = strings.TrimRight(base, "/")
	if strings.HasSuffix(base, "/v1") {
		return base
	}
	return base + "/v1"
}

func (p *OpenAICompatible) Name() string { return p.name }

// CheckAvailability reports whether the server lists the configured model.
func (p *OpenAICompatible) CheckAvailability(ctx context.Context) bool {
	list, err := p.client.ListModels(ctx)
	if err != nil {
		return false
	}
	for _, m := range list.Models {
		if modelMatches(m.ID, p.model) {
			return true
		}
	}
	return false
}

// modelMatches compares model ids ignoring an Ollama-style ":tag" suffix.
func modelMatches(listed, want string) bool {
	if listed == want || listed == want+":latest" {
		return true
	}
	name, _, _ := strings.Cut(listed, ":")
	return name == want
}

func (p *OpenAICompatible) AnalyzeSentiment(ctx context.Context, text, entity string) (Response, error) {
	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: BuildSentimentPrompt(text, entity)},
		},
		Temperature: p.temperature,
		MaxTokens:   p.maxTokens,
	}
	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return Response{Provider: p.name}, classify(ctx, p.name, err)
	}
	if len(resp.Choices) == 0 {
		return Response{Provider: p.name}, ErrMalformedResponse
	}
	return complete(p.name, resp.Choices[0].Message.Content)
}
