package llm

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

const systemPrompt = "You are a financial news analyst. Answer with a single JSON object and nothing else."

// BuildSentimentPrompt renders the classification request for one text.
// entity narrows the question to a single company when non-empty.
func BuildSentimentPrompt(text, entity string) string {
	var b strings.Builder
	b.WriteString("Classify the sentiment of this financial news item")
	if entity != "" {
		fmt.Fprintf(&b, " about the company %q", entity)
	}
	b.WriteString(". The text may be in Russian.\n\n")
	fmt.Fprintf(&b, "News: %q\n\n", text)
	b.WriteString("Reply with JSON of the form:\n")
	b.WriteString(`{"sentiment": "positive|neutral|negative", "confidence": "high|medium|low", "score": <number from -1.0 to 1.0>, "reasoning": "<one sentence>"}`)
	b.WriteString("\n\nJSON:")
	return b.String()
}

type sentimentPayload struct {
	Sentiment  string          `json:"sentiment"`
	Confidence string          `json:"confidence"`
	Score      json.RawMessage `json:"score"`
	Reasoning  string          `json:"reasoning"`
}

// ParseSentiment extracts the JSON verdict from raw model output.
// Code fences and surrounding prose are tolerated. Missing fields default to
// neutral, medium and 0, and the score is clamped to [-1, 1].
func ParseSentiment(raw string) (Response, error) {
	resp := Response{RawResponse: raw}

	body := stripFences(raw)
	start := strings.Index(body, "{")
	end := strings.LastIndex(body, "}")
	if start < 0 || end < start {
		return resp, fmt.Errorf("%w: no JSON object in %q", ErrMalformedResponse, truncate(raw, 80))
	}

	var p sentimentPayload
	if err := json.Unmarshal([]byte(body[start:end+1]), &p); err != nil {
		return resp, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	score, err := parseScore(p.Score)
	if err != nil {
		return resp, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}

	resp.Sentiment = normalizeSentiment(p.Sentiment)
	resp.Confidence = normalizeConfidence(p.Confidence)
	resp.Score = math.Max(-1, math.Min(1, score))
	resp.Reasoning = strings.TrimSpace(p.Reasoning)
	return resp, nil
}

func stripFences(s string) string {
	s = strings.TrimSpace(s)
	for _, fence := range []string{"```json", "```"} {
		i := strings.Index(s, fence)
		if i < 0 {
			continue
		}
		rest := s[i+len(fence):]
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		return strings.TrimSpace(rest)
	}
	return s
}

// parseScore accepts a number, a quoted number or nothing.
func parseScore(raw json.RawMessage) (float64, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, fmt.Errorf("score %s is not a number", raw)
	}
	f, err := strconv.ParseFloat(strings.TrimPrefix(strings.TrimSpace(s), "+"), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("score %q is not a number", s)
	}
	return f, nil
}

func normalizeSentiment(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case SentimentPositive, SentimentNegative:
		return s
	}
	return SentimentNeutral
}

func normalizeConfidence(s string) string {
	switch s = strings.ToLower(strings.TrimSpace(s)); s {
	case "high", "low":
		return s
	}
	return "medium"
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
