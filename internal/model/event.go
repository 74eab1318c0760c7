package model

import "time"

// EventLevel is the aggregated event-likelihood level.
type EventLevel string

const (
	EventLow               EventLevel = "LOW"
	EventMediumProbability EventLevel = "MEDIUM_PROBABILITY"
	EventHighProbability   EventLevel = "HIGH_PROBABILITY"
	EventNegativeSignal    EventLevel = "NEGATIVE_SIGNAL"
)

// Category is the per-item sentiment bucket.
type Category string

const (
	CategoryHigh     Category = "HIGH_PROBABILITY"
	CategoryMedium   Category = "MEDIUM_PROBABILITY"
	CategoryNeutral  Category = "NEUTRAL"
	CategoryNegative Category = "NEGATIVE"
)

// Analysis methods.
const (
	MethodKeyword = "keyword"
	MethodHybrid  = "hybrid"
)

// NewsItem is one piece of collected text: a feed entry or a job posting.
type NewsItem struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Source      string    `json:"source"`
	Link        string    `json:"link,omitempty"`
	Employer    string    `json:"employer,omitempty"`
	PublishedAt time.Time `json:"published_at,omitempty"`
}

// Text returns the text that keyword matching runs over.
func (n NewsItem) Text() string { return n.Title + " " + n.Description }

// KeywordAnalysis is the keyword stage output for one item.
type KeywordAnalysis struct {
	Score             float64  `json:"keyword_score"`
	Category          Category `json:"keyword_category"`
	MatchedKeywords   []string `json:"matched_keywords"`
	MentionedEntities []string `json:"mentioned_entities"`
	Relevant          bool     `json:"is_relevant"`
}

// LLMVerdict is a successful LLM sentiment classification.
type LLMVerdict struct {
	Sentiment  string  `json:"llm_sentiment"`
	Score      float64 `json:"llm_score"`
	Confidence string  `json:"llm_confidence"`
	Reasoning  string  `json:"llm_reasoning"`
}

// AnalyzedItem is a NewsItem plus the outputs of every analysis stage.
type AnalyzedItem struct {
	Item          NewsItem        `json:"item"`
	Keyword       KeywordAnalysis `json:"keyword"`
	LLM           *LLMVerdict     `json:"llm,omitempty"`
	LLMUsed       bool            `json:"llm_used"`
	LLMError      string          `json:"llm_error,omitempty"`
	CombinedScore float64         `json:"score"`
	Category      Category        `json:"category"`
	Method        string          `json:"analysis_method"`
}

// CategoryStats are the per-category counts over an analyzed batch.
type CategoryStats struct {
	Total    int     `json:"total"`
	High     int     `json:"high_probability"`
	Medium   int     `json:"medium_probability"`
	Neutral  int     `json:"neutral"`
	Negative int     `json:"negative"`
	Relevant int     `json:"relevant"`
	AvgScore float64 `json:"avg_score"`
}

// EventSignal is the aggregated news-driven event estimate.
type EventSignal struct {
	ID        string         `json:"id"`
	Level     EventLevel     `json:"signal_level"`
	Reason    string         `json:"reason"`
	Stats     CategoryStats  `json:"stats"`
	TopItems  []AnalyzedItem `json:"top_items"`
	Entities  []string       `json:"companies"`
	LLMUsed   bool           `json:"llm_used"`
	Timestamp time.Time      `json:"timestamp"`
}
