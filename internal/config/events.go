package config

import "time"

// EventsConfig configures the event-signal pipeline.
type EventsConfig struct {
	Enabled             bool     `yaml:"enabled" default:"true"`
	NewsSources         []string `yaml:"news_sources" validate:"dive,url"`
	FetchTimeoutSeconds int      `yaml:"fetch_timeout_seconds" default:"10" validate:"gt=0"`

	UseVacancies        bool   `yaml:"use_vacancies" default:"true"`
	VacanciesURL        string `yaml:"vacancies_url" default:"https://api.hh.ru/vacancies" validate:"omitempty,url"`
	VacanciesPerPage    int    `yaml:"vacancies_per_page" default:"20" validate:"gt=0,lte=100"`
	VacanciesPeriodDays int    `yaml:"vacancies_period_days" default:"7" validate:"gt=0"`
	RequestsPerMinute   int    `yaml:"requests_per_minute" default:"10" validate:"gt=0"`

	PositiveKeywords []string `yaml:"positive_keywords"`
	NegativeKeywords []string `yaml:"negative_keywords"`
	StrongPositive   []string `yaml:"strong_positive"`
	StrongNegative   []string `yaml:"strong_negative"`

	CacheTTLSeconds int    `yaml:"cache_ttl_seconds" default:"3600" validate:"gte=0"`
	CacheBackend    string `yaml:"cache_backend" default:"memory" validate:"oneof=memory redis"`
	HistoryLimit    int    `yaml:"history_limit" default:"100" validate:"gt=0"`

	LLM LLMConfig `yaml:"llm"`
}

// FetchTimeout is the per-source fetch deadline.
func (e EventsConfig) FetchTimeout() time.Duration {
	return time.Duration(e.FetchTimeoutSeconds) * time.Second
}

// CacheTTL is the lifetime of a collected aggregate.
func (e EventsConfig) CacheTTL() time.Duration {
	return time.Duration(e.CacheTTLSeconds) * time.Second
}

// SetDefaults fills the keyword and source lists, which are too long for struct tags.
func (e *EventsConfig) SetDefaults() {
	if e.NewsSources == nil {
		e.NewsSources = []string{
			"https://www.interfax.ru/rss.asp",
			"https://www.rbc.ru/rss/",
		}
	}
	if e.PositiveKeywords == nil {
		e.PositiveKeywords = []string{
			"запуск", "запущен", "фьючерс", "опцион", "новая секция",
			"развитие продукта", "тестирование", "лицензия", "расширение торгов",
			"api", "инновация", "партнёрство", "открытие", "прибыль",
			"рост", "успешно", "одобрен",
		}
	}
	if e.NegativeKeywords == nil {
		e.NegativeKeywords = []string{
			"расследование", "приостановка", "санкции", "убытки", "падение",
			"кризис", "банкротство", "штраф", "скандал", "закрыт", "отменён",
		}
	}
	if e.StrongPositive == nil {
		e.StrongPositive = []string{
			"запуск", "запущен", "открыт", "открытие", "новый продукт",
			"расширение", "рост", "прибыль", "успешно", "лидер", "инновация",
		}
	}
	if e.StrongNegative == nil {
		e.StrongNegative = []string{
			"санкции", "убытки", "падение", "кризис", "расследование",
			"приостановка", "закрыт", "банкротство", "штраф", "скандал",
		}
	}
}

// LLM usage policies.
const (
	UseForAll          = "all"
	UseForRelevantOnly = "relevant_only"
	UseForUncertain    = "uncertain"
)

// LLMConfig configures the optional hybrid sentiment refinement.
type LLMConfig struct {
	Enabled             bool    `yaml:"enabled"`
	Provider            string  `yaml:"provider" default:"ollama" validate:"oneof=ollama openai localai claude gemini"`
	Model               string  `yaml:"model" default:"mistral" validate:"required"`
	BaseURL             string  `yaml:"base_url"`
	APIKey              string  `yaml:"api_key"`
	UseFor              string  `yaml:"use_for" default:"relevant_only" validate:"oneof=all relevant_only uncertain"`
	TimeoutSeconds      int     `yaml:"timeout" default:"30" validate:"gt=0"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" default:"0.3" validate:"gte=0,lte=1"`
	Warmup              bool    `yaml:"warmup" default:"true"`
	MaxConcurrent       int64   `yaml:"max_concurrent" default:"3" validate:"gt=0,lte=3"`
	Temperature         float64 `yaml:"temperature" default:"0.3" validate:"gte=0,lte=2"`
	MaxTokens           int     `yaml:"max_tokens" default:"200" validate:"gt=0"`
	KeywordWeight       float64 `yaml:"keyword_weight" default:"0.3" validate:"gte=0,lte=1"`
	LLMWeight           float64 `yaml:"llm_weight" default:"0.7" validate:"gte=0,lte=1"`
}

// Timeout is the per-call deadline.
func (l LLMConfig) Timeout() time.Duration {
	return time.Duration(l.TimeoutSeconds) * time.Second
}
