package events

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/model"
)

func keywordCfg() config.EventsConfig {
	return config.EventsConfig{
		PositiveKeywords: []string{"запуск", "фьючерс", "прибыль", "рост", "лицензия"},
		NegativeKeywords: []string{"санкции", "штраф", "убытки"},
		StrongPositive:   []string{"запуск", "прибыль"},
		StrongNegative:   []string{"санкции"},
	}
}

func TestKeywordAnalyzer_Scores(t *testing.T) {
	a := NewKeywordAnalyzer(keywordCfg())
	tests := []struct {
		name     string
		item     model.NewsItem
		score    float64
		category model.Category
		matched  []string
	}{
		{
			name:     "strong plus regular",
			item:     model.NewsItem{Title: "Биржа объявила запуск", Description: "новых фьючерс контрактов"},
			score:    0.6,
			category: model.CategoryHigh,
			matched:  []string{"+запуск", "+фьючерс"},
		},
		{
			name:     "single regular",
			item:     model.NewsItem{Title: "Получена лицензия"},
			score:    0.2,
			category: model.CategoryMedium,
			matched:  []string{"+лицензия"},
		},
		{
			name:     "clamped high",
			item:     model.NewsItem{Title: "Запуск и прибыль", Description: "рост, фьючерс, лицензия"},
			score:    1,
			category: model.CategoryHigh,
		},
		{
			name:     "negative",
			item:     model.NewsItem{Title: "Новые санкции", Description: "и штраф"},
			score:    -0.6,
			category: model.CategoryNegative,
			matched:  []string{"-санкции", "-штраф"},
		},
		{
			name:     "mixed stays neutral",
			item:     model.NewsItem{Title: "Рост и штраф"},
			score:    0,
			category: model.CategoryNeutral,
		},
		{
			name:     "no hits",
			item:     model.NewsItem{Title: "Погода в Москве"},
			score:    0,
			category: model.CategoryNeutral,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Analyze(tt.item, nil)
			assert.InDelta(t, tt.score, got.Score, 1e-9)
			assert.Equal(t, tt.category, got.Category)
			if tt.matched != nil {
				assert.Equal(t, tt.matched, got.MatchedKeywords)
			}
			assert.GreaterOrEqual(t, got.Score, -1.0)
			assert.LessOrEqual(t, got.Score, 1.0)
		})
	}
}

func TestKeywordAnalyzer_NoHitsIsIrrelevant(t *testing.T) {
	got := NewKeywordAnalyzer(keywordCfg()).Analyze(model.NewsItem{Title: "Погода"}, []string{"SBER"})
	assert.Zero(t, got.Score)
	assert.Equal(t, model.CategoryNeutral, got.Category)
	assert.False(t, got.Relevant)
	assert.Empty(t, got.MatchedKeywords)
}

func TestKeywordAnalyzer_EntityMentions(t *testing.T) {
	a := NewKeywordAnalyzer(keywordCfg())
	entities := []string{"SBER", "Сбер", "MOEX"}

	got := a.Analyze(model.NewsItem{Title: "Акции sber и Сбер выросли"}, entities)
	assert.Equal(t, []string{"SBER", "Сбер"}, got.MentionedEntities)
	assert.True(t, got.Relevant)

	got = a.Analyze(model.NewsItem{Title: "Сбербанк и SBERBANK отчитались"}, entities)
	assert.Empty(t, got.MentionedEntities, "substrings of longer words are not mentions")

	got = a.Analyze(model.NewsItem{Title: "Индекс (MOEX) закрылся"}, entities)
	assert.Equal(t, []string{"MOEX"}, got.MentionedEntities)
}

func TestMentionsWord(t *testing.T) {
	assert.True(t, mentionsWord("сбер", "сбер"))
	assert.True(t, mentionsWord("сбербанк, сбер.", "сбер"))
	assert.False(t, mentionsWord("сбербанк", "сбер"))
	assert.False(t, mentionsWord("asber", "sber"))
	assert.False(t, mentionsWord("sber_1", "sber"))
	assert.False(t, mentionsWord("anything", ""))
}

func TestKeywordAnalyzer_BatchOrder(t *testing.T) {
	a := NewKeywordAnalyzer(keywordCfg())
	items := []model.NewsItem{
		{Title: "Погода"},
		{Title: "Получена лицензия"},
		{Title: "SBER погода"},
		{Title: "Запуск, прибыль"},
	}
	out := a.AnalyzeBatch(items, []string{"SBER"})

	titles := make([]string, len(out))
	for i, it := range out {
		titles[i] = it.Item.Title
	}
	assert.Equal(t, []string{"Запуск, прибыль", "Получена лицензия", "SBER погода", "Погода"}, titles)
	for _, it := range out {
		assert.Equal(t, model.MethodKeyword, it.Method)
		assert.Equal(t, it.Keyword.Score, it.CombinedScore)
	}
}

func TestCategorize_Boundaries(t *testing.T) {
	assert.Equal(t, model.CategoryHigh, Categorize(0.6))
	assert.Equal(t, model.CategoryMedium, Categorize(0.59))
	assert.Equal(t, model.CategoryMedium, Categorize(0.2))
	assert.Equal(t, model.CategoryNeutral, Categorize(0.19))
	assert.Equal(t, model.CategoryNeutral, Categorize(-0.39))
	assert.Equal(t, model.CategoryNegative, Categorize(-0.4))
}
