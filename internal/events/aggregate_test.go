package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"MoexSentinel/internal/model"
)

func TestLevel_Rules(t *testing.T) {
	tests := []struct {
		name  string
		stats model.CategoryStats
		want  model.EventLevel
	}{
		{"three negatives win", model.CategoryStats{Negative: 3, High: 5, AvgScore: 0.9}, model.EventNegativeSignal},
		{"two high strong avg", model.CategoryStats{High: 2, AvgScore: 0.41}, model.EventHighProbability},
		{"two high weak avg", model.CategoryStats{High: 2, AvgScore: 0.4}, model.EventLow},
		{"one high two medium", model.CategoryStats{High: 1, Medium: 2}, model.EventMediumProbability},
		{"four medium", model.CategoryStats{Medium: 4, AvgScore: 0.31}, model.EventMediumProbability},
		{"four medium weak", model.CategoryStats{Medium: 4, AvgScore: 0.3}, model.EventLow},
		{"five relevant", model.CategoryStats{Relevant: 5, AvgScore: 0.21}, model.EventMediumProbability},
		{"nothing", model.CategoryStats{Neutral: 10}, model.EventLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Level(tt.stats))
		})
	}
}

func TestStats(t *testing.T) {
	items := []model.AnalyzedItem{
		{Category: model.CategoryHigh, CombinedScore: 0.8, Keyword: model.KeywordAnalysis{Relevant: true}},
		{Category: model.CategoryMedium, CombinedScore: 0.4, Keyword: model.KeywordAnalysis{Relevant: true}},
		{Category: model.CategoryNegative, CombinedScore: -0.6},
		{Category: model.CategoryNeutral, CombinedScore: 0},
	}
	s := Stats(items)
	assert.Equal(t, model.CategoryStats{Total: 4, High: 1, Medium: 1, Neutral: 1, Negative: 1, Relevant: 2, AvgScore: 0.15}, roundAvg(s))
}

func roundAvg(s model.CategoryStats) model.CategoryStats {
	s.AvgScore = float64(int(s.AvgScore*100+0.5)) / 100
	return s
}

func TestAggregate_Empty(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	sig := Aggregate(nil, []string{"SBER"}, now)
	assert.Equal(t, model.EventLow, sig.Level)
	assert.Equal(t, ReasonNoData, sig.Reason)
	assert.Zero(t, sig.Stats.Total)
	assert.Equal(t, now, sig.Timestamp)
}

func TestAggregate_HighReasonKeywords(t *testing.T) {
	var items []model.AnalyzedItem
	for i := 0; i < 7; i++ {
		items = append(items, model.AnalyzedItem{
			Category:      model.CategoryHigh,
			CombinedScore: 0.8,
			Keyword:       model.KeywordAnalysis{MatchedKeywords: []string{"+запуск", "+рост", "+kw" + string(rune('a'+i))}},
		})
	}
	sig := Aggregate(items, nil, time.Now())
	assert.Equal(t, model.EventHighProbability, sig.Level)
	assert.Len(t, sig.TopItems, 5)
	assert.Contains(t, sig.Reason, "keywords: +запуск, +рост, +kwa, +kwb, +kwc")
	assert.NotContains(t, sig.Reason, "+kwd")
}
