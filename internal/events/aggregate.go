package events

import (
	"fmt"
	"strings"
	"time"

	"MoexSentinel/internal/model"
)

const (
	topItemsN      = 5
	reasonKeywords = 5

	// ReasonNoData is the reason of a signal built from an empty collection.
	ReasonNoData = "no data collected for analysis"
)

// Stats counts categories and relevance and averages the combined score.
func Stats(items []model.AnalyzedItem) model.CategoryStats {
	s := model.CategoryStats{Total: len(items)}
	if len(items) == 0 {
		return s
	}
	sum := 0.0
	for _, it := range items {
		switch it.Category {
		case model.CategoryHigh:
			s.High++
		case model.CategoryMedium:
			s.Medium++
		case model.CategoryNegative:
			s.Negative++
		default:
			s.Neutral++
		}
		if it.Keyword.Relevant {
			s.Relevant++
		}
		sum += it.CombinedScore
	}
	s.AvgScore = sum / float64(len(items))
	return s
}

// Level applies the aggregation rules in order; the first match wins.
func Level(s model.CategoryStats) model.EventLevel {
	switch {
	case s.Negative >= 3:
		return model.EventNegativeSignal
	case s.High >= 2 && s.AvgScore > 0.4:
		return model.EventHighProbability
	case s.High >= 1 && s.Medium >= 2,
		s.Medium >= 4 && s.AvgScore > 0.3,
		s.Relevant >= 5 && s.AvgScore > 0.2:
		return model.EventMediumProbability
	}
	return model.EventLow
}

// Reason renders the human-readable justification for a level.
func Reason(level model.EventLevel, s model.CategoryStats, top []model.AnalyzedItem) string {
	switch level {
	case model.EventHighProbability:
		return fmt.Sprintf("%d strongly positive items, avg score %.2f, keywords: %s",
			s.High, s.AvgScore, strings.Join(topKeywords(top), ", "))
	case model.EventMediumProbability:
		return fmt.Sprintf("%d moderately positive items, %d relevant, avg score %.2f",
			s.Medium, s.Relevant, s.AvgScore)
	case model.EventNegativeSignal:
		return fmt.Sprintf("%d negative items, possible risks", s.Negative)
	}
	return "not enough evidence for a significant signal"
}

func topKeywords(top []model.AnalyzedItem) []string {
	seen := make(map[string]bool)
	var out []string
	for _, it := range top {
		for _, kw := range it.Keyword.MatchedKeywords {
			if seen[kw] {
				continue
			}
			seen[kw] = true
			out = append(out, kw)
			if len(out) == reasonKeywords {
				return out
			}
		}
	}
	return out
}

// Aggregate builds the event signal for an analyzed, ordered batch.
// The ID is left for the caller to assign.
func Aggregate(items []model.AnalyzedItem, entities []string, now time.Time) model.EventSignal {
	sig := model.EventSignal{
		Entities:  append([]string{}, entities...),
		Timestamp: now,
	}
	if len(items) == 0 {
		sig.Level = model.EventLow
		sig.Reason = ReasonNoData
		return sig
	}

	top := items
	if len(top) > topItemsN {
		top = top[:topItemsN]
	}
	sig.Stats = Stats(items)
	sig.Level = Level(sig.Stats)
	sig.Reason = Reason(sig.Level, sig.Stats, top)
	sig.TopItems = append([]model.AnalyzedItem(nil), top...)
	for _, it := range items {
		if it.LLMUsed {
			sig.LLMUsed = true
			break
		}
	}
	return sig
}
