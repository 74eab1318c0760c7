package events

import (
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/model"
)

// Category thresholds shared by the keyword and hybrid stages.
const (
	highMin     = 0.6
	mediumMin   = 0.2
	negativeMax = -0.4

	keywordNormalizer = 5.0
	intensifierWeight = 2.0
)

// KeywordAnalyzer scores items by weighted keyword hits.
type KeywordAnalyzer struct {
	positive       []string
	negative       []string
	strongPositive map[string]bool
	strongNegative map[string]bool
}

func NewKeywordAnalyzer(cfg config.EventsConfig) *KeywordAnalyzer {
	return &KeywordAnalyzer{
		positive:       lowerAll(cfg.PositiveKeywords),
		negative:       lowerAll(cfg.NegativeKeywords),
		strongPositive: toSet(cfg.StrongPositive),
		strongNegative: toSet(cfg.StrongNegative),
	}
}

// Analyze scores one item against the keyword lists and the target entities.
func (a *KeywordAnalyzer) Analyze(item model.NewsItem, entities []string) model.KeywordAnalysis {
	text := strings.ToLower(item.Text())

	sum := 0.0
	var matched []string
	for _, kw := range a.positive {
		if strings.Contains(text, kw) {
			sum += weightOf(kw, a.strongPositive)
			matched = append(matched, "+"+kw)
		}
	}
	for _, kw := range a.negative {
		if strings.Contains(text, kw) {
			sum -= weightOf(kw, a.strongNegative)
			matched = append(matched, "-"+kw)
		}
	}
	score := math.Max(-1, math.Min(1, sum/keywordNormalizer))

	var mentioned []string
	for _, e := range entities {
		if mentionsWord(text, strings.ToLower(strings.TrimSpace(e))) {
			mentioned = append(mentioned, e)
		}
	}

	return model.KeywordAnalysis{
		Score:             score,
		Category:          Categorize(score),
		MatchedKeywords:   matched,
		MentionedEntities: mentioned,
		Relevant:          len(mentioned) > 0 || len(matched) > 0,
	}
}

// AnalyzeBatch returns one AnalyzedItem per input, stable-sorted by
// relevance and then score, both descending.
func (a *KeywordAnalyzer) AnalyzeBatch(items []model.NewsItem, entities []string) []model.AnalyzedItem {
	out := make([]model.AnalyzedItem, len(items))
	for i, it := range items {
		ka := a.Analyze(it, entities)
		out[i] = model.AnalyzedItem{
			Item:          it,
			Keyword:       ka,
			CombinedScore: ka.Score,
			Category:      ka.Category,
			Method:        model.MethodKeyword,
		}
	}
	sortAnalyzed(out)
	return out
}

// Categorize maps a score in [-1, 1] to its category.
func Categorize(score float64) model.Category {
	switch {
	case score >= highMin:
		return model.CategoryHigh
	case score >= mediumMin:
		return model.CategoryMedium
	case score <= negativeMax:
		return model.CategoryNegative
	}
	return model.CategoryNeutral
}

func sortAnalyzed(items []model.AnalyzedItem) {
	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if a.Keyword.Relevant != b.Keyword.Relevant {
			return a.Keyword.Relevant
		}
		return a.CombinedScore > b.CombinedScore
	})
}

func weightOf(kw string, strong map[string]bool) float64 {
	if strong[kw] {
		return intensifierWeight
	}
	return 1
}

// mentionsWord reports whether word occurs in text bounded by non-word runes.
// Both arguments must already be lowercase.
func mentionsWord(text, word string) bool {
	if word == "" {
		return false
	}
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], word)
		if i < 0 {
			return false
		}
		start := from + i
		end := start + len(word)
		if wordBoundaryBefore(text, start) && wordBoundaryAfter(text, end) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		from = start + size
	}
	return false
}

func wordBoundaryBefore(s string, i int) bool {
	if i == 0 {
		return true
	}
	r, _ := utf8.DecodeLastRuneInString(s[:i])
	return !isWordRune(r)
}

func wordBoundaryAfter(s string, i int) bool {
	if i >= len(s) {
		return true
	}
	r, _ := utf8.DecodeRuneInString(s[i:])
	return !isWordRune(r)
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func lowerAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toSet(in []string) map[string]bool {
	set := make(map[string]bool, len(in))
	for _, s := range lowerAll(in) {
		set[s] = true
	}
	return set
}
