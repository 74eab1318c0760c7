package events

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/llm"
	"MoexSentinel/internal/metrics"
	"MoexSentinel/internal/model"
)

const warmupText = "Московская биржа опубликовала итоги торгов за день"

// Refiner blends LLM sentiment into keyword results for items the policy selects.
type Refiner struct {
	provider llm.Provider
	cfg      config.LLMConfig
	sem      *semaphore.Weighted
	metrics  *metrics.Recorder
	log      zerolog.Logger
}

func NewRefiner(provider llm.Provider, cfg config.LLMConfig, rec *metrics.Recorder, log zerolog.Logger) *Refiner {
	if rec == nil {
		rec = metrics.Nop()
	}
	return &Refiner{
		provider: provider,
		cfg:      cfg,
		sem:      semaphore.NewWeighted(cfg.MaxConcurrent),
		metrics:  rec,
		log:      log,
	}
}

// Prepare probes the provider and, if configured, issues one warm-up call so
// the first real request does not pay the model load time.
func (r *Refiner) Prepare(ctx context.Context) bool {
	pctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout())
	defer cancel()
	if !r.provider.CheckAvailability(pctx) {
		r.log.Warn().Str("provider", r.provider.Name()).Str("model", r.cfg.Model).Msg("llm unavailable, keyword analysis only")
		return false
	}
	if r.cfg.Warmup {
		wctx, wcancel := context.WithTimeout(ctx, r.cfg.Timeout())
		defer wcancel()
		start := time.Now()
		if _, err := r.provider.AnalyzeSentiment(wctx, warmupText, ""); err != nil {
			r.log.Warn().Err(err).Msg("llm warm-up failed")
		} else {
			r.log.Info().Dur("took", time.Since(start)).Msg("llm warmed up")
		}
	}
	return true
}

// Refine returns a new slice where every selected item carries an LLM verdict
// and a blended score. Failures keep the keyword result and record LLMError.
func (r *Refiner) Refine(ctx context.Context, items []model.AnalyzedItem, entities []string) []model.AnalyzedItem {
	out := append([]model.AnalyzedItem(nil), items...)
	entity := ""
	if len(entities) > 0 {
		entity = entities[0]
	}

	var wg sync.WaitGroup
	for i := range out {
		if !r.shouldUse(out[i].Keyword) {
			continue
		}
		text := strings.TrimSpace(out[i].Item.Title + ". " + out[i].Item.Description)
		if text == "." || text == "" {
			continue
		}
		if err := r.sem.Acquire(ctx, 1); err != nil {
			out[i].LLMError = err.Error()
			continue
		}
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			defer r.sem.Release(1)
			out[i] = r.refineOne(ctx, out[i], text, entity)
		}(i)
	}
	wg.Wait()

	sortAnalyzed(out)
	return out
}

func (r *Refiner) refineOne(ctx context.Context, item model.AnalyzedItem, text, entity string) model.AnalyzedItem {
	cctx, cancel := context.WithTimeout(ctx, r.cfg.Timeout())
	defer cancel()

	start := time.Now()
	resp, err := r.provider.AnalyzeSentiment(cctx, text, entity)
	r.metrics.ObserveSince("llm", start)
	r.metrics.LLMCall(r.provider.Name(), outcome(err))
	if err != nil {
		r.log.Warn().Err(err).Str("title", item.Item.Title).Msg("llm analysis failed, keeping keyword result")
		item.LLMUsed = false
		item.LLMError = err.Error()
		return item
	}

	item.LLM = &model.LLMVerdict{
		Sentiment:  resp.Sentiment,
		Score:      resp.Score,
		Confidence: resp.Confidence,
		Reasoning:  resp.Reasoning,
	}
	item.LLMUsed = true
	item.LLMError = ""
	item.CombinedScore = Blend(item.Keyword.Score, resp.Score, r.cfg)
	item.Category = Categorize(item.CombinedScore)
	item.Method = model.MethodHybrid
	return item
}

func (r *Refiner) shouldUse(ka model.KeywordAnalysis) bool {
	switch r.cfg.UseFor {
	case config.UseForAll:
		return true
	case config.UseForRelevantOnly:
		return ka.Relevant
	case config.UseForUncertain:
		return math.Abs(ka.Score) < r.cfg.ConfidenceThreshold
	}
	return false
}

// Blend combines keyword and LLM scores with the configured weights.
func Blend(keywordScore, llmScore float64, cfg config.LLMConfig) float64 {
	s := cfg.KeywordWeight*keywordScore + cfg.LLMWeight*llmScore
	return math.Max(-1, math.Min(1, s))
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, llm.ErrTimeout):
		return "timeout"
	case errors.Is(err, llm.ErrMalformedResponse):
		return "malformed"
	}
	return "unavailable"
}
