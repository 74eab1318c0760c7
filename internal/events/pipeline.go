package events

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/llm"
	"MoexSentinel/internal/metrics"
	"MoexSentinel/internal/model"
)

var ErrNothingToCollect = errors.New("events: no feeds or vacancy queries to collect from")

// History persists generated signals.
type History interface {
	AppendEventSignal(ctx context.Context, sig model.EventSignal, limit int) error
}

// Pipeline runs collect, keyword analysis, optional LLM refinement,
// aggregation and recording.
type Pipeline struct {
	cfg       config.EventsConfig
	collector *Collector
	analyzer  *KeywordAnalyzer
	refiner   *Refiner
	history   History
	metrics   *metrics.Recorder
	log       zerolog.Logger
	now       func() time.Time
}

// NewPipeline wires the stages. refiner and history may be nil.
func NewPipeline(cfg config.EventsConfig, collector *Collector, refiner *Refiner, history History, rec *metrics.Recorder, log zerolog.Logger) *Pipeline {
	if rec == nil {
		rec = metrics.Nop()
	}
	return &Pipeline{
		cfg:       cfg,
		collector: collector,
		analyzer:  NewKeywordAnalyzer(cfg),
		refiner:   refiner,
		history:   history,
		metrics:   rec,
		log:       log,
		now:       time.Now,
	}
}

// Build assembles a Pipeline from configuration. An LLM provider that cannot
// be constructed disables refinement instead of failing.
func Build(ctx context.Context, cfg config.Config, client *http.Client, history History, rec *metrics.Recorder, log zerolog.Logger) *Pipeline {
	ev := cfg.Events
	cache := NewCache(ev.CacheBackend, cfg.Redis, log)
	collector := NewCollector(ev, client, cache, rec, log)

	var refiner *Refiner
	if ev.LLM.Enabled {
		provider, err := llm.New(ctx, ev.LLM)
		if err != nil {
			log.Warn().Err(err).Msg("llm provider disabled")
		} else {
			refiner = NewRefiner(provider, ev.LLM, rec, log)
		}
	}
	return NewPipeline(ev, collector, refiner, history, rec, log)
}

// Generate produces one event signal for the target entities.
func (p *Pipeline) Generate(ctx context.Context, entities []string) (*model.EventSignal, error) {
	var queries []string
	if p.cfg.UseVacancies {
		queries = entities
	}
	if len(p.cfg.NewsSources) == 0 && len(queries) == 0 {
		return nil, ErrNothingToCollect
	}
	defer p.metrics.ObserveSince("event_signal", time.Now())

	items, err := p.collector.Collect(ctx, queries)
	if err != nil {
		return nil, err
	}

	var analyzed []model.AnalyzedItem
	if len(items) > 0 {
		analyzed = p.analyzer.AnalyzeBatch(items, entities)
		if p.refiner != nil && p.refiner.Prepare(ctx) {
			analyzed = p.refiner.Refine(ctx, analyzed, entities)
		}
	} else {
		p.log.Warn().Msg("no items collected")
	}

	sig := Aggregate(analyzed, entities, p.now())
	sig.ID = uuid.NewString()
	p.metrics.EventSignal(string(sig.Level))
	p.log.Info().
		Str("level", string(sig.Level)).
		Int("items", sig.Stats.Total).
		Bool("llm_used", sig.LLMUsed).
		Msg("event signal generated")

	if p.history != nil {
		if err := p.history.AppendEventSignal(ctx, sig, p.cfg.HistoryLimit); err != nil {
			p.log.Error().Err(err).Msg("failed to record event signal")
		}
	}
	return &sig, nil
}
