package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"MoexSentinel/internal/calculator"
	"MoexSentinel/internal/config"
	"MoexSentinel/internal/marketdata"
	"MoexSentinel/internal/metrics"
	"MoexSentinel/internal/model"
	"MoexSentinel/internal/notifier"
	"MoexSentinel/internal/portfolio"
	"MoexSentinel/internal/recorder"
	"MoexSentinel/internal/strategy"
)

var ErrEmptyUniverse = errors.New("report: instrument universe is empty")

// DataCollector fetches market data for one symbol.
type DataCollector interface {
	Collect(ctx context.Context, symbol string) (*model.InstrumentData, error)
}

// EventSource produces the cycle's event signal.
type EventSource interface {
	Generate(ctx context.Context, entities []string) (*model.EventSignal, error)
}

// Notifier delivers the formatted digest.
type Notifier interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Report is the outcome of one analysis cycle.
type Report struct {
	ID           string                     `json:"id"`
	StartedAt    time.Time                  `json:"started_at"`
	FinishedAt   time.Time                  `json:"finished_at"`
	Ranked       []model.Recommendation     `json:"ranked"`
	Summary      model.Summary              `json:"summary"`
	Personalized []model.PersonalizedAction `json:"personalized,omitempty"`
	Event        *model.EventSignal         `json:"event_signal,omitempty"`
}

// Digest converts the report into the notifier's message model.
func (r *Report) Digest() notifier.Digest {
	return notifier.Digest{
		Date:         r.StartedAt,
		Ranked:       r.Ranked,
		Summary:      r.Summary,
		Personalized: r.Personalized,
		Event:        r.Event,
	}
}

// Service runs the daily analysis cycle end to end.
type Service struct {
	cfg       *config.Config
	scoring   *config.ScoringStore
	collector DataCollector
	events    EventSource
	portfolio *portfolio.Store
	recorder  recorder.Recorder
	notifier  Notifier
	metrics   *metrics.Recorder
	log       zerolog.Logger
	now       func() time.Time

	mu     sync.RWMutex
	latest *Report
}

// Options carries the optional collaborators of a Service. Nil fields disable the matching step.
type Options struct {
	Events    EventSource
	Portfolio *portfolio.Store
	Recorder  recorder.Recorder
	Notifier  Notifier
	Metrics   *metrics.Recorder
}

func NewService(cfg *config.Config, scoring *config.ScoringStore, collector DataCollector, opts Options, log zerolog.Logger) *Service {
	if opts.Recorder == nil {
		opts.Recorder = recorder.NewNoopRecorder()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Nop()
	}
	return &Service{
		cfg:       cfg,
		scoring:   scoring,
		collector: collector,
		events:    opts.Events,
		portfolio: opts.Portfolio,
		recorder:  opts.Recorder,
		notifier:  opts.Notifier,
		metrics:   opts.Metrics,
		log:       log,
		now:       time.Now,
	}
}

// Run executes one cycle: fetch, compute, score, rank, personalize, record and notify.
// Per-symbol failures end up in Recommendation.Error. Recording and notification
// failures are logged and do not fail the run.
func (s *Service) Run(ctx context.Context) (*Report, error) {
	universe := s.cfg.Universe
	if len(universe) == 0 {
		return nil, ErrEmptyUniverse
	}
	defer s.metrics.ObserveSince("report", time.Now())

	rep := &Report{ID: uuid.NewString(), StartedAt: s.now()}
	s.log.Info().Str("run_id", rep.ID).Int("symbols", len(universe)).Msg("report run started")

	var (
		wg  sync.WaitGroup
		sig *model.EventSignal
	)
	if s.events != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sig = s.eventSignal(ctx, universe)
		}()
	}

	snaps, recs := s.collect(ctx, universe)
	wg.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("report run: %w", err)
	}
	rep.Event = sig

	scoring := s.scoring.Get()
	for _, snap := range snaps {
		if snap == nil {
			continue
		}
		recs = append(recs, strategy.Score(snap, scoring, sig))
	}
	rep.Ranked = strategy.Rank(recs)
	rep.Summary = strategy.Summarize(rep.Ranked)
	for _, r := range rep.Ranked {
		action := string(r.Action)
		if r.Error != "" {
			action = "ERROR"
		}
		s.metrics.Recommendation(action)
	}

	if s.portfolio != nil {
		prices := make(map[string]float64, len(snaps))
		for _, snap := range snaps {
			if snap != nil {
				prices[snap.Symbol] = snap.Price
			}
		}
		p := s.portfolio.MarkToMarket(prices)
		rep.Personalized = portfolio.Personalize(rep.Ranked, p, s.cfg.Portfolio.BaseAllocationPct)
	}
	rep.FinishedAt = s.now()

	s.mu.Lock()
	s.latest = rep
	s.mu.Unlock()

	s.record(ctx, rep)
	s.notify(ctx, rep)

	s.log.Info().
		Str("run_id", rep.ID).
		Int("buy", rep.Summary.Buy).
		Int("hold", rep.Summary.Hold).
		Int("sell", rep.Summary.Sell).
		Int("failed", rep.Summary.Failed).
		Msg("report run finished")
	return rep, nil
}

// Latest returns the most recent completed report, or nil before the first run.
func (s *Service) Latest() *Report {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// collect fetches and computes snapshots concurrently. The snapshot slice is indexed
// like universe; failed symbols leave nil there and contribute an error recommendation.
func (s *Service) collect(ctx context.Context, universe []string) ([]*model.InstrumentSnapshot, []model.Recommendation) {
	snaps := make([]*model.InstrumentSnapshot, len(universe))
	failures := make([]*model.Recommendation, len(universe))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.DataSource.Concurrency)
	for i, symbol := range universe {
		g.Go(func() error {
			data, err := s.collector.Collect(gctx, symbol)
			if errors.Is(err, marketdata.ErrNoPrice) {
				s.log.Warn().Str("symbol", symbol).Msg("no price, skipping")
				return nil
			}
			if err != nil {
				s.log.Error().Err(err).Str("symbol", symbol).Msg("collect failed")
				failures[i] = &model.Recommendation{Symbol: symbol, Error: err.Error()}
				return nil
			}
			snap := calculator.ComputeSnapshot(data.Quote, data.Candles, data.DividendTTM, s.cfg.Signals)
			snaps[i] = &snap
			return nil
		})
	}
	_ = g.Wait()

	var recs []model.Recommendation
	for _, f := range failures {
		if f != nil {
			recs = append(recs, *f)
		}
	}
	return snaps, recs
}

func (s *Service) eventSignal(ctx context.Context, entities []string) *model.EventSignal {
	sig, err := s.events.Generate(ctx, entities)
	if err != nil {
		s.log.Warn().Err(err).Msg("event signal unavailable, scoring without it")
		return nil
	}
	return sig
}

func (s *Service) record(ctx context.Context, rep *Report) {
	run := &recorder.ReportRun{
		ID:              rep.ID,
		StartedAt:       rep.StartedAt,
		FinishedAt:      rep.FinishedAt,
		Recommendations: rep.Ranked,
		Summary:         rep.Summary,
	}
	if rep.Event != nil {
		run.EventSignalID = rep.Event.ID
	}
	if err := s.recorder.RecordReport(ctx, run); err != nil {
		s.log.Error().Err(err).Str("run_id", rep.ID).Msg("failed to record report")
	}
}

func (s *Service) notify(ctx context.Context, rep *Report) {
	if s.notifier == nil {
		return
	}
	msg := notifier.FormatDigest(rep.Digest())
	if err := s.notifier.SendWithRetry(ctx, msg, s.cfg.Telegram.MaxRetries); err != nil {
		s.log.Error().Err(err).Str("run_id", rep.ID).Msg("failed to send digest")
	}
}
