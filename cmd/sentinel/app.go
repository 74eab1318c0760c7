package main

import (
	"context"
	"net/http"
	"net/url"

	"github.com/prometheus/client_golang/prometheus"

	"MoexSentinel/internal/config"
	"MoexSentinel/internal/events"
	"MoexSentinel/internal/logger"
	"MoexSentinel/internal/marketdata"
	"MoexSentinel/internal/metrics"
	"MoexSentinel/internal/notifier"
	"MoexSentinel/internal/portfolio"
	"MoexSentinel/internal/recorder"
	"MoexSentinel/internal/report"
)

// app holds every wired component for one process.
type app struct {
	scoring  *config.ScoringStore
	metrics  *metrics.Recorder
	recorder recorder.Recorder
	pipeline *events.Pipeline
	telegram *notifier.TelegramNotifier
	report   *report.Service
}

// newApp wires the components from cfg. notify=false leaves the report service without a notifier.
func newApp(ctx context.Context, notify bool) (*app, error) {
	a := &app{
		scoring: config.NewScoringStore(cfg.Scoring),
		metrics: metrics.New(prometheus.DefaultRegisterer),
	}

	a.recorder = recorder.NewNoopRecorder()
	if cfg.Database.SQLitePath != "" {
		sr, err := recorder.NewSQLiteRecorder(cfg.Database.SQLitePath, logger.Component(log, "recorder"))
		if err != nil {
			log.Warn().Err(err).Msg("init sqlite recorder failed, using noop")
		} else {
			a.recorder = sr
		}
	}

	if cfg.Events.Enabled {
		a.pipeline = events.Build(ctx, *cfg, httpClient(cfg.Proxy), a.recorder, a.metrics, logger.Component(log, "events"))
	}

	fetcher := marketdata.NewISSClient(cfg.DataSource, cfg.Proxy, logger.Component(log, "iss"))
	collector := marketdata.NewCollector(fetcher, cfg.DataSource.HistoryDays, logger.Component(log, "marketdata"))

	opts := report.Options{Recorder: a.recorder, Metrics: a.metrics}
	if a.pipeline != nil {
		opts.Events = a.pipeline
	}

	store, err := portfolio.NewStore(cfg.Portfolio.Path, logger.Component(log, "portfolio"))
	if err != nil {
		log.Warn().Err(err).Str("path", cfg.Portfolio.Path).Msg("portfolio unavailable, personalization disabled")
	} else {
		opts.Portfolio = store
	}

	if cfg.Telegram.Enabled() {
		a.telegram = notifier.NewTelegramNotifier(cfg.Telegram.BotToken, cfg.Telegram.ChatID, cfg.Proxy, logger.Component(log, "telegram"))
		if notify {
			opts.Notifier = a.telegram
		}
	}

	a.report = report.NewService(cfg, a.scoring, collector, opts, logger.Component(log, "report"))
	return a, nil
}

func (a *app) Close() {
	if err := a.recorder.Close(); err != nil {
		log.Error().Err(err).Msg("close recorder")
	}
}

func httpClient(proxyURL string) *http.Client {
	transport := &http.Transport{Proxy: http.ProxyFromEnvironment}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Transport: transport}
}
