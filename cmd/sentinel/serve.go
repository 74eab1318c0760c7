package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"MoexSentinel/internal/api"
	"MoexSentinel/internal/logger"
	"MoexSentinel/internal/scheduler"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the daily schedule, the HTTP API and the Telegram command loop",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(cmd.Context())
		defer cancel()

		a, err := newApp(ctx, true)
		if err != nil {
			return err
		}
		defer a.Close()

		loc, err := time.LoadLocation(cfg.Schedule.Timezone)
		if err != nil {
			return err
		}
		sched := scheduler.NewScheduler(ctx, a.report, loc, logger.Component(log, "scheduler"))
		sched.History = a.recorder
		sched.Universe = cfg.Universe
		if a.pipeline != nil {
			sched.Events = a.pipeline
		}
		if err := sched.Register(cfg.Schedule.DailyCron); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()

		var srv *api.Server
		if cfg.HTTP.Addr != "" {
			h := api.NewHandler(a.report, a.recorder, a.scoring, sched.TriggerAsync, logger.Component(log, "api"))
			srv = api.NewServer(cfg.HTTP.Addr, h, logger.Component(log, "http"))
			srv.Start()
		}

		if a.telegram != nil {
			go a.telegram.StartPolling(ctx, sched.HandleCommand)
			log.Info().Msg("telegram polling started")
		}

		if cfg.Schedule.RunOnStart {
			log.Info().Msg("run_on_start enabled, executing daily report now")
			sched.TriggerAsync()
		}

		log.Info().Str("cron", cfg.Schedule.DailyCron).Str("tz", cfg.Schedule.Timezone).Msg("MoexSentinel is running")

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
		defer signal.Stop(sigCh)
		for sig := range sigCh {
			if sig == syscall.SIGHUP {
				if err := a.scoring.Reload(configPath); err != nil {
					log.Error().Err(err).Msg("scoring reload failed, keeping previous config")
				} else {
					log.Info().Msg("scoring config reloaded")
				}
				continue
			}
			break
		}

		log.Info().Msg("shutdown signal received, stopping")
		cancel()
		if srv != nil {
			shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
			defer done()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				log.Warn().Err(err).Msg("http server shutdown")
			}
		}
		return nil
	},
}
