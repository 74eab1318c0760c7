package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"MoexSentinel/internal/model"
	"MoexSentinel/internal/notifier"
	"MoexSentinel/internal/report"
)

const historyReplyLen = 5

// Reporter runs one analysis cycle.
type Reporter interface {
	Run(ctx context.Context) (*report.Report, error)
}

// SignalHistory reads back recorded event signals.
type SignalHistory interface {
	RecentEventSignals(ctx context.Context, n int) ([]model.EventSignal, error)
}

// Scheduler manages the cron job and manual triggers.
type Scheduler struct {
	Cron     *cron.Cron
	Reporter Reporter
	Events   report.EventSource
	History  SignalHistory
	Universe []string
	Ctx      context.Context

	running sync.Mutex
	log     zerolog.Logger
}

// NewScheduler creates a Scheduler whose cron expressions carry a seconds field
// and are evaluated in loc.
func NewScheduler(ctx context.Context, rep Reporter, loc *time.Location, log zerolog.Logger) *Scheduler {
	return &Scheduler{
		Cron:     cron.New(cron.WithSeconds(), cron.WithLocation(loc)),
		Reporter: rep,
		Ctx:      ctx,
		log:      log,
	}
}

// Register adds the daily report job.
func (s *Scheduler) Register(dailyCron string) error {
	if _, err := s.Cron.AddFunc(dailyCron, s.dailyTask); err != nil {
		return fmt.Errorf("register daily task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	ev := s.log.Info()
	if entries := s.Cron.Entries(); len(entries) > 0 {
		ev = ev.Time("next_run", entries[0].Next)
	}
	ev.Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for a running job.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.log.Info().Msg("scheduler stopped")
}

// RunNow executes the daily task immediately (manual trigger / run_on_start).
// It reports false when a run is already in progress.
func (s *Scheduler) RunNow() bool {
	return s.runExclusive()
}

func (s *Scheduler) dailyTask() {
	if !s.runExclusive() {
		s.log.Warn().Msg("previous run still in progress, skipping")
	}
}

// TriggerAsync starts the daily task in the background. It reports false when a
// run is already in progress.
func (s *Scheduler) TriggerAsync() bool {
	if !s.running.TryLock() {
		return false
	}
	go func() {
		defer s.running.Unlock()
		s.run()
	}()
	return true
}

func (s *Scheduler) runExclusive() bool {
	if !s.running.TryLock() {
		return false
	}
	defer s.running.Unlock()
	s.run()
	return true
}

func (s *Scheduler) run() {
	s.log.Info().Msg("running daily report")
	if _, err := s.Reporter.Run(s.Ctx); err != nil {
		s.log.Error().Err(err).Msg("daily report failed")
	}
}

// HandleCommand processes a chat command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	switch commandName(command) {
	case "/run":
		if !s.TriggerAsync() {
			return "A report run is already in progress."
		}
		return "⏳ Report started, the digest follows when it is ready."
	case "/events":
		if s.Events == nil {
			return "Event signals are disabled."
		}
		sig, err := s.Events.Generate(ctx, s.Universe)
		if err != nil {
			return fmt.Sprintf("❌ Event signal failed: %v", err)
		}
		return notifier.FormatEventSignal(sig)
	case "/history":
		if s.History == nil {
			return "History is disabled."
		}
		sigs, err := s.History.RecentEventSignals(ctx, historyReplyLen)
		if err != nil {
			return fmt.Sprintf("❌ History unavailable: %v", err)
		}
		if len(sigs) == 0 {
			return "No event signals recorded yet."
		}
		var b strings.Builder
		b.WriteString("🗂 <b>Recent event signals:</b>\n")
		for _, sig := range sigs {
			b.WriteString(fmt.Sprintf("%s %s (%d items)\n", sig.Timestamp.Format("2006-01-02 15:04"), sig.Level, sig.Stats.Total))
		}
		return b.String()
	default:
		return "Commands:\n• /run: run the daily report now\n• /events: current event signal\n• /history: recent event signals"
	}
}

// commandName lowercases the first word and drops a "@botname" suffix.
func commandName(text string) string {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return ""
	}
	name, _, _ := strings.Cut(strings.ToLower(fields[0]), "@")
	return name
}
