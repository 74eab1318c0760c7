package recorder

import (
	"context"
	"time"

	"MoexSentinel/internal/model"
)

// ReportRun holds everything produced by one analysis cycle.
type ReportRun struct {
	ID              string
	StartedAt       time.Time
	FinishedAt      time.Time
	Recommendations []model.Recommendation
	Summary         model.Summary
	EventSignalID   string
}

// Recorder persists historical data for analysis.
type Recorder interface {
	// AppendEventSignal stores sig and keeps only the newest limit signals.
	AppendEventSignal(ctx context.Context, sig model.EventSignal, limit int) error
	// RecentEventSignals returns up to n signals, newest first.
	RecentEventSignals(ctx context.Context, n int) ([]model.EventSignal, error)
	RecordReport(ctx context.Context, run *ReportRun) error
	Close() error
}
