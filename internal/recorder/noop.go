package recorder

import (
	"context"

	"MoexSentinel/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) AppendEventSignal(context.Context, model.EventSignal, int) error { return nil }
func (n *NoopRecorder) RecentEventSignals(context.Context, int) ([]model.EventSignal, error) {
	return nil, nil
}
func (n *NoopRecorder) RecordReport(context.Context, *ReportRun) error { return nil }
func (n *NoopRecorder) Close() error                                   { return nil }
