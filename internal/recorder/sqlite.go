package recorder

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"MoexSentinel/internal/model"
)

// SQLiteRecorder persists historical data to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, log zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets the serve daemon and one-off CLI runs read while the other writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: log}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS event_signals (
			id        TEXT PRIMARY KEY,
			timestamp INTEGER NOT NULL,
			level     TEXT NOT NULL,
			reason    TEXT,
			llm_used  INTEGER,
			total     INTEGER,
			avg_score REAL,
			payload   TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_event_signals_ts ON event_signals(timestamp)`,

		`CREATE TABLE IF NOT EXISTS report_runs (
			id              TEXT PRIMARY KEY,
			started_at      INTEGER NOT NULL,
			finished_at     INTEGER NOT NULL,
			total           INTEGER,
			buy             INTEGER,
			hold            INTEGER,
			sell            INTEGER,
			failed          INTEGER,
			event_signal_id TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_report_runs_ts ON report_runs(started_at)`,

		`CREATE TABLE IF NOT EXISTS recommendations (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL REFERENCES report_runs(id),
			symbol      TEXT NOT NULL,
			price       REAL,
			action      TEXT,
			score       REAL,
			confidence  TEXT,
			sizing_hint TEXT,
			reasons     TEXT,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_recommendations_run ON recommendations(run_id)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) AppendEventSignal(ctx context.Context, sig model.EventSignal, limit int) error {
	payload, err := json.Marshal(sig)
	if err != nil {
		return fmt.Errorf("encode event signal: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO event_signals
		(id, timestamp, level, reason, llm_used, total, avg_score, payload)
		VALUES (?,?,?,?,?,?,?,?)`,
		sig.ID, sig.Timestamp.UnixNano(), string(sig.Level), sig.Reason,
		sig.LLMUsed, sig.Stats.Total, sig.Stats.AvgScore, string(payload),
	); err != nil {
		return fmt.Errorf("insert event signal: %w", err)
	}

	if limit > 0 {
		if _, err := tx.ExecContext(ctx, `DELETE FROM event_signals WHERE id NOT IN (
			SELECT id FROM event_signals ORDER BY timestamp DESC, rowid DESC LIMIT ?)`, limit); err != nil {
			return fmt.Errorf("trim event signals: %w", err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecentEventSignals(ctx context.Context, n int) ([]model.EventSignal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payload FROM event_signals ORDER BY timestamp DESC, rowid DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.EventSignal
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var sig model.EventSignal
		if err := json.Unmarshal([]byte(payload), &sig); err != nil {
			r.log.Warn().Err(err).Msg("skipping unreadable event signal")
			continue
		}
		out = append(out, sig)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) RecordReport(ctx context.Context, run *ReportRun) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	s := run.Summary
	if _, err := tx.ExecContext(ctx, `INSERT INTO report_runs
		(id, started_at, finished_at, total, buy, hold, sell, failed, event_signal_id)
		VALUES (?,?,?,?,?,?,?,?,?)`,
		run.ID, run.StartedAt.Unix(), run.FinishedAt.Unix(),
		s.Total, s.Buy, s.Hold, s.Sell, s.Failed, run.EventSignalID,
	); err != nil {
		return fmt.Errorf("insert report run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO recommendations
		(run_id, symbol, price, action, score, confidence, sizing_hint, reasons, error)
		VALUES (?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, rec := range run.Recommendations {
		reasons, _ := json.Marshal(rec.Reasons)
		if _, err := stmt.ExecContext(ctx,
			run.ID, rec.Symbol, rec.Price, string(rec.Action), rec.Score,
			string(rec.Confidence), rec.SizingHint.String(), string(reasons), rec.Error,
		); err != nil {
			return fmt.Errorf("insert recommendation %s: %w", rec.Symbol, err)
		}
	}
	return tx.Commit()
}

// CountRecommendations returns how many recommendations a run stored.
func (r *SQLiteRecorder) CountRecommendations(ctx context.Context, runID string) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM recommendations WHERE run_id = ?`, runID).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}

var _ Recorder = (*SQLiteRecorder)(nil)
