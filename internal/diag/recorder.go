// Package diag persists per-session performance snapshots and classified
// frame errors to a local SQLite database for offline triage.
package diag

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/normanking/facesync/internal/perf"
	"github.com/normanking/facesync/internal/recovery"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    started_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS frame_stats (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER NOT NULL REFERENCES sessions(id),
    recorded_at TEXT NOT NULL,
    avg_processing_us INTEGER NOT NULL,
    error_rate REAL NOT NULL,
    total_errors INTEGER NOT NULL,
    total_successes INTEGER NOT NULL,
    memory_delta INTEGER NOT NULL,
    avg_fps REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS frame_errors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id INTEGER NOT NULL REFERENCES sessions(id),
    recorded_at TEXT NOT NULL,
    kind TEXT NOT NULL,
    message TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_frame_stats_session ON frame_stats(session_id);
CREATE INDEX IF NOT EXISTS idx_frame_errors_session ON frame_errors(session_id);
`

// Recorder writes diagnostics for one session. Safe to call from the
// orchestrator's sampling ticker; never from the frame path itself.
type Recorder struct {
	db        *sql.DB
	sessionID int64
}

// Open creates or opens the database at path and starts a new session row.
func Open(ctx context.Context, path string) (*Recorder, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("diag: create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("diag: open db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("diag: apply schema: %w", err)
	}

	res, err := db.ExecContext(ctx,
		`INSERT INTO sessions (started_at) VALUES (?)`,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("diag: start session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("diag: session id: %w", err)
	}

	return &Recorder{db: db, sessionID: id}, nil
}

// SessionID returns the current session's row id.
func (r *Recorder) SessionID() int64 {
	return r.sessionID
}

// RecordStats persists one performance snapshot.
func (r *Recorder) RecordStats(ctx context.Context, stats perf.Stats) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO frame_stats
		(session_id, recorded_at, avg_processing_us, error_rate, total_errors, total_successes, memory_delta, avg_fps)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.sessionID,
		time.Now().UTC().Format(time.RFC3339Nano),
		stats.AvgProcessingTime.Microseconds(),
		stats.ErrorRate,
		stats.TotalErrors,
		stats.TotalSuccesses,
		stats.MemoryDelta,
		stats.AvgFPS,
	)
	if err != nil {
		return fmt.Errorf("diag: record stats: %w", err)
	}
	return nil
}

// RecordError persists one classified frame error.
func (r *Recorder) RecordError(ctx context.Context, kind recovery.Kind, message string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO frame_errors (session_id, recorded_at, kind, message)
		VALUES (?, ?, ?, ?)`,
		r.sessionID,
		time.Now().UTC().Format(time.RFC3339Nano),
		string(kind),
		message,
	)
	if err != nil {
		return fmt.Errorf("diag: record error: %w", err)
	}
	return nil
}

// StatRow is one persisted snapshot, read back for inspection.
type StatRow struct {
	RecordedAt      time.Time
	AvgProcessingUS int64
	ErrorRate       float64
	TotalErrors     int64
	TotalSuccesses  int64
	MemoryDelta     int64
	AvgFPS          float64
}

// SessionStats returns the snapshots recorded for the current session.
func (r *Recorder) SessionStats(ctx context.Context) ([]StatRow, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT recorded_at, avg_processing_us, error_rate, total_errors, total_successes, memory_delta, avg_fps
		FROM frame_stats WHERE session_id = ? ORDER BY id`,
		r.sessionID)
	if err != nil {
		return nil, fmt.Errorf("diag: query stats: %w", err)
	}
	defer rows.Close()

	var out []StatRow
	for rows.Next() {
		var row StatRow
		var ts string
		if err := rows.Scan(&ts, &row.AvgProcessingUS, &row.ErrorRate,
			&row.TotalErrors, &row.TotalSuccesses, &row.MemoryDelta, &row.AvgFPS); err != nil {
			return nil, fmt.Errorf("diag: scan stats: %w", err)
		}
		row.RecordedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, row)
	}
	return out, rows.Err()
}

// Close releases the database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
