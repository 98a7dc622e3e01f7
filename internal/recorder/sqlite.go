package recorder

import (
	"database/sql"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"MarketPulse/internal/model"
)

// SQLiteRecorder keeps the session's pass log in an in-memory SQLite database.
// Nothing is written to disk; the history ends with the process.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens an in-memory database and creates the schema.
func NewSQLiteRecorder(log zerolog.Logger) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// every pooled connection would get its own empty :memory: database
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	r := &SQLiteRecorder{db: db, log: log.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Msg("session store opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS passes (
			id          TEXT PRIMARY KEY,
			kind        TEXT NOT NULL,
			started_at  INTEGER NOT NULL,
			window_days INTEGER,
			snapshot_id TEXT,
			warnings    INTEGER,
			unknown     INTEGER,
			failed      INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_passes_ts ON passes(started_at)`,

		`CREATE TABLE IF NOT EXISTS alert_states (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			pass_id    TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			symbol     TEXT NOT NULL,
			state      TEXT NOT NULL,
			latest     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_alert_states_symbol ON alert_states(symbol, started_at)`,

		`CREATE TABLE IF NOT EXISTS symbol_errors (
			id      INTEGER PRIMARY KEY AUTOINCREMENT,
			pass_id TEXT NOT NULL,
			symbol  TEXT NOT NULL,
			kind    TEXT,
			message TEXT
		)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordPass(rec *PassRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var warnings, unknown int
	for _, st := range rec.States {
		switch st {
		case model.Warning:
			warnings++
		case model.Unknown:
			unknown++
		}
	}
	ts := rec.StartedAt.UnixMilli()

	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`INSERT INTO passes
		(id, kind, started_at, window_days, snapshot_id, warnings, unknown, failed)
		VALUES (?,?,?,?,?,?,?,?)`,
		rec.ID, rec.Kind, ts, rec.WindowDays, rec.SnapshotID, warnings, unknown, len(rec.Errors),
	); err != nil {
		return fmt.Errorf("insert pass: %w", err)
	}

	for _, sym := range model.SortSymbols(rec.States) {
		latest := sql.NullFloat64{}
		if v, ok := rec.Latest[sym]; ok && !math.IsNaN(v) {
			latest = sql.NullFloat64{Float64: v, Valid: true}
		}
		if _, err := tx.Exec(`INSERT INTO alert_states
			(pass_id, started_at, symbol, state, latest) VALUES (?,?,?,?,?)`,
			rec.ID, ts, string(sym), rec.States[sym].String(), latest,
		); err != nil {
			return fmt.Errorf("insert alert state: %w", err)
		}
	}

	for _, e := range rec.Errors {
		if _, err := tx.Exec(`INSERT INTO symbol_errors
			(pass_id, symbol, kind, message) VALUES (?,?,?,?)`,
			rec.ID, string(e.Symbol), e.Kind(), e.Err.Error(),
		); err != nil {
			return fmt.Errorf("insert symbol error: %w", err)
		}
	}

	return tx.Commit()
}

func (r *SQLiteRecorder) RecentPasses(limit int) ([]PassSummary, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT id, kind, started_at, window_days, snapshot_id, warnings, unknown, failed
		FROM passes ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query passes: %w", err)
	}
	defer rows.Close()

	var out []PassSummary
	for rows.Next() {
		var p PassSummary
		var ts int64
		if err := rows.Scan(&p.ID, &p.Kind, &ts, &p.WindowDays, &p.SnapshotID, &p.Warnings, &p.Unknown, &p.Failed); err != nil {
			return nil, fmt.Errorf("scan pass: %w", err)
		}
		p.StartedAt = time.UnixMilli(ts)
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) AlertHistory(symbol model.Symbol, limit int) ([]AlertEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT pass_id, started_at, state, latest
		FROM alert_states WHERE symbol = ? ORDER BY started_at DESC, id DESC LIMIT ?`, string(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("query alert states: %w", err)
	}
	defer rows.Close()

	var out []AlertEntry
	for rows.Next() {
		var e AlertEntry
		var ts int64
		var state string
		var latest sql.NullFloat64
		if err := rows.Scan(&e.PassID, &ts, &state, &latest); err != nil {
			return nil, fmt.Errorf("scan alert state: %w", err)
		}
		e.StartedAt = time.UnixMilli(ts)
		if e.State, err = model.ParseAlertState(state); err != nil {
			return nil, err
		}
		if latest.Valid {
			v := latest.Float64
			e.Latest = &v
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing session store")
	return r.db.Close()
}
