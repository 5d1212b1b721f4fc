package recorder

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists the tick journal to a SQLite database.
type SQLiteRecorder struct {
	db  *sql.DB
	mu  sync.Mutex
	log zerolog.Logger
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string, logger zerolog.Logger) (*SQLiteRecorder, error) {
	if dir := filepath.Dir(dbPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets ad-hoc queries read while the monitor writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db, log: logger.With().Str("component", "recorder").Logger()}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	r.log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS quote_snapshots (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			tick_id   TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			symbol    TEXT NOT NULL,
			price     REAL,
			pct_day   REAL,
			volume    INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_quote_symbol_ts ON quote_snapshots(symbol, timestamp)`,

		`CREATE TABLE IF NOT EXISTS alert_triggers (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			tick_id   TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			alert_key TEXT NOT NULL,
			symbol    TEXT NOT NULL,
			kind      TEXT,
			op        TEXT,
			threshold REAL,
			price     REAL,
			pct_day   REAL,
			volume    INTEGER,
			reason    TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_trigger_key_ts ON alert_triggers(alert_key, timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordQuotes(snap *QuoteSnapshot) error {
	if len(snap.Quotes) == 0 {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	symbols := make([]string, 0, len(snap.Quotes))
	for sym := range snap.Quotes {
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(`INSERT INTO quote_snapshots
		(tick_id, timestamp, symbol, price, pct_day, volume)
		VALUES (?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	ts := snap.At.Unix()
	for _, sym := range symbols {
		q := snap.Quotes[sym]
		if _, err := stmt.Exec(snap.TickID, ts, sym, q.Price, q.PctDay, q.Volume); err != nil {
			tx.Rollback()
			return fmt.Errorf("insert quote %s: %w", sym, err)
		}
	}
	return tx.Commit()
}

func (r *SQLiteRecorder) RecordTrigger(evt *TriggerEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO alert_triggers
		(tick_id, timestamp, alert_key, symbol, kind, op, threshold, price, pct_day, volume, reason)
		VALUES (?,?,?,?,?,?,?,?,?,?,?)`,
		evt.TickID, evt.At.Unix(), evt.Key, evt.Alert.Symbol,
		string(evt.Alert.Kind), string(evt.Alert.Op), evt.Alert.Value,
		evt.Quote.Price, evt.Quote.PctDay, evt.Quote.Volume, evt.Reason,
	)
	return err
}

// TriggerCount returns how many times key has been journaled.
func (r *SQLiteRecorder) TriggerCount(key string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var n int
	err := r.db.QueryRow(`SELECT COUNT(*) FROM alert_triggers WHERE alert_key = ?`, key).Scan(&n)
	return n, err
}

func (r *SQLiteRecorder) Close() error {
	r.log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
