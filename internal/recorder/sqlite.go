package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"

	"rsipulse/internal/model"
)

// SQLiteRecorder journals pipeline history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs
// migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL mode so ad-hoc readers don't block the journal writes.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Info().Str("path", dbPath).Msg("sqlite recorder opened")
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS rsi_cycles (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp   INTEGER NOT NULL,
			assets      INTEGER,
			computed    INTEGER,
			unavailable INTEGER,
			duration_ms INTEGER
		)`,
		`CREATE INDEX IF NOT EXISTS idx_cycles_ts ON rsi_cycles(timestamp)`,

		`CREATE TABLE IF NOT EXISTS stream_events (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp  INTEGER NOT NULL,
			from_state TEXT,
			to_state   TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stream_ts ON stream_events(timestamp)`,

		`CREATE TABLE IF NOT EXISTS global_stats (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			timestamp      INTEGER NOT NULL,
			btc_dominance  REAL,
			usdt_dominance REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_stats_ts ON global_stats(timestamp)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordCycle(rec *CycleRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO rsi_cycles
		(timestamp, assets, computed, unavailable, duration_ms)
		VALUES (?,?,?,?,?)`,
		time.Now().Unix(), rec.Assets, rec.Computed, rec.Unavailable,
		rec.Duration.Milliseconds(),
	)
	return err
}

func (r *SQLiteRecorder) RecordStreamEvent(evt *StreamEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO stream_events
		(timestamp, from_state, to_state) VALUES (?,?,?)`,
		time.Now().Unix(), evt.From, evt.To,
	)
	return err
}

func (r *SQLiteRecorder) RecordGlobalStats(stats model.GlobalStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO global_stats
		(timestamp, btc_dominance, usdt_dominance) VALUES (?,?,?)`,
		time.Now().Unix(), stats.BTCDominance, stats.USDTDominance,
	)
	return err
}

func (r *SQLiteRecorder) Close() error {
	log.Info().Msg("closing sqlite recorder")
	return r.db.Close()
}
