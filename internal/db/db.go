// Package db opens the irlightd SQLite database and owns its schema.
package db

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// DB wraps the SQLite connection.
type DB struct {
	*sql.DB
}

// Open opens (or creates) the database in WAL mode and applies the schema.
func Open(dbPath string) (*DB, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &DB{db}, nil
}

func initSchema(db *sql.DB) error {
	// One row per transmitter lifecycle event (accepted, completed, ...)
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transmit_ledger (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			transmitter TEXT NOT NULL,
			event_type TEXT NOT NULL,
			timestamp INTEGER NOT NULL,
			request_id TEXT NOT NULL,
			source TEXT,
			payload TEXT,
			error TEXT
		);
		CREATE INDEX IF NOT EXISTS idx_transmit_ledger_ts ON transmit_ledger(timestamp);
		CREATE INDEX IF NOT EXISTS idx_transmit_ledger_source ON transmit_ledger(source, timestamp);
		CREATE INDEX IF NOT EXISTS idx_transmit_ledger_request ON transmit_ledger(request_id);
	`)
	if err != nil {
		return fmt.Errorf("failed to create transmit_ledger table: %w", err)
	}

	// Versioned JSON documents keyed by (kind, id)
	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS resource_state (
			kind TEXT NOT NULL,
			id TEXT NOT NULL,
			payload TEXT NOT NULL,
			version INTEGER DEFAULT 1,
			updated_at INTEGER NOT NULL,
			PRIMARY KEY (kind, id)
		);
		CREATE INDEX IF NOT EXISTS idx_resource_state_kind ON resource_state(kind);
	`)
	if err != nil {
		return fmt.Errorf("failed to create resource_state table: %w", err)
	}

	return nil
}

func (db *DB) Close() error {
	return db.DB.Close()
}
