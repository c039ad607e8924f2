// Package store implements the SQLite-backed persistence layer: live
// clipboard items and their blobs, a soft-delete trash, and the config
// table the rest of the daemon reads tunables from.
package store

import (
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// ErrCorrupt indicates a foreign-key violation or schema mismatch was
// detected. Per the daemon's error taxonomy this is not retried — it
// aborts the process at startup.
var ErrCorrupt = errors.New("store: corruption or schema mismatch detected")

const schemaVersion = "1"

const schemaDDL = `
CREATE TABLE IF NOT EXISTS blobs (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	data BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS items (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp    INTEGER NOT NULL,
	data_type    TEXT NOT NULL,
	is_sensitive INTEGER NOT NULL DEFAULT 0,
	is_encrypted INTEGER NOT NULL DEFAULT 0,
	preview_text TEXT,
	data_size    INTEGER NOT NULL,
	blob_ref     INTEGER NOT NULL REFERENCES blobs(id),
	metadata     TEXT,
	copy_count   INTEGER NOT NULL DEFAULT 1
);

CREATE TABLE IF NOT EXISTS deleted_blobs (
	id   INTEGER PRIMARY KEY AUTOINCREMENT,
	data BLOB NOT NULL
);

CREATE TABLE IF NOT EXISTS deleted_items (
	id               INTEGER PRIMARY KEY AUTOINCREMENT,
	original_id      INTEGER NOT NULL,
	timestamp        INTEGER NOT NULL,
	deleted_at       INTEGER NOT NULL,
	data_type        TEXT NOT NULL,
	is_sensitive     INTEGER NOT NULL DEFAULT 0,
	is_encrypted     INTEGER NOT NULL DEFAULT 0,
	preview_text     TEXT,
	data_size        INTEGER NOT NULL,
	deleted_blob_ref INTEGER NOT NULL REFERENCES deleted_blobs(id),
	metadata         TEXT
);

CREATE TABLE IF NOT EXISTS config (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_items_timestamp    ON items(timestamp DESC);
CREATE INDEX IF NOT EXISTS idx_items_data_type    ON items(data_type);
CREATE INDEX IF NOT EXISTS idx_items_preview_text ON items(preview_text);
CREATE INDEX IF NOT EXISTS idx_deleted_items_deleted_at ON deleted_items(deleted_at);
`

// Store is the SQLite-backed persistence handle. The writer handle is
// capped at a single open connection (see Open) so that database/sql's
// pool serializes every statement without an additional application
// mutex duplicating what *sql.DB already guarantees.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path,
// enables WAL journaling and a 5s busy timeout, turns on foreign-key
// enforcement, creates the schema if absent, runs any pending
// migrations, and seeds the config table's default tunables.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	// A single writer connection makes database/sql's pool behave like
	// the single mutex-guarded handle the concurrency model calls for;
	// WAL + busy_timeout handle the rest of the contention.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schemaDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: creating schema: %v", ErrCorrupt, err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	if err := s.seedConfig(); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// OpenReadOnly opens a second, independent handle to the same database
// file for UI-side reads, so queries never contend with the writer's
// single exclusive connection slot.
func OpenReadOnly(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro&_busy_timeout=5000", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open read-only: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate adds columns introduced after the original schema. A legacy
// database created before copy_count existed gets the column with its
// spec-mandated default of 1.
func (s *Store) migrate() error {
	hasCopyCount, err := s.hasColumn("items", "copy_count")
	if err != nil {
		return fmt.Errorf("%w: inspecting schema: %v", ErrCorrupt, err)
	}
	if !hasCopyCount {
		if _, err := s.db.Exec(`ALTER TABLE items ADD COLUMN copy_count INTEGER NOT NULL DEFAULT 1`); err != nil {
			return fmt.Errorf("%w: migrating copy_count: %v", ErrCorrupt, err)
		}
	}
	return nil
}

func (s *Store) hasColumn(table, column string) (bool, error) {
	rows, err := s.db.Query(fmt.Sprintf(`PRAGMA table_info(%s)`, table))
	if err != nil {
		return false, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			cid        int
			name       string
			ctype      string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &ctype, &notNull, &defaultVal, &pk); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// seedConfig writes the default tunables and schema version the first
// time they're missing; it never overwrites a value already present,
// since the UI is allowed to change retention_days and
// polling_interval_ms after first run.
func (s *Store) seedConfig() error {
	defaults := map[string]string{
		"schema_version":      schemaVersion,
		"retention_days":      "7",
		"polling_interval_ms": "500",
	}
	for key, value := range defaults {
		if _, err := s.db.Exec(
			`INSERT OR IGNORE INTO config (key, value) VALUES (?, ?)`, key, value,
		); err != nil {
			return fmt.Errorf("%w: seeding config: %v", ErrCorrupt, err)
		}
	}
	return nil
}

// ConfigValue reads a single config table value.
func (s *Store) ConfigValue(key string) (string, error) {
	var value string
	err := s.db.QueryRow(`SELECT value FROM config WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("store: config key %q not set", key)
	}
	return value, err
}
