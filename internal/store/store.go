package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

const currentVersion = 1

// timeFormat is how timestamps are stored in TEXT columns.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

type Store struct {
	db *sql.DB
}

// New opens (or creates) the SQLite database at dbPath and runs migrations.
func New(dbPath string) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys=ON",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory() (*Store, error) {
	return New(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	var version int
	err := s.db.QueryRow("PRAGMA user_version").Scan(&version)
	if err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err = s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS settings (
		user  TEXT NOT NULL,
		key   TEXT NOT NULL,
		value TEXT NOT NULL,
		PRIMARY KEY (user, key)
	);

	CREATE TABLE IF NOT EXISTS timer_state (
		user            TEXT PRIMARY KEY,
		time_left       INTEGER NOT NULL,
		is_running      INTEGER NOT NULL DEFAULT 0,
		current_session TEXT NOT NULL DEFAULT 'work',
		session_count   INTEGER NOT NULL DEFAULT 0,
		updated_at      TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);

	CREATE TABLE IF NOT EXISTS tasks (
		id                  TEXT PRIMARY KEY,
		user                TEXT NOT NULL,
		position            INTEGER NOT NULL,
		title               TEXT NOT NULL,
		description         TEXT NOT NULL DEFAULT '',
		tags                TEXT NOT NULL DEFAULT '',
		estimated_pomodoros INTEGER NOT NULL DEFAULT 1,
		actual_pomodoros    INTEGER NOT NULL DEFAULT 0,
		status              TEXT NOT NULL DEFAULT 'todo',
		priority            TEXT NOT NULL DEFAULT 'medium',
		created_at          TEXT NOT NULL,
		updated_at          TEXT NOT NULL,
		completed_at        TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user, position);

	CREATE TABLE IF NOT EXISTS current_task (
		user    TEXT PRIMARY KEY,
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS day_stats (
		user            TEXT NOT NULL,
		date            TEXT NOT NULL,
		sessions        INTEGER NOT NULL DEFAULT 0,
		focus_time      INTEGER NOT NULL DEFAULT 0,
		tasks_completed INTEGER NOT NULL DEFAULT 0,
		breaks          INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (user, date)
	);

	CREATE TABLE IF NOT EXISTS session_log (
		id               INTEGER PRIMARY KEY AUTOINCREMENT,
		user             TEXT NOT NULL,
		session_type     TEXT NOT NULL,
		duration_minutes INTEGER NOT NULL,
		next_type        TEXT NOT NULL,
		session_count    INTEGER NOT NULL,
		skipped          INTEGER NOT NULL DEFAULT 0,
		completed_at     TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_session_log_user ON session_log(user, completed_at);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// DefaultDBPath returns ~/.config/pomofocus/pomofocus.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "pomofocus", "pomofocus.db"), nil
}
