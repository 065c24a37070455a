package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// appName is used for the default state directory and database file name.
const appName = "puretodo"

// Store provides user, list and item persistence.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// DefaultPath returns the default database path following the XDG spec.
func DefaultPath() string {
	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, _ := os.UserHomeDir()
		dataHome = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataHome, appName, appName+".db")
}

// Open opens or creates a SQLite database at the given path.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Pragmas are per connection. A single connection keeps them in force
	// and serializes writers the way SQLite would anyway.
	db.SetMaxOpenConns(1)

	// Item deletion on list removal relies on ON DELETE CASCADE.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Without a busy timeout concurrent writes fail immediately with SQLITE_BUSY.
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	store := &Store{db: db, now: time.Now}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// migrate creates the schema if it doesn't exist.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS todo_users (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		admin INTEGER NOT NULL DEFAULT 0,
		disabled INTEGER NOT NULL DEFAULT 0,
		token TEXT NOT NULL DEFAULT '',
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		create_user_id INTEGER REFERENCES todo_users(id) ON DELETE SET NULL,
		modify_user_id INTEGER REFERENCES todo_users(id) ON DELETE SET NULL
	);
	CREATE INDEX IF NOT EXISTS idx_todo_users_token ON todo_users(token);

	CREATE TABLE IF NOT EXISTS todo_lists (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		name TEXT NOT NULL,
		shared INTEGER NOT NULL DEFAULT 0,
		priority INTEGER NOT NULL DEFAULT 0,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		prioritized INTEGER NOT NULL,
		create_user_id INTEGER NOT NULL REFERENCES todo_users(id) ON DELETE CASCADE,
		modify_user_id INTEGER REFERENCES todo_users(id) ON DELETE SET NULL
	);
	CREATE INDEX IF NOT EXISTS idx_todo_lists_owner ON todo_lists(create_user_id);

	CREATE TABLE IF NOT EXISTS todo_items (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		list_id INTEGER NOT NULL REFERENCES todo_lists(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		priority INTEGER NOT NULL DEFAULT 0,
		finished INTEGER NOT NULL DEFAULT 0,
		created INTEGER NOT NULL,
		modified INTEGER NOT NULL,
		prioritized INTEGER NOT NULL,
		create_user_id INTEGER NOT NULL REFERENCES todo_users(id) ON DELETE CASCADE,
		modify_user_id INTEGER REFERENCES todo_users(id) ON DELETE SET NULL
	);
	CREATE INDEX IF NOT EXISTS idx_todo_items_list ON todo_items(list_id, finished, priority);

	CREATE TABLE IF NOT EXISTS audit_log (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp INTEGER NOT NULL,
		action TEXT NOT NULL,
		actor TEXT,
		target TEXT,
		decision TEXT,
		details TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_audit_log_timestamp ON audit_log(timestamp);
	CREATE INDEX IF NOT EXISTS idx_audit_log_action ON audit_log(action);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying database connection.
// This should only be used in tests to manipulate state for testing edge cases.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SetClock replaces the time source used for created/modified stamps.
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// execer is the subset of *sql.DB and *sql.Tx the query helpers need.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// scanner is satisfied by both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// withTx runs fn in a transaction, committing on success and rolling back on
// any error.
func (s *Store) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id > 0}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint")
}
