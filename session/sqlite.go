package session

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

const (
	dirPermissions  = 0750
	filePermissions = 0600

	defaultBusyTimeoutMS = 5000
)

const createKVTable = `
CREATE TABLE IF NOT EXISTS kv (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	updated_at INTEGER NOT NULL
)`

// SQLiteConfig configures the file-backed store.
type SQLiteConfig struct {
	// Path is the filesystem location of the database file. The directory
	// is created when missing.
	Path string

	// BusyTimeoutMS bounds lock waits under contention. Zero applies the
	// default of 5000ms.
	BusyTimeoutMS int
}

// SQLiteStore is a single-file [Store] for devices without a redis. One row
// per key in a small kv table.
type SQLiteStore struct {
	db   *sql.DB
	keys Keys
}

// OpenSQLite opens (creating if necessary) the database file and prepares
// the kv table. The file is chmodded to 0600 because it can hold a sealed
// credential blob.
func OpenSQLite(cfg SQLiteConfig, keys Keys) (*SQLiteStore, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite store path required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), dirPermissions); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	busyTimeout := cfg.BusyTimeoutMS
	if busyTimeout <= 0 {
		busyTimeout = defaultBusyTimeoutMS
	}

	dsn := fmt.Sprintf("file:%s?_busy_timeout=%d&_journal_mode=WAL", cfg.Path, busyTimeout)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	// A session store serves one process; a single connection avoids
	// SQLITE_BUSY churn entirely.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(createKVTable); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("prepare store schema: %w", err)
	}
	if err := os.Chmod(cfg.Path, filePermissions); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("restrict store permissions: %w", err)
	}

	return &SQLiteStore{db: db, keys: keys}, nil
}

func (s *SQLiteStore) set(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *SQLiteStore) get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return value, true, nil
}

func (s *SQLiteStore) delete(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE key = ?`, key); err != nil {
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
		}
	}
	return nil
}

// SaveSession writes the token row, awaits it, then writes the user row.
// Sequential on purpose; see the package doc on partial state.
func (s *SQLiteStore) SaveSession(ctx context.Context, token string, user []byte) error {
	if err := s.set(ctx, s.keys.Token(), []byte(token)); err != nil {
		return err
	}
	return s.set(ctx, s.keys.User(), user)
}

// LoadSession reads both rows; missing rows yield zero values.
func (s *SQLiteStore) LoadSession(ctx context.Context) (string, []byte, error) {
	tokenBytes, _, err := s.get(ctx, s.keys.Token())
	if err != nil {
		return "", nil, err
	}
	user, ok, err := s.get(ctx, s.keys.User())
	if err != nil {
		return "", nil, err
	}
	if !ok {
		user = nil
	}
	return string(tokenBytes), user, nil
}

// SaveUser overwrites the stored user row only.
func (s *SQLiteStore) SaveUser(ctx context.Context, user []byte) error {
	return s.set(ctx, s.keys.User(), user)
}

// Clear removes the token and user rows.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	return s.delete(ctx, s.keys.Token(), s.keys.User())
}

// PutCredential overwrites the sealed credential row.
func (s *SQLiteStore) PutCredential(ctx context.Context, sealed []byte) error {
	return s.set(ctx, s.keys.Credential(), sealed)
}

// GetCredential returns the sealed credential row.
func (s *SQLiteStore) GetCredential(ctx context.Context) ([]byte, error) {
	sealed, ok, err := s.get(ctx, s.keys.Credential())
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNoCredential
	}
	return sealed, nil
}

// DeleteCredential empties the credential row.
func (s *SQLiteStore) DeleteCredential(ctx context.Context) error {
	return s.delete(ctx, s.keys.Credential())
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
