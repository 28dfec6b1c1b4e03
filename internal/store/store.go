// Package store provides persistent storage for the tempvault message cache.
//
// A Store is a resource handle over a single SQLite database. The connection
// is opened lazily on first use and reopened on demand after Close, so a
// handle stays usable for the life of the process; Close is only final at
// teardown. All failures surface as typed storage faults.
package store

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/tempvault/tempvault/internal/fault"
)

//go:embed schema.sql
var schemaFS embed.FS

const defaultSQLiteParams = "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=ON"

// Store provides database operations for tempvault.
type Store struct {
	mu     sync.Mutex
	db     *sql.DB
	dbPath string
}

// New creates a handle for the database at dbPath without opening it.
// The connection is established on first use.
func New(dbPath string) *Store {
	return &Store{dbPath: dbPath}
}

// Path returns the database file path.
func (s *Store) Path() string { return s.dbPath }

// conn returns the open database connection, opening (or reopening) it and
// applying the schema when necessary.
func (s *Store) conn() (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	dir := filepath.Dir(s.dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fault.New(fault.Storage, "create db directory", err)
	}

	db, err := sql.Open("sqlite3", s.dbPath+defaultSQLiteParams)
	if err != nil {
		return nil, fault.New(fault.Storage, "open database", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fault.New(fault.Storage, "ping database", err)
	}

	schema, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		db.Close()
		return nil, fault.New(fault.Storage, "read schema.sql", err)
	}
	if _, err := db.Exec(string(schema)); err != nil {
		db.Close()
		return nil, fault.New(fault.Storage, "execute schema.sql", err)
	}

	s.db = db
	return db, nil
}

// Close closes the database connection. The handle remains usable: the next
// operation reopens the connection.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if err != nil {
		return fault.New(fault.Storage, "close database", err)
	}
	return nil
}

// withTx executes fn within a database transaction. If fn returns an error,
// the transaction is rolled back; otherwise it is committed.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	db, err := s.conn()
	if err != nil {
		return err
	}
	tx, err := db.Begin()
	if err != nil {
		return fault.New(fault.Storage, "begin tx", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fault.New(fault.Storage, "commit tx", err)
	}
	return nil
}

// storageErr wraps a database error as a storage fault, passing through
// errors that already carry a fault kind.
func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var f *fault.Failure
	if errors.As(err, &f) {
		return err
	}
	return fault.New(fault.Storage, op, err)
}

// Stats holds database statistics.
type Stats struct {
	MessageCount int64
	UnreadCount  int64
	StarredCount int64
	AccountCount int64
	DatabaseSize int64
}

// GetStats returns statistics about the cache.
func (s *Store) GetStats() (*Stats, error) {
	db, err := s.conn()
	if err != nil {
		return nil, err
	}

	stats := &Stats{}
	queries := []struct {
		query string
		dest  *int64
	}{
		{"SELECT COUNT(*) FROM messages", &stats.MessageCount},
		{"SELECT COUNT(*) FROM messages WHERE is_read = 0", &stats.UnreadCount},
		{"SELECT COUNT(*) FROM messages WHERE starred = 1", &stats.StarredCount},
		{"SELECT COUNT(*) FROM accounts", &stats.AccountCount},
	}
	for _, q := range queries {
		if err := db.QueryRow(q.query).Scan(q.dest); err != nil {
			return nil, storageErr(fmt.Sprintf("get stats %q", q.query), err)
		}
	}

	if info, err := os.Stat(s.dbPath); err == nil {
		stats.DatabaseSize = info.Size()
	}

	return stats, nil
}
