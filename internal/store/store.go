package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"vivebien-dashboard/pkg/utils"
)

// Store is the shared storage handle injected into every domain service.
//
// It may be constructed without a pool (no DATABASE_URL): the dashboard then
// fails open. Reads degrade to empty results and mutations return
// ErrNotConfigured, so a broken database renders "no data" pages rather
// than a crash.
type Store struct {
	db     *sql.DB
	prefix string
	log    *slog.Logger
}

// ErrNotConfigured is returned by mutation paths when no database is attached.
var ErrNotConfigured = errors.New("database not configured")

func New(db *sql.DB, tablePrefix string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.Default()
	}
	return &Store{db: db, prefix: tablePrefix, log: log}
}

// Enabled reports whether a database pool is attached.
func (s *Store) Enabled() bool {
	return s != nil && s.db != nil
}

// DB exposes the underlying pool. Callers must check Enabled first.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Table returns the prefix-qualified table name for the configured schema.
func (s *Store) Table(name string) string {
	return s.prefix + name
}

// Log returns the store-scoped logger.
func (s *Store) Log() *slog.Logger {
	return s.log
}

// InTx runs fn inside a transaction, or returns ErrNotConfigured when no
// pool is attached. All multi-statement mutations go through here.
func (s *Store) InTx(ctx context.Context, fn utils.TxFunc) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	return utils.WithTx(ctx, s.db, &sql.TxOptions{}, fn)
}

// Ping checks connectivity for the health endpoint.
func (s *Store) Ping(ctx context.Context) error {
	if !s.Enabled() {
		return ErrNotConfigured
	}
	return s.db.PingContext(ctx)
}
