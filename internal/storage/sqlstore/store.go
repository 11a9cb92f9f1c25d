// Package sqlstore implements the session Record Store on database/sql.
//
// One row per session id. Writes are a single upsert statement, so two
// processes writing the same id resolve as last writer wins at the row
// level. Payloads are sealed with an envelope.Codec before they reach the
// database.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	_ "github.com/go-sql-driver/mysql"
	_ "modernc.org/sqlite"

	"github.com/yndnr/sesskeep/internal/core/domain"
	"github.com/yndnr/sesskeep/internal/storage"
	"github.com/yndnr/sesskeep/internal/storage/schema"
	"github.com/yndnr/sesskeep/pkg/crypto/envelope"
)

// Options configures a Store.
type Options struct {
	// Dialect selects the SQL flavor. Required.
	Dialect schema.Dialect

	// DSN is the database/sql data source name. Used by Open only.
	DSN string

	// Table is the session table name. Default: "sessions".
	Table string

	// Codec seals payloads. Required.
	Codec *envelope.Codec

	// Clock stamps last_activity. Default: time.Now.
	Clock storage.Clock

	// ExpireBatchSize bounds rows per expiry delete statement.
	ExpireBatchSize int

	// MaxOpenConns limits the connection pool. 0 keeps the driver default.
	MaxOpenConns int

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Store is a SQL-backed storage.RecordStore.
type Store struct {
	db      *sql.DB
	dialect schema.Dialect
	table   string
	codec   *envelope.Codec
	now     storage.Clock
	batch   int
	logger  *slog.Logger

	upsertSQL string
	selectSQL string
	deleteSQL string
	expireSQL string
}

var _ storage.RecordStore = (*Store)(nil)

// Open connects, pings and ensures the session table. Every failure here is
// a configuration error: the store never degrades to a no-op.
func Open(ctx context.Context, opts Options) (*Store, error) {
	if opts.Dialect == nil {
		return nil, domain.ErrConfiguration.WithDetails("sqlstore: dialect is required")
	}
	if opts.Codec == nil {
		return nil, domain.ErrConfiguration.WithDetails("sqlstore: codec is required")
	}

	db, err := sql.Open(opts.Dialect.DriverName(), opts.DSN)
	if err != nil {
		return nil, domain.ErrConfiguration.WithDetails("sqlstore: open").WithCause(err)
	}
	if opts.MaxOpenConns > 0 {
		db.SetMaxOpenConns(opts.MaxOpenConns)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, domain.ErrConfiguration.WithDetails("sqlstore: ping").WithCause(err)
	}

	s, err := New(ctx, db, opts)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing handle and ensures the session table. The Store
// takes ownership of db and closes it on Close.
func New(ctx context.Context, db *sql.DB, opts Options) (*Store, error) {
	if opts.Dialect == nil {
		return nil, domain.ErrConfiguration.WithDetails("sqlstore: dialect is required")
	}
	if opts.Codec == nil {
		return nil, domain.ErrConfiguration.WithDetails("sqlstore: codec is required")
	}
	if opts.Table == "" {
		opts.Table = schema.DefaultTable
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.ExpireBatchSize <= 0 {
		opts.ExpireBatchSize = storage.DefaultExpireBatchSize
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	if err := schema.EnsureTable(ctx, db, opts.Dialect, opts.Table); err != nil {
		return nil, err
	}

	d, t := opts.Dialect, opts.Table
	s := &Store{
		db:        db,
		dialect:   d,
		table:     t,
		codec:     opts.Codec,
		now:       opts.Clock,
		batch:     opts.ExpireBatchSize,
		logger:    opts.Logger.With("component", "sqlstore", "dialect", d.Name(), "table", t),
		upsertSQL: d.Upsert(t),
		selectSQL: d.SelectData(t),
		deleteSQL: d.Delete(t),
		expireSQL: d.ExpireBatch(t),
	}

	s.logger.Debug("sql store ready")
	return s, nil
}

// Read returns the decrypted payload for id, or nil if there is no row.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	var blob string
	err := s.db.QueryRowContext(ctx, s.selectSQL, id).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.ErrStorageIO.WithDetails("select session").WithCause(err)
	}

	return s.codec.Open(blob)
}

// Write seals plaintext and upserts the row.
func (s *Store) Write(ctx context.Context, id string, plaintext []byte) error {
	blob, err := s.codec.Seal(plaintext)
	if err != nil {
		return domain.ErrStorageIO.WithDetails("seal payload").WithCause(err)
	}

	if _, err := s.db.ExecContext(ctx, s.upsertSQL, id, blob, s.now().Unix()); err != nil {
		return domain.ErrStorageIO.WithDetails("upsert session").WithCause(err)
	}
	return nil
}

// Destroy deletes the row for id if present.
func (s *Store) Destroy(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, s.deleteSQL, id); err != nil {
		return domain.ErrStorageIO.WithDetails("delete session").WithCause(err)
	}
	return nil
}

// ExpireOlderThan deletes rows with last_activity < cutoff, one bounded
// batch per statement, until a batch comes back short.
func (s *Store) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	limit := domain.CutoffSeconds(cutoff)
	total := 0

	for {
		if err := ctx.Err(); err != nil {
			return total, domain.ErrStorageIO.WithDetails("expire sessions").WithCause(err)
		}

		res, err := s.db.ExecContext(ctx, s.expireSQL, limit, s.batch)
		if err != nil {
			return total, domain.ErrStorageIO.WithDetails("expire sessions").WithCause(err)
		}

		n, err := res.RowsAffected()
		if err != nil {
			return total, domain.ErrStorageIO.WithDetails("expire sessions: rows affected").WithCause(err)
		}
		total += int(n)

		if n < int64(s.batch) {
			break
		}
	}

	if total > 0 {
		s.logger.Debug("expired sessions", "count", total, "cutoff", limit)
	}
	return total, nil
}

// Close closes the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
