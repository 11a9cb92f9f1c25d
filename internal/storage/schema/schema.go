package schema

import (
	"context"
	"database/sql"

	"github.com/yndnr/sesskeep/internal/core/domain"
)

// DefaultTable is the table used when none is configured.
const DefaultTable = "sessions"

// Execer is the subset of *sql.DB used by EnsureTable.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// EnsureTable creates the session table if it is missing. Running it
// against an existing table with the expected schema is a no-op; schema
// drift is not reconciled.
func EnsureTable(ctx context.Context, db Execer, d Dialect, table string) error {
	if table == "" {
		return domain.ErrConfiguration.WithDetails("table name is empty")
	}

	for _, stmt := range d.CreateTable(table) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return domain.ErrConfiguration.WithDetailsf("create table %s", d.Quote(table)).WithCause(err)
		}
	}
	return nil
}
