// Package schema creates and describes the backing session table.
//
// Every statement that embeds the operator-configured table name goes
// through Dialect.Quote, so the name is always a single quoted identifier.
package schema

import "strings"

// Dialect describes the SQL flavor of a backend.
type Dialect interface {
	// Name returns the dialect name.
	Name() string

	// DriverName returns the database/sql driver name.
	DriverName() string

	// Quote escapes an identifier.
	Quote(ident string) string

	// CreateTable returns the statements that create the session table and
	// its last_activity index if they do not exist.
	CreateTable(table string) []string

	// Upsert returns an insert-or-replace statement taking
	// (id, data, last_activity).
	Upsert(table string) string

	// SelectData returns a query taking (id) and returning data.
	SelectData(table string) string

	// Delete returns a statement taking (id).
	Delete(table string) string

	// ExpireBatch returns a statement taking (cutoff, limit) that deletes at
	// most limit rows with last_activity < cutoff.
	ExpireBatch(table string) string
}

// SQLite is the embedded dialect (modernc.org/sqlite).
var SQLite Dialect = sqliteDialect{}

// MySQL is the networked dialect (github.com/go-sql-driver/mysql).
var MySQL Dialect = mysqlDialect{}

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func (d sqliteDialect) CreateTable(table string) []string {
	t := d.Quote(table)
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + t + ` (
    id TEXT PRIMARY KEY,
    data TEXT NOT NULL,
    last_activity INTEGER NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
)`,
		`CREATE INDEX IF NOT EXISTS ` + d.Quote(table+"_last_activity_idx") + ` ON ` + t + ` (last_activity)`,
	}
}

func (d sqliteDialect) Upsert(table string) string {
	return `INSERT INTO ` + d.Quote(table) + ` (id, data, last_activity) VALUES (?, ?, ?)
ON CONFLICT(id) DO UPDATE SET data = excluded.data, last_activity = excluded.last_activity, updated_at = CURRENT_TIMESTAMP`
}

func (d sqliteDialect) SelectData(table string) string {
	return `SELECT data FROM ` + d.Quote(table) + ` WHERE id = ?`
}

func (d sqliteDialect) Delete(table string) string {
	return `DELETE FROM ` + d.Quote(table) + ` WHERE id = ?`
}

// ExpireBatch uses a rowid subquery because DELETE ... LIMIT needs a
// non-default SQLite build option.
func (d sqliteDialect) ExpireBatch(table string) string {
	t := d.Quote(table)
	return `DELETE FROM ` + t + ` WHERE rowid IN (SELECT rowid FROM ` + t + ` WHERE last_activity < ? LIMIT ?)`
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string       { return "mysql" }
func (mysqlDialect) DriverName() string { return "mysql" }

func (mysqlDialect) Quote(ident string) string {
	return "`" + strings.ReplaceAll(ident, "`", "``") + "`"
}

// CreateTable keys on VARCHAR(255): MySQL cannot index a TEXT column
// without a prefix length. MySQL has no CREATE INDEX IF NOT EXISTS, so the
// index is declared inline.
func (d mysqlDialect) CreateTable(table string) []string {
	return []string{
		`CREATE TABLE IF NOT EXISTS ` + d.Quote(table) + ` (
    id VARCHAR(255) NOT NULL PRIMARY KEY,
    data MEDIUMTEXT NOT NULL,
    last_activity BIGINT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
    updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
    INDEX ` + d.Quote("last_activity_idx") + ` (last_activity)
)`,
	}
}

func (d mysqlDialect) Upsert(table string) string {
	return "INSERT INTO " + d.Quote(table) + " (id, data, last_activity) VALUES (?, ?, ?)\n" +
		"ON DUPLICATE KEY UPDATE data = VALUES(data), last_activity = VALUES(last_activity)"
}

func (d mysqlDialect) SelectData(table string) string {
	return "SELECT data FROM " + d.Quote(table) + " WHERE id = ?"
}

func (d mysqlDialect) Delete(table string) string {
	return "DELETE FROM " + d.Quote(table) + " WHERE id = ?"
}

func (d mysqlDialect) ExpireBatch(table string) string {
	return "DELETE FROM " + d.Quote(table) + " WHERE last_activity < ? LIMIT ?"
}
