package schema

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/yndnr/sesskeep/internal/core/domain"
)

func openSQLite(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "schema.db"))
	if err != nil {
		t.Fatalf("sql.Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestQuote(t *testing.T) {
	tests := []struct {
		d    Dialect
		in   string
		want string
	}{
		{SQLite, "sessions", `"sessions"`},
		{SQLite, `we"ird`, `"we""ird"`},
		{SQLite, `x"; DROP TABLE y; --`, `"x""; DROP TABLE y; --"`},
		{MySQL, "sessions", "`sessions`"},
		{MySQL, "we`ird", "`we``ird`"},
	}

	for _, tt := range tests {
		if got := tt.d.Quote(tt.in); got != tt.want {
			t.Errorf("%s.Quote(%q) = %q, want %q", tt.d.Name(), tt.in, got, tt.want)
		}
	}
}

func TestStatementsQuoteTable(t *testing.T) {
	const table = "my sessions"
	for _, d := range []Dialect{SQLite, MySQL} {
		quoted := d.Quote(table)
		stmts := append(d.CreateTable(table), d.Upsert(table), d.SelectData(table), d.Delete(table), d.ExpireBatch(table))
		for _, s := range stmts {
			if !strings.Contains(s, quoted) {
				t.Errorf("%s statement does not use quoted table: %s", d.Name(), s)
			}
		}
	}
}

func TestEnsureTable_Idempotent(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := EnsureTable(ctx, db, SQLite, DefaultTable); err != nil {
			t.Fatalf("EnsureTable() call %d error = %v", i+1, err)
		}
	}

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, DefaultTable).Scan(&n)
	if err != nil || n != 1 {
		t.Fatalf("table count = %d, %v; want 1", n, err)
	}

	cols := map[string]bool{}
	rows, err := db.Query(`SELECT name FROM pragma_table_info('sessions')`)
	if err != nil {
		t.Fatalf("pragma_table_info error = %v", err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		rows.Scan(&name)
		cols[name] = true
	}
	for _, c := range []string{"id", "data", "last_activity", "created_at", "updated_at"} {
		if !cols[c] {
			t.Errorf("column %q missing", c)
		}
	}
}

func TestEnsureTable_HostileName(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	name := `s"; DROP TABLE x; --`

	if err := EnsureTable(ctx, db, SQLite, name); err != nil {
		t.Fatalf("EnsureTable() error = %v", err)
	}

	var n int
	db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`, name).Scan(&n)
	if n != 1 {
		t.Errorf("table %q not created verbatim", name)
	}
}

func TestEnsureTable_EmptyName(t *testing.T) {
	db := openSQLite(t)
	err := EnsureTable(context.Background(), db, SQLite, "")
	if !errors.Is(err, domain.ErrConfiguration) {
		t.Errorf("EnsureTable(\"\") error = %v, want configuration error", err)
	}
}

func TestUpsert_SingleRow(t *testing.T) {
	db := openSQLite(t)
	ctx := context.Background()
	EnsureTable(ctx, db, SQLite, DefaultTable)

	for i := int64(1); i <= 3; i++ {
		if _, err := db.Exec(SQLite.Upsert(DefaultTable), "abc", "payload", i); err != nil {
			t.Fatalf("upsert %d error = %v", i, err)
		}
	}

	var n int
	var last int64
	db.QueryRow(`SELECT COUNT(*), MAX(last_activity) FROM sessions WHERE id = 'abc'`).Scan(&n, &last)
	if n != 1 || last != 3 {
		t.Errorf("rows = %d, last_activity = %d; want 1, 3", n, last)
	}
}
