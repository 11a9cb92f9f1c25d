package sqlstore

import (
	"crypto/tls"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-sql-driver/mysql"

	"github.com/yndnr/sesskeep/internal/core/domain"
)

// SQLiteDSN builds a modernc.org/sqlite DSN for a database file. The
// parent directory is created if missing; failing that is a configuration
// error.
func SQLiteDSN(path string) (string, error) {
	if path == "" {
		return "", domain.ErrConfiguration.WithDetails("database_path is required")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return "", domain.ErrConfiguration.WithDetailsf("database directory for %s", path).WithCause(err)
		}
	}

	q := url.Values{}
	q.Add("_pragma", "busy_timeout(5000)")
	q.Add("_pragma", "journal_mode(WAL)")
	// SQLite decodes %HH escapes in URI paths, so '?', '#' and '%' in the
	// file name survive the round trip.
	u := url.URL{Scheme: "file", Opaque: (&url.URL{Path: path}).EscapedPath(), RawQuery: q.Encode()}
	return u.String(), nil
}

// MySQLOptions holds the networked connection settings.
type MySQLOptions struct {
	Host      string
	Port      int
	User      string
	Password  string
	Database  string
	Charset   string
	Collation string
	Params    map[string]string

	// TLS, when set, is registered with the driver under a name derived
	// from the address and database.
	TLS *tls.Config
}

// MySQLDSN builds a go-sql-driver/mysql DSN.
func MySQLDSN(o MySQLOptions) (string, error) {
	if o.Host == "" {
		return "", domain.ErrConfiguration.WithDetails("host is required")
	}
	if o.Database == "" {
		return "", domain.ErrConfiguration.WithDetails("database is required")
	}
	port := o.Port
	if port == 0 {
		port = 3306
	}

	cfg := mysql.NewConfig()
	cfg.User = o.User
	cfg.Passwd = o.Password
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(o.Host, strconv.Itoa(port))
	cfg.DBName = o.Database
	if o.Collation != "" {
		cfg.Collation = o.Collation
	}
	if o.Charset != "" || len(o.Params) > 0 {
		cfg.Params = make(map[string]string, len(o.Params)+1)
		for k, v := range o.Params {
			cfg.Params[k] = v
		}
		if o.Charset != "" {
			cfg.Params["charset"] = o.Charset
		}
	}
	if o.TLS != nil {
		name := "sesskeep-" + cfg.Addr + "-" + cfg.DBName
		if err := mysql.RegisterTLSConfig(name, o.TLS); err != nil {
			return "", domain.ErrConfiguration.WithDetails("register tls config").WithCause(err)
		}
		cfg.TLSConfig = name
	}
	return cfg.FormatDSN(), nil
}
