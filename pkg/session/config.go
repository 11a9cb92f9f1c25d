package session

import (
	"strings"
	"time"
)

// Driver variant names.
const (
	DriverFile         = "file"
	DriverSQLEmbedded  = "sql-embedded"
	DriverSQLNetworked = "sql-networked"
)

// driverAliases maps accepted alternative names to their variant.
var driverAliases = map[string]string{
	"sqlite": DriverSQLEmbedded,
	"mysql":  DriverSQLNetworked,
}

// CanonicalDriver resolves aliases and case. Unknown names are returned
// lower-cased and unchanged otherwise.
func CanonicalDriver(name string) string {
	n := strings.ToLower(strings.TrimSpace(name))
	if v, ok := driverAliases[n]; ok {
		return v
	}
	return n
}

// Config is the complete sesskeep configuration.
type Config struct {
	// Driver selects the backend variant.
	Driver string `koanf:"driver" json:"driver" yaml:"driver"`

	Drivers DriversConfig  `koanf:"drivers" json:"drivers" yaml:"drivers"`
	Session BehaviorConfig `koanf:"session" json:"session" yaml:"session"`
	Log     LogConfig      `koanf:"log" json:"log" yaml:"log"`
	Metrics MetricsConfig  `koanf:"metrics" json:"metrics" yaml:"metrics"`
}

// DriversConfig holds one section per driver variant. Only the selected
// variant's section is validated and used.
type DriversConfig struct {
	File         FileConfig      `koanf:"file" json:"file" yaml:"file"`
	SQLEmbedded  EmbeddedConfig  `koanf:"sql-embedded" json:"sql-embedded" yaml:"sql-embedded"`
	SQLNetworked NetworkedConfig `koanf:"sql-networked" json:"sql-networked" yaml:"sql-networked"`
}

// StoreConfig holds the settings every variant shares.
type StoreConfig struct {
	// LifetimeSeconds overrides the gc max lifetime when > 0.
	LifetimeSeconds int `koanf:"lifetime_seconds" json:"lifetime_seconds" yaml:"lifetime_seconds"`

	// EncryptionKey is the hex-encoded 32-byte key. Required for SQL variants.
	EncryptionKey string `koanf:"encryption_key" json:"encryption_key" yaml:"encryption_key"`

	// Cipher is aes-256-cbc (default), aes-256-gcm or chacha20-poly1305.
	Cipher string `koanf:"cipher" json:"cipher" yaml:"cipher"`

	// CacheTTL enables the process-local read-through cache when > 0.
	CacheTTL time.Duration `koanf:"cache_ttl" json:"cache_ttl" yaml:"cache_ttl"`
}

// Lifetime returns LifetimeSeconds as a duration.
func (c StoreConfig) Lifetime() time.Duration {
	return time.Duration(c.LifetimeSeconds) * time.Second
}

// FileConfig configures the Badger-backed file variant.
type FileConfig struct {
	StoreConfig `koanf:",squash" yaml:",inline"`

	// Path is the Badger directory.
	Path string `koanf:"path" json:"path" yaml:"path"`
}

// EmbeddedConfig configures the SQLite variant.
type EmbeddedConfig struct {
	StoreConfig `koanf:",squash" yaml:",inline"`

	Table        string `koanf:"table" json:"table" yaml:"table"`
	DatabasePath string `koanf:"database_path" json:"database_path" yaml:"database_path"`
}

// NetworkedConfig configures the MySQL variant.
type NetworkedConfig struct {
	StoreConfig `koanf:",squash" yaml:",inline"`

	Table     string            `koanf:"table" json:"table" yaml:"table"`
	Host      string            `koanf:"host" json:"host" yaml:"host"`
	Port      int               `koanf:"port" json:"port" yaml:"port"`
	User      string            `koanf:"user" json:"user" yaml:"user"`
	Password  string            `koanf:"password" json:"password" yaml:"password"`
	Database  string            `koanf:"database" json:"database" yaml:"database"`
	Charset   string            `koanf:"charset" json:"charset" yaml:"charset"`
	Collation string            `koanf:"collation" json:"collation" yaml:"collation"`
	Params    map[string]string `koanf:"params" json:"params" yaml:"params"`

	TLS TLSConfig `koanf:"tls" json:"tls" yaml:"tls"`
}

// TLSConfig configures client TLS towards the networked database.
type TLSConfig struct {
	CAFile             string `koanf:"ca_file" json:"ca_file" yaml:"ca_file"`
	CertFile           string `koanf:"cert_file" json:"cert_file" yaml:"cert_file"`
	KeyFile            string `koanf:"key_file" json:"key_file" yaml:"key_file"`
	ServerName         string `koanf:"server_name" json:"server_name" yaml:"server_name"`
	InsecureSkipVerify bool   `koanf:"insecure_skip_verify" json:"insecure_skip_verify" yaml:"insecure_skip_verify"`
}

// BehaviorConfig holds driver-independent session behavior.
type BehaviorConfig struct {
	// WriteThrough commits every mutation immediately instead of on Save.
	WriteThrough bool `koanf:"write_through" json:"write_through" yaml:"write_through"`

	// GCProbability / GCDivisor is the chance that MaybeGC sweeps.
	GCProbability int `koanf:"gc_probability" json:"gc_probability" yaml:"gc_probability"`
	GCDivisor     int `koanf:"gc_divisor" json:"gc_divisor" yaml:"gc_divisor"`

	// GCMinInterval is the minimum time between MaybeGC sweeps per process.
	GCMinInterval time.Duration `koanf:"gc_min_interval" json:"gc_min_interval" yaml:"gc_min_interval"`

	// GCInterval is the Sweeper period.
	GCInterval time.Duration `koanf:"gc_interval" json:"gc_interval" yaml:"gc_interval"`

	// GCBatchSize bounds rows per expiry delete.
	GCBatchSize int `koanf:"gc_batch_size" json:"gc_batch_size" yaml:"gc_batch_size"`

	// GCMaxLifetime is the lifetime passed to GC by MaybeGC and the Sweeper.
	GCMaxLifetime time.Duration `koanf:"gc_max_lifetime" json:"gc_max_lifetime" yaml:"gc_max_lifetime"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `koanf:"level" json:"level" yaml:"level"`
	Format string `koanf:"format" json:"format" yaml:"format"`
}

// MetricsConfig configures the /metrics listener of the sweep daemon.
type MetricsConfig struct {
	Addr string `koanf:"addr" json:"addr" yaml:"addr"`
}

// Store returns the shared settings of the selected variant.
func (c *Config) Store() StoreConfig {
	switch CanonicalDriver(c.Driver) {
	case DriverFile:
		return c.Drivers.File.StoreConfig
	case DriverSQLNetworked:
		return c.Drivers.SQLNetworked.StoreConfig
	default:
		return c.Drivers.SQLEmbedded.StoreConfig
	}
}
