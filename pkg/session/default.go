package session

import "time"

// Default configuration values.
const (
	DefaultDriver       = DriverSQLEmbedded
	DefaultTable        = "sessions"
	DefaultFilePath     = "./data/sessions"
	DefaultDatabasePath = "./data/sessions.db"
	DefaultMySQLPort    = 3306
	DefaultCharset      = "utf8mb4"
	DefaultCollation    = "utf8mb4_unicode_ci"

	DefaultGCProbability = 1
	DefaultGCDivisor     = 100
	DefaultGCMinInterval = time.Minute
	DefaultGCInterval    = 10 * time.Minute
	DefaultGCBatchSize   = 500
	DefaultGCMaxLifetime = 1440 * time.Second

	DefaultLogLevel    = "info"
	DefaultLogFormat   = "json"
	DefaultMetricsAddr = "127.0.0.1:9464"
)

// DefaultConfig returns the default configuration. Encryption keys are
// never defaulted.
func DefaultConfig() *Config {
	return &Config{
		Driver: DefaultDriver,
		Drivers: DriversConfig{
			File: FileConfig{
				Path: DefaultFilePath,
			},
			SQLEmbedded: EmbeddedConfig{
				Table:        DefaultTable,
				DatabasePath: DefaultDatabasePath,
			},
			SQLNetworked: NetworkedConfig{
				Table:     DefaultTable,
				Port:      DefaultMySQLPort,
				Charset:   DefaultCharset,
				Collation: DefaultCollation,
			},
		},
		Session: BehaviorConfig{
			GCProbability: DefaultGCProbability,
			GCDivisor:     DefaultGCDivisor,
			GCMinInterval: DefaultGCMinInterval,
			GCInterval:    DefaultGCInterval,
			GCBatchSize:   DefaultGCBatchSize,
			GCMaxLifetime: DefaultGCMaxLifetime,
		},
		Log: LogConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
		Metrics: MetricsConfig{
			Addr: DefaultMetricsAddr,
		},
	}
}
