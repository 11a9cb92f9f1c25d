package session

import (
	"strings"

	"github.com/yndnr/sesskeep/internal/core/domain"
	"github.com/yndnr/sesskeep/internal/telemetry/logger"
	"github.com/yndnr/sesskeep/pkg/crypto/adaptive"
	"github.com/yndnr/sesskeep/pkg/crypto/envelope"
)

// Verify validates the configuration. Only the selected driver's section is
// checked. Every failure is a ConfigurationError and nothing touches
// storage.
func Verify(cfg *Config) error {
	if cfg == nil {
		return domain.ErrConfiguration.WithDetails("config is nil")
	}

	switch CanonicalDriver(cfg.Driver) {
	case DriverFile:
		if err := verifyFile(&cfg.Drivers.File); err != nil {
			return err
		}
	case DriverSQLEmbedded:
		if err := verifyEmbedded(&cfg.Drivers.SQLEmbedded); err != nil {
			return err
		}
	case DriverSQLNetworked:
		if err := verifyNetworked(&cfg.Drivers.SQLNetworked); err != nil {
			return err
		}
	default:
		return domain.ErrUnsupportedDriver.WithDetailsf("driver %q", cfg.Driver)
	}

	if err := verifyBehavior(&cfg.Session); err != nil {
		return err
	}
	if _, err := logger.ParseLevel(cfg.Log.Level); err != nil {
		return domain.ErrConfiguration.WithDetails("log.level").WithCause(err)
	}
	switch strings.ToLower(cfg.Log.Format) {
	case "", "json", "text", "console":
	default:
		return domain.ErrConfiguration.WithDetailsf("log.format %q must be json or text", cfg.Log.Format)
	}
	return nil
}

func verifyStore(section string, c *StoreConfig, keyRequired bool) error {
	if c.LifetimeSeconds < 0 {
		return domain.ErrConfiguration.WithDetailsf("drivers.%s.lifetime_seconds must not be negative", section)
	}
	if c.CacheTTL < 0 {
		return domain.ErrConfiguration.WithDetailsf("drivers.%s.cache_ttl must not be negative", section)
	}
	if _, err := adaptive.ParseType(c.Cipher); err != nil {
		return domain.ErrConfiguration.WithDetailsf("drivers.%s.cipher", section).WithCause(err)
	}

	if c.EncryptionKey == "" {
		if keyRequired {
			return domain.ErrInvalidKey.WithDetailsf("drivers.%s.encryption_key is required", section)
		}
		return nil
	}
	if _, err := envelope.DecodeKey(c.EncryptionKey); err != nil {
		return domain.ErrInvalidKey.WithDetailsf("drivers.%s.encryption_key", section).WithCause(err)
	}
	return nil
}

func verifyFile(c *FileConfig) error {
	if err := verifyStore(DriverFile, &c.StoreConfig, false); err != nil {
		return err
	}
	if strings.TrimSpace(c.Path) == "" {
		return domain.ErrConfiguration.WithDetails("drivers.file.path is required")
	}
	return nil
}

func verifyEmbedded(c *EmbeddedConfig) error {
	if err := verifyStore(DriverSQLEmbedded, &c.StoreConfig, true); err != nil {
		return err
	}
	if strings.TrimSpace(c.Table) == "" {
		return domain.ErrConfiguration.WithDetails("drivers.sql-embedded.table is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return domain.ErrConfiguration.WithDetails("drivers.sql-embedded.database_path is required")
	}
	return nil
}

func verifyNetworked(c *NetworkedConfig) error {
	if err := verifyStore(DriverSQLNetworked, &c.StoreConfig, true); err != nil {
		return err
	}
	if strings.TrimSpace(c.Table) == "" {
		return domain.ErrConfiguration.WithDetails("drivers.sql-networked.table is required")
	}
	if c.Host == "" {
		return domain.ErrConfiguration.WithDetails("drivers.sql-networked.host is required")
	}
	if c.Database == "" {
		return domain.ErrConfiguration.WithDetails("drivers.sql-networked.database is required")
	}
	if c.Port < 0 || c.Port > 65535 {
		return domain.ErrConfiguration.WithDetailsf("drivers.sql-networked.port %d out of range", c.Port)
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		return domain.ErrConfiguration.WithDetails("drivers.sql-networked.tls cert_file and key_file must be set together")
	}
	return nil
}

func verifyBehavior(c *BehaviorConfig) error {
	if c.GCDivisor <= 0 {
		return domain.ErrConfiguration.WithDetails("session.gc_divisor must be positive")
	}
	if c.GCProbability < 0 || c.GCProbability > c.GCDivisor {
		return domain.ErrConfiguration.WithDetails("session.gc_probability must be between 0 and gc_divisor")
	}
	if c.GCMinInterval < 0 || c.GCInterval < 0 || c.GCMaxLifetime < 0 {
		return domain.ErrConfiguration.WithDetails("session gc durations must not be negative")
	}
	if c.GCBatchSize < 0 {
		return domain.ErrConfiguration.WithDetails("session.gc_batch_size must not be negative")
	}
	return nil
}
