package session

import (
	"context"
	"log/slog"
	"time"

	"github.com/yndnr/sesskeep/internal/core/domain"
	"github.com/yndnr/sesskeep/internal/infra/tlsroots"
	"github.com/yndnr/sesskeep/internal/storage"
	"github.com/yndnr/sesskeep/internal/storage/kvstore"
	"github.com/yndnr/sesskeep/internal/storage/schema"
	"github.com/yndnr/sesskeep/internal/storage/sqlstore"
	"github.com/yndnr/sesskeep/internal/telemetry/metric"
	"github.com/yndnr/sesskeep/pkg/crypto/adaptive"
	"github.com/yndnr/sesskeep/pkg/crypto/envelope"
)

// New validates cfg, builds the configured driver variant and opens it.
// Configuration problems, including a bad encryption key, are reported
// before any storage is touched. A store that cannot be opened is a
// ConfigurationError; New never returns a driver that silently drops
// writes.
func New(ctx context.Context, cfg *Config, opts ...Option) (*Driver, error) {
	if err := Verify(cfg); err != nil {
		return nil, err
	}

	o := &options{
		logger: slog.Default(),
		now:    time.Now,
		intn:   defaultIntn,
	}
	for _, opt := range opts {
		opt(o)
	}

	var m *metric.Registry
	if o.metrics {
		m = metric.NewRegistry(o.registerer)
	}

	name := CanonicalDriver(cfg.Driver)
	sc := cfg.Store()

	var codec *envelope.Codec
	if sc.EncryptionKey != "" {
		cipherType, err := adaptive.ParseType(sc.Cipher)
		if err != nil {
			return nil, domain.ErrConfiguration.WithCause(err)
		}
		codec, err = envelope.NewFromHex(sc.EncryptionKey, cipherType)
		if err != nil {
			return nil, err
		}
	}

	base, err := storeOpener(name, cfg, codec, o)
	if err != nil {
		return nil, err
	}

	open := func(ctx context.Context) (storage.RecordStore, error) {
		st, err := base(ctx)
		if err != nil {
			return nil, err
		}
		return storage.Cached(st, sc.CacheTTL,
			storage.WithCacheClock(o.now),
			storage.WithCacheObserver(m.ObserveCache),
		), nil
	}

	d := newDriver(name, sc.Lifetime(), cfg.Session, open, o, m)
	if err := d.Open(ctx); err != nil {
		return nil, err
	}

	cipher := "none"
	if codec != nil {
		cipher = string(codec.CipherType())
	}
	d.logger.Info("session driver ready",
		"lifetime", sc.Lifetime(),
		"write_through", cfg.Session.WriteThrough,
		"cache_ttl", sc.CacheTTL,
		"cipher", cipher)
	return d, nil
}

func storeOpener(name string, cfg *Config, codec *envelope.Codec, o *options) (opener, error) {
	batch := cfg.Session.GCBatchSize

	switch name {
	case DriverFile:
		c := cfg.Drivers.File
		return func(context.Context) (storage.RecordStore, error) {
			return kvstore.Open(kvstore.Options{
				Dir:             c.Path,
				Codec:           codec,
				Clock:           o.now,
				ExpireBatchSize: batch,
				Logger:          o.logger,
			})
		}, nil

	case DriverSQLEmbedded:
		c := cfg.Drivers.SQLEmbedded
		return func(ctx context.Context) (storage.RecordStore, error) {
			dsn, err := sqlstore.SQLiteDSN(c.DatabasePath)
			if err != nil {
				return nil, err
			}
			return sqlstore.Open(ctx, sqlstore.Options{
				Dialect:         schema.SQLite,
				DSN:             dsn,
				Table:           c.Table,
				Codec:           codec,
				Clock:           o.now,
				ExpireBatchSize: batch,
				Logger:          o.logger,
			})
		}, nil

	case DriverSQLNetworked:
		c := cfg.Drivers.SQLNetworked
		tlsConfig, err := tlsroots.ClientConfig(tlsroots.Options{
			CAFile:             c.TLS.CAFile,
			CertFile:           c.TLS.CertFile,
			KeyFile:            c.TLS.KeyFile,
			ServerName:         c.TLS.ServerName,
			InsecureSkipVerify: c.TLS.InsecureSkipVerify,
		})
		if err != nil {
			return nil, domain.ErrConfiguration.WithDetails("drivers.sql-networked.tls").WithCause(err)
		}
		dsn, err := sqlstore.MySQLDSN(sqlstore.MySQLOptions{
			Host:      c.Host,
			Port:      c.Port,
			User:      c.User,
			Password:  c.Password,
			Database:  c.Database,
			Charset:   c.Charset,
			Collation: c.Collation,
			Params:    c.Params,
			TLS:       tlsConfig,
		})
		if err != nil {
			return nil, err
		}
		return func(ctx context.Context) (storage.RecordStore, error) {
			return sqlstore.Open(ctx, sqlstore.Options{
				Dialect:         schema.MySQL,
				DSN:             dsn,
				Table:           c.Table,
				Codec:           codec,
				Clock:           o.now,
				ExpireBatchSize: batch,
				Logger:          o.logger,
			})
		}, nil
	}

	return nil, domain.ErrUnsupportedDriver.WithDetailsf("driver %q", name)
}
