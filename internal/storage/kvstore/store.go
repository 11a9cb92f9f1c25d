// Package kvstore implements the session Record Store on Badger v3.
//
// Each session is one key, "sess/<id>", holding a JSON-encoded
// domain.SessionRecord. When a codec is configured the payload is sealed
// before it is stored; otherwise it is kept base64-encoded.
package kvstore

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dgraph-io/badger/v3"

	"github.com/yndnr/sesskeep/internal/core/domain"
	"github.com/yndnr/sesskeep/internal/storage"
	"github.com/yndnr/sesskeep/pkg/crypto/envelope"
)

// KeyPrefix prefixes every session key.
const KeyPrefix = "sess/"

// Options configures a Store.
type Options struct {
	// Dir is the Badger directory. Required unless InMemory is set.
	Dir string

	// InMemory runs Badger without touching disk.
	InMemory bool

	// Codec seals payloads. Optional.
	Codec *envelope.Codec

	// Clock stamps last_activity. Default: time.Now.
	Clock storage.Clock

	// ExpireBatchSize bounds deletes per transaction during expiry.
	ExpireBatchSize int

	// GCInterval is the interval between value-log GC runs.
	// Default: 10m. Negative disables the loop.
	GCInterval time.Duration

	// GCThreshold is the value-log discard ratio (0.0-1.0). Default: 0.5.
	GCThreshold float64

	// SyncWrites fsyncs every commit.
	SyncWrites bool

	// Logger is the structured logger.
	Logger *slog.Logger
}

// Store is a Badger-backed storage.RecordStore.
type Store struct {
	db     *badger.DB
	codec  *envelope.Codec
	now    storage.Clock
	batch  int
	gcThr  float64
	logger *slog.Logger

	lastGC atomic.Int64 // Unix milliseconds

	stopCh    chan struct{}
	doneCh    chan struct{}
	closeOnce sync.Once
	closeErr  error
}

var _ storage.RecordStore = (*Store)(nil)

// Open opens the Badger database and starts the value-log GC loop.
func Open(opts Options) (*Store, error) {
	if opts.Dir == "" && !opts.InMemory {
		return nil, domain.ErrConfiguration.WithDetails("kvstore: path is required")
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.ExpireBatchSize <= 0 {
		opts.ExpireBatchSize = storage.DefaultExpireBatchSize
	}
	if opts.GCInterval == 0 {
		opts.GCInterval = 10 * time.Minute
	}
	if opts.GCThreshold <= 0 || opts.GCThreshold >= 1 {
		opts.GCThreshold = 0.5
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	logger := opts.Logger.With("component", "kvstore")

	bopts := badger.DefaultOptions(opts.Dir).
		WithLogger(&badgerLogger{logger: logger}).
		WithSyncWrites(opts.SyncWrites).
		WithValueLogFileSize(64 << 20)
	if opts.InMemory {
		bopts = bopts.WithDir("").WithValueDir("").WithInMemory(true)
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, domain.ErrConfiguration.WithDetailsf("kvstore: open %s", opts.Dir).WithCause(err)
	}

	s := &Store{
		db:     db,
		codec:  opts.Codec,
		now:    opts.Clock,
		batch:  opts.ExpireBatchSize,
		gcThr:  opts.GCThreshold,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}

	if opts.GCInterval > 0 && !opts.InMemory {
		go s.gcLoop(opts.GCInterval)
	} else {
		close(s.doneCh)
	}

	logger.Info("kv store opened", "dir", opts.Dir, "in_memory", opts.InMemory, "sealed", opts.Codec != nil)
	return s, nil
}

func sessionKey(id string) []byte {
	return []byte(KeyPrefix + id)
}

// Read returns the payload for id, or nil if there is no record.
func (s *Store) Read(ctx context.Context, id string) ([]byte, error) {
	var raw []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(sessionKey(id))
		if err != nil {
			return err
		}
		raw, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.ErrStorageIO.WithDetails("get session").WithCause(err)
	}

	var rec domain.SessionRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, domain.ErrDecryption.WithDetails("corrupt session record").WithCause(err)
	}
	return s.open(rec.Ciphertext)
}

// Write stores plaintext under id, keeping the original creation time.
func (s *Store) Write(ctx context.Context, id string, plaintext []byte) error {
	blob, err := s.seal(plaintext)
	if err != nil {
		return domain.ErrStorageIO.WithDetails("seal payload").WithCause(err)
	}

	now := s.now()
	key := sessionKey(id)

	err = s.db.Update(func(txn *badger.Txn) error {
		rec := domain.SessionRecord{
			ID:           id,
			Ciphertext:   blob,
			LastActivity: now.Unix(),
			CreatedAt:    now,
			UpdatedAt:    now,
		}

		if item, err := txn.Get(key); err == nil {
			var prev domain.SessionRecord
			if err := item.Value(func(v []byte) error { return json.Unmarshal(v, &prev) }); err == nil && !prev.CreatedAt.IsZero() {
				rec.CreatedAt = prev.CreatedAt
			}
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return err
		}

		val, err := json.Marshal(&rec)
		if err != nil {
			return err
		}
		return txn.Set(key, val)
	})
	if err != nil {
		return domain.ErrStorageIO.WithDetails("put session").WithCause(err)
	}
	return nil
}

// Destroy deletes the record for id if present.
func (s *Store) Destroy(ctx context.Context, id string) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(sessionKey(id))
	})
	if err != nil {
		return domain.ErrStorageIO.WithDetails("delete session").WithCause(err)
	}
	return nil
}

// ExpireOlderThan deletes records with last_activity < cutoff. Candidate
// keys are collected in a read-only scan, then each batch re-reads its keys
// and deletes only those still expired, so a session refreshed after the
// scan survives.
func (s *Store) ExpireOlderThan(ctx context.Context, cutoff time.Time) (int, error) {
	candidates, err := s.scanExpired(ctx, cutoff)
	if err != nil {
		return 0, domain.ErrStorageIO.WithDetails("scan sessions").WithCause(err)
	}

	deleted, err := s.deleteExpired(ctx, candidates, cutoff)
	if err != nil {
		return deleted, domain.ErrStorageIO.WithDetails("expire sessions").WithCause(err)
	}
	if deleted > 0 {
		s.logger.Debug("expired sessions", "count", deleted, "cutoff", domain.CutoffSeconds(cutoff))
	}
	return deleted, nil
}

func (s *Store) scanExpired(ctx context.Context, cutoff time.Time) ([][]byte, error) {
	var keys [][]byte
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(KeyPrefix)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			item := it.Item()
			rec, err := decodeRecord(item)
			if err != nil {
				s.logger.Warn("skipping unreadable record", "record", string(item.Key()), "error", err)
				continue
			}
			if rec.ExpiredAt(cutoff) {
				keys = append(keys, item.KeyCopy(nil))
			}
		}
		return nil
	})
	return keys, err
}

// deleteExpired removes the candidates that are still expired. Reading a
// key inside the batch puts it in the transaction's conflict set: a Write
// committed meanwhile makes the batch fail with badger.ErrConflict, and the
// batch is retried against the fresh state.
func (s *Store) deleteExpired(ctx context.Context, keys [][]byte, cutoff time.Time) (int, error) {
	const maxAttempts = 3

	deleted := 0
	for start := 0; start < len(keys); start += s.batch {
		end := min(start+s.batch, len(keys))

		var n int
		var err error
		for attempt := 0; attempt < maxAttempts; attempt++ {
			if err = ctx.Err(); err != nil {
				return deleted, err
			}
			n, err = s.deleteBatch(keys[start:end], cutoff)
			if !errors.Is(err, badger.ErrConflict) {
				break
			}
		}
		if err != nil {
			return deleted, err
		}
		deleted += n
	}
	return deleted, nil
}

func (s *Store) deleteBatch(keys [][]byte, cutoff time.Time) (int, error) {
	n := 0
	err := s.db.Update(func(txn *badger.Txn) error {
		n = 0
		for _, key := range keys {
			item, err := txn.Get(key)
			if errors.Is(err, badger.ErrKeyNotFound) {
				continue
			}
			if err != nil {
				return err
			}
			rec, err := decodeRecord(item)
			if err != nil || !rec.ExpiredAt(cutoff) {
				continue
			}
			if err := txn.Delete(key); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func decodeRecord(item *badger.Item) (domain.SessionRecord, error) {
	var rec domain.SessionRecord
	err := item.Value(func(v []byte) error { return json.Unmarshal(v, &rec) })
	return rec, err
}

// Close stops the GC loop and closes the database. Later calls return the
// first result.
func (s *Store) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
		<-s.doneCh

		if err := s.db.Close(); err != nil {
			s.closeErr = fmt.Errorf("kvstore: close db: %w", err)
			return
		}
		s.logger.Info("kv store closed")
	})
	return s.closeErr
}

// GC runs value-log garbage collection until Badger reports nothing left to
// rewrite. It returns the number of rewrite passes.
func (s *Store) GC() (int, error) {
	passes := 0
	for {
		err := s.db.RunValueLogGC(s.gcThr)
		if errors.Is(err, badger.ErrNoRewrite) || errors.Is(err, badger.ErrRejected) {
			break
		}
		if err != nil {
			return passes, fmt.Errorf("kvstore: value log gc: %w", err)
		}
		passes++
	}
	s.lastGC.Store(s.now().UnixMilli())
	return passes, nil
}

// LastGC returns the time of the last value-log GC, or zero.
func (s *Store) LastGC() time.Time {
	ms := s.lastGC.Load()
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func (s *Store) gcLoop(interval time.Duration) {
	defer close(s.doneCh)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n, err := s.GC(); err != nil {
				s.logger.Error("value log gc failed", "error", err)
			} else if n > 0 {
				s.logger.Info("value log gc completed", "passes", n)
			}
		case <-s.stopCh:
			return
		}
	}
}

func (s *Store) seal(plaintext []byte) (string, error) {
	if s.codec == nil {
		return base64.StdEncoding.EncodeToString(plaintext), nil
	}
	return s.codec.Seal(plaintext)
}

func (s *Store) open(blob string) ([]byte, error) {
	if s.codec == nil {
		out, err := base64.StdEncoding.DecodeString(blob)
		if err != nil {
			return nil, domain.ErrDecryption.WithDetails("payload is not base64").WithCause(err)
		}
		return out, nil
	}
	return s.codec.Open(blob)
}

// badgerLogger adapts slog.Logger to Badger's Logger interface.
type badgerLogger struct {
	logger *slog.Logger
}

func (l *badgerLogger) Errorf(format string, args ...interface{}) {
	l.logger.Error(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Warningf(format string, args ...interface{}) {
	l.logger.Warn(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Infof(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}

func (l *badgerLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug(fmt.Sprintf(format, args...))
}
