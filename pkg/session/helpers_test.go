package session

import (
	"context"
	"encoding/hex"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/yndnr/sesskeep/internal/core/domain"
	"github.com/yndnr/sesskeep/internal/storage"
)

var (
	testKeyHex  = hex.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))
	otherKeyHex = strings.Repeat("ab", 32)
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Unix(1_700_000_000, 0)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// sqliteConfig returns a valid sql-embedded config backed by a temp file.
func sqliteConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Driver = DriverSQLEmbedded
	cfg.Drivers.SQLEmbedded.DatabasePath = filepath.Join(t.TempDir(), "sessions.db")
	cfg.Drivers.SQLEmbedded.EncryptionKey = testKeyHex
	return cfg
}

func openDriver(t *testing.T, cfg *Config, opts ...Option) *Driver {
	t.Helper()
	opts = append([]Option{WithLogger(quietLogger())}, opts...)
	d, err := New(context.Background(), cfg, opts...)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return d
}

// memStore is an in-memory RecordStore with injectable failures.
type memStore struct {
	mu       sync.Mutex
	rows     map[string][]byte
	activity map[string]int64
	now      func() time.Time

	readErr    error
	writeErr   error
	destroyErr error
	expireErr  error
	closed     bool
}

func newMemStore(now func() time.Time) *memStore {
	return &memStore{rows: map[string][]byte{}, activity: map[string]int64{}, now: now}
}

func (m *memStore) Read(_ context.Context, id string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.readErr != nil {
		return nil, m.readErr
	}
	v, ok := m.rows[id]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *memStore) Write(_ context.Context, id string, p []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.writeErr != nil {
		return m.writeErr
	}
	m.rows[id] = append([]byte(nil), p...)
	m.activity[id] = m.now().Unix()
	return nil
}

func (m *memStore) Destroy(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.destroyErr != nil {
		return m.destroyErr
	}
	delete(m.rows, id)
	delete(m.activity, id)
	return nil
}

func (m *memStore) ExpireOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.expireErr != nil {
		return 0, m.expireErr
	}
	n := 0
	for id, at := range m.activity {
		if at < domain.CutoffSeconds(cutoff) {
			delete(m.rows, id)
			delete(m.activity, id)
			n++
		}
	}
	return n, nil
}

func (m *memStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

func (m *memStore) get(id string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.rows[id]
	return v, ok
}

// memDriver builds an open Driver over a memStore.
func memDriver(t *testing.T, behavior BehaviorConfig, lifetime time.Duration) (*Driver, *memStore, *fakeClock) {
	t.Helper()
	clk := newFakeClock()
	st := newMemStore(clk.Now)
	o := &options{logger: quietLogger(), now: clk.Now, intn: func(int) int { return 0 }}

	d := newDriver("mem", lifetime, behavior, func(context.Context) (storage.RecordStore, error) {
		return st, nil
	}, o, nil)
	if err := d.Open(context.Background()); err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	return d, st, clk
}

var errBoom = domain.ErrStorageIO.WithDetails("disk full")
