package session

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/yndnr/sesskeep/internal/core/domain"
	"github.com/yndnr/sesskeep/internal/storage"
	"github.com/yndnr/sesskeep/internal/telemetry/metric"
)

// Operation names used in logs and metrics.
const (
	opOpen    = "open"
	opRead    = "read"
	opWrite   = "write"
	opDestroy = "destroy"
	opGC      = "gc"
)

// opener builds the backing store. It is called by Open.
type opener func(ctx context.Context) (storage.RecordStore, error)

// Driver is the process-wide session driver. It owns the storage
// connection between Open and Close and is safe for concurrent use by many
// Sessions with different ids.
type Driver struct {
	name     string
	lifetime time.Duration
	behavior BehaviorConfig

	open    opener
	logger  *slog.Logger
	metrics *metric.Registry
	now     func() time.Time
	intn    func(n int) int

	gcLimiter *rate.Limiter

	mu    sync.RWMutex
	store storage.RecordStore
}

func newDriver(name string, lifetime time.Duration, behavior BehaviorConfig, open opener, o *options, m *metric.Registry) *Driver {
	limit := rate.Inf
	if behavior.GCMinInterval > 0 {
		limit = rate.Every(behavior.GCMinInterval)
	}

	return &Driver{
		name:      name,
		lifetime:  lifetime,
		behavior:  behavior,
		open:      open,
		logger:    o.logger.With("component", "session", "driver", name),
		metrics:   m,
		now:       o.now,
		intn:      o.intn,
		gcLimiter: rate.NewLimiter(limit, 1),
	}
}

// Name returns the canonical driver variant name.
func (d *Driver) Name() string {
	return d.name
}

// Open establishes the storage connection. It is a no-op if already open.
func (d *Driver) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.store != nil {
		return nil
	}

	start := time.Now()
	st, err := d.open(ctx)
	d.metrics.ObserveOp(opOpen, start, err)
	if err != nil {
		d.logger.Error("failed to open session store", "error", err)
		if !errors.Is(err, domain.ErrConfiguration) {
			err = domain.ErrConfiguration.WithDetails("open session store").WithCause(err)
		}
		return err
	}

	d.store = st
	d.logger.Debug("session store opened")
	return nil
}

// Close releases the storage connection. Nothing is persisted.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.store == nil {
		return nil
	}

	err := d.store.Close()
	d.store = nil
	if err != nil {
		d.logger.Warn("error closing session store", "error", err)
		return domain.ErrStorageIO.WithDetails("close session store").WithCause(err)
	}
	d.logger.Debug("session store closed")
	return nil
}

func (d *Driver) active() (storage.RecordStore, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.store == nil {
		return nil, domain.ErrDriverClosed
	}
	return d.store, nil
}

// Read returns the stored payload for id. Absent and undecryptable
// sessions yield an empty payload and no error. Storage failures are
// returned as ErrStorageIO with an empty payload.
func (d *Driver) Read(ctx context.Context, id string) ([]byte, error) {
	if err := domain.ValidateSessionID(id); err != nil {
		return nil, err
	}
	st, err := d.active()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	payload, err := st.Read(ctx, id)
	switch {
	case errors.Is(err, domain.ErrDecryption):
		d.metrics.ObserveOp(opRead, start, nil)
		d.metrics.IncDecryptFailure()
		d.logger.Warn("discarding undecryptable session", "session_id", id, "error", err)
		return nil, nil
	case err != nil:
		d.metrics.ObserveOp(opRead, start, err)
		d.logger.Error("session read failed", "session_id", id, "error", err)
		return nil, storageErr(err, "read session")
	}

	d.metrics.ObserveOp(opRead, start, nil)
	return payload, nil
}

// Write persists data under id and refreshes its last activity time.
func (d *Driver) Write(ctx context.Context, id string, data []byte) error {
	if err := domain.ValidateSessionID(id); err != nil {
		return err
	}
	st, err := d.active()
	if err != nil {
		return err
	}

	start := time.Now()
	err = st.Write(ctx, id, data)
	d.metrics.ObserveOp(opWrite, start, err)
	if err != nil {
		d.logger.Error("session write failed", "session_id", id, "error", err)
		return storageErr(err, "write session")
	}
	return nil
}

// Destroy deletes the session. Destroying an absent session succeeds.
func (d *Driver) Destroy(ctx context.Context, id string) error {
	if err := domain.ValidateSessionID(id); err != nil {
		return err
	}
	st, err := d.active()
	if err != nil {
		return err
	}

	start := time.Now()
	err = st.Destroy(ctx, id)
	d.metrics.ObserveOp(opDestroy, start, err)
	if err != nil {
		d.logger.Error("session destroy failed", "session_id", id, "error", err)
		return storageErr(err, "destroy session")
	}
	return nil
}

// GC deletes sessions whose last activity is older than the effective
// lifetime: the driver's lifetime_seconds when set, otherwise maxLifetime.
// It returns the number of deleted sessions.
func (d *Driver) GC(ctx context.Context, maxLifetime time.Duration) (int, error) {
	lifetime := d.Lifetime(maxLifetime)
	if lifetime < 0 {
		return 0, domain.ErrInvalidArgument.WithDetailsf("negative lifetime %s", lifetime)
	}
	st, err := d.active()
	if err != nil {
		return 0, err
	}

	start := time.Now()
	cutoff := d.now().Add(-lifetime)
	n, err := st.ExpireOlderThan(ctx, cutoff)
	d.metrics.ObserveOp(opGC, start, err)
	d.metrics.AddGCDeleted(n)
	if err != nil {
		d.logger.Error("session gc failed", "deleted", n, "error", err)
		return n, storageErr(err, "expire sessions")
	}

	d.logger.Info("session gc completed",
		"deleted", n,
		"lifetime", lifetime,
		"elapsed", time.Since(start))
	return n, nil
}

// Lifetime resolves the effective session lifetime for a GC call.
func (d *Driver) Lifetime(maxLifetime time.Duration) time.Duration {
	if d.lifetime > 0 {
		return d.lifetime
	}
	return maxLifetime
}

// MaybeGC runs GC with probability gc_probability/gc_divisor, at most once
// per gc_min_interval in this process. It reports whether a sweep ran.
func (d *Driver) MaybeGC(ctx context.Context) (bool, int, error) {
	b := d.behavior
	if b.GCProbability <= 0 || b.GCDivisor <= 0 {
		return false, 0, nil
	}
	if d.intn(b.GCDivisor) >= b.GCProbability {
		return false, 0, nil
	}
	if !d.gcLimiter.Allow() {
		return false, 0, nil
	}

	n, err := d.GC(ctx, b.GCMaxLifetime)
	return true, n, err
}

// Start activates the session id, loading its stored state. An empty id
// starts a new session under a freshly generated id. The returned Session
// must not be shared between goroutines; ctx is used for its write-through
// commits.
func (d *Driver) Start(ctx context.Context, id string) (*Session, error) {
	isNew := false
	if id == "" {
		gen, err := domain.GenerateSessionID()
		if err != nil {
			return nil, err
		}
		id, isNew = gen, true
	}

	state := domain.NewState()
	if !isNew {
		payload, err := d.Read(ctx, id)
		if err != nil {
			return nil, err
		}
		if payload == nil {
			isNew = true
		} else if decoded, err := domain.DecodeState(payload); err != nil {
			d.metrics.IncDecryptFailure()
			d.logger.Warn("discarding unreadable session state", "session_id", id, "error", err)
		} else {
			state = decoded
		}
	}

	return &Session{
		ctx:    ctx,
		id:     id,
		driver: d,
		state:  state,
		isNew:  isNew,
	}, nil
}

// MetricsHandler serves the driver's private metrics registry. It falls
// back to the default Prometheus handler.
func (d *Driver) MetricsHandler() http.Handler {
	return d.metrics.Handler()
}

func storageErr(err error, details string) error {
	var de *domain.DomainError
	if errors.As(err, &de) {
		return err
	}
	return domain.ErrStorageIO.WithDetails(details).WithCause(err)
}

func defaultIntn(n int) int {
	return rand.IntN(n)
}
