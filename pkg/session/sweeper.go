package session

import (
	"context"
	"sync"
	"time"
)

// Sweeper runs Driver.GC on a fixed interval until stopped.
type Sweeper struct {
	driver      *Driver
	interval    time.Duration
	maxLifetime time.Duration

	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewSweeper creates a sweeper. A non-positive interval falls back to the
// driver's gc_interval, then to DefaultGCInterval.
func NewSweeper(d *Driver, interval, maxLifetime time.Duration) *Sweeper {
	if interval <= 0 {
		interval = d.behavior.GCInterval
	}
	if interval <= 0 {
		interval = DefaultGCInterval
	}
	if maxLifetime <= 0 {
		maxLifetime = d.behavior.GCMaxLifetime
	}

	return &Sweeper{
		driver:      d,
		interval:    interval,
		maxLifetime: maxLifetime,
		stopCh:      make(chan struct{}),
		doneCh:      make(chan struct{}),
	}
}

// Run sweeps every interval until ctx is done or Stop is called. The first
// sweep happens immediately.
func (s *Sweeper) Run(ctx context.Context) {
	defer close(s.doneCh)

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		}
	}
}

// Stop stops the sweeper and waits for an in-flight sweep to finish.
// It must only be called after Run has been started.
func (s *Sweeper) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	<-s.doneCh
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.driver.GC(ctx, s.maxLifetime); err != nil {
		s.driver.logger.Warn("scheduled gc failed", "error", err)
	}
}
