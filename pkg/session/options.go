package session

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type options struct {
	logger     *slog.Logger
	registerer prometheus.Registerer
	metrics    bool
	now        func() time.Time
	intn       func(n int) int
}

// Option configures New.
type Option func(*options)

// WithLogger sets the structured logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithRegisterer registers driver metrics with reg. A nil reg creates a
// private registry, served by Driver.MetricsHandler.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
		o.metrics = true
	}
}

// WithClock overrides the clock used for last_activity and expiry cutoffs.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// withIntn overrides the random source used by MaybeGC.
func withIntn(fn func(n int) int) Option {
	return func(o *options) {
		o.intn = fn
	}
}
