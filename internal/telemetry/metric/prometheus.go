package metric

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sesskeep"

// Operation results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Registry holds the driver metrics. A nil *Registry is valid and records
// nothing.
type Registry struct {
	registry *prometheus.Registry

	OpsTotal        *prometheus.CounterVec
	OpDuration      *prometheus.HistogramVec
	GCDeletedTotal  prometheus.Counter
	DecryptFailures prometheus.Counter
	CacheRequests   *prometheus.CounterVec
}

// NewRegistry creates the driver metrics and registers them with reg. When
// reg is nil a private registry with Go and process collectors is created,
// and Handler serves it.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		OpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "ops_total",
			Help:      "Session driver operations by operation and result.",
		}, []string{"op", "result"}),

		OpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "driver",
			Name:      "op_duration_seconds",
			Help:      "Session driver operation latency.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}, []string{"op"}),

		GCDeletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "gc_deleted_total",
			Help:      "Session records deleted by garbage collection.",
		}),

		DecryptFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decrypt_failures_total",
			Help:      "Stored payloads that could not be decrypted and were treated as empty.",
		}),

		CacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_requests_total",
			Help:      "Read-through cache lookups by result (hit, miss).",
		}, []string{"result"}),
	}

	if reg == nil {
		r.registry = prometheus.NewRegistry()
		r.registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		reg = r.registry
	}

	reg.MustRegister(
		r.OpsTotal,
		r.OpDuration,
		r.GCDeletedTotal,
		r.DecryptFailures,
		r.CacheRequests,
	)
	return r
}

// ObserveOp records one driver operation.
func (r *Registry) ObserveOp(op string, start time.Time, err error) {
	if r == nil {
		return
	}
	result := ResultOK
	if err != nil {
		result = ResultError
	}
	r.OpsTotal.WithLabelValues(op, result).Inc()
	r.OpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

// AddGCDeleted adds n rows to the garbage collection counter.
func (r *Registry) AddGCDeleted(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.GCDeletedTotal.Add(float64(n))
}

// IncDecryptFailure counts one undecryptable payload.
func (r *Registry) IncDecryptFailure() {
	if r == nil {
		return
	}
	r.DecryptFailures.Inc()
}

// ObserveCache records a cache lookup.
func (r *Registry) ObserveCache(hit bool) {
	if r == nil {
		return
	}
	if hit {
		r.CacheRequests.WithLabelValues("hit").Inc()
		return
	}
	r.CacheRequests.WithLabelValues("miss").Inc()
}

// Handler returns an HTTP handler for the /metrics endpoint. Metrics
// registered with an external Registerer are served by that registerer's
// own handler, so this falls back to the default gatherer.
func (r *Registry) Handler() http.Handler {
	if r != nil && r.registry != nil {
		return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}
