// Package metric provides Prometheus metrics for sesskeep.
//
// Metrics include:
//
//   - Driver operation counters and latency histograms
//   - Rows deleted by garbage collection
//   - Payloads that failed to decrypt
//   - Read-through cache hits and misses
//
// The sweep daemon exposes them at /metrics in Prometheus format.
package metric
