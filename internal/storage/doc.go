// Package storage defines the session Record Store contract.
//
// A Record Store owns every persisted byte of a session: it seals payloads
// on write, opens them on read, and sweeps records whose last activity is
// older than a cutoff. Backends:
//
//   - sqlstore: embedded SQLite or networked MySQL, one row per session
//   - kvstore: Badger on local disk, one key per session
//
// Cached wraps any backend with a process-local read-through cache.
package storage
