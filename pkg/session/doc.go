// Package session is the public entry point of sesskeep.
//
// A process builds one Driver from configuration with New and keeps it for
// its lifetime. The Driver implements Handler, the six-operation
// persistence contract a host runtime binds its session hooks to. Each
// request activates a Session with Driver.Start, works on it through the
// data API (Get, Set, Flash, GetFlash, ...) and persists it with Save.
//
// Three driver variants are available:
//
//   - file: Badger key-value store on local disk
//   - sql-embedded: SQLite database file
//   - sql-networked: MySQL server
//
// SQL variants always encrypt payloads at rest. The file variant encrypts
// when an encryption key is configured.
//
// Write policy is deferred by default: mutations stay in memory until
// Save. With session.write_through every mutating call commits at once.
// Close never persists.
package session
