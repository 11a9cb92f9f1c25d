// Package cmap provides a concurrent-safe sharded map keyed by string.
//
// Keys are spread over a power-of-two number of shards with murmur3, so
// unrelated session ids rarely contend on the same lock.
package cmap
