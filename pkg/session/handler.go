package session

import (
	"context"
	"time"
)

// Handler is the persistence contract a host runtime drives once per
// session activation: Open, Read, then Write or Destroy, then Close. GC may
// be called at any time.
//
// Read returns an empty payload for an absent or undecryptable session.
// Write, Destroy and GC report storage failures as errors; the caller keeps
// its in-memory state either way.
type Handler interface {
	Open(ctx context.Context) error
	Close() error
	Read(ctx context.Context, id string) ([]byte, error)
	Write(ctx context.Context, id string, data []byte) error
	Destroy(ctx context.Context, id string) error
	GC(ctx context.Context, maxLifetime time.Duration) (int, error)
}

var _ Handler = (*Driver)(nil)
