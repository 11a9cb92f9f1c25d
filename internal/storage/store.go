package storage

import (
	"context"
	"time"
)

// DefaultExpireBatchSize bounds the rows removed by one delete statement
// during an expiry sweep.
const DefaultExpireBatchSize = 500

// RecordStore persists sealed session payloads keyed by session id.
//
// Implementations must be safe for concurrent use by different session ids.
type RecordStore interface {
	// Read returns the decrypted payload for id. An absent id yields
	// (nil, nil). A payload that cannot be decrypted yields an error
	// matching domain.ErrDecryption.
	Read(ctx context.Context, id string) ([]byte, error)

	// Write seals plaintext and upserts it under id in a single statement,
	// stamping last_activity with the store clock.
	Write(ctx context.Context, id string, plaintext []byte) error

	// Destroy removes id. Removing an absent id succeeds.
	Destroy(ctx context.Context, id string) error

	// ExpireOlderThan removes every record whose last_activity is strictly
	// before cutoff and returns how many were removed.
	ExpireOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// Close releases the underlying connection.
	Close() error
}

// Clock returns the current time. Stores take one so expiry can be tested
// without sleeping.
type Clock func() time.Time
