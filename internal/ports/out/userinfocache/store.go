package userinfocache

import (
	"context"
	"encoding/json"
	"time"
)

// Entry is one cached identity-provider response, keyed by the raw credential
// token that produced it.
type Entry struct {
	Token     string
	Data      json.RawMessage
	CreatedAt time.Time
}

// Store persists identity-provider responses between requests.
//
// Concurrent Puts for the same token are allowed to race; last writer wins.
// The resolver tolerates duplicate upstream calls under that race rather than
// serializing a network call behind a lock.
type Store interface {
	Get(ctx context.Context, token string) (Entry, bool, error)
	Put(ctx context.Context, e Entry) error

	// PurgeOlderThan deletes entries created strictly before cutoff and
	// reports how many were removed.
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (int, error)
}
