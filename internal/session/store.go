// Package session keeps short-lived per-request state (in-flight mock tests,
// coach conversations) outside the client's reach. Entries expire after a
// TTL and Take removes an entry atomically, so a key is handed out at most once.
package session

import (
	"context"
	"errors"
	"time"
)

var ErrNotFound = errors.New("session: key not found")

type Store interface {
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, error)
	// Take returns the value and deletes it in one step.
	Take(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Close() error
}
