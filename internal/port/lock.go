package port

import (
	"context"
	"time"
)

type Locker interface {
	// Acquire makes a single atomic attempt to take the lock for resource
	// with the given TTL. It returns a fresh ownership token on success and
	// an empty string if the lock is already held. It never retries; backoff
	// is the caller's job.
	Acquire(ctx context.Context, resource string, ttl time.Duration) (string, error)

	// Release deletes the lock only if token still matches the stored value,
	// and reports whether a deletion happened. The compare-and-delete is
	// atomic; a plain read-then-delete could remove another holder's lock
	// after TTL expiry.
	Release(ctx context.Context, resource string, token string) (bool, error)
}
