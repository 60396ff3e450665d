package cache

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Backend is a TTL key/value store.
//
// Get reports found == false for a missing or expired key without an error.
// Any returned error is treated by Cache as backend unavailability.
type Backend interface {
	Get(ctx context.Context, key string) (value []byte, found bool, err error)
	SetEX(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Close() error
}

// Pinger is implemented by backends that can check reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Purger is implemented by backends that can drop expired entries on demand.
type Purger interface {
	PurgeExpired(ctx context.Context) (int, error)
}

// ErrBackendUnavailable marks failures of the external backend.
var ErrBackendUnavailable = errors.New("cache backend unavailable")

// BackendError wraps a failed backend call.
type BackendError struct {
	Backend string
	Op      string
	Err     error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("cache backend %s: %s: %v", e.Backend, e.Op, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

func (e *BackendError) Is(target error) bool { return target == ErrBackendUnavailable }
