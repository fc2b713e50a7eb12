// Package locker serializes work per key (a user id in practice) either inside
// one process or across instances sharing a Redis.
package locker

import (
	"context"
	"errors"
)

// ErrLockTimeout is returned when the context ends before the lock is acquired.
var ErrLockTimeout = errors.New("timed out waiting for lock")

// Unlock releases a held lock. Calling it more than once is a no-op.
type Unlock func()

type Locker interface {
	Lock(ctx context.Context, key string) (Unlock, error)
}
