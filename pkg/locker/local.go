package locker

import (
	"context"
	"fmt"
	"sync"

	"github.com/puzpuzpuz/xsync"
)

// LocalLocker keeps one single-slot semaphore per key. Semaphores are kept for
// the lifetime of the process; the key space is the set of active users.
type LocalLocker struct {
	slots *xsync.MapOf[string, chan struct{}]
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{
		slots: xsync.NewMapOf[chan struct{}](),
	}
}

func (l *LocalLocker) Lock(ctx context.Context, key string) (Unlock, error) {
	slot, _ := l.slots.LoadOrStore(key, make(chan struct{}, 1))

	select {
	case slot <- struct{}{}:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %s: %v", ErrLockTimeout, key, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() { <-slot })
	}, nil
}
