package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrAcquireTimeout is returned when the critical section for a key could not
// be entered before the context expired.
var ErrAcquireTimeout = errors.New("lock acquisition timed out")

// Keyed hands out one mutual-exclusion slot per key. Holders of different keys
// proceed in parallel; holders of the same key are strictly serialized.
type Keyed struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	ch   chan struct{}
	refs int
}

func NewKeyed() *Keyed {
	return &Keyed{slots: make(map[string]*slot)}
}

// Acquire blocks until the slot for key is free or ctx is done. On success the
// returned function releases the slot; it must be called exactly once.
func (k *Keyed) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	k.mu.Unlock()

	select {
	case s.ch <- struct{}{}:
		return func() {
			<-s.ch
			k.put(key, s)
		}, nil
	case <-ctx.Done():
		k.put(key, s)
		return nil, ErrAcquireTimeout
	}
}

func (k *Keyed) put(key string, s *slot) {
	k.mu.Lock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
	k.mu.Unlock()
}
