// Package lock provides in-process mutual exclusion keyed by string.
package lock

import (
	"context"
	"sync"
)

// slot is the lock for one key. refs counts holders and waiters so the
// slot can be dropped once nobody references it.
type slot struct {
	ch   chan struct{}
	refs int
}

// KeyedMutex allows at most one holder per key at a time. Different keys
// never block each other. The zero value is not usable; use NewKeyedMutex.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// NewKeyedMutex creates an empty KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

// Lock blocks until the key is free or ctx is done. On success the returned
// unlock func must be called exactly once; extra calls are no-ops.
func (k *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	s := k.acquireSlot(key)

	select {
	case s.ch <- struct{}{}:
	case <-ctx.Done():
		k.releaseSlot(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.ch
			k.releaseSlot(key, s)
		})
	}, nil
}

func (k *KeyedMutex) acquireSlot(key string) *slot {
	k.mu.Lock()
	defer k.mu.Unlock()

	s, ok := k.slots[key]
	if !ok {
		s = &slot{ch: make(chan struct{}, 1)}
		k.slots[key] = s
	}
	s.refs++
	return s
}

func (k *KeyedMutex) releaseSlot(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}
