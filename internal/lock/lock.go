// Package lock serializes the family find-or-create for one scam type.
//
// Two submissions of the same campaign arriving together would otherwise both
// see no matching family and both create one. Holding the lock for the scam
// type across list, decide and insert closes that window.
package lock

import (
	"context"
	"errors"
	"sync"
)

var ErrNotAcquired = errors.New("lock not acquired")

// Locker acquires an exclusive lock on key, blocking until it is free or ctx
// is done. The returned unlock is safe to call more than once.
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// KeyedMutex is an in-process Locker. Entries are reference counted and
// dropped once nobody holds or waits on the key.
type KeyedMutex struct {
	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	sem  chan struct{}
	refs int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{entries: make(map[string]*entry)}
}

func (m *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &entry{sem: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	select {
	case e.sem <- struct{}{}:
	case <-ctx.Done():
		m.release(key, e)
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.sem
			m.release(key, e)
		})
	}, nil
}

func (m *KeyedMutex) release(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
}

// held reports how many keys have holders or waiters.
func (m *KeyedMutex) held() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Noop never blocks. It keeps the find-or-create race.
type Noop struct{}

func (Noop) Lock(context.Context, string) (func(), error) {
	return func() {}, nil
}
