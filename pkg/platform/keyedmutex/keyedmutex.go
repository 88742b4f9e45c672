// Package keyedmutex serializes writers per key without a global lock.
//
// The card graph engine must run read-validate-write cycles for one board
// under mutual exclusion, while boards remain independent of each other.
// Each key lazily gets a weighted semaphore of capacity one; Acquire honors
// context cancellation, which a bare sync.Mutex cannot.
package keyedmutex

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Map holds one single-slot semaphore per key. The zero value is not usable;
// construct with New.
type Map struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	sem  *semaphore.Weighted
	refs int
}

// New constructs an empty keyed mutex map.
func New() *Map {
	return &Map{locks: make(map[string]*entry)}
}

// Lock acquires the mutex for key, blocking until it is available or ctx is
// done. The returned release function must be called exactly once.
func (m *Map) Lock(ctx context.Context, key string) (release func(), err error) {
	m.mu.Lock()
	e, ok := m.locks[key]
	if !ok {
		e = &entry{sem: semaphore.NewWeighted(1)}
		m.locks[key] = e
	}
	e.refs++
	m.mu.Unlock()

	if err := e.sem.Acquire(ctx, 1); err != nil {
		m.put(key, e)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.sem.Release(1)
			m.put(key, e)
		})
	}, nil
}

// put drops a reference and discards the semaphore once nobody holds or
// waits on it, so idle boards do not accumulate entries.
func (m *Map) put(key string, e *entry) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(m.locks, key)
	}
}

// Len reports the number of live keys. Intended for tests and metrics.
func (m *Map) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.locks)
}
