// Package lock provides per-key mutual exclusion for game and balance
// operations. Each game keeps its own Keyed instance, so a user may have one
// roulette action and one basketball action in flight at the same time, but
// never two of the same kind for the same key.
package lock

import "sync"

// entry wraps a mutex with a reference count. The count covers both the
// holder and any goroutines waiting on the mutex, so an entry is only
// evicted once nobody can touch it anymore.
type entry struct {
	mu   sync.Mutex
	refs int
}

// Keyed provides mutual exclusion keyed by an arbitrary comparable scope
// (chat id, chat+user pair). Entries are created lazily and removed when the
// last holder releases, so idle scopes hold no memory.
type Keyed[K comparable] struct {
	mu      sync.Mutex
	entries map[K]*entry
}

// NewKeyed creates a new Keyed lock set.
func NewKeyed[K comparable]() *Keyed[K] {
	return &Keyed[K]{entries: make(map[K]*entry)}
}

// ref returns the entry for key with its reference count already raised.
func (l *Keyed[K]) ref(key K) *entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	e, ok := l.entries[key]
	if !ok {
		e = &entry{}
		l.entries[key] = e
	}
	e.refs++
	return e
}

// unref drops one reference and evicts the entry when none remain.
func (l *Keyed[K]) unref(key K, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// Acquire blocks until the lock for key is held.
func (l *Keyed[K]) Acquire(key K) {
	e := l.ref(key)
	e.mu.Lock()
}

// TryAcquire attempts to take the lock for key without blocking. It returns
// false when an action for that exact key is already in flight, which is the
// anti-flood contract: the caller reports "try again" and must not retry
// automatically.
func (l *Keyed[K]) TryAcquire(key K) bool {
	e := l.ref(key)
	if e.mu.TryLock() {
		return true
	}
	l.unref(key, e)
	return false
}

// Release releases the lock for key. It must be paired with a successful
// Acquire or TryAcquire, typically via defer so the lock is dropped on every
// exit path including panics in downstream logic.
func (l *Keyed[K]) Release(key K) {
	l.mu.Lock()
	e, ok := l.entries[key]
	l.mu.Unlock()
	if !ok {
		return
	}
	e.mu.Unlock()
	l.unref(key, e)
}

// WithLock executes fn while holding the lock for key.
func (l *Keyed[K]) WithLock(key K, fn func() error) error {
	l.Acquire(key)
	defer l.Release(key)
	return fn()
}

// Len reports the number of live entries. Exposed for tests and monitoring.
func (l *Keyed[K]) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// ChatUser is the composite key for per-user-within-chat scopes.
type ChatUser struct {
	ChatID int64
	UserID int64
}
