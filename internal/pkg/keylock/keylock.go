// Package keylock provides per-key mutual exclusion. The coordinator's
// scheduling model is parallel across orders and serialized within an order:
// every handler and sweep touching an order acquires that order's lock first.
// Driver offer issuance uses the same mechanism keyed on the driver id, so a
// single driver never holds two outstanding offers.
package keylock

import "sync"

// KeyLock serializes work per string key while allowing distinct keys to
// proceed in parallel. The zero value is not usable; create one with New.
type KeyLock struct {
	mu    sync.Mutex
	locks map[string]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

// New creates an empty KeyLock.
func New() *KeyLock {
	return &KeyLock{locks: make(map[string]*entry)}
}

// Lock acquires the lock for key, blocking until it is available.
func (k *KeyLock) Lock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the lock for key. The entry is removed once no goroutine
// holds or waits on it, so the map does not grow with the order id space.
func (k *KeyLock) Unlock(key string) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("keylock: unlock of unlocked key " + key)
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}

// Do runs fn while holding the lock for key.
func (k *KeyLock) Do(key string, fn func() error) error {
	k.Lock(key)
	defer k.Unlock(key)
	return fn()
}
