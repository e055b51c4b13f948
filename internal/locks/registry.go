// Package locks provides one read-write lock per account.
//
// Entries are created on first use and reference counted; an account's
// entry is dropped when its last holder releases, so the registry only holds
// locks for accounts with operations in flight.
package locks

import (
	"sort"
	"sync"
)

// Release unlocks a lock obtained from a Registry. It must be called exactly
// once.
type Release func()

type entry struct {
	mu   sync.RWMutex
	refs int
}

// Registry hands out per-account read-write locks.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

func (r *Registry) acquire(accountID string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[accountID]
	if !ok {
		e = &entry{}
		r.entries[accountID] = e
	}
	e.refs++
	return e
}

func (r *Registry) release(accountID string, e *entry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(r.entries, accountID)
	}
}

// RLock acquires the read lock for accountID, blocking while a writer holds
// it.
func (r *Registry) RLock(accountID string) Release {
	e := r.acquire(accountID)
	e.mu.RLock()
	return func() {
		e.mu.RUnlock()
		r.release(accountID, e)
	}
}

// Lock acquires the write lock for accountID.
func (r *Registry) Lock(accountID string) Release {
	e := r.acquire(accountID)
	e.mu.Lock()
	return func() {
		e.mu.Unlock()
		r.release(accountID, e)
	}
}

// LockAll acquires the write locks for every distinct id in lexicographic
// order, so two callers locking the same accounts can never deadlock. The
// returned Release unlocks them in reverse order.
func (r *Registry) LockAll(accountIDs ...string) Release {
	ids := make([]string, 0, len(accountIDs))
	seen := make(map[string]bool, len(accountIDs))
	for _, id := range accountIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	releases := make([]Release, 0, len(ids))
	for _, id := range ids {
		releases = append(releases, r.Lock(id))
	}
	return func() {
		for i := len(releases) - 1; i >= 0; i-- {
			releases[i]()
		}
	}
}

// Len returns the number of accounts with a live entry.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}
