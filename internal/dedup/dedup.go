// Package dedup implements the in-memory, time-boxed set of processed message
// identifiers that protects the webhook against duplicate deliveries.
//
// Telegram retries webhook delivery when a response is slow; without this set a
// long model call would produce duplicate answers to the same user message. The
// set is process-local and ephemeral, which is acceptable for a single-instance
// deployment. A horizontally scaled deployment should swap it for an external
// store with atomic check-and-set and TTL support, preserving the same
// at-most-once contract.
//
// Design notes:
//   - Check-then-insert is a single atomic step under one mutex, so concurrent
//     deliveries of the same identifier admit at most one.
//   - Eviction is timer-based (time.AfterFunc per entry), not a background
//     sweep, so entries expire even when the process is otherwise idle.
package dedup

import (
	"strconv"
	"sync"
	"time"
)

// Set records message identifiers for a bounded retention window.
// The zero value is not usable; construct with New.
type Set struct {
	mu     sync.Mutex
	ttl    time.Duration
	seen   map[string]*time.Timer
	closed bool
}

// New returns a Set that retains identifiers for ttl. A ttl <= 0 defaults to
// one minute.
func New(ttl time.Duration) *Set {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Set{
		ttl:  ttl,
		seen: make(map[string]*time.Timer),
	}
}

// Seen atomically records id and reports whether it was already present within
// the retention window. The first caller for a given id gets false and owns
// processing; every subsequent caller gets true until the entry expires.
func (s *Set) Seen(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return false
	}
	if _, ok := s.seen[id]; ok {
		return true
	}
	s.seen[id] = time.AfterFunc(s.ttl, func() { s.remove(id) })
	return false
}

// SeenInt is Seen for numeric identifiers (Telegram message ids are ints).
func (s *Set) SeenInt(id int) bool { return s.Seen(strconv.Itoa(id)) }

// Len returns the number of identifiers currently retained.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}

// Stop cancels all pending eviction timers and clears the set. Further Seen
// calls return false without recording anything. Intended for shutdown and
// tests.
func (s *Set) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.seen {
		t.Stop()
		delete(s.seen, id)
	}
	s.closed = true
}

func (s *Set) remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.seen, id)
}
