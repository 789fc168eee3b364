package security

import (
	"sync"
	"time"
)

// Clock returns the current time. Injected so TTL behavior is deterministic
// in tests.
type Clock func() time.Time

const sweepInterval = 5 * time.Minute

type lockoutEntry struct {
	attempts    int
	lockedUntil time.Time // zero until the threshold is crossed
	lastFailure time.Time
}

// LockoutStore tracks failed credential attempts per normalized account
// identifier and temporarily blocks further attempts past a threshold.
// State is process-local: in a horizontally scaled deployment lockouts are
// not shared across instances unless this is swapped for a shared store.
type LockoutStore struct {
	mu          sync.Mutex
	entries     map[string]*lockoutEntry
	maxAttempts int
	lockWindow  time.Duration
	clock       Clock
	stop        chan struct{}
}

func NewLockoutStore(maxAttempts int, lockWindow time.Duration, clock Clock) *LockoutStore {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if lockWindow <= 0 {
		lockWindow = 15 * time.Minute
	}
	if clock == nil {
		clock = time.Now
	}
	return &LockoutStore{
		entries:     make(map[string]*lockoutEntry),
		maxAttempts: maxAttempts,
		lockWindow:  lockWindow,
		clock:       clock,
	}
}

// Start launches the background sweep that purges expired entries.
func (s *LockoutStore) Start() {
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	go func() {
		ticker := time.NewTicker(sweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep()
			case <-s.stop:
				return
			}
		}
	}()
}

func (s *LockoutStore) Stop() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// IsLocked reports whether id is currently locked and, if so, how many
// seconds remain. Expired locks are lazily removed.
func (s *LockoutStore) IsLocked(id string) (bool, int) {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.lockedUntil.IsZero() {
		return false, 0
	}
	if now.Before(e.lockedUntil) {
		retry := int(e.lockedUntil.Sub(now).Seconds())
		if retry < 1 {
			retry = 1
		}
		return true, retry
	}
	delete(s.entries, id)
	return false, 0
}

// RecordFailure counts one failed attempt. Crossing the threshold stamps the
// lock expiry; failures after that do not extend it — callers are expected to
// check IsLocked first, so RecordFailure only runs on real attempts.
func (s *LockoutStore) RecordFailure(id string) {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || (!e.lockedUntil.IsZero() && !now.Before(e.lockedUntil)) {
		// no entry, or a stale expired lock: start over
		e = &lockoutEntry{}
		s.entries[id] = e
	}
	e.attempts++
	e.lastFailure = now
	if e.attempts >= s.maxAttempts && e.lockedUntil.IsZero() {
		e.lockedUntil = now.Add(s.lockWindow)
	}
}

// ClearAttempts removes all state for id, typically after a successful
// authentication.
func (s *LockoutStore) ClearAttempts(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
}

// sweep bounds memory by dropping expired locks and stale attempt counters.
func (s *LockoutStore) sweep() {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if !e.lockedUntil.IsZero() && !now.Before(e.lockedUntil) {
			delete(s.entries, id)
			continue
		}
		if e.lockedUntil.IsZero() && now.Sub(e.lastFailure) > s.lockWindow {
			delete(s.entries, id)
		}
	}
}
