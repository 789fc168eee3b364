package security

import (
	"sync"
	"time"
)

// BlocklistStore holds revoked session tokens until their natural expiry, so
// logout takes effect before the token itself expires. Entries never outlive
// the token's own exp claim. Like the lockout store, state is process-local.
type BlocklistStore struct {
	mu      sync.Mutex
	entries map[string]time.Time // token -> expiry
	clock   Clock
	stop    chan struct{}
}

func NewBlocklistStore(clock Clock) *BlocklistStore {
	if clock == nil {
		clock = time.Now
	}
	return &BlocklistStore{
		entries: make(map[string]time.Time),
		clock:   clock,
	}
}

// Start launches the background sweep that purges expired entries.
func (s *BlocklistStore) Start() {
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

func (s *BlocklistStore) Stop() {
	if s.stop != nil {
		close(s.stop)
		s.stop = nil
	}
}

// Add revokes token until exp. A token that has already expired needs no
// explicit blocking and is ignored.
func (s *BlocklistStore) Add(token string, exp time.Time) {
	if !s.clock().Before(exp) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = exp
}

// Has reports whether token is revoked. Entries whose expiry has passed are
// lazily deleted and reported as not blocked.
func (s *BlocklistStore) Has(token string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.entries[token]
	if !ok {
		return false
	}
	if !s.clock().Before(exp) {
		delete(s.entries, token)
		return false
	}
	return true
}

func (s *BlocklistStore) sweep() {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	for token, exp := range s.entries {
		if !now.Before(exp) {
			delete(s.entries, token)
		}
	}
}
