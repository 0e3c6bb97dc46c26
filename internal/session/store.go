package session

import (
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type entry struct {
	owner  string
	values []string
}

// Store is the bounded, time-expiring session store. Sessions are evicted
// by capacity and by age.
type Store struct {
	mu       sync.Mutex
	counter  int
	capacity int
	lru      *expirable.LRU[int, entry]
}

// NewStore creates a Store holding at most capacity sessions, each expiring
// after ttl.
func NewStore(capacity int, ttl time.Duration) *Store {
	if capacity < 1 {
		capacity = 1
	}
	return &Store{
		capacity: capacity,
		lru:      expirable.NewLRU[int, entry](capacity, nil, ttl),
	}
}

// Create stores a new session for the owner and returns its numeric ID. The
// value list is copied; callers may keep mutating their slice.
func (s *Store) Create(owner string, values []string) int {
	s.mu.Lock()
	id := s.counter
	s.counter = (s.counter + 1) % (2 * s.capacity)
	s.mu.Unlock()

	copied := make([]string, len(values))
	copy(copied, values)
	s.lru.Add(id, entry{owner: owner, values: copied})
	return id
}

// Lookup returns a copy of the session's accumulated values. A missing
// session and a session owned by someone else are indistinguishable.
func (s *Store) Lookup(id int, owner string) ([]string, bool) {
	e, ok := s.lru.Get(id)
	if !ok || e.owner != owner {
		return nil, false
	}
	out := make([]string, len(e.values))
	copy(out, e.values)
	return out, true
}

// Resolve decodes a submitted short ID and returns the session's value
// list. This is the final-resolution step: a missing or foreign session is
// a hard user-facing error, unlike the fail-quiet query path.
func (s *Store) Resolve(shortID, owner string) ([]string, error) {
	id, err := DecodeID(shortID)
	if err != nil {
		return nil, ErrSessionExpired
	}
	values, ok := s.Lookup(id, owner)
	if !ok {
		return nil, ErrSessionExpired
	}
	return values, nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	return s.lru.Len()
}
