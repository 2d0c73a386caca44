package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps sessions in process memory. Each entry carries its own
// mutex so concurrent updates to one session serialize while other sessions
// proceed untouched.
type MemoryStore struct {
	idleTimeout time.Duration

	mu      sync.RWMutex
	entries map[string]*memoryEntry
}

type memoryEntry struct {
	mu      sync.Mutex
	sess    Session
	deleted bool
}

// NewMemoryStore creates an in-memory store. Sessions idle longer than
// idleTimeout behave as unknown; a zero timeout disables expiry.
func NewMemoryStore(idleTimeout time.Duration) *MemoryStore {
	return &MemoryStore{
		idleTimeout: idleTimeout,
		entries:     make(map[string]*memoryEntry),
	}
}

// StartJanitor evicts expired sessions on an interval until ctx is done.
func (s *MemoryStore) StartJanitor(ctx context.Context, every time.Duration) {
	if s.idleTimeout <= 0 || every <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.evictExpired()
			}
		}
	}()
}

func (s *MemoryStore) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	for id, entry := range s.entries {
		entry.mu.Lock()
		if s.expired(entry.sess, now) {
			entry.deleted = true
			delete(s.entries, id)
		}
		entry.mu.Unlock()
	}
}

func (s *MemoryStore) expired(sess Session, now time.Time) bool {
	return s.idleTimeout > 0 && now.Sub(sess.UpdatedAt) > s.idleTimeout
}

// Create registers a new session at the first conversation step.
func (s *MemoryStore) Create(ctx context.Context) (*Session, error) {
	now := time.Now().UTC()
	sess := Session{
		ID:        uuid.NewString(),
		Step:      StepName,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.mu.Lock()
	s.entries[sess.ID] = &memoryEntry{sess: sess}
	s.mu.Unlock()

	out := sess
	return &out, nil
}

func (s *MemoryStore) lookup(id string) (*memoryEntry, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

// Get returns a copy of the session.
func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted || s.expired(entry.sess, time.Now()) {
		return nil, ErrSessionNotFound
	}
	out := entry.sess
	return &out, nil
}

// Update applies mutate under the entry lock.
func (s *MemoryStore) Update(ctx context.Context, id string, mutate func(*Session) error) (*Session, error) {
	entry, err := s.lookup(id)
	if err != nil {
		return nil, err
	}
	entry.mu.Lock()
	defer entry.mu.Unlock()
	if entry.deleted || s.expired(entry.sess, time.Now()) {
		return nil, ErrSessionNotFound
	}

	working := entry.sess
	if err := mutate(&working); err != nil {
		return nil, err
	}
	working.UpdatedAt = time.Now().UTC()
	entry.sess = working

	out := working
	return &out, nil
}

// Delete removes a session; absent identifiers are a no-op.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	entry, ok := s.entries[id]
	if ok {
		delete(s.entries, id)
	}
	s.mu.Unlock()
	if ok {
		entry.mu.Lock()
		entry.deleted = true
		entry.mu.Unlock()
	}
	return nil
}
