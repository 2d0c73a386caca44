package availability

import (
	"sort"
	"strings"
	"sync"
)

// Store is the single source of truth for what can be booked. Each provider
// carries its own lock so reservations for unrelated providers never contend;
// Reserve is an atomic compare-and-remove under that lock.
type Store struct {
	mu        sync.RWMutex
	providers map[string]*schedule
	order     []string
}

type schedule struct {
	mu       sync.Mutex
	provider Provider
}

// NewStore creates a store seeded with the given providers.
func NewStore(providers ...Provider) *Store {
	s := &Store{providers: make(map[string]*schedule)}
	for _, p := range providers {
		s.put(p)
	}
	return s
}

func (s *Store) put(p Provider) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.providers[p.ID]; !exists {
		s.order = append(s.order, p.ID)
	}
	s.providers[p.ID] = &schedule{provider: p.clone()}
}

// SetSchedule replaces (or creates) a provider's schedule wholesale.
func (s *Store) SetSchedule(p Provider) {
	s.put(p)
}

func (s *Store) get(id string) (*schedule, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sched, ok := s.providers[id]
	return sched, ok
}

// ListProviders returns provider identifiers in registration order.
func (s *Store) ListProviders() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.order...)
}

// Get returns a snapshot of a provider's record.
func (s *Store) Get(id string) (Provider, error) {
	sched, ok := s.get(id)
	if !ok {
		return Provider{}, ErrProviderNotFound
	}
	sched.mu.Lock()
	defer sched.mu.Unlock()
	return sched.provider.clone(), nil
}

// ListDates returns the dates with open slots for a provider, sorted ascending.
func (s *Store) ListDates(id string) ([]string, error) {
	sched, ok := s.get(id)
	if !ok {
		return nil, ErrProviderNotFound
	}
	sched.mu.Lock()
	defer sched.mu.Unlock()
	dates := make([]string, 0, len(sched.provider.WorkingHours))
	for date := range sched.provider.WorkingHours {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates, nil
}

// ListSlots returns the open slot labels for a provider on a date, in the
// provider-defined order.
func (s *Store) ListSlots(id, date string) ([]string, error) {
	sched, ok := s.get(id)
	if !ok {
		return nil, ErrProviderNotFound
	}
	sched.mu.Lock()
	defer sched.mu.Unlock()
	slots, ok := sched.provider.WorkingHours[date]
	if !ok {
		return nil, ErrDateNotFound
	}
	return append([]string(nil), slots...), nil
}

// Reserve removes a slot from a provider's schedule. At most one concurrent
// caller for the same (provider, date, slot) triple succeeds; the rest get
// ErrSlotTaken. Removing the last slot of a date removes the date entry.
func (s *Store) Reserve(id, date, slot string) error {
	sched, ok := s.get(id)
	if !ok {
		return ErrProviderNotFound
	}

	sched.mu.Lock()
	defer sched.mu.Unlock()

	slots, ok := sched.provider.WorkingHours[date]
	if !ok {
		return ErrDateNotFound
	}
	for i, label := range slots {
		if label != slot {
			continue
		}
		remaining := append(append([]string(nil), slots[:i]...), slots[i+1:]...)
		if len(remaining) == 0 {
			delete(sched.provider.WorkingHours, date)
		} else {
			sched.provider.WorkingHours[date] = remaining
		}
		return nil
	}
	return ErrSlotTaken
}

// Resolve maps a user-supplied provider token to a canonical identifier.
// Matching is case-insensitive, whitespace-trimmed, and tolerates a
// conventional honorific prefix: "sopheak", "Sopheak" and "Dr. Sopheak"
// all resolve to "Dr. Sopheak".
func (s *Store) Resolve(token string) (string, error) {
	want := normalizeToken(token)
	if want == "" {
		return "", ErrProviderNotFound
	}
	for _, id := range s.ListProviders() {
		if normalizeToken(id) == want {
			return id, nil
		}
	}
	return "", ErrProviderNotFound
}

func normalizeToken(token string) string {
	t := strings.ToLower(strings.TrimSpace(token))
	for _, prefix := range []string{"dr.", "dr ", "doctor "} {
		if strings.HasPrefix(t, prefix) {
			t = strings.TrimSpace(strings.TrimPrefix(t, prefix))
			break
		}
	}
	return t
}
