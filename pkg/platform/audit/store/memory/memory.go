package memory

import (
	"context"
	"sync"

	id "coverbook/pkg/domain"
	audit "coverbook/pkg/platform/audit"
)

// InMemoryStore keeps events per holder. It is the default sink for tests
// and single-process deployments without Postgres.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.Principal][]audit.Event
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.Principal][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.Holder] = append(s.events[event.Holder], event)
	return nil
}

func (s *InMemoryStore) ListByHolder(_ context.Context, holder id.Principal) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[holder]...), nil
}

// ListAll returns every recorded event. Test helper.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []audit.Event
	for _, evs := range s.events {
		all = append(all, evs...)
	}
	return all, nil
}

func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.Principal][]audit.Event)
}
