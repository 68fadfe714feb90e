package mocks

import (
	"context"
	"sync"

	sharedDomain "github.com/davicafu/gamehub/internal/shared/domain"
)

// InMemoryEventStore guarda los eventos en un slice. Err fuerza fallos de escritura.
type InMemoryEventStore struct {
	mu     sync.Mutex
	events []sharedDomain.DomainEvent
	Err    error
}

var _ sharedDomain.EventStore = (*InMemoryEventStore)(nil)

func NewInMemoryEventStore() *InMemoryEventStore {
	return &InMemoryEventStore{}
}

func (s *InMemoryEventStore) Append(ctx context.Context, evt sharedDomain.DomainEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.events = append(s.events, evt)
	return nil
}

func (s *InMemoryEventStore) Events() []sharedDomain.DomainEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]sharedDomain.DomainEvent, len(s.events))
	copy(out, s.events)
	return out
}

// OfType filtra los eventos por tipo.
func (s *InMemoryEventStore) OfType(eventType string) []sharedDomain.DomainEvent {
	var out []sharedDomain.DomainEvent
	for _, e := range s.Events() {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// InMemoryIdempotencyStore aplica insert-if-absent sobre un mapa protegido.
type InMemoryIdempotencyStore struct {
	mu       sync.Mutex
	markers  map[string]sharedDomain.ProcessedMarker
	inserts  int
	Err      error
	Released []string
}

var _ sharedDomain.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)

func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{markers: make(map[string]sharedDomain.ProcessedMarker)}
}

func (s *InMemoryIdempotencyStore) TryInsertMarker(ctx context.Context, m sharedDomain.ProcessedMarker) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return false, s.Err
	}
	if _, ok := s.markers[m.MessageID]; ok {
		return false, nil
	}
	s.markers[m.MessageID] = m
	s.inserts++
	return true, nil
}

func (s *InMemoryIdempotencyStore) ReleaseMarker(ctx context.Context, messageID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.markers, messageID)
	s.Released = append(s.Released, messageID)
	return nil
}

// Count es el número de marcadores vivos.
func (s *InMemoryIdempotencyStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.markers)
}

// Inserts cuenta las inserciones que tuvieron éxito.
func (s *InMemoryIdempotencyStore) Inserts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inserts
}
