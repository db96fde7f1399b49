package memory

import (
	"context"
	"sync"

	"rentvault/internal/domain"
)

type EventStore struct {
	mu     sync.RWMutex
	events []domain.Event
}

func NewEventStore() *EventStore {
	return &EventStore{}
}

func (s *EventStore) Append(ctx context.Context, event *domain.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, *event.Clone())
	return nil
}

// List returns entries in emission order. A non-positive limit means
// everything after offset.
func (s *EventStore) List(ctx context.Context, limit, offset int32) ([]domain.Event, int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	total := int32(len(s.events))
	if offset < 0 {
		offset = 0
	}
	if offset >= total {
		return []domain.Event{}, total, nil
	}
	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	out := make([]domain.Event, 0, end-offset)
	for i := offset; i < end; i++ {
		out = append(out, *s.events[i].Clone())
	}
	return out, total, nil
}

func (s *EventStore) ListByItem(ctx context.Context, itemID int64) ([]domain.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.Event
	for i := range s.events {
		if s.events[i].ItemID == itemID {
			out = append(out, *s.events[i].Clone())
		}
	}
	return out, nil
}
