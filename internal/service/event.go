package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"rentvault/internal/domain"
	"rentvault/internal/metrics"
	"rentvault/internal/repository"
)

// subscriberBuffer bounds each watcher channel. A subscriber that falls this
// far behind starts losing events rather than stalling emitters.
const subscriberBuffer = 64

type eventService struct {
	eventRepo repository.EventRepository
	metrics   *metrics.Metrics

	mu     sync.Mutex
	subs   map[int]chan domain.Event
	nextID int
}

func NewEventService(eventRepo repository.EventRepository, m *metrics.Metrics) EventService {
	return &eventService{
		eventRepo: eventRepo,
		metrics:   m,
		subs:      make(map[int]chan domain.Event),
	}
}

func (s *eventService) Emit(ctx context.Context, event *domain.Event) error {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.EmittedAt.IsZero() {
		event.EmittedAt = time.Now().UTC()
	}

	if err := s.eventRepo.Append(ctx, event); err != nil {
		return domain.WrapError(err, domain.CodeInternal, "append event")
	}
	s.metrics.IncrementEventsEmitted()

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- *event.Clone():
		default: // subscriber is full, drop
		}
	}
	return nil
}

func (s *eventService) Events(ctx context.Context, limit, offset int32) ([]domain.Event, int32, error) {
	return s.eventRepo.List(ctx, limit, offset)
}

func (s *eventService) EventsForItem(ctx context.Context, itemID int64) ([]domain.Event, error) {
	return s.eventRepo.ListByItem(ctx, itemID)
}

// Subscribe registers a watcher. The returned cancel removes the watcher and
// closes its channel; it is safe to call more than once.
func (s *eventService) Subscribe() (<-chan domain.Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan domain.Event, subscriberBuffer)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
	return ch, cancel
}
