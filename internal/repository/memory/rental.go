package memory

import (
	"context"
	"sort"
	"sync"

	"rentvault/internal/domain"
	"rentvault/internal/repository"
)

type RentalStore struct {
	mu      sync.RWMutex
	rentals map[int64]*domain.Rental
}

func NewRentalStore() *RentalStore {
	return &RentalStore{rentals: make(map[int64]*domain.Rental)}
}

func (s *RentalStore) Create(ctx context.Context, rental *domain.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rentals[rental.ItemID]; exists {
		return repository.ErrDuplicate
	}
	s.rentals[rental.ItemID] = rental.Clone()
	return nil
}

func (s *RentalStore) GetByItemID(ctx context.Context, itemID int64) (*domain.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rental, ok := s.rentals[itemID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return rental.Clone(), nil
}

func (s *RentalStore) Update(ctx context.Context, rental *domain.Rental) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rentals[rental.ItemID]; !ok {
		return repository.ErrNotFound
	}
	s.rentals[rental.ItemID] = rental.Clone()
	return nil
}

func (s *RentalStore) ListBySeller(ctx context.Context, seller domain.Principal, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.collect(func(r *domain.Rental) bool {
		return r.Seller == seller && matchStatus(r, status)
	})
	paged, total := paginate(matched, page, pageSize)
	return paged, total, nil
}

func (s *RentalStore) ListByBuyer(ctx context.Context, buyer domain.Principal, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := s.collect(func(r *domain.Rental) bool {
		return r.Buyer != nil && *r.Buyer == buyer && matchStatus(r, status)
	})
	paged, total := paginate(matched, page, pageSize)
	return paged, total, nil
}

func (s *RentalStore) ListDisputed(ctx context.Context) ([]domain.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r *domain.Rental) bool { return r.Disputed }), nil
}

func (s *RentalStore) ListAll(ctx context.Context) ([]domain.Rental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.collect(func(r *domain.Rental) bool { return true }), nil
}

// collect snapshots matching rentals in item-id order. Callers hold s.mu.
func (s *RentalStore) collect(match func(*domain.Rental) bool) []domain.Rental {
	matched := make([]domain.Rental, 0, len(s.rentals))
	for _, r := range s.rentals {
		if match(r) {
			matched = append(matched, *r.Clone())
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ItemID < matched[j].ItemID })
	return matched
}

func matchStatus(r *domain.Rental, status string) bool {
	return status == "" || string(r.Status()) == status
}

func paginate(matched []domain.Rental, page, pageSize int32) ([]domain.Rental, int32) {
	total := int32(len(matched))
	if pageSize <= 0 {
		return matched, total
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * pageSize
	if start >= total {
		return []domain.Rental{}, total
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return matched[start:end], total
}
