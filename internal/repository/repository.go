package repository

import (
	"context"

	"rentvault/internal/domain"
)

type IdentityRepository interface {
	Create(ctx context.Context, identity *domain.Identity) error
	GetByPrincipal(ctx context.Context, principal domain.Principal) (*domain.Identity, error)
	Update(ctx context.Context, identity *domain.Identity) error
}

type RentalRepository interface {
	// Create stores a new rental keyed by item id. The key is create-once:
	// storing a second rental for the same item fails with ErrDuplicate.
	Create(ctx context.Context, rental *domain.Rental) error
	GetByItemID(ctx context.Context, itemID int64) (*domain.Rental, error)
	Update(ctx context.Context, rental *domain.Rental) error
	ListBySeller(ctx context.Context, seller domain.Principal, status string, page, pageSize int32) ([]domain.Rental, int32, error)
	ListByBuyer(ctx context.Context, buyer domain.Principal, status string, page, pageSize int32) ([]domain.Rental, int32, error)
	ListDisputed(ctx context.Context) ([]domain.Rental, error)
	ListAll(ctx context.Context) ([]domain.Rental, error)
}

type EventRepository interface {
	// Append adds to the log; nothing ever removes or rewrites an entry.
	Append(ctx context.Context, event *domain.Event) error
	List(ctx context.Context, limit, offset int32) ([]domain.Event, int32, error)
	ListByItem(ctx context.Context, itemID int64) ([]domain.Event, error)
}
