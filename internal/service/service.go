package service

import (
	"context"

	"rentvault/internal/domain"
)

type IdentityService interface {
	SubmitIdentity(ctx context.Context, caller domain.Principal) (*domain.Identity, error)
	ApproveIdentity(ctx context.Context, caller, subject domain.Principal) (*domain.Identity, error)
	IsVerified(ctx context.Context, principal domain.Principal) bool
	GetIdentity(ctx context.Context, principal domain.Principal) (*domain.Identity, error)
}

type RentalService interface {
	CreateRental(ctx context.Context, seller domain.Principal, itemID, priceCents int64) (*domain.Rental, error)
	RentItem(ctx context.Context, buyer domain.Principal, itemID, amountCents int64) (*domain.Rental, error)
	ConfirmReceipt(ctx context.Context, caller domain.Principal, itemID int64) (*domain.Rental, error)
	RefundBuyer(ctx context.Context, caller domain.Principal, itemID int64) (*domain.Rental, error)
	RaiseDispute(ctx context.Context, caller domain.Principal, itemID int64) (*domain.Rental, error)
	GetRental(ctx context.Context, itemID int64) (*domain.Rental, error)
	ListBySeller(ctx context.Context, seller domain.Principal, status string, page, pageSize int32) ([]domain.Rental, int32, error)
	ListByBuyer(ctx context.Context, buyer domain.Principal, status string, page, pageSize int32) ([]domain.Rental, int32, error)
}

type DisputeService interface {
	ResolveDispute(ctx context.Context, caller domain.Principal, itemID int64, decision bool) (*domain.Rental, error)
	ListOpenDisputes(ctx context.Context, caller domain.Principal) ([]domain.Rental, error)
}

type EventService interface {
	// Emit appends to the marketplace log and fans out to subscribers. The
	// mutating services call it while holding the gate, so it must never
	// touch the gate itself.
	Emit(ctx context.Context, event *domain.Event) error
	Events(ctx context.Context, limit, offset int32) ([]domain.Event, int32, error)
	EventsForItem(ctx context.Context, itemID int64) ([]domain.Event, error)
	Subscribe() (<-chan domain.Event, func())
}
