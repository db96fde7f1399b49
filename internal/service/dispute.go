package service

import (
	"context"

	"rentvault/internal/domain"
	"rentvault/internal/escrow"
	"rentvault/internal/logger"
	"rentvault/internal/metrics"
	"rentvault/internal/repository"
)

type disputeService struct {
	gate       *Gate
	rentalRepo repository.RentalRepository
	vault      escrow.Ledger
	events     EventService
	metrics    *metrics.Metrics
	admin      domain.Principal
}

func NewDisputeService(
	gate *Gate,
	rentalRepo repository.RentalRepository,
	vault escrow.Ledger,
	events EventService,
	m *metrics.Metrics,
	admin domain.Principal,
) DisputeService {
	return &disputeService{
		gate:       gate,
		rentalRepo: rentalRepo,
		vault:      vault,
		events:     events,
		metrics:    m,
		admin:      admin,
	}
}

// ResolveDispute settles a disputed rental. A decision for the seller
// confirms the rental and pays the seller; a decision for the buyer voids the
// payment and refunds the buyer. Either way the dispute closes and the rental
// reaches a terminal state.
func (s *disputeService) ResolveDispute(ctx context.Context, caller domain.Principal, itemID int64, decision bool) (*domain.Rental, error) {
	const op = "ResolveDispute"
	if caller == "" {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "caller principal is required"))
	}
	if itemID <= 0 {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "item id must be positive"))
	}

	s.gate.Lock()
	defer s.gate.Unlock()

	if caller != s.admin {
		return nil, s.fail(op, domain.NewError(domain.CodeUnauthorized, "caller is not the administrator"))
	}

	rental, err := s.rentalRepo.GetByItemID(ctx, itemID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if !rental.Disputed {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeNoDispute, "rental %d has no open dispute", itemID))
	}
	if rental.Buyer == nil {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInternal, "disputed rental %d has no buyer", itemID))
	}

	snapshot := rental.Clone()
	rental.Disputed = false
	var payee domain.Principal
	if decision {
		rental.Confirmed = true
		payee = rental.Seller
	} else {
		rental.Paid = false
		payee = *rental.Buyer
	}
	if err := s.rentalRepo.Update(ctx, rental); err != nil {
		return nil, s.fail(op, err)
	}

	if _, err := s.vault.Release(ctx, itemID, payee); err != nil {
		s.restore(ctx, snapshot)
		return nil, s.fail(op, domain.WrapError(err, domain.CodeInternal, "release escrow to resolved party"))
	}

	d := decision
	if err := s.events.Emit(ctx, &domain.Event{
		Type:     domain.EventRentalResolved,
		ItemID:   itemID,
		Decision: &d,
	}); err != nil {
		return nil, s.fail(op, err)
	}

	s.metrics.RecordOperation(op)
	logger.InfoContext(ctx, "dispute resolved", "item_id", itemID, "decision", decision, "payee", string(payee))
	return rental, nil
}

// ListOpenDisputes reports every rental waiting on a decision. Admin only.
func (s *disputeService) ListOpenDisputes(ctx context.Context, caller domain.Principal) ([]domain.Rental, error) {
	const op = "ListOpenDisputes"
	if caller != s.admin {
		return nil, s.fail(op, domain.NewError(domain.CodeUnauthorized, "caller is not the administrator"))
	}

	s.gate.RLock()
	defer s.gate.RUnlock()

	return s.rentalRepo.ListDisputed(ctx)
}

func (s *disputeService) restore(ctx context.Context, snapshot *domain.Rental) {
	if err := s.rentalRepo.Update(ctx, snapshot); err != nil {
		logger.ErrorContext(ctx, "failed to restore rental after aborted resolution", "item_id", snapshot.ItemID, "error", err)
	}
}

func (s *disputeService) fail(op string, err error) error {
	s.metrics.RecordFailure(op, string(domain.CodeOf(err)))
	return err
}
