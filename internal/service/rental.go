package service

import (
	"context"
	"errors"
	"time"

	"rentvault/internal/domain"
	"rentvault/internal/escrow"
	"rentvault/internal/logger"
	"rentvault/internal/metrics"
	"rentvault/internal/notify"
	"rentvault/internal/repository"
	"rentvault/internal/token"
)

type rentalService struct {
	gate         *Gate
	rentalRepo   repository.RentalRepository
	identityRepo repository.IdentityRepository
	vault        escrow.Ledger
	mint         token.Issuer
	events       EventService
	notifier     notify.Notifier
	metrics      *metrics.Metrics
}

func NewRentalService(
	gate *Gate,
	rentalRepo repository.RentalRepository,
	identityRepo repository.IdentityRepository,
	vault escrow.Ledger,
	mint token.Issuer,
	events EventService,
	notifier notify.Notifier,
	m *metrics.Metrics,
) RentalService {
	return &rentalService{
		gate:         gate,
		rentalRepo:   rentalRepo,
		identityRepo: identityRepo,
		vault:        vault,
		mint:         mint,
		events:       events,
		notifier:     notifier,
		metrics:      m,
	}
}

// CreateRental lists an item. The seller must be identity verified and the
// item id unused; the listing mints an asset token owned by the seller.
func (s *rentalService) CreateRental(ctx context.Context, seller domain.Principal, itemID, priceCents int64) (*domain.Rental, error) {
	const op = "CreateRental"
	if seller == "" {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "seller principal is required"))
	}
	if itemID <= 0 {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "item id must be positive"))
	}
	if priceCents <= 0 {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "price must be positive"))
	}

	s.gate.Lock()
	defer s.gate.Unlock()

	if !s.verifiedLocked(ctx, seller) {
		return nil, s.fail(op, domain.NewError(domain.CodeUnauthorized, "seller is not identity verified"))
	}

	if _, err := s.rentalRepo.GetByItemID(ctx, itemID); err == nil {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeDuplicateItem, "item %d is already listed", itemID))
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, s.fail(op, err)
	}

	assetTokenID, err := s.mint.MintAsset(ctx, seller)
	if err != nil {
		return nil, s.fail(op, domain.WrapError(err, domain.CodeInternal, "mint asset token"))
	}

	rental := &domain.Rental{
		ItemID:       itemID,
		Seller:       seller,
		PriceCents:   priceCents,
		AssetTokenID: assetTokenID,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.rentalRepo.Create(ctx, rental); err != nil {
		return nil, s.fail(op, err)
	}

	if err := s.events.Emit(ctx, &domain.Event{
		Type:       domain.EventRentalCreated,
		ItemID:     itemID,
		Principal:  seller,
		PriceCents: priceCents,
		TokenID:    &assetTokenID,
	}); err != nil {
		return nil, s.fail(op, err)
	}

	s.metrics.RecordOperation(op)
	logger.InfoContext(ctx, "rental listed", "item_id", itemID, "seller", string(seller), "price_cents", priceCents, "asset_token_id", assetTokenID)
	return rental, nil
}

// RentItem pays for a listing. The exact price goes into escrow and the
// caller becomes the buyer; a rental whose slot was ever consumed, even if
// later refunded, cannot be rented again.
func (s *rentalService) RentItem(ctx context.Context, buyer domain.Principal, itemID, amountCents int64) (*domain.Rental, error) {
	const op = "RentItem"
	if buyer == "" {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "buyer principal is required"))
	}
	if itemID <= 0 {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "item id must be positive"))
	}

	s.gate.Lock()
	defer s.gate.Unlock()

	if !s.verifiedLocked(ctx, buyer) {
		return nil, s.fail(op, domain.NewError(domain.CodeUnauthorized, "buyer is not identity verified"))
	}

	rental, err := s.rentalRepo.GetByItemID(ctx, itemID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if rental.Paid {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInvalidState, "item %d is already paid for", itemID))
	}
	if rental.Confirmed {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInvalidState, "rental %d is already confirmed", itemID))
	}
	if rental.Buyer != nil {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInvalidState, "rental %d was already rented once", itemID))
	}
	if amountCents != rental.PriceCents {
		return nil, s.fail(op, domain.NewErrorf(domain.CodePaymentMismatch, "payment of %d does not match price %d", amountCents, rental.PriceCents))
	}

	if err := s.vault.Deposit(ctx, buyer, itemID, amountCents); err != nil {
		return nil, s.fail(op, domain.WrapError(err, domain.CodeInvalidState, "escrow rejected the payment"))
	}

	rental.Buyer = &buyer
	rental.Paid = true
	rental.CreatedAt = time.Now().UTC()
	if err := s.rentalRepo.Update(ctx, rental); err != nil {
		if _, rerr := s.vault.Release(ctx, itemID, buyer); rerr != nil {
			logger.ErrorContext(ctx, "failed to return deposit after aborted rent", "item_id", itemID, "error", rerr)
		}
		return nil, s.fail(op, err)
	}

	if err := s.events.Emit(ctx, &domain.Event{
		Type:      domain.EventRentalPaid,
		ItemID:    itemID,
		Principal: buyer,
	}); err != nil {
		return nil, s.fail(op, err)
	}

	s.metrics.RecordOperation(op)
	logger.InfoContext(ctx, "rental paid", "item_id", itemID, "buyer", string(buyer), "amount_cents", amountCents)
	return rental, nil
}

// ConfirmReceipt settles a paid rental in the seller's favor: the rental is
// marked received and confirmed first, then the asset token moves to the
// buyer and the held payment to the seller. A collaborator failure rolls the
// rental back to its prior state.
func (s *rentalService) ConfirmReceipt(ctx context.Context, caller domain.Principal, itemID int64) (*domain.Rental, error) {
	const op = "ConfirmReceipt"
	if caller == "" {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "caller principal is required"))
	}
	if itemID <= 0 {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "item id must be positive"))
	}

	s.gate.Lock()
	defer s.gate.Unlock()

	rental, err := s.rentalRepo.GetByItemID(ctx, itemID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if rental.Buyer == nil || *rental.Buyer != caller {
		return nil, s.fail(op, domain.NewError(domain.CodeUnauthorized, "only the buyer may confirm receipt"))
	}
	if rental.Confirmed {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInvalidState, "rental %d is already confirmed", itemID))
	}
	if rental.Disputed {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInvalidState, "rental %d is disputed and settles only through the arbiter", itemID))
	}
	if !rental.Paid {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInvalidState, "rental %d is not paid", itemID))
	}

	snapshot := rental.Clone()
	rental.Received = true
	rental.Confirmed = true
	if err := s.rentalRepo.Update(ctx, rental); err != nil {
		return nil, s.fail(op, err)
	}

	if err := s.mint.TransferAsset(ctx, rental.AssetTokenID, rental.Seller, caller); err != nil {
		s.restore(ctx, snapshot)
		return nil, s.fail(op, domain.WrapError(err, domain.CodeInternal, "transfer asset token"))
	}

	if _, err := s.vault.Release(ctx, itemID, rental.Seller); err != nil {
		if terr := s.mint.TransferAsset(ctx, rental.AssetTokenID, caller, rental.Seller); terr != nil {
			logger.ErrorContext(ctx, "failed to undo asset transfer", "item_id", itemID, "error", terr)
		}
		s.restore(ctx, snapshot)
		return nil, s.fail(op, domain.WrapError(err, domain.CodeInternal, "release escrow to seller"))
	}

	if err := s.events.Emit(ctx, &domain.Event{
		Type:   domain.EventReceiptConfirmed,
		ItemID: itemID,
	}); err != nil {
		return nil, s.fail(op, err)
	}

	s.metrics.RecordOperation(op)
	logger.InfoContext(ctx, "receipt confirmed", "item_id", itemID, "buyer", string(caller))
	return rental, nil
}

// RefundBuyer returns the held payment to the buyer before confirmation.
// Once a dispute is open the refund path closes; only the arbiter settles.
func (s *rentalService) RefundBuyer(ctx context.Context, caller domain.Principal, itemID int64) (*domain.Rental, error) {
	const op = "RefundBuyer"
	if caller == "" {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "caller principal is required"))
	}
	if itemID <= 0 {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "item id must be positive"))
	}

	s.gate.Lock()
	defer s.gate.Unlock()

	rental, err := s.rentalRepo.GetByItemID(ctx, itemID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if rental.Buyer == nil || *rental.Buyer != caller {
		return nil, s.fail(op, domain.NewError(domain.CodeUnauthorized, "only the buyer may request a refund"))
	}
	if rental.Confirmed {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInvalidState, "rental %d is already confirmed", itemID))
	}
	if rental.Disputed {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInvalidState, "rental %d is disputed and settles only through the arbiter", itemID))
	}
	if !rental.Paid {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInvalidState, "rental %d is not paid", itemID))
	}

	snapshot := rental.Clone()
	rental.Paid = false
	if err := s.rentalRepo.Update(ctx, rental); err != nil {
		return nil, s.fail(op, err)
	}

	if _, err := s.vault.Release(ctx, itemID, caller); err != nil {
		s.restore(ctx, snapshot)
		return nil, s.fail(op, domain.WrapError(err, domain.CodeInternal, "release escrow to buyer"))
	}

	if err := s.events.Emit(ctx, &domain.Event{
		Type:      domain.EventRefundIssued,
		ItemID:    itemID,
		Principal: caller,
	}); err != nil {
		return nil, s.fail(op, err)
	}

	s.metrics.RecordOperation(op)
	logger.InfoContext(ctx, "refund issued", "item_id", itemID, "buyer", string(caller))
	return rental, nil
}

// RaiseDispute freezes a paid rental until the arbiter resolves it.
func (s *rentalService) RaiseDispute(ctx context.Context, caller domain.Principal, itemID int64) (*domain.Rental, error) {
	rental, err := s.raiseDispute(ctx, caller, itemID)
	if err != nil {
		return nil, err
	}

	// Alert delivery runs outside the gate and never fails the operation.
	if err := s.notifier.DisputeAlert(ctx, itemID, caller, rental.PriceCents); err != nil {
		logger.WarnContext(ctx, "dispute alert delivery failed", "item_id", itemID, "error", err)
	}
	return rental, nil
}

func (s *rentalService) raiseDispute(ctx context.Context, caller domain.Principal, itemID int64) (*domain.Rental, error) {
	const op = "RaiseDispute"
	if caller == "" {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "caller principal is required"))
	}
	if itemID <= 0 {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "item id must be positive"))
	}

	s.gate.Lock()
	defer s.gate.Unlock()

	rental, err := s.rentalRepo.GetByItemID(ctx, itemID)
	if err != nil {
		return nil, s.fail(op, err)
	}
	if rental.Buyer == nil || *rental.Buyer != caller {
		return nil, s.fail(op, domain.NewError(domain.CodeUnauthorized, "only the buyer may raise a dispute"))
	}
	if rental.Confirmed {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInvalidState, "rental %d is already confirmed", itemID))
	}
	if rental.Disputed {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInvalidState, "rental %d is already disputed", itemID))
	}
	if !rental.Paid {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeInvalidState, "rental %d is not paid", itemID))
	}

	rental.Disputed = true
	if err := s.rentalRepo.Update(ctx, rental); err != nil {
		return nil, s.fail(op, err)
	}

	if err := s.events.Emit(ctx, &domain.Event{
		Type:      domain.EventDisputeRaised,
		ItemID:    itemID,
		Principal: caller,
	}); err != nil {
		return nil, s.fail(op, err)
	}

	s.metrics.RecordOperation(op)
	logger.InfoContext(ctx, "dispute raised", "item_id", itemID, "buyer", string(caller))
	return rental, nil
}

func (s *rentalService) GetRental(ctx context.Context, itemID int64) (*domain.Rental, error) {
	s.gate.RLock()
	defer s.gate.RUnlock()

	return s.rentalRepo.GetByItemID(ctx, itemID)
}

func (s *rentalService) ListBySeller(ctx context.Context, seller domain.Principal, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	page, pageSize = normalizePage(page, pageSize)

	s.gate.RLock()
	defer s.gate.RUnlock()

	return s.rentalRepo.ListBySeller(ctx, seller, status, page, pageSize)
}

func (s *rentalService) ListByBuyer(ctx context.Context, buyer domain.Principal, status string, page, pageSize int32) ([]domain.Rental, int32, error) {
	page, pageSize = normalizePage(page, pageSize)

	s.gate.RLock()
	defer s.gate.RUnlock()

	return s.rentalRepo.ListByBuyer(ctx, buyer, status, page, pageSize)
}

// verifiedLocked reads the identity table while the caller holds the gate.
func (s *rentalService) verifiedLocked(ctx context.Context, principal domain.Principal) bool {
	identity, err := s.identityRepo.GetByPrincipal(ctx, principal)
	if err != nil {
		return false
	}
	return identity.Verified
}

func (s *rentalService) restore(ctx context.Context, snapshot *domain.Rental) {
	if err := s.rentalRepo.Update(ctx, snapshot); err != nil {
		logger.ErrorContext(ctx, "failed to restore rental after aborted operation", "item_id", snapshot.ItemID, "error", err)
	}
}

func (s *rentalService) fail(op string, err error) error {
	s.metrics.RecordFailure(op, string(domain.CodeOf(err)))
	return err
}

func normalizePage(page, pageSize int32) (int32, int32) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	return page, pageSize
}
