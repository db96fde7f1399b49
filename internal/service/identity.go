package service

import (
	"context"
	"errors"
	"time"

	"rentvault/internal/domain"
	"rentvault/internal/logger"
	"rentvault/internal/metrics"
	"rentvault/internal/repository"
	"rentvault/internal/security"
	"rentvault/internal/token"
)

type identityService struct {
	gate         *Gate
	identityRepo repository.IdentityRepository
	mint         token.Issuer
	signer       security.ReceiptSigner
	events       EventService
	metrics      *metrics.Metrics
	admin        domain.Principal
}

func NewIdentityService(
	gate *Gate,
	identityRepo repository.IdentityRepository,
	mint token.Issuer,
	signer security.ReceiptSigner,
	events EventService,
	m *metrics.Metrics,
	admin domain.Principal,
) IdentityService {
	return &identityService{
		gate:         gate,
		identityRepo: identityRepo,
		mint:         mint,
		signer:       signer,
		events:       events,
		metrics:      m,
		admin:        admin,
	}
}

// SubmitIdentity is the self-declared verification path: the caller vouches
// for themselves and gets no credential token.
func (s *identityService) SubmitIdentity(ctx context.Context, caller domain.Principal) (*domain.Identity, error) {
	const op = "SubmitIdentity"
	if caller == "" {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "caller principal is required"))
	}

	s.gate.Lock()
	defer s.gate.Unlock()

	existing, err := s.identityRepo.GetByPrincipal(ctx, caller)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, s.fail(op, err)
	}
	if existing != nil && existing.Verified {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeAlreadyVerified, "principal %s is already verified", caller))
	}

	identity := &domain.Identity{
		Principal:  caller,
		Verified:   true,
		VerifiedOn: time.Now().UTC(),
	}
	if existing == nil {
		err = s.identityRepo.Create(ctx, identity)
	} else {
		err = s.identityRepo.Update(ctx, identity)
	}
	if err != nil {
		return nil, s.fail(op, err)
	}

	if err := s.events.Emit(ctx, &domain.Event{
		Type:      domain.EventIdentityVerified,
		Principal: caller,
	}); err != nil {
		return nil, s.fail(op, err)
	}

	s.metrics.RecordOperation(op)
	logger.InfoContext(ctx, "identity verified", "principal", string(caller), "path", "self")
	return identity, nil
}

// ApproveIdentity is the administrator path: it additionally mints a
// credential token for the subject and records a signed receipt.
func (s *identityService) ApproveIdentity(ctx context.Context, caller, subject domain.Principal) (*domain.Identity, error) {
	const op = "ApproveIdentity"
	if caller == "" || subject == "" {
		return nil, s.fail(op, domain.NewError(domain.CodeInvalidArgument, "caller and subject principals are required"))
	}

	s.gate.Lock()
	defer s.gate.Unlock()

	if caller != s.admin {
		return nil, s.fail(op, domain.NewError(domain.CodeUnauthorized, "caller is not the administrator"))
	}

	existing, err := s.identityRepo.GetByPrincipal(ctx, subject)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, s.fail(op, err)
	}
	if existing != nil && existing.Verified {
		return nil, s.fail(op, domain.NewErrorf(domain.CodeAlreadyVerified, "principal %s is already verified", subject))
	}

	tokenID, err := s.mint.MintCredential(ctx, subject)
	if err != nil {
		return nil, s.fail(op, domain.WrapError(err, domain.CodeInternal, "mint credential token"))
	}
	receipt, err := s.signer.SignReceipt(subject, tokenID)
	if err != nil {
		return nil, s.fail(op, domain.WrapError(err, domain.CodeInternal, "sign credential receipt"))
	}

	approvedBy := caller
	identity := &domain.Identity{
		Principal:         subject,
		Verified:          true,
		CredentialTokenID: &tokenID,
		CredentialReceipt: receipt,
		ApprovedBy:        &approvedBy,
		VerifiedOn:        time.Now().UTC(),
	}
	if existing == nil {
		err = s.identityRepo.Create(ctx, identity)
	} else {
		err = s.identityRepo.Update(ctx, identity)
	}
	if err != nil {
		return nil, s.fail(op, err)
	}

	if err := s.events.Emit(ctx, &domain.Event{
		Type:      domain.EventIdentityVerified,
		Principal: subject,
		TokenID:   &tokenID,
	}); err != nil {
		return nil, s.fail(op, err)
	}

	s.metrics.RecordOperation(op)
	logger.InfoContext(ctx, "identity verified", "principal", string(subject), "path", "admin", "credential_token_id", tokenID)
	return identity, nil
}

func (s *identityService) IsVerified(ctx context.Context, principal domain.Principal) bool {
	s.gate.RLock()
	defer s.gate.RUnlock()

	identity, err := s.identityRepo.GetByPrincipal(ctx, principal)
	if err != nil {
		return false
	}
	return identity.Verified
}

func (s *identityService) GetIdentity(ctx context.Context, principal domain.Principal) (*domain.Identity, error) {
	s.gate.RLock()
	defer s.gate.RUnlock()

	return s.identityRepo.GetByPrincipal(ctx, principal)
}

func (s *identityService) fail(op string, err error) error {
	s.metrics.RecordFailure(op, string(domain.CodeOf(err)))
	return err
}
