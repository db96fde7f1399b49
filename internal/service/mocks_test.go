package service

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"rentvault/internal/domain"
	"rentvault/internal/escrow"
	"rentvault/internal/notify"
	"rentvault/internal/repository/memory"
	"rentvault/internal/security"
	"rentvault/internal/token"
)

const admin = domain.Principal("arbiter-admin")

// fixture wires the services against real in-memory collaborators. Tests
// that need failure injection swap a collaborator for a mock and rebuild the
// one service under test.
type fixture struct {
	ctx      context.Context
	gate     *Gate
	store    *memory.Store
	vault    *escrow.Vault
	mint     *token.Mint
	signer   security.ReceiptSigner
	events   EventService
	identity IdentityService
	rentals  RentalService
	disputes DisputeService
}

func newFixture() *fixture {
	gate := NewGate()
	store := memory.NewStore()
	vault := escrow.NewVault()
	mint := token.NewMint()
	signer := security.NewReceiptSigner("unit-test-signing-key-0123456789ab")
	events := NewEventService(store.Events, nil)

	f := &fixture{
		ctx:    context.Background(),
		gate:   gate,
		store:  store,
		vault:  vault,
		mint:   mint,
		signer: signer,
		events: events,
	}
	f.identity = NewIdentityService(gate, store.Identities, mint, signer, events, nil, admin)
	f.rentals = NewRentalService(gate, store.Rentals, store.Identities, vault, mint, events, notify.NewLogNotifier(), nil)
	f.disputes = NewDisputeService(gate, store.Rentals, vault, events, nil, admin)
	return f
}

// MockLedger
type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) Deposit(ctx context.Context, payer domain.Principal, itemID int64, amountCents int64) error {
	args := m.Called(ctx, payer, itemID, amountCents)
	return args.Error(0)
}
func (m *MockLedger) Release(ctx context.Context, itemID int64, payee domain.Principal) (int64, error) {
	args := m.Called(ctx, itemID, payee)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockLedger) BalanceOf(principal domain.Principal) int64 {
	args := m.Called(principal)
	return args.Get(0).(int64)
}
func (m *MockLedger) Held(itemID int64) (int64, bool) {
	args := m.Called(itemID)
	return args.Get(0).(int64), args.Bool(1)
}
func (m *MockLedger) TotalHeld() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

// MockIssuer
type MockIssuer struct {
	mock.Mock
}

func (m *MockIssuer) MintCredential(ctx context.Context, owner domain.Principal) (int64, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockIssuer) MintAsset(ctx context.Context, owner domain.Principal) (int64, error) {
	args := m.Called(ctx, owner)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockIssuer) TransferAsset(ctx context.Context, tokenID int64, from, to domain.Principal) error {
	args := m.Called(ctx, tokenID, from, to)
	return args.Error(0)
}
func (m *MockIssuer) AssetOwner(tokenID int64) (domain.Principal, error) {
	args := m.Called(tokenID)
	return args.Get(0).(domain.Principal), args.Error(1)
}
func (m *MockIssuer) CredentialOwner(tokenID int64) (domain.Principal, error) {
	args := m.Called(tokenID)
	return args.Get(0).(domain.Principal), args.Error(1)
}

// MockNotifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) DisputeAlert(ctx context.Context, itemID int64, raisedBy domain.Principal, heldCents int64) error {
	args := m.Called(ctx, itemID, raisedBy, heldCents)
	return args.Error(0)
}
func (m *MockNotifier) DisputeReminder(ctx context.Context, itemID int64, openFor time.Duration, heldCents int64) error {
	args := m.Called(ctx, itemID, openFor, heldCents)
	return args.Error(0)
}
