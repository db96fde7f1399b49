package escrow

import (
	"context"
	"errors"
	"sync"

	"rentvault/internal/domain"
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrAlreadyHeld       = errors.New("funds already held for item")
	ErrNothingHeld       = errors.New("no funds held for item")
	ErrInvalidAmount     = errors.New("amount must be positive")
)

// Ledger is the value-transfer collaborator. A deposit moves an exact amount
// from a payer into a per-item hold; a release pays the whole hold out to a
// payee. Each hold accepts at most one deposit and at most one release, so a
// caller retrying either direction gets an error instead of a double move.
// Implementations are safe for concurrent use and never call back into the
// marketplace.
type Ledger interface {
	Deposit(ctx context.Context, payer domain.Principal, itemID int64, amountCents int64) error
	Release(ctx context.Context, itemID int64, payee domain.Principal) (int64, error)
	BalanceOf(principal domain.Principal) int64
	Held(itemID int64) (int64, bool)
	TotalHeld() int64
}

type hold struct {
	payer       domain.Principal
	amountCents int64
}

// Vault is the in-memory Ledger. Value never appears or disappears inside it:
// the sum of balances plus holds changes only through Fund.
type Vault struct {
	mu       sync.RWMutex
	balances map[domain.Principal]int64
	holds    map[int64]hold
}

func NewVault() *Vault {
	return &Vault{
		balances: make(map[domain.Principal]int64),
		holds:    make(map[int64]hold),
	}
}

// Fund credits an account outside any rental flow. Bootstrap and tests only.
func (v *Vault) Fund(principal domain.Principal, amountCents int64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.balances[principal] += amountCents
}

func (v *Vault) Deposit(ctx context.Context, payer domain.Principal, itemID int64, amountCents int64) error {
	if amountCents <= 0 {
		return ErrInvalidAmount
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	if _, exists := v.holds[itemID]; exists {
		return ErrAlreadyHeld
	}
	if v.balances[payer] < amountCents {
		return ErrInsufficientFunds
	}

	v.balances[payer] -= amountCents
	v.holds[itemID] = hold{payer: payer, amountCents: amountCents}
	return nil
}

func (v *Vault) Release(ctx context.Context, itemID int64, payee domain.Principal) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	h, ok := v.holds[itemID]
	if !ok {
		return 0, ErrNothingHeld
	}

	delete(v.holds, itemID)
	v.balances[payee] += h.amountCents
	return h.amountCents, nil
}

func (v *Vault) BalanceOf(principal domain.Principal) int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.balances[principal]
}

func (v *Vault) Held(itemID int64) (int64, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	h, ok := v.holds[itemID]
	return h.amountCents, ok
}

func (v *Vault) TotalHeld() int64 {
	v.mu.RLock()
	defer v.mu.RUnlock()
	var total int64
	for _, h := range v.holds {
		total += h.amountCents
	}
	return total
}
