package token

import (
	"context"
	"errors"
	"sync"

	"rentvault/internal/domain"
)

var (
	ErrUnknownToken = errors.New("unknown token")
	ErrNotOwner     = errors.New("principal does not own token")
)

// Issuer mints and tracks the marketplace's two token families: credentials
// (one per admin-verified identity, never transferred) and assets (one per
// listed item, transferred to the buyer on confirmed receipt). Each family
// draws ids from its own monotonic counter; an id handed out is never reused,
// even when the surrounding operation aborts.
type Issuer interface {
	MintCredential(ctx context.Context, owner domain.Principal) (int64, error)
	MintAsset(ctx context.Context, owner domain.Principal) (int64, error)
	TransferAsset(ctx context.Context, tokenID int64, from, to domain.Principal) error
	AssetOwner(tokenID int64) (domain.Principal, error)
	CredentialOwner(tokenID int64) (domain.Principal, error)
}

// Mint is the in-memory Issuer.
type Mint struct {
	mu             sync.RWMutex
	nextCredential int64
	nextAsset      int64
	credentials    map[int64]domain.Principal
	assets         map[int64]domain.Principal
}

func NewMint() *Mint {
	return &Mint{
		nextCredential: 1,
		nextAsset:      1,
		credentials:    make(map[int64]domain.Principal),
		assets:         make(map[int64]domain.Principal),
	}
}

func (m *Mint) MintCredential(ctx context.Context, owner domain.Principal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextCredential
	m.nextCredential++
	m.credentials[id] = owner
	return id, nil
}

func (m *Mint) MintAsset(ctx context.Context, owner domain.Principal) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	id := m.nextAsset
	m.nextAsset++
	m.assets[id] = owner
	return id, nil
}

func (m *Mint) TransferAsset(ctx context.Context, tokenID int64, from, to domain.Principal) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	owner, ok := m.assets[tokenID]
	if !ok {
		return ErrUnknownToken
	}
	if owner != from {
		return ErrNotOwner
	}

	m.assets[tokenID] = to
	return nil
}

func (m *Mint) AssetOwner(tokenID int64) (domain.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owner, ok := m.assets[tokenID]
	if !ok {
		return "", ErrUnknownToken
	}
	return owner, nil
}

func (m *Mint) CredentialOwner(tokenID int64) (domain.Principal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	owner, ok := m.credentials[tokenID]
	if !ok {
		return "", ErrUnknownToken
	}
	return owner, nil
}
