package memory

import (
	"context"
	"sync"

	"rentvault/internal/domain"
	"rentvault/internal/repository"
)

type IdentityStore struct {
	mu         sync.RWMutex
	identities map[domain.Principal]*domain.Identity
}

func NewIdentityStore() *IdentityStore {
	return &IdentityStore{identities: make(map[domain.Principal]*domain.Identity)}
}

func (s *IdentityStore) Create(ctx context.Context, identity *domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.identities[identity.Principal]; exists {
		return repository.ErrDuplicate
	}
	s.identities[identity.Principal] = identity.Clone()
	return nil
}

func (s *IdentityStore) GetByPrincipal(ctx context.Context, principal domain.Principal) (*domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	identity, ok := s.identities[principal]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return identity.Clone(), nil
}

func (s *IdentityStore) Update(ctx context.Context, identity *domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.identities[identity.Principal]; !ok {
		return repository.ErrNotFound
	}
	s.identities[identity.Principal] = identity.Clone()
	return nil
}
