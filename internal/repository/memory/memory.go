package memory

import "rentvault/internal/repository"

// Store aggregates the in-memory tables behind the repository interfaces.
// Each table guards itself; callers needing cross-table consistency hold the
// marketplace gate around their whole operation.
type Store struct {
	Identities repository.IdentityRepository
	Rentals    repository.RentalRepository
	Events     repository.EventRepository
}

func NewStore() *Store {
	return &Store{
		Identities: NewIdentityStore(),
		Rentals:    NewRentalStore(),
		Events:     NewEventStore(),
	}
}
