package repository

import "rentvault/internal/domain"

// Store sentinels carry their classification so callers can propagate them
// directly or branch with errors.Is.
var (
	ErrNotFound  = domain.NewError(domain.CodeNotFound, "record not found")
	ErrDuplicate = domain.NewError(domain.CodeDuplicateItem, "record already exists")
)
