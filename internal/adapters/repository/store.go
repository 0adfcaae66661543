// Package repository defines the encounter store interface and errors.
package repository

import (
	"context"

	"github.com/okian/tavern/internal/domain/model"
)

// Store provides read/write access to saved encounters.
// Implementations return copies; callers never share state with the store.
type Store interface {
	// Create saves a new encounter, assigning ID and timestamps when empty.
	// Returns ErrCapacityExceeded when the store is full.
	Create(ctx context.Context, e model.Encounter) (model.Encounter, error)

	// Get returns an encounter by id or ErrNotFound.
	Get(ctx context.Context, id string) (model.Encounter, error)

	// List returns every encounter, most recently updated first.
	List(ctx context.Context) ([]model.Encounter, error)

	// Update applies mutate to a copy of the encounter and stores the result
	// only if mutate returns nil.
	Update(ctx context.Context, id string, mutate func(*model.Encounter) error) (model.Encounter, error)

	// Delete removes an encounter or returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Count returns the number of saved encounters.
	Count(ctx context.Context) int
}
