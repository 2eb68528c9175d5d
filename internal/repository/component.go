// Package repository contains data access abstractions for the service.
// Implementations live in subpackages (e.g., postgres) inside this directory.
package repository

import (
	"context"

	"github.com/mmaioli/projects/internal/model"
)

// ComponentRepository defines persistence for components using SQL queries
// only. No business logic here — callers mint identifiers and timestamps.
//
// Absent rows are reported as sql.ErrNoRows so callers can tell an unknown
// identifier apart from an infrastructure failure.
type ComponentRepository interface {
	// Create inserts a new component record and returns the stored row.
	Create(ctx context.Context, comp *model.Component) (*model.Component, error)

	// FindByID returns a component by its ID.
	FindByID(ctx context.Context, id string) (*model.Component, error)

	// Update persists the mutable fields (name, parameters, updated_at) of a
	// previously fetched record and returns the stored row.
	Update(ctx context.Context, comp *model.Component) (*model.Component, error)

	// Delete removes a component by ID. Deleting an unknown ID is an error.
	Delete(ctx context.Context, id string) error

	// List returns every component record, newest first.
	List(ctx context.Context) ([]model.Component, error)
}
