package ports

import (
	"context"

	"github.com/angrychow/train-ticket/internal/core/domain"
)

// TripRepository persists trips.
type TripRepository interface {
	// Create stores a new trip; domain.ErrAlreadyExists if the id is taken.
	Create(ctx context.Context, trip *domain.Trip) error
	// Update replaces an existing trip; domain.ErrNotFound if absent.
	Update(ctx context.Context, trip *domain.Trip) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.Trip, error)
	// List returns every trip ordered by id.
	List(ctx context.Context) ([]domain.Trip, error)
	ListByRoute(ctx context.Context, routeID string) ([]domain.Trip, error)
}
