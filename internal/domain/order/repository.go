package order

import (
	"context"

	"github.com/google/uuid"
)

// ListFilter narrows order list queries
type ListFilter struct {
	Archived bool
}

// Repository defines the persistence interface for orders
type Repository interface {
	Create(ctx context.Context, order *Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	List(ctx context.Context, filter ListFilter) ([]Order, error)
	Update(ctx context.Context, order *Order) error
}
