package order

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/order"
)

// Service handles admin-side order operations
type Service struct {
	orderRepo order.Repository
}

// NewService creates a new order Service
func NewService(orderRepo order.Repository) *Service {
	return &Service{orderRepo: orderRepo}
}

// List returns orders filtered on the archived flag, newest first
func (s *Service) List(ctx context.Context, archived bool) ([]OrderResponse, error) {
	orders, err := s.orderRepo.List(ctx, order.ListFilter{Archived: archived})
	if err != nil {
		return nil, err
	}

	responses := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		responses = append(responses, *ToOrderResponse(&orders[i]))
	}
	return responses, nil
}

// Get returns a single order with its line items
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*OrderResponse, error) {
	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return ToOrderResponse(o), nil
}

// UpdateStatus moves an order to a new fulfilment status. Delivered orders
// are archived as part of the transition.
func (s *Service) UpdateStatus(ctx context.Context, id uuid.UUID, req UpdateStatusRequest) (*OrderResponse, error) {
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		return nil, err
	}

	o, err := s.orderRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := o.UpdateStatus(status); err != nil {
		return nil, err
	}

	if err := s.orderRepo.Update(ctx, o); err != nil {
		return nil, err
	}

	return ToOrderResponse(o), nil
}
