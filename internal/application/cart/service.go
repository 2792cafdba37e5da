package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/order"
)

// Service coordinates session carts with the catalog and the order store.
// Cart state itself lives in the session ledgers; the service only resolves
// products and turns checkouts into persisted orders.
type Service struct {
	sessions    *cart.Sessions
	productRepo catalog.ProductRepository
	orderRepo   order.Repository
}

// NewService creates a new cart Service
func NewService(sessions *cart.Sessions, productRepo catalog.ProductRepository, orderRepo order.Repository) *Service {
	return &Service{
		sessions:    sessions,
		productRepo: productRepo,
		orderRepo:   orderRepo,
	}
}

// AddItem resolves the product and adds one unit of it in the given size
// to the session's cart
func (s *Service) AddItem(ctx context.Context, sessionID string, req AddItemRequest) (*CartResponse, error) {
	size, err := cart.ParseSize(req.Size)
	if err != nil {
		return nil, err
	}

	product, err := s.productRepo.FindByID(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}

	ledger := s.sessions.Get(sessionID)
	if _, err := ledger.AddItem(*product, size); err != nil {
		return nil, err
	}

	return ToCartResponse(ledger.Items(), ledger.Total()), nil
}

// UpdateQuantity adjusts a cart line by one step. Unknown item ids are
// ignored; a line reaching zero quantity is removed.
func (s *Service) UpdateQuantity(sessionID string, itemID uuid.UUID, delta int) *CartResponse {
	ledger := s.sessions.Get(sessionID)
	ledger.UpdateQuantity(itemID, delta)
	return ToCartResponse(ledger.Items(), ledger.Total())
}

// GetCart returns the current cart contents for a session
func (s *Service) GetCart(sessionID string) *CartResponse {
	ledger := s.sessions.Get(sessionID)
	return ToCartResponse(ledger.Items(), ledger.Total())
}

// Checkout persists the cart as an order and clears the cart. The cart is
// left untouched when persistence fails so the customer can retry.
func (s *Service) Checkout(ctx context.Context, sessionID string) (*CheckoutResponse, error) {
	ledger := s.sessions.Get(sessionID)

	o, err := order.NewOrder(sessionID, ledger.Items())
	if err != nil {
		return nil, err
	}

	if err := s.orderRepo.Create(ctx, o); err != nil {
		return nil, err
	}

	ledger.Clear()

	return &CheckoutResponse{OrderID: o.ID, Total: o.Total}, nil
}
