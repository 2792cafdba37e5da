package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/cart"
)

// AddItemRequest represents a request to add a product to the cart
type AddItemRequest struct {
	ProductID uuid.UUID `json:"product_id" binding:"required"`
	Size      string    `json:"size" binding:"required"`
}

// UpdateQuantityRequest represents a single-step quantity adjustment
type UpdateQuantityRequest struct {
	Delta int `json:"delta" binding:"required,oneof=-1 1"`
}

// LineItemResponse represents one cart line in API responses
type LineItemResponse struct {
	ID        uuid.UUID       `json:"id"`
	ProductID uuid.UUID       `json:"product_id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Image     *string         `json:"image"`
	Size      string          `json:"size"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartResponse represents the whole cart in API responses
type CartResponse struct {
	Items []LineItemResponse `json:"items"`
	Total decimal.Decimal    `json:"total"`
}

// CheckoutResponse represents the result of a successful checkout
type CheckoutResponse struct {
	OrderID uuid.UUID       `json:"order_id"`
	Total   decimal.Decimal `json:"total"`
}

func toLineItemResponse(li cart.LineItem) LineItemResponse {
	return LineItemResponse{
		ID:        li.ID,
		ProductID: li.Product.ID,
		Name:      li.Product.Name,
		Price:     li.Product.Price,
		Image:     li.Product.Image,
		Size:      string(li.Size),
		Quantity:  li.Quantity,
		Subtotal:  li.Subtotal(),
	}
}

// ToCartResponse converts a cart snapshot to its API representation
func ToCartResponse(items []cart.LineItem, total decimal.Decimal) *CartResponse {
	responses := make([]LineItemResponse, 0, len(items))
	for _, li := range items {
		responses = append(responses, toLineItemResponse(li))
	}
	return &CartResponse{Items: responses, Total: total}
}
