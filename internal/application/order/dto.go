package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// UpdateStatusRequest represents a request to move an order to a new status
type UpdateStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// ItemResponse represents one purchased line in API responses
type ItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ProductID   uuid.UUID       `json:"product_id"`
	ProductName string          `json:"product_name"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Size        string          `json:"size"`
	Quantity    int             `json:"quantity"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID        uuid.UUID       `json:"id"`
	SessionID string          `json:"session_id"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	Archived  bool            `json:"archived"`
	Items     []ItemResponse  `json:"items"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ToOrderResponse converts a domain order to its API representation
func ToOrderResponse(o *order.Order) *OrderResponse {
	items := make([]ItemResponse, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, ItemResponse{
			ID:          item.ID,
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			UnitPrice:   item.UnitPrice,
			Size:        item.Size,
			Quantity:    item.Quantity,
		})
	}

	return &OrderResponse{
		ID:        o.ID,
		SessionID: o.SessionID,
		Status:    string(o.Status),
		Total:     o.Total,
		Archived:  o.Archived,
		Items:     items,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}
