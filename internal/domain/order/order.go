package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// Status represents the fulfilment state of an order
type Status string

const (
	StatusNew        Status = "New"
	StatusCooking    Status = "Cooking"
	StatusDelivering Status = "Delivering"
	StatusDelivered  Status = "Delivered"
)

// ParseStatus converts a string into a Status
func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusNew, StatusCooking, StatusDelivering, StatusDelivered:
		return Status(s), nil
	}
	return "", shared.NewDomainError("INVALID_STATUS", "Status must be one of New, Cooking, Delivering, Delivered")
}

// Order is a persisted checkout. It is created from a cart snapshot and
// from then on owned by the order store; the cart core only reads it back
// through the archived list filter.
type Order struct {
	shared.BaseEntity
	SessionID string          `gorm:"type:varchar(100);not null;index"`
	Status    Status          `gorm:"type:varchar(20);not null;default:'New'"`
	Total     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Archived  bool            `gorm:"not null;default:false;index"`
	Items     []Item          `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// Item is one purchased line of an order, denormalized from the product at
// checkout time so later catalog edits do not rewrite order history.
type Item struct {
	shared.BaseEntity
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	ProductID   uuid.UUID       `gorm:"type:uuid;not null"`
	ProductName string          `gorm:"type:varchar(200);not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Size        string          `gorm:"type:varchar(5);not null"`
	Quantity    int             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (Item) TableName() string {
	return "order_items"
}

// NewOrder builds an order from a cart snapshot
func NewOrder(sessionID string, lines []cart.LineItem) (*Order, error) {
	if sessionID == "" {
		return nil, shared.NewDomainError("INVALID_SESSION", "Session id cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.ErrEmptyCart
	}

	o := &Order{
		BaseEntity: shared.NewBaseEntity(),
		SessionID:  sessionID,
		Status:     StatusNew,
		Total:      decimal.Zero,
	}

	for _, line := range lines {
		o.Items = append(o.Items, Item{
			BaseEntity:  shared.NewBaseEntity(),
			OrderID:     o.ID,
			ProductID:   line.Product.ID,
			ProductName: line.Product.Name,
			UnitPrice:   line.Product.Price,
			Size:        string(line.Size),
			Quantity:    line.Quantity,
		})
		o.Total = o.Total.Add(line.Subtotal())
	}

	return o, nil
}

// UpdateStatus moves the order to a new fulfilment state. Delivered orders
// are archived and drop out of the active admin list.
func (o *Order) UpdateStatus(status Status) error {
	if _, err := ParseStatus(string(status)); err != nil {
		return err
	}

	o.Status = status
	o.Archived = status == StatusDelivered
	o.UpdatedAt = time.Now()
	return nil
}
