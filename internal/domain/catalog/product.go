package catalog

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Product represents a menu item available for ordering.
// The cart and order subsystems treat it as read-only; only the admin
// surface mutates it.
type Product struct {
	shared.BaseEntity
	Name  string          `gorm:"type:varchar(200);not null"`
	Price decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Image *string         `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a new product
func NewProduct(name string, price decimal.Decimal, image *string) (*Product, error) {
	if err := validateName(name); err != nil {
		return nil, err
	}
	if price.IsNegative() {
		return nil, shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	return &Product{
		BaseEntity: shared.NewBaseEntity(),
		Name:       name,
		Price:      price,
		Image:      image,
	}, nil
}

// Update updates the product's name, price and image reference
func (p *Product) Update(name string, price decimal.Decimal, image *string) error {
	if err := validateName(name); err != nil {
		return err
	}
	if price.IsNegative() {
		return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
	}

	p.Name = name
	p.Price = price
	p.Image = image
	p.UpdatedAt = time.Now()

	return nil
}

func validateName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
