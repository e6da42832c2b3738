// internal/core/domain/product.go
package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Quantity is a projection of the product's
// stock movements and is only written by the movement ledger.
type Product struct {
	ID        int64           `json:"id"`
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Category  *string         `json:"category,omitempty"`
	CostPrice decimal.Decimal `json:"costPrice"`
	SalePrice decimal.Decimal `json:"salePrice"`
	Quantity  int             `json:"quantity"`
	MinStock  int             `json:"minStock"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Validate checks the catalog fields of a product
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	p.SKU = strings.TrimSpace(p.SKU)

	if p.Name == "" {
		return NewInvalidArgument("name is required")
	}
	if p.SKU == "" {
		return NewInvalidArgument("sku is required")
	}
	if p.SalePrice.IsNegative() {
		return NewInvalidArgument("salePrice cannot be negative")
	}
	if p.CostPrice.IsNegative() {
		return NewInvalidArgument("costPrice cannot be negative")
	}
	if p.Quantity < 0 {
		return NewInvalidArgument("quantity cannot be negative")
	}
	if p.Quantity > MaxQuantity {
		return NewInvalidArgument("quantity cannot exceed %d", MaxQuantity)
	}
	if p.MinStock < 0 {
		return NewInvalidArgument("minStock cannot be negative")
	}
	if p.MinStock > MaxQuantity {
		return NewInvalidArgument("minStock cannot exceed %d", MaxQuantity)
	}
	if p.Category != nil && strings.TrimSpace(*p.Category) == "" {
		p.Category = nil
	}
	return nil
}

// IsLowStock reports whether the product is at or below a positive threshold.
func (p *Product) IsLowStock() bool {
	return p.MinStock > 0 && p.Quantity <= p.MinStock
}

// ProductUpdate carries the editable catalog fields. Nil fields are left as is.
type ProductUpdate struct {
	Name      *string
	SKU       *string
	Category  *string
	CostPrice *decimal.Decimal
	SalePrice *decimal.Decimal
	MinStock  *int
}

// Apply merges the update into p and validates the result.
func (u ProductUpdate) Apply(p *Product) error {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.SKU != nil {
		p.SKU = *u.SKU
	}
	if u.Category != nil {
		c := *u.Category
		p.Category = &c
	}
	if u.CostPrice != nil {
		p.CostPrice = *u.CostPrice
	}
	if u.SalePrice != nil {
		p.SalePrice = *u.SalePrice
	}
	if u.MinStock != nil {
		p.MinStock = *u.MinStock
	}
	return p.Validate()
}

// ProductFilter selects catalog entries for listing. Zero fields are ignored.
type ProductFilter struct {
	Search   string
	Category string
	LowStock bool
	SortBy   string
	Desc     bool
	Limit    int
	Offset   int
}
