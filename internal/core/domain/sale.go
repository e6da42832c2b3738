// internal/core/domain/sale.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// PaymentMethod is how a sale was paid. Values are the wire names.
type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "dinheiro"
	PaymentPix    PaymentMethod = "pix"
	PaymentCard   PaymentMethod = "cartao"
	PaymentCredit PaymentMethod = "fiado"
)

// IsValid reports whether m is a known payment method
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentCash, PaymentPix, PaymentCard, PaymentCredit:
		return true
	}
	return false
}

// SaleStatus is the lifecycle state of a sale.
type SaleStatus string

const (
	SaleCompleted SaleStatus = "concluida"
	SaleCancelled SaleStatus = "cancelada"
)

// Sale is the financial record of a completed checkout.
type Sale struct {
	ID            int64           `json:"id"`
	TotalAmount   decimal.Decimal `json:"totalAmount"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	Status        SaleStatus      `json:"status"`
	UserID        string          `json:"userId"`
	CreatedAt     time.Time       `json:"createdAt"`
	Items         []SaleItem      `json:"items,omitempty"`
}

// SaleItem is one line of a sale. Name, SKU and unit price are snapshots
// taken at sale time and are not kept in sync with the catalog.
type SaleItem struct {
	ID          int64           `json:"id"`
	SaleID      int64           `json:"saleId"`
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	ProductSKU  string          `json:"productSku"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// NewSaleItem snapshots the product into a sale line.
func NewSaleItem(p *Product, quantity int) SaleItem {
	return SaleItem{
		ProductID:   p.ID,
		ProductName: p.Name,
		ProductSKU:  p.SKU,
		Quantity:    quantity,
		UnitPrice:   p.SalePrice,
		TotalPrice:  p.SalePrice.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// SumItems returns the total of the line totals.
func SumItems(items []SaleItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.TotalPrice)
	}
	return total
}

// SaleMovementReason is the ledger reason written for each line of a sale.
func SaleMovementReason(saleID int64) string {
	return fmt.Sprintf("Venda #%d", saleID)
}

// CartLine is one requested line of a checkout.
type CartLine struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// CheckoutRequest is the input of a checkout.
type CheckoutRequest struct {
	Items         []CartLine
	PaymentMethod PaymentMethod
	Actor         string
}

// Validate checks the cart before any storage access
func (r *CheckoutRequest) Validate() error {
	if len(r.Items) == 0 {
		return NewInvalidArgument("sale must have at least one item")
	}
	requested := make(map[int64]int, len(r.Items))
	for i, line := range r.Items {
		if line.ProductID <= 0 {
			return NewInvalidArgument("item %d: productId is required", i)
		}
		if line.Quantity <= 0 {
			return NewInvalidArgument("item %d: quantity must be positive", i)
		}
		if line.Quantity > MaxQuantity {
			return NewInvalidArgument("item %d: quantity cannot exceed %d", i, MaxQuantity)
		}
		if line.Quantity > MaxQuantity-requested[line.ProductID] {
			return NewInvalidArgument("product %d: total quantity cannot exceed %d", line.ProductID, MaxQuantity)
		}
		requested[line.ProductID] += line.Quantity
	}
	if !r.PaymentMethod.IsValid() {
		return NewInvalidArgument("paymentMethod must be one of dinheiro, pix, cartao, fiado")
	}
	if strings.TrimSpace(r.Actor) == "" {
		return NewInvalidArgument("actor is required")
	}
	return nil
}

// RequestedByProduct sums requested quantities per product.
func (r *CheckoutRequest) RequestedByProduct() map[int64]int {
	out := make(map[int64]int, len(r.Items))
	for _, line := range r.Items {
		out[line.ProductID] += line.Quantity
	}
	return out
}

// SaleFilter selects sales for listing. Zero fields are ignored.
type SaleFilter struct {
	UserID        string
	PaymentMethod PaymentMethod
	Status        SaleStatus
	From          *time.Time
	To            *time.Time
	Limit         int
	Offset        int
}
