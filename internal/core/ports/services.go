// internal/core/ports/services.go
package ports

import (
	"context"

	"github.com/ammerola/gestor-be/internal/core/domain"
)

// CatalogService manages products. It never writes Product.Quantity except
// through the ledger when a product is created with opening stock.
type CatalogService interface {
	CreateProduct(ctx context.Context, product *domain.Product) error
	UpdateProduct(ctx context.Context, id int64, update domain.ProductUpdate) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, params ListParams) (*ProductList, error)
	LowStock(ctx context.Context) ([]domain.Product, error)
}

// LedgerService records and inspects stock movements.
type LedgerService interface {
	RecordMovement(ctx context.Context, req domain.MovementRequest) (*domain.StockMovement, error)
	ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error)
	Reconcile(ctx context.Context, productID int64) (*domain.Reconciliation, error)
	ReconcileAll(ctx context.Context) ([]domain.Reconciliation, error)
}

// TxLedger applies a movement inside a unit of work owned by the caller.
type TxLedger interface {
	RecordInTx(ctx context.Context, repos Repositories, req domain.MovementRequest) (*domain.StockMovement, error)
}

// CheckoutService turns a cart into a sale.
type CheckoutService interface {
	Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.Sale, error)
	GetSale(ctx context.Context, id int64) (*domain.Sale, error)
	ListSales(ctx context.Context, filter domain.SaleFilter, params ListParams) (*SaleList, error)
}

// ListParams holds pagination and sorting for list endpoints
type ListParams struct {
	Search    string
	Category  string
	LowStock  bool
	SortBy    string
	SortOrder string
	Page      int
	PageSize  int
}

// Normalize applies defaults and bounds to the paging fields.
func (p *ListParams) Normalize() {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PageSize < 1 {
		p.PageSize = 50
	}
	if p.PageSize > 200 {
		p.PageSize = 200
	}
}

// Offset returns the row offset of the current page.
func (p ListParams) Offset() int {
	return (p.Page - 1) * p.PageSize
}

// TotalPages computes the page count for total rows.
func (p ListParams) TotalPages(total int64) int {
	if p.PageSize <= 0 {
		return 0
	}
	pages := int(total) / p.PageSize
	if int(total)%p.PageSize > 0 {
		pages++
	}
	return pages
}

// ProductList is a page of products
type ProductList struct {
	Products   []domain.Product `json:"products"`
	Page       int              `json:"page"`
	PageSize   int              `json:"pageSize"`
	TotalCount int64            `json:"totalCount"`
	TotalPages int              `json:"totalPages"`
}

// SaleList is a page of sale headers
type SaleList struct {
	Sales      []domain.Sale `json:"sales"`
	Page       int           `json:"page"`
	PageSize   int           `json:"pageSize"`
	TotalCount int64         `json:"totalCount"`
	TotalPages int           `json:"totalPages"`
}
