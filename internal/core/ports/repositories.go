// internal/core/ports/repositories.go
package ports

import (
	"context"

	"github.com/ammerola/gestor-be/internal/core/domain"
)

// ProductRepository is the catalog store. Lookups return nil, nil when the
// product does not exist.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	Update(ctx context.Context, product *domain.Product) error
	Delete(ctx context.Context, id int64) error
	FindByID(ctx context.Context, id int64) (*domain.Product, error)
	// FindByIDForUpdate locks the product row until the surrounding
	// transaction ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error)
	FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error)
	FindLowStock(ctx context.Context) ([]domain.Product, error)
	ListIDs(ctx context.Context) ([]int64, error)
	SetQuantity(ctx context.Context, id int64, quantity int) error
	IsReferenced(ctx context.Context, id int64) (bool, error)
}

// MovementRepository is the append-only stock movement ledger.
type MovementRepository interface {
	Create(ctx context.Context, movement *domain.StockMovement) error
	FindAll(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error)
	// FindByProduct returns every movement of a product in creation order.
	FindByProduct(ctx context.Context, productID int64) ([]domain.StockMovement, error)
}

// SaleRepository stores sales together with their items.
type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	FindByID(ctx context.Context, id int64) (*domain.Sale, error)
	FindAll(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, int64, error)
}

// Repositories groups the stores bound to one connection or transaction.
type Repositories struct {
	Products  ProductRepository
	Movements MovementRepository
	Sales     SaleRepository
}

// Store hands out repositories and runs units of work.
type Store interface {
	// Repositories returns repositories bound to the connection pool.
	Repositories() Repositories
	// InTx runs fn with repositories bound to a single transaction. The
	// transaction commits when fn returns nil and rolls back otherwise.
	InTx(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
}
