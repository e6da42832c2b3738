// test/benchmarks/helpers.go
package benchmarks

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
	"github.com/ammerola/gestor-be/test/helpers"
)

// movementHistory builds a ledger of n entries cycling through every
// movement type. Outbound entries never exceed the running quantity.
func movementHistory(n int) []domain.StockMovement {
	movements := make([]domain.StockMovement, 0, n)
	qty := 0
	for i := 0; i < n; i++ {
		m := domain.StockMovement{ID: int64(i + 1), ProductID: 1}
		switch i % 4 {
		case 0, 1:
			m.Type, m.Quantity = domain.MovementInbound, 10
		case 2:
			m.Type, m.Quantity = domain.MovementOutbound, 5
			if m.Quantity > qty {
				m.Quantity = qty
			}
		case 3:
			m.Type, m.Quantity = domain.MovementAdjustment, qty+1
		}
		if m.Quantity == 0 {
			m.Type, m.Quantity = domain.MovementInbound, 1
		}
		qty += domain.Delta(m.Type, m.Quantity, qty)
		movements = append(movements, m)
	}
	return movements
}

// saleItems builds n sale lines with distinct prices
func saleItems(n int) []domain.SaleItem {
	items := make([]domain.SaleItem, n)
	for i := range items {
		p := &domain.Product{
			ID:        int64(i + 1),
			Name:      fmt.Sprintf("Produto %d", i+1),
			SKU:       fmt.Sprintf("BENCH-%04d", i+1),
			SalePrice: decimal.New(int64(199+i), -2),
		}
		items[i] = domain.NewSaleItem(p, 1+i%3)
	}
	return items
}

// seedProducts creates count products with the given opening stock
func seedProducts(b *testing.B, catalog ports.CatalogService, count, stock int) []int64 {
	b.Helper()

	ctx := context.Background()
	ids := make([]int64, 0, count)
	for _, p := range helpers.NewTestProducts(count) {
		p.Quantity = stock
		if err := catalog.CreateProduct(ctx, p); err != nil {
			b.Fatalf("failed to seed product %s: %v", p.SKU, err)
		}
		ids = append(ids, p.ID)
	}
	return ids
}
