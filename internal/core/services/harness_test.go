package services_test

import (
	"context"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
	"github.com/ammerola/gestor-be/test/mocks"
)

// harness wires repository mocks behind a store mock whose InTx runs the
// callback directly.
type harness struct {
	store     *mocks.MockStore
	products  *mocks.MockProductRepository
	movements *mocks.MockMovementRepository
	sales     *mocks.MockSaleRepository
	cache     *mocks.MockCacheRepository
	repos     ports.Repositories
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	ctrl := gomock.NewController(t)
	h := &harness{
		store:     mocks.NewMockStore(ctrl),
		products:  mocks.NewMockProductRepository(ctrl),
		movements: mocks.NewMockMovementRepository(ctrl),
		sales:     mocks.NewMockSaleRepository(ctrl),
		cache:     mocks.NewMockCacheRepository(ctrl),
	}
	h.repos = ports.Repositories{
		Products:  h.products,
		Movements: h.movements,
		Sales:     h.sales,
	}
	return h
}

func (h *harness) expectTx() {
	h.store.EXPECT().
		InTx(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, fn func(context.Context, ports.Repositories) error) error {
			return fn(ctx, h.repos)
		})
}

func (h *harness) expectPool() {
	h.store.EXPECT().Repositories().Return(h.repos).AnyTimes()
}

// stockBook backs the product and movement mocks with in-memory state so a
// sequence of ledger calls sees its own writes.
type stockBook struct {
	products  map[int64]*domain.Product
	locked    []int64
	movements []domain.StockMovement
	sales     []*domain.Sale
}

func newStockBook(products ...*domain.Product) *stockBook {
	b := &stockBook{products: make(map[int64]*domain.Product, len(products))}
	for _, p := range products {
		b.products[p.ID] = p
	}
	return b
}

func (b *stockBook) bind(h *harness) {
	h.products.EXPECT().
		FindByIDForUpdate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id int64) (*domain.Product, error) {
			b.locked = append(b.locked, id)
			p, ok := b.products[id]
			if !ok {
				return nil, nil
			}
			cp := *p
			return &cp, nil
		}).AnyTimes()

	h.products.EXPECT().
		SetQuantity(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, id int64, qty int) error {
			b.products[id].Quantity = qty
			return nil
		}).AnyTimes()

	h.movements.EXPECT().
		Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, m *domain.StockMovement) error {
			m.ID = int64(len(b.movements) + 1)
			b.movements = append(b.movements, *m)
			return nil
		}).AnyTimes()
}

func (b *stockBook) quantity(id int64) int {
	return b.products[id].Quantity
}
