package services_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
	"github.com/ammerola/gestor-be/internal/core/services"
	"github.com/ammerola/gestor-be/test/helpers"
	"github.com/ammerola/gestor-be/test/mocks"
)

func TestCatalogService_CreateProduct(t *testing.T) {
	tests := []struct {
		name          string
		product       *domain.Product
		setupMocks    func(*harness, *mocks.MockTxLedger)
		expectedQty   int
		expectedError error
		errorContains string
	}{
		{
			name: "opening_stock_goes_through_ledger",
			product: helpers.NewTestProduct(func(p *domain.Product) {
				p.Quantity = 12
			}),
			setupMocks: func(h *harness, ledger *mocks.MockTxLedger) {
				h.expectTx()
				h.products.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p *domain.Product) error {
						assert.Equal(t, 0, p.Quantity, "product row is created empty")
						p.ID = 7
						return nil
					})
				ledger.EXPECT().
					RecordInTx(gomock.Any(), gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, _ ports.Repositories, req domain.MovementRequest) (*domain.StockMovement, error) {
						assert.Equal(t, int64(7), req.ProductID)
						assert.Equal(t, domain.MovementInbound, req.Type)
						assert.Equal(t, 12, req.Quantity)
						if assert.NotNil(t, req.Reason) {
							assert.Equal(t, services.OpeningStockReason, *req.Reason)
						}
						return &domain.StockMovement{ID: 1}, nil
					})
				h.cache.EXPECT().Delete(gomock.Any(), "products:low_stock").Return(nil)
			},
			expectedQty: 12,
		},
		{
			name:    "zero_opening_stock_writes_no_movement",
			product: helpers.NewTestProduct(),
			setupMocks: func(h *harness, ledger *mocks.MockTxLedger) {
				h.expectTx()
				h.products.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
				h.cache.EXPECT().Delete(gomock.Any(), "products:low_stock").Return(nil)
			},
			expectedQty: 0,
		},
		{
			name: "duplicate_sku",
			product: helpers.NewTestProduct(func(p *domain.Product) {
				p.Quantity = 3
			}),
			setupMocks: func(h *harness, ledger *mocks.MockTxLedger) {
				h.expectTx()
				h.products.EXPECT().
					Create(gomock.Any(), gomock.Any()).
					Return(fmt.Errorf("%w: sku ARZ-INT-1KG", domain.ErrAlreadyExists))
			},
			expectedQty:   3,
			expectedError: domain.ErrAlreadyExists,
		},
		{
			name: "ledger_failure_aborts_creation",
			product: helpers.NewTestProduct(func(p *domain.Product) {
				p.Quantity = 2
			}),
			setupMocks: func(h *harness, ledger *mocks.MockTxLedger) {
				h.expectTx()
				h.products.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil)
				ledger.EXPECT().
					RecordInTx(gomock.Any(), gomock.Any(), gomock.Any()).
					Return(nil, errors.New("lock timeout"))
			},
			expectedQty:   2,
			errorContains: "failed to record opening stock",
		},
		{
			name: "missing_name",
			product: helpers.NewTestProduct(func(p *domain.Product) {
				p.Name = "  "
			}),
			setupMocks:    func(h *harness, ledger *mocks.MockTxLedger) {},
			expectedError: domain.ErrInvalidArgument,
			errorContains: "name is required",
		},
		{
			name: "negative_price",
			product: helpers.NewTestProduct(func(p *domain.Product) {
				p.SalePrice = decimal.NewFromInt(-1)
			}),
			setupMocks:    func(h *harness, ledger *mocks.MockTxLedger) {},
			expectedError: domain.ErrInvalidArgument,
			errorContains: "salePrice cannot be negative",
		},
		{
			name: "negative_opening_stock",
			product: helpers.NewTestProduct(func(p *domain.Product) {
				p.Quantity = -1
			}),
			setupMocks:    func(h *harness, ledger *mocks.MockTxLedger) {},
			expectedQty:   -1,
			expectedError: domain.ErrInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			ledger := mocks.NewMockTxLedger(gomock.NewController(t))
			tt.setupMocks(h, ledger)

			svc := services.NewCatalogService(h.store, ledger, h.cache, helpers.TestLogger())
			err := svc.CreateProduct(context.Background(), tt.product)

			if tt.expectedError != nil || tt.errorContains != "" {
				require.Error(t, err)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
				if tt.errorContains != "" {
					assert.Contains(t, err.Error(), tt.errorContains)
				}
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.expectedQty, tt.product.Quantity)
		})
	}
}

func TestCatalogService_UpdateProduct(t *testing.T) {
	t.Run("edits_catalog_fields_only", func(t *testing.T) {
		h := newHarness(t)
		h.expectTx()
		h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(4)).Return(stockedProduct(4, 9), nil)
		h.products.EXPECT().
			Update(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, p *domain.Product) error {
				assert.Equal(t, "Arroz Parboilizado 1kg", p.Name)
				assert.Equal(t, 9, p.Quantity)
				return nil
			})
		h.cache.EXPECT().Delete(gomock.Any(), "product:4", "products:low_stock").Return(nil)

		svc := services.NewCatalogService(h.store, nil, h.cache, helpers.TestLogger())
		name := "Arroz Parboilizado 1kg"
		minStock := 3
		p, err := svc.UpdateProduct(context.Background(), 4, domain.ProductUpdate{Name: &name, MinStock: &minStock})
		require.NoError(t, err)
		assert.Equal(t, name, p.Name)
		assert.Equal(t, 3, p.MinStock)
	})

	t.Run("unknown_product", func(t *testing.T) {
		h := newHarness(t)
		h.expectTx()
		h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(4)).Return(nil, nil)

		svc := services.NewCatalogService(h.store, nil, h.cache, helpers.TestLogger())
		_, err := svc.UpdateProduct(context.Background(), 4, domain.ProductUpdate{})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("invalid_update", func(t *testing.T) {
		h := newHarness(t)
		h.expectTx()
		h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(4)).Return(stockedProduct(4, 1), nil)

		svc := services.NewCatalogService(h.store, nil, h.cache, helpers.TestLogger())
		empty := ""
		_, err := svc.UpdateProduct(context.Background(), 4, domain.ProductUpdate{SKU: &empty})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestCatalogService_DeleteProduct(t *testing.T) {
	tests := []struct {
		name          string
		setupMocks    func(*harness)
		expectedError error
	}{
		{
			name: "deletes_unreferenced_product",
			setupMocks: func(h *harness) {
				h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(5)).Return(stockedProduct(5, 0), nil)
				h.products.EXPECT().IsReferenced(gomock.Any(), int64(5)).Return(false, nil)
				h.products.EXPECT().Delete(gomock.Any(), int64(5)).Return(nil)
				h.cache.EXPECT().Delete(gomock.Any(), "product:5", "products:low_stock").Return(nil)
			},
		},
		{
			name: "refuses_product_with_history",
			setupMocks: func(h *harness) {
				h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(5)).Return(stockedProduct(5, 3), nil)
				h.products.EXPECT().IsReferenced(gomock.Any(), int64(5)).Return(true, nil)
			},
			expectedError: domain.ErrProductInUse,
		},
		{
			name: "unknown_product",
			setupMocks: func(h *harness) {
				h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(5)).Return(nil, nil)
			},
			expectedError: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.expectTx()
			tt.setupMocks(h)

			svc := services.NewCatalogService(h.store, nil, h.cache, helpers.TestLogger())
			err := svc.DeleteProduct(context.Background(), 5)
			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestCatalogService_GetProduct(t *testing.T) {
	t.Run("reads_through_cache", func(t *testing.T) {
		h := newHarness(t)
		h.expectPool()
		h.products.EXPECT().FindByID(gomock.Any(), int64(3)).Return(stockedProduct(3, 6), nil)
		h.cache.EXPECT().
			GetOrSet(gomock.Any(), "product:3", gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, dest any, fetch func() (any, error), _ time.Duration) error {
				v, err := fetch()
				if err != nil {
					return err
				}
				*dest.(*domain.Product) = *v.(*domain.Product)
				return nil
			})

		svc := services.NewCatalogService(h.store, nil, h.cache, helpers.TestLogger())
		p, err := svc.GetProduct(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, int64(3), p.ID)
		assert.Equal(t, 6, p.Quantity)
	})

	t.Run("cache_hit_skips_repository", func(t *testing.T) {
		h := newHarness(t)
		h.cache.EXPECT().
			GetOrSet(gomock.Any(), "product:3", gomock.Any(), gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ string, dest any, _ func() (any, error), _ time.Duration) error {
				*dest.(*domain.Product) = domain.Product{ID: 3, Name: "cached"}
				return nil
			})

		svc := services.NewCatalogService(h.store, nil, h.cache, helpers.TestLogger())
		p, err := svc.GetProduct(context.Background(), 3)
		require.NoError(t, err)
		assert.Equal(t, "cached", p.Name)
	})

	t.Run("without_cache", func(t *testing.T) {
		h := newHarness(t)
		h.expectPool()
		h.products.EXPECT().FindByID(gomock.Any(), int64(8)).Return(nil, nil)

		svc := services.NewCatalogService(h.store, nil, nil, helpers.TestLogger())
		_, err := svc.GetProduct(context.Background(), 8)
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})
}

func TestCatalogService_ListProducts(t *testing.T) {
	h := newHarness(t)
	h.expectPool()
	h.products.EXPECT().
		FindAll(gomock.Any(), domain.ProductFilter{
			Search:   "arroz",
			Category: "mercearia",
			LowStock: true,
			SortBy:   "name",
			Desc:     true,
			Limit:    10,
			Offset:   10,
		}).
		Return([]domain.Product{*stockedProduct(11, 1)}, int64(21), nil)

	svc := services.NewCatalogService(h.store, nil, nil, helpers.TestLogger())
	list, err := svc.ListProducts(context.Background(), ports.ListParams{
		Search:    "arroz",
		Category:  "mercearia",
		LowStock:  true,
		SortBy:    "name",
		SortOrder: "DESC",
		Page:      2,
		PageSize:  10,
	})
	require.NoError(t, err)

	assert.Len(t, list.Products, 1)
	assert.Equal(t, 2, list.Page)
	assert.Equal(t, int64(21), list.TotalCount)
	assert.Equal(t, 3, list.TotalPages)
}

func TestCatalogService_LowStock(t *testing.T) {
	t.Run("without_cache", func(t *testing.T) {
		h := newHarness(t)
		h.expectPool()
		h.products.EXPECT().FindLowStock(gomock.Any()).Return([]domain.Product{*stockedProduct(1, 2)}, nil)

		svc := services.NewCatalogService(h.store, nil, nil, helpers.TestLogger())
		products, err := svc.LowStock(context.Background())
		require.NoError(t, err)
		assert.Len(t, products, 1)
	})

	t.Run("empty_result_is_not_nil", func(t *testing.T) {
		h := newHarness(t)
		h.cache.EXPECT().
			GetOrSet(gomock.Any(), "products:low_stock", gomock.Any(), gomock.Any(), gomock.Any()).
			Return(nil)

		svc := services.NewCatalogService(h.store, nil, h.cache, helpers.TestLogger())
		products, err := svc.LowStock(context.Background())
		require.NoError(t, err)
		assert.NotNil(t, products)
		assert.Empty(t, products)
	})
}
