// internal/handlers/products_test.go
package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
	"github.com/ammerola/gestor-be/test/helpers"
)

func TestProductHandler_CreateProduct(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMocks     func(a *api)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "creates_product_with_opening_stock",
			body: map[string]interface{}{
				"name": "Arroz Integral 1kg", "sku": "ARZ-INT-1KG",
				"costPrice": "4.20", "salePrice": "6.90", "quantity": 12, "minStock": 5,
			},
			setupMocks: func(a *api) {
				a.catalog.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, p *domain.Product) error {
						assert.Equal(t, 12, p.Quantity)
						assert.True(t, p.SalePrice.Equal(decimal.RequireFromString("6.90")))
						p.ID = 7
						return nil
					})
			},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "malformed_body",
			body:           `{"name":`,
			setupMocks:     func(a *api) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_argument",
		},
		{
			name: "duplicate_sku",
			body: map[string]interface{}{"name": "Arroz", "sku": "ARZ-INT-1KG", "salePrice": "6.90"},
			setupMocks: func(a *api) {
				a.catalog.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).
					Return(fmt.Errorf("%w: sku ARZ-INT-1KG", domain.ErrAlreadyExists))
			},
			expectedStatus: http.StatusConflict,
			expectedCode:   "already_exists",
		},
		{
			name: "validation_failure",
			body: map[string]interface{}{"sku": "ARZ-INT-1KG"},
			setupMocks: func(a *api) {
				a.catalog.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).
					Return(domain.NewInvalidArgument("name is required"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAPI(t)
			tt.setupMocks(a)

			w := a.do(t, http.MethodPost, "/products", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)

			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
				return
			}

			var created domain.Product
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
			assert.Equal(t, int64(7), created.ID)
		})
	}
}

func TestProductHandler_ValidationMessage(t *testing.T) {
	a := newAPI(t)
	a.catalog.EXPECT().CreateProduct(gomock.Any(), gomock.Any()).
		Return(domain.NewInvalidArgument("name is required"))

	w := a.do(t, http.MethodPost, "/products", map[string]interface{}{"sku": "X"})
	assert.Equal(t, "name is required", decodeError(t, w).Error)
}

func TestProductHandler_GetProduct(t *testing.T) {
	product := helpers.NewTestProduct(func(p *domain.Product) { p.ID = 3 })

	tests := []struct {
		name           string
		path           string
		setupMocks     func(a *api)
		expectedStatus int
	}{
		{
			name: "found",
			path: "/products/3",
			setupMocks: func(a *api) {
				a.catalog.EXPECT().GetProduct(gomock.Any(), int64(3)).Return(product, nil)
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "invalid_id",
			path:           "/products/abc",
			setupMocks:     func(a *api) {},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "not_found",
			path: "/products/99",
			setupMocks: func(a *api) {
				a.catalog.EXPECT().GetProduct(gomock.Any(), int64(99)).Return(nil, domain.NewProductNotFound(99))
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "internal_error_is_hidden",
			path: "/products/3",
			setupMocks: func(a *api) {
				a.catalog.EXPECT().GetProduct(gomock.Any(), int64(3)).Return(nil, errors.New("pool exhausted"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAPI(t)
			tt.setupMocks(a)

			w := a.do(t, http.MethodGet, tt.path, nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedStatus == http.StatusInternalServerError {
				assert.NotContains(t, w.Body.String(), "pool exhausted")
			}
		})
	}
}

func TestProductHandler_ListProducts(t *testing.T) {
	a := newAPI(t)
	a.catalog.EXPECT().ListProducts(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, p ports.ListParams) (*ports.ProductList, error) {
			assert.Equal(t, "arroz", p.Search)
			assert.Equal(t, "mercearia", p.Category)
			assert.True(t, p.LowStock)
			assert.Equal(t, 2, p.Page)
			assert.Equal(t, 10, p.PageSize)
			assert.Equal(t, "name", p.SortBy)
			return &ports.ProductList{Products: []domain.Product{}, Page: 2, PageSize: 10}, nil
		})

	w := a.do(t, http.MethodGet, "/products?search=arroz&category=mercearia&lowStock=true&page=2&pageSize=10&sort=name", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = a.do(t, http.MethodGet, "/products?lowStock=maybe", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProductHandler_UpdateProduct(t *testing.T) {
	t.Run("partial_update", func(t *testing.T) {
		a := newAPI(t)
		a.catalog.EXPECT().UpdateProduct(gomock.Any(), int64(3), gomock.Any()).
			DoAndReturn(func(_ context.Context, _ int64, u domain.ProductUpdate) (*domain.Product, error) {
				require.NotNil(t, u.SalePrice)
				assert.True(t, u.SalePrice.Equal(decimal.RequireFromString("7.50")))
				assert.Nil(t, u.Name)
				return helpers.NewTestProduct(), nil
			})

		w := a.do(t, http.MethodPut, "/products/3", map[string]interface{}{"salePrice": "7.50"})
		assert.Equal(t, http.StatusOK, w.Code)
	})

	t.Run("quantity_is_not_editable", func(t *testing.T) {
		a := newAPI(t)
		w := a.do(t, http.MethodPut, "/products/3", map[string]interface{}{"quantity": 100})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestProductHandler_DeleteProduct(t *testing.T) {
	tests := []struct {
		name           string
		err            error
		expectedStatus int
	}{
		{name: "deleted", expectedStatus: http.StatusNoContent},
		{name: "referenced", err: domain.ErrProductInUse, expectedStatus: http.StatusConflict},
		{name: "missing", err: domain.NewProductNotFound(3), expectedStatus: http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAPI(t)
			a.catalog.EXPECT().DeleteProduct(gomock.Any(), int64(3)).Return(tt.err)

			w := a.do(t, http.MethodDelete, "/products/3", nil)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestProductHandler_LowStock(t *testing.T) {
	a := newAPI(t)
	a.catalog.EXPECT().LowStock(gomock.Any()).Return(nil, nil)

	w := a.do(t, http.MethodGet, "/products/low-stock", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"products": []}`, w.Body.String())
}

func TestProductHandler_Reconciliation(t *testing.T) {
	a := newAPI(t)
	a.ledger.EXPECT().Reconcile(gomock.Any(), int64(3)).
		Return(&domain.Reconciliation{ProductID: 3, StoredQuantity: 8, LedgerQuantity: 8, Movements: 2, Consistent: true}, nil)

	w := a.do(t, http.MethodGet, "/products/3/reconciliation", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var report domain.Reconciliation
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.True(t, report.Consistent)
	assert.Equal(t, 2, report.Movements)
}
