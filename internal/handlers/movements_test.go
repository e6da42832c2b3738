// internal/handlers/movements_test.go
package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/gestor-be/internal/core/domain"
)

func TestMovementHandler_RecordMovement(t *testing.T) {
	tests := []struct {
		name           string
		body           interface{}
		setupMocks     func(a *api)
		expectedStatus int
		expectedCode   string
	}{
		{
			name: "records_inbound",
			body: map[string]interface{}{"productId": 1, "type": "entrada", "quantity": 10, "reason": "Compra fornecedor"},
			setupMocks: func(a *api) {
				a.ledger.EXPECT().RecordMovement(gomock.Any(), gomock.Any()).
					DoAndReturn(func(_ context.Context, req domain.MovementRequest) (*domain.StockMovement, error) {
						assert.Equal(t, int64(1), req.ProductID)
						assert.Equal(t, domain.MovementInbound, req.Type)
						assert.Equal(t, 10, req.Quantity)
						require.NotNil(t, req.Reason)
						return &domain.StockMovement{ID: 5, ProductID: 1, Type: req.Type, Quantity: 10, Reason: req.Reason}, nil
					})
			},
			expectedStatus: http.StatusOK,
		},
		{
			name: "outbound_beyond_stock",
			body: map[string]interface{}{"productId": 1, "type": "saida", "quantity": 50},
			setupMocks: func(a *api) {
				a.ledger.EXPECT().RecordMovement(gomock.Any(), gomock.Any()).
					Return(nil, &domain.InsufficientStockError{ProductID: 1, ProductName: "Arroz Integral 1kg", Available: 10, Requested: 50})
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "insufficient_stock",
		},
		{
			name: "unknown_product",
			body: map[string]interface{}{"productId": 99, "type": "entrada", "quantity": 1},
			setupMocks: func(a *api) {
				a.ledger.EXPECT().RecordMovement(gomock.Any(), gomock.Any()).Return(nil, domain.NewProductNotFound(99))
			},
			expectedStatus: http.StatusNotFound,
			expectedCode:   "not_found",
		},
		{
			name: "invalid_type",
			body: map[string]interface{}{"productId": 1, "type": "transferencia", "quantity": 1},
			setupMocks: func(a *api) {
				a.ledger.EXPECT().RecordMovement(gomock.Any(), gomock.Any()).
					Return(nil, domain.NewInvalidArgument("type must be one of entrada, saida, ajuste"))
			},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_argument",
		},
		{
			name:           "unknown_field",
			body:           map[string]interface{}{"productId": 1, "type": "entrada", "qty": 1},
			setupMocks:     func(a *api) {},
			expectedStatus: http.StatusBadRequest,
			expectedCode:   "invalid_argument",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAPI(t)
			tt.setupMocks(a)

			w := a.do(t, http.MethodPost, "/products/stock-movements", tt.body)
			assert.Equal(t, tt.expectedStatus, w.Code)
			if tt.expectedCode != "" {
				assert.Equal(t, tt.expectedCode, decodeError(t, w).Code)
			}
		})
	}
}

func TestMovementHandler_InsufficientStockNamesProduct(t *testing.T) {
	a := newAPI(t)
	a.ledger.EXPECT().RecordMovement(gomock.Any(), gomock.Any()).
		Return(nil, &domain.InsufficientStockError{ProductID: 1, ProductName: "Arroz Integral 1kg"})

	w := a.do(t, http.MethodPost, "/products/stock-movements",
		map[string]interface{}{"productId": 1, "type": "saida", "quantity": 50})
	assert.Contains(t, decodeError(t, w).Error, "Arroz Integral 1kg")
}

func TestMovementHandler_RequiresActor(t *testing.T) {
	a := newAPI(t)

	req := httptest.NewRequest(http.MethodPost, "/products/stock-movements",
		strings.NewReader(`{"productId":1,"type":"entrada","quantity":1}`))
	w := httptest.NewRecorder()
	a.handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMovementHandler_ListMovements(t *testing.T) {
	t.Run("filters_and_wraps", func(t *testing.T) {
		a := newAPI(t)
		now := time.Now().UTC()
		a.ledger.EXPECT().ListMovements(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, f domain.MovementFilter) ([]domain.StockMovement, error) {
				assert.Equal(t, int64(4), f.ProductID)
				assert.Equal(t, domain.MovementOutbound, f.Type)
				require.NotNil(t, f.From)
				assert.Equal(t, 2026, f.From.Year())
				assert.Equal(t, 100, f.Limit)
				return []domain.StockMovement{
					{ID: 2, ProductID: 4, Type: domain.MovementOutbound, Quantity: 1, CreatedAt: now},
					{ID: 1, ProductID: 4, Type: domain.MovementOutbound, Quantity: 3, CreatedAt: now.Add(-time.Hour)},
				}, nil
			})

		w := a.do(t, http.MethodGet, "/products/stock-movements?productId=4&type=saida&from=2026-01-01", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Movements []domain.StockMovement `json:"movements"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Movements, 2)
		assert.Equal(t, int64(2), resp.Movements[0].ID)
	})

	t.Run("empty_result_is_an_array", func(t *testing.T) {
		a := newAPI(t)
		a.ledger.EXPECT().ListMovements(gomock.Any(), gomock.Any()).Return(nil, nil)

		w := a.do(t, http.MethodGet, "/products/stock-movements", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"movements": []}`, w.Body.String())
	})

	for _, query := range []string{"productId=abc", "productId=-1", "type=roubo", "from=ontem"} {
		t.Run("rejects_"+query, func(t *testing.T) {
			a := newAPI(t)
			w := a.do(t, http.MethodGet, "/products/stock-movements?"+query, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
}
