package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/services"
	"github.com/ammerola/gestor-be/test/helpers"
)

func stockedProduct(id int64, qty int) *domain.Product {
	return helpers.NewTestProduct(func(p *domain.Product) {
		p.ID = id
		p.Quantity = qty
	})
}

func TestLedgerService_RecordMovement(t *testing.T) {
	tests := []struct {
		name          string
		stock         int
		req           domain.MovementRequest
		expectedQty   int
		expectedError error
		errorContains string
	}{
		{
			name:        "inbound_adds_to_stock",
			stock:       10,
			req:         domain.MovementRequest{ProductID: 1, Type: domain.MovementInbound, Quantity: 5},
			expectedQty: 15,
		},
		{
			name:        "outbound_removes_from_stock",
			stock:       10,
			req:         domain.MovementRequest{ProductID: 1, Type: domain.MovementOutbound, Quantity: 3},
			expectedQty: 7,
		},
		{
			name:        "outbound_can_empty_stock",
			stock:       4,
			req:         domain.MovementRequest{ProductID: 1, Type: domain.MovementOutbound, Quantity: 4},
			expectedQty: 0,
		},
		{
			name:        "adjustment_sets_absolute_quantity",
			stock:       10,
			req:         domain.MovementRequest{ProductID: 1, Type: domain.MovementAdjustment, Quantity: 4, Reason: helpers.StrPtr("contagem")},
			expectedQty: 4,
		},
		{
			name:          "outbound_beyond_stock_is_rejected",
			stock:         2,
			req:           domain.MovementRequest{ProductID: 1, Type: domain.MovementOutbound, Quantity: 5},
			expectedQty:   2,
			expectedError: domain.ErrInsufficientStock,
		},
		{
			name:          "inbound_past_max_quantity_is_rejected",
			stock:         domain.MaxQuantity - 1,
			req:           domain.MovementRequest{ProductID: 1, Type: domain.MovementInbound, Quantity: 2},
			expectedQty:   domain.MaxQuantity - 1,
			expectedError: domain.ErrInvalidArgument,
		},
		{
			name:          "unknown_product",
			stock:         1,
			req:           domain.MovementRequest{ProductID: 99, Type: domain.MovementInbound, Quantity: 1},
			expectedQty:   1,
			expectedError: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			book := newStockBook(stockedProduct(1, tt.stock))
			book.bind(h)
			h.expectTx()
			if tt.expectedError == nil {
				h.cache.EXPECT().Delete(gomock.Any(), "product:1", "products:low_stock").Return(nil)
			}

			svc := services.NewLedgerService(h.store, h.cache, helpers.TestLogger())
			movement, err := svc.RecordMovement(context.Background(), tt.req)

			assert.Equal(t, tt.expectedQty, book.quantity(1))
			if tt.expectedError != nil {
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, movement)
				assert.Empty(t, book.movements)
				return
			}

			require.NoError(t, err)
			require.Len(t, book.movements, 1)
			assert.Equal(t, tt.req.Type, movement.Type)
			assert.Equal(t, tt.req.Quantity, movement.Quantity)
			assert.Equal(t, int64(1), movement.ID)
		})
	}
}

func TestLedgerService_RecordMovement_InsufficientStockDetails(t *testing.T) {
	h := newHarness(t)
	book := newStockBook(stockedProduct(1, 2))
	book.bind(h)
	h.expectTx()

	svc := services.NewLedgerService(h.store, nil, helpers.TestLogger())
	_, err := svc.RecordMovement(context.Background(), domain.MovementRequest{
		ProductID: 1, Type: domain.MovementOutbound, Quantity: 5,
	})

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 5, stockErr.Requested)
	assert.Equal(t, "Arroz Integral 1kg", stockErr.ProductName)
}

func TestLedgerService_RecordMovement_Validation(t *testing.T) {
	tests := []struct {
		name          string
		req           domain.MovementRequest
		errorContains string
	}{
		{
			name:          "missing_product",
			req:           domain.MovementRequest{Type: domain.MovementInbound, Quantity: 1},
			errorContains: "productId is required",
		},
		{
			name:          "unknown_type",
			req:           domain.MovementRequest{ProductID: 1, Type: "transferencia", Quantity: 1},
			errorContains: "type must be one of",
		},
		{
			name:          "zero_quantity",
			req:           domain.MovementRequest{ProductID: 1, Type: domain.MovementInbound},
			errorContains: "quantity must be positive",
		},
		{
			name:          "negative_adjustment",
			req:           domain.MovementRequest{ProductID: 1, Type: domain.MovementAdjustment, Quantity: -3},
			errorContains: "quantity must be positive",
		},
		{
			name:          "quantity_beyond_column_range",
			req:           domain.MovementRequest{ProductID: 1, Type: domain.MovementInbound, Quantity: 3_000_000_000},
			errorContains: "quantity cannot exceed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			svc := services.NewLedgerService(h.store, h.cache, helpers.TestLogger())

			_, err := svc.RecordMovement(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidArgument)
			assert.Contains(t, err.Error(), tt.errorContains)
		})
	}
}

func TestLedgerService_RecordMovement_WriteFailureRollsBack(t *testing.T) {
	h := newHarness(t)
	h.expectTx()
	h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(1)).Return(stockedProduct(1, 10), nil)
	h.movements.EXPECT().Create(gomock.Any(), gomock.Any()).Return(errors.New("connection reset"))

	svc := services.NewLedgerService(h.store, h.cache, helpers.TestLogger())
	_, err := svc.RecordMovement(context.Background(), domain.MovementRequest{
		ProductID: 1, Type: domain.MovementInbound, Quantity: 1,
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestLedgerService_RecordMovement_CacheFailureIsIgnored(t *testing.T) {
	h := newHarness(t)
	book := newStockBook(stockedProduct(1, 1))
	book.bind(h)
	h.expectTx()
	h.cache.EXPECT().Delete(gomock.Any(), gomock.Any(), gomock.Any()).Return(errors.New("redis down"))

	svc := services.NewLedgerService(h.store, h.cache, helpers.TestLogger())
	_, err := svc.RecordMovement(context.Background(), domain.MovementRequest{
		ProductID: 1, Type: domain.MovementInbound, Quantity: 1,
	})

	require.NoError(t, err)
	assert.Equal(t, 2, book.quantity(1))
}

func TestLedgerService_LockPrecedesWrites(t *testing.T) {
	h := newHarness(t)
	h.expectTx()

	gomock.InOrder(
		h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(3)).Return(stockedProduct(3, 8), nil),
		h.movements.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil),
		h.products.EXPECT().SetQuantity(gomock.Any(), int64(3), 6).Return(nil),
	)

	svc := services.NewLedgerService(h.store, nil, helpers.TestLogger())
	_, err := svc.RecordMovement(context.Background(), domain.MovementRequest{
		ProductID: 3, Type: domain.MovementOutbound, Quantity: 2,
	})
	require.NoError(t, err)
}

func TestLedgerService_ListMovements(t *testing.T) {
	from := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	to := from.Add(24 * time.Hour)

	t.Run("passes_filter_to_repository", func(t *testing.T) {
		h := newHarness(t)
		h.expectPool()

		filter := domain.MovementFilter{ProductID: 2, Type: domain.MovementOutbound, From: &from, To: &to}
		h.movements.EXPECT().FindAll(gomock.Any(), filter).Return([]domain.StockMovement{
			{ID: 5, ProductID: 2, Type: domain.MovementOutbound, Quantity: 1},
		}, nil)

		svc := services.NewLedgerService(h.store, nil, helpers.TestLogger())
		movements, err := svc.ListMovements(context.Background(), filter)
		require.NoError(t, err)
		assert.Len(t, movements, 1)
	})

	t.Run("rejects_unknown_type", func(t *testing.T) {
		h := newHarness(t)
		svc := services.NewLedgerService(h.store, nil, helpers.TestLogger())

		_, err := svc.ListMovements(context.Background(), domain.MovementFilter{Type: "perda"})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})

	t.Run("rejects_inverted_range", func(t *testing.T) {
		h := newHarness(t)
		svc := services.NewLedgerService(h.store, nil, helpers.TestLogger())

		_, err := svc.ListMovements(context.Background(), domain.MovementFilter{From: &to, To: &from})
		assert.ErrorIs(t, err, domain.ErrInvalidArgument)
	})
}

func TestLedgerService_Reconcile(t *testing.T) {
	history := []domain.StockMovement{
		{ProductID: 1, Type: domain.MovementInbound, Quantity: 10},
		{ProductID: 1, Type: domain.MovementOutbound, Quantity: 3},
		{ProductID: 1, Type: domain.MovementAdjustment, Quantity: 5},
		{ProductID: 1, Type: domain.MovementOutbound, Quantity: 1},
	}

	tests := []struct {
		name       string
		stored     int
		consistent bool
	}{
		{name: "matching_ledger", stored: 4, consistent: true},
		{name: "drifted_stock", stored: 9, consistent: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.expectTx()
			h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(1)).Return(stockedProduct(1, tt.stored), nil)
			h.movements.EXPECT().FindByProduct(gomock.Any(), int64(1)).Return(history, nil)

			svc := services.NewLedgerService(h.store, nil, helpers.TestLogger())
			report, err := svc.Reconcile(context.Background(), 1)
			require.NoError(t, err)

			assert.Equal(t, tt.consistent, report.Consistent)
			assert.Equal(t, 4, report.LedgerQuantity)
			assert.Equal(t, tt.stored, report.StoredQuantity)
			assert.Equal(t, 4, report.Movements)
		})
	}

	t.Run("unknown_product", func(t *testing.T) {
		h := newHarness(t)
		h.expectTx()
		h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(7)).Return(nil, nil)

		svc := services.NewLedgerService(h.store, nil, helpers.TestLogger())
		_, err := svc.Reconcile(context.Background(), 7)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})
}

func TestLedgerService_ReconcileAll(t *testing.T) {
	h := newHarness(t)
	h.expectPool()
	h.products.EXPECT().ListIDs(gomock.Any()).Return([]int64{1, 2, 3}, nil)

	for i := 0; i < 3; i++ {
		h.expectTx()
	}

	h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(1)).Return(stockedProduct(1, 5), nil)
	h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(2)).Return(nil, nil)
	h.products.EXPECT().FindByIDForUpdate(gomock.Any(), int64(3)).Return(stockedProduct(3, 1), nil)
	h.movements.EXPECT().FindByProduct(gomock.Any(), int64(1)).Return([]domain.StockMovement{
		{ProductID: 1, Type: domain.MovementInbound, Quantity: 5},
	}, nil)
	h.movements.EXPECT().FindByProduct(gomock.Any(), int64(3)).Return([]domain.StockMovement{
		{ProductID: 3, Type: domain.MovementInbound, Quantity: 2},
	}, nil)

	svc := services.NewLedgerService(h.store, nil, helpers.TestLogger())
	reports, err := svc.ReconcileAll(context.Background())
	require.NoError(t, err)

	require.Len(t, reports, 2)
	assert.Equal(t, int64(1), reports[0].ProductID)
	assert.True(t, reports[0].Consistent)
	assert.Equal(t, int64(3), reports[1].ProductID)
	assert.False(t, reports[1].Consistent)
}

func TestLedgerService_ReconcileAll_StopsOnCancel(t *testing.T) {
	h := newHarness(t)
	h.expectPool()
	h.products.EXPECT().ListIDs(gomock.Any()).Return([]int64{1, 2}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := services.NewLedgerService(h.store, nil, helpers.TestLogger())
	reports, err := svc.ReconcileAll(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, reports)
}
