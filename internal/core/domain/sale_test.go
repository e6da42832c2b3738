package domain_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ammerola/gestor-be/internal/core/domain"
)

func TestNewSaleItem_SnapshotsProduct(t *testing.T) {
	product := &domain.Product{
		ID:        3,
		Name:      "Arroz 5kg",
		SKU:       "ARZ-5",
		SalePrice: decimal.RequireFromString("27.90"),
	}

	item := domain.NewSaleItem(product, 3)

	assert.Equal(t, int64(3), item.ProductID)
	assert.Equal(t, "Arroz 5kg", item.ProductName)
	assert.Equal(t, "ARZ-5", item.ProductSKU)
	assert.Equal(t, 3, item.Quantity)
	assert.True(t, decimal.RequireFromString("27.90").Equal(item.UnitPrice))
	assert.True(t, decimal.RequireFromString("83.70").Equal(item.TotalPrice))

	product.Name = "Renamed"
	product.SalePrice = decimal.NewFromInt(1)
	assert.Equal(t, "Arroz 5kg", item.ProductName)
	assert.True(t, decimal.RequireFromString("27.90").Equal(item.UnitPrice))
}

func TestSumItems(t *testing.T) {
	p := &domain.Product{ID: 1, SalePrice: decimal.RequireFromString("10.50")}
	q := &domain.Product{ID: 2, SalePrice: decimal.RequireFromString("3.25")}

	items := []domain.SaleItem{domain.NewSaleItem(p, 2), domain.NewSaleItem(q, 1)}

	assert.True(t, decimal.RequireFromString("24.25").Equal(domain.SumItems(items)))
	assert.True(t, decimal.Zero.Equal(domain.SumItems(nil)))
}

func TestSaleMovementReason(t *testing.T) {
	assert.Equal(t, "Venda #42", domain.SaleMovementReason(42))
}

func TestCheckoutRequest_Validate(t *testing.T) {
	tests := []struct {
		name      string
		req       domain.CheckoutRequest
		wantError bool
	}{
		{
			name: "valid_cart",
			req: domain.CheckoutRequest{
				Items:         []domain.CartLine{{ProductID: 1, Quantity: 2}},
				PaymentMethod: domain.PaymentPix,
				Actor:         "user-1",
			},
		},
		{
			name: "empty_cart",
			req: domain.CheckoutRequest{
				PaymentMethod: domain.PaymentPix,
				Actor:         "user-1",
			},
			wantError: true,
		},
		{
			name: "zero_quantity_line",
			req: domain.CheckoutRequest{
				Items:         []domain.CartLine{{ProductID: 1, Quantity: 2}, {ProductID: 2, Quantity: 0}},
				PaymentMethod: domain.PaymentCash,
				Actor:         "user-1",
			},
			wantError: true,
		},
		{
			name: "repeated_lines_within_max_quantity",
			req: domain.CheckoutRequest{
				Items:         []domain.CartLine{{ProductID: 1, Quantity: domain.MaxQuantity - 2}, {ProductID: 1, Quantity: 2}},
				PaymentMethod: domain.PaymentCash,
				Actor:         "user-1",
			},
		},
		{
			name: "repeated_lines_past_max_quantity",
			req: domain.CheckoutRequest{
				Items:         []domain.CartLine{{ProductID: 1, Quantity: domain.MaxQuantity}, {ProductID: 1, Quantity: 2}},
				PaymentMethod: domain.PaymentCash,
				Actor:         "user-1",
			},
			wantError: true,
		},
		{
			name: "line_past_max_quantity",
			req: domain.CheckoutRequest{
				Items:         []domain.CartLine{{ProductID: 1, Quantity: domain.MaxQuantity + 1}},
				PaymentMethod: domain.PaymentCash,
				Actor:         "user-1",
			},
			wantError: true,
		},
		{
			name: "unknown_payment_method",
			req: domain.CheckoutRequest{
				Items:         []domain.CartLine{{ProductID: 1, Quantity: 1}},
				PaymentMethod: "boleto",
				Actor:         "user-1",
			},
			wantError: true,
		},
		{
			name: "missing_actor",
			req: domain.CheckoutRequest{
				Items:         []domain.CartLine{{ProductID: 1, Quantity: 1}},
				PaymentMethod: domain.PaymentCredit,
			},
			wantError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantError {
				require.Error(t, err)
				assert.True(t, errors.Is(err, domain.ErrInvalidArgument))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCheckoutRequest_RequestedByProduct(t *testing.T) {
	req := domain.CheckoutRequest{Items: []domain.CartLine{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
		{ProductID: 1, Quantity: 3},
	}}

	assert.Equal(t, map[int64]int{1: 5, 2: 1}, req.RequestedByProduct())
}

func TestInsufficientStockError(t *testing.T) {
	err := error(&domain.InsufficientStockError{ProductID: 1, ProductName: "Feijão", Available: 1, Requested: 2})

	assert.True(t, errors.Is(err, domain.ErrInsufficientStock))
	assert.Contains(t, err.Error(), "Feijão")
	assert.Equal(t, "insufficient_stock", domain.ErrorCode(err))

	var stockErr *domain.InsufficientStockError
	require.True(t, errors.As(err, &stockErr))
	assert.Equal(t, 2, stockErr.Requested)
}

func TestErrorCode(t *testing.T) {
	assert.Equal(t, "invalid_argument", domain.ErrorCode(domain.NewInvalidArgument("bad %s", "input")))
	assert.Equal(t, "not_found", domain.ErrorCode(domain.NewProductNotFound(9)))
	assert.Equal(t, "not_found", domain.ErrorCode(domain.ErrSaleNotFound))
	assert.Equal(t, "already_exists", domain.ErrorCode(domain.ErrAlreadyExists))
	assert.Equal(t, "failed_precondition", domain.ErrorCode(domain.ErrProductInUse))
	assert.Equal(t, "internal", domain.ErrorCode(errors.New("boom")))
	assert.Equal(t, "", domain.ErrorCode(nil))
}
