// internal/handlers/sales.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
	"github.com/ammerola/gestor-be/internal/pkg/logger"
)

// SaleHandler handles checkout and sale HTTP requests
type SaleHandler struct {
	checkout ports.CheckoutService
	logger   *slog.Logger
}

// NewSaleHandler creates a new sale handler
func NewSaleHandler(checkout ports.CheckoutService, logger *slog.Logger) *SaleHandler {
	return &SaleHandler{
		checkout: checkout,
		logger:   logger.With(slog.String("handler", "sales")),
	}
}

// CreateSale handles POST /sales. The response carries the sale header only.
func (h *SaleHandler) CreateSale(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateSaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "create sale")
		return
	}

	sale, err := h.checkout.Checkout(ctx, domain.CheckoutRequest{
		Items:         req.Items,
		PaymentMethod: req.PaymentMethod,
		Actor:         logger.UserIDFromContext(ctx),
	})
	if err != nil {
		respondDomainError(w, r, h.logger, err, "create sale")
		return
	}

	h.logger.InfoContext(ctx, "sale created",
		slog.Int64("sale_id", sale.ID),
		slog.String("total", sale.TotalAmount.StringFixed(2)),
		slog.String("payment_method", string(sale.PaymentMethod)),
		slog.Int("items", len(sale.Items)))

	header := *sale
	header.Items = nil
	respondJSON(w, h.logger, http.StatusOK, header)
}

// GetSale handles GET /sales/{id}
func (h *SaleHandler) GetSale(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "get sale")
		return
	}

	sale, err := h.checkout.GetSale(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "get sale")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, sale)
}

// ListSales handles GET /sales
func (h *SaleHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := domain.SaleFilter{
		UserID:        q.Get("userId"),
		PaymentMethod: domain.PaymentMethod(q.Get("paymentMethod")),
		Status:        domain.SaleStatus(q.Get("status")),
	}

	var err error
	if filter.From, err = queryTime(r, "from"); err != nil {
		respondDomainError(w, r, h.logger, err, "list sales")
		return
	}
	if filter.To, err = queryTime(r, "to"); err != nil {
		respondDomainError(w, r, h.logger, err, "list sales")
		return
	}

	params := ports.ListParams{
		Page:     queryInt(r, "page", 1),
		PageSize: queryInt(r, "pageSize", 50),
	}

	result, err := h.checkout.ListSales(r.Context(), filter, params)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "list sales")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// CreateSaleRequest is the body of POST /sales
type CreateSaleRequest struct {
	Items         []domain.CartLine    `json:"items"`
	PaymentMethod domain.PaymentMethod `json:"paymentMethod"`
}
