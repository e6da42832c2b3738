// internal/handlers/products.go
package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
)

// ProductHandler handles catalog HTTP requests
type ProductHandler struct {
	catalog ports.CatalogService
	ledger  ports.LedgerService
	logger  *slog.Logger
}

// NewProductHandler creates a new product handler
func NewProductHandler(catalog ports.CatalogService, ledger ports.LedgerService, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		catalog: catalog,
		ledger:  ledger,
		logger:  logger.With(slog.String("handler", "products")),
	}
}

// CreateProduct handles POST /products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "create product")
		return
	}

	product := req.ToDomain()
	if err := h.catalog.CreateProduct(ctx, product); err != nil {
		respondDomainError(w, r, h.logger, err, "create product")
		return
	}

	h.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", product.ID),
		slog.String("sku", product.SKU))

	respondJSON(w, h.logger, http.StatusCreated, product)
}

// GetProduct handles GET /products/{id}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "get product")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "get product")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, product)
}

// ListProducts handles GET /products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := ports.ListParams{
		Search:    q.Get("search"),
		Category:  q.Get("category"),
		SortBy:    q.Get("sort"),
		SortOrder: q.Get("order"),
		Page:      queryInt(r, "page", 1),
		PageSize:  queryInt(r, "pageSize", 50),
	}
	if raw := q.Get("lowStock"); raw != "" {
		low, err := strconv.ParseBool(raw)
		if err != nil {
			respondDomainError(w, r, h.logger, domain.NewInvalidArgument("invalid lowStock %q", raw), "list products")
			return
		}
		params.LowStock = low
	}

	result, err := h.catalog.ListProducts(r.Context(), params)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "list products")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, result)
}

// UpdateProduct handles PUT /products/{id}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r, "id")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "update product")
		return
	}

	var req UpdateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "update product")
		return
	}

	product, err := h.catalog.UpdateProduct(ctx, id, req.ToDomain())
	if err != nil {
		respondDomainError(w, r, h.logger, err, "update product")
		return
	}

	h.logger.InfoContext(ctx, "product updated", slog.Int64("product_id", id))

	respondJSON(w, h.logger, http.StatusOK, product)
}

// DeleteProduct handles DELETE /products/{id}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, err := parseID(r, "id")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "delete product")
		return
	}

	if err := h.catalog.DeleteProduct(ctx, id); err != nil {
		respondDomainError(w, r, h.logger, err, "delete product")
		return
	}

	h.logger.InfoContext(ctx, "product deleted", slog.Int64("product_id", id))

	w.WriteHeader(http.StatusNoContent)
}

// LowStock handles GET /products/low-stock
func (h *ProductHandler) LowStock(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.LowStock(r.Context())
	if err != nil {
		respondDomainError(w, r, h.logger, err, "list low stock products")
		return
	}
	if products == nil {
		products = []domain.Product{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"products": products})
}

// Reconciliation handles GET /products/{id}/reconciliation
func (h *ProductHandler) Reconciliation(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r, "id")
	if err != nil {
		respondDomainError(w, r, h.logger, err, "reconcile product")
		return
	}

	report, err := h.ledger.Reconcile(r.Context(), id)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "reconcile product")
		return
	}

	respondJSON(w, h.logger, http.StatusOK, report)
}

// CreateProductRequest is the body of POST /products. Quantity is the
// opening stock and is recorded as an inbound movement.
type CreateProductRequest struct {
	Name      string          `json:"name"`
	SKU       string          `json:"sku"`
	Category  *string         `json:"category,omitempty"`
	CostPrice decimal.Decimal `json:"costPrice"`
	SalePrice decimal.Decimal `json:"salePrice"`
	Quantity  int             `json:"quantity"`
	MinStock  int             `json:"minStock"`
}

// ToDomain converts the request to a domain model
func (r *CreateProductRequest) ToDomain() *domain.Product {
	return &domain.Product{
		Name:      r.Name,
		SKU:       r.SKU,
		Category:  r.Category,
		CostPrice: r.CostPrice,
		SalePrice: r.SalePrice,
		Quantity:  r.Quantity,
		MinStock:  r.MinStock,
	}
}

// UpdateProductRequest is the body of PUT /products/{id}. Stock is changed
// through movements only, so quantity is not accepted here.
type UpdateProductRequest struct {
	Name      *string          `json:"name,omitempty"`
	SKU       *string          `json:"sku,omitempty"`
	Category  *string          `json:"category,omitempty"`
	CostPrice *decimal.Decimal `json:"costPrice,omitempty"`
	SalePrice *decimal.Decimal `json:"salePrice,omitempty"`
	MinStock  *int             `json:"minStock,omitempty"`
}

// ToDomain converts the request to a domain update
func (r *UpdateProductRequest) ToDomain() domain.ProductUpdate {
	return domain.ProductUpdate{
		Name:      r.Name,
		SKU:       r.SKU,
		Category:  r.Category,
		CostPrice: r.CostPrice,
		SalePrice: r.SalePrice,
		MinStock:  r.MinStock,
	}
}
