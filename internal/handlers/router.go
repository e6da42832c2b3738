// internal/handlers/router.go
package handlers

import "net/http"

// Routes groups the handlers mounted by RegisterRoutes. Health and Exports
// may be nil.
type Routes struct {
	Products  *ProductHandler
	Movements *MovementHandler
	Sales     *SaleHandler
	Exports   *ExportHandler
	Health    *HealthHandler
}

// RegisterRoutes mounts the API on mux using method-specific patterns
func RegisterRoutes(mux *http.ServeMux, rt Routes) {
	if rt.Health != nil {
		mux.HandleFunc("GET /health", rt.Health.Health)
		mux.HandleFunc("GET /ready", rt.Health.Readiness)
	}

	mux.HandleFunc("POST /products", rt.Products.CreateProduct)
	mux.HandleFunc("GET /products", rt.Products.ListProducts)
	mux.HandleFunc("GET /products/low-stock", rt.Products.LowStock)
	mux.HandleFunc("GET /products/{id}", rt.Products.GetProduct)
	mux.HandleFunc("PUT /products/{id}", rt.Products.UpdateProduct)
	mux.HandleFunc("DELETE /products/{id}", rt.Products.DeleteProduct)
	mux.HandleFunc("GET /products/{id}/reconciliation", rt.Products.Reconciliation)

	mux.HandleFunc("POST /products/stock-movements", rt.Movements.RecordMovement)
	mux.HandleFunc("GET /products/stock-movements", rt.Movements.ListMovements)

	mux.HandleFunc("POST /sales", rt.Sales.CreateSale)
	mux.HandleFunc("GET /sales", rt.Sales.ListSales)
	mux.HandleFunc("GET /sales/{id}", rt.Sales.GetSale)

	if rt.Exports != nil {
		mux.HandleFunc("POST /exports/movements", rt.Exports.ExportMovements)
		mux.HandleFunc("GET /exports/{id}", rt.Exports.GetExport)
	}
}
