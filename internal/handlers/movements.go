// internal/handlers/movements.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
	"github.com/ammerola/gestor-be/internal/pkg/logger"
)

const (
	defaultMovementLimit = 100
	maxMovementLimit     = 1000
)

// MovementHandler handles stock movement HTTP requests
type MovementHandler struct {
	ledger ports.LedgerService
	logger *slog.Logger
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(ledger ports.LedgerService, logger *slog.Logger) *MovementHandler {
	return &MovementHandler{
		ledger: ledger,
		logger: logger.With(slog.String("handler", "movements")),
	}
}

// RecordMovement handles POST /products/stock-movements
func (h *MovementHandler) RecordMovement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req RecordMovementRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondDomainError(w, r, h.logger, err, "record movement")
		return
	}

	movement, err := h.ledger.RecordMovement(ctx, req.ToDomain())
	if err != nil {
		respondDomainError(w, r, h.logger, err, "record movement")
		return
	}

	h.logger.InfoContext(ctx, "stock movement recorded",
		slog.Int64("movement_id", movement.ID),
		slog.Int64("product_id", movement.ProductID),
		slog.String("type", string(movement.Type)),
		slog.Int("quantity", movement.Quantity),
		slog.String("user_id", logger.UserIDFromContext(ctx)))

	respondJSON(w, h.logger, http.StatusOK, movement)
}

// ListMovements handles GET /products/stock-movements
func (h *MovementHandler) ListMovements(w http.ResponseWriter, r *http.Request) {
	filter, err := parseMovementFilter(r)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "list movements")
		return
	}

	movements, err := h.ledger.ListMovements(r.Context(), filter)
	if err != nil {
		respondDomainError(w, r, h.logger, err, "list movements")
		return
	}
	if movements == nil {
		movements = []domain.StockMovement{}
	}

	respondJSON(w, h.logger, http.StatusOK, map[string]interface{}{"movements": movements})
}

func parseMovementFilter(r *http.Request) (domain.MovementFilter, error) {
	var filter domain.MovementFilter

	productID, err := queryInt64(r, "productId")
	if err != nil {
		return filter, err
	}
	filter.ProductID = productID

	if raw := r.URL.Query().Get("type"); raw != "" {
		filter.Type = domain.MovementType(raw)
		if !filter.Type.IsValid() {
			return filter, domain.NewInvalidArgument("type must be one of entrada, saida, ajuste")
		}
	}

	if filter.From, err = queryTime(r, "from"); err != nil {
		return filter, err
	}
	if filter.To, err = queryTime(r, "to"); err != nil {
		return filter, err
	}

	filter.Limit = min(queryInt(r, "limit", defaultMovementLimit), maxMovementLimit)
	filter.Offset = queryInt(r, "offset", 0)
	return filter, nil
}

// RecordMovementRequest is the body of POST /products/stock-movements
type RecordMovementRequest struct {
	ProductID int64               `json:"productId"`
	Type      domain.MovementType `json:"type"`
	Quantity  int                 `json:"quantity"`
	Reason    *string             `json:"reason,omitempty"`
}

// ToDomain converts the request to a ledger request
func (r *RecordMovementRequest) ToDomain() domain.MovementRequest {
	return domain.MovementRequest{
		ProductID: r.ProductID,
		Type:      r.Type,
		Quantity:  r.Quantity,
		Reason:    r.Reason,
	}
}
