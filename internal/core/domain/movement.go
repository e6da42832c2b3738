// internal/core/domain/movement.go
package domain

import (
	"math"
	"strings"
	"time"
)

// MaxQuantity is the largest quantity a product, movement or cart line can
// hold. Quantities are stored in INTEGER columns.
const MaxQuantity = math.MaxInt32

// MovementType classifies a stock movement. Values are the wire names.
type MovementType string

const (
	MovementInbound    MovementType = "entrada"
	MovementOutbound   MovementType = "saida"
	MovementAdjustment MovementType = "ajuste"
)

// IsValid reports whether t is a known movement type
func (t MovementType) IsValid() bool {
	switch t {
	case MovementInbound, MovementOutbound, MovementAdjustment:
		return true
	}
	return false
}

// StockMovement is an immutable ledger entry. Quantity is the magnitude for
// inbound and outbound entries and the absolute target for adjustments.
type StockMovement struct {
	ID        int64        `json:"id"`
	ProductID int64        `json:"productId"`
	Type      MovementType `json:"type"`
	Quantity  int          `json:"quantity"`
	Reason    *string      `json:"reason,omitempty"`
	CreatedAt time.Time    `json:"createdAt"`
}

// MovementRequest asks the ledger to record one movement.
type MovementRequest struct {
	ProductID int64
	Type      MovementType
	Quantity  int
	Reason    *string
}

// Validate checks the request shape before any storage access
func (r *MovementRequest) Validate() error {
	if r.ProductID <= 0 {
		return NewInvalidArgument("productId is required")
	}
	if !r.Type.IsValid() {
		return NewInvalidArgument("type must be one of entrada, saida, ajuste")
	}
	if r.Quantity <= 0 {
		return NewInvalidArgument("quantity must be positive")
	}
	if r.Quantity > MaxQuantity {
		return NewInvalidArgument("quantity cannot exceed %d", MaxQuantity)
	}
	if r.Reason != nil && strings.TrimSpace(*r.Reason) == "" {
		r.Reason = nil
	}
	return nil
}

// Delta returns the signed change the movement applies to current.
func Delta(t MovementType, quantity, current int) int {
	switch t {
	case MovementInbound:
		return quantity
	case MovementOutbound:
		return -quantity
	case MovementAdjustment:
		return quantity - current
	}
	return 0
}

// ApplyMovement returns the quantity after applying the movement to current.
// It fails with ErrInsufficientStock when the result would be negative and
// with ErrInvalidArgument when it would exceed MaxQuantity.
func ApplyMovement(t MovementType, quantity, current int) (int, error) {
	if quantity < 0 || quantity > MaxQuantity || current < 0 || current > MaxQuantity {
		return current, NewInvalidArgument("quantity out of range")
	}
	next := current + Delta(t, quantity, current)
	if next < 0 {
		return current, ErrInsufficientStock
	}
	if next > MaxQuantity {
		return current, NewInvalidArgument("resulting quantity cannot exceed %d", MaxQuantity)
	}
	return next, nil
}

// Replay folds movements in creation order starting from zero.
func Replay(movements []StockMovement) int {
	qty := 0
	for _, m := range movements {
		qty += Delta(m.Type, m.Quantity, qty)
	}
	return qty
}

// Reconciliation compares a product's stored quantity with its ledger.
type Reconciliation struct {
	ProductID      int64     `json:"productId"`
	StoredQuantity int       `json:"storedQuantity"`
	LedgerQuantity int       `json:"ledgerQuantity"`
	Movements      int       `json:"movements"`
	Consistent     bool      `json:"consistent"`
	CheckedAt      time.Time `json:"checkedAt"`
}

// Reconcile builds the reconciliation report for a product.
func Reconcile(p *Product, movements []StockMovement) Reconciliation {
	ledger := Replay(movements)
	return Reconciliation{
		ProductID:      p.ID,
		StoredQuantity: p.Quantity,
		LedgerQuantity: ledger,
		Movements:      len(movements),
		Consistent:     ledger == p.Quantity,
		CheckedAt:      time.Now(),
	}
}

// MovementFilter selects movements for listing. Zero fields are ignored.
type MovementFilter struct {
	ProductID int64
	Type      MovementType
	From      *time.Time
	To        *time.Time
	Limit     int
	Offset    int
}
