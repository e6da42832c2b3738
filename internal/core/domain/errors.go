// internal/core/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

// Error taxonomy shared by every layer. Handlers map these to HTTP status
// codes with errors.Is, so wrap them instead of replacing them.
var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrAlreadyExists     = errors.New("already exists")
	ErrInternal          = errors.New("internal error")

	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrSaleNotFound    = fmt.Errorf("sale %w", ErrNotFound)
	ErrProductInUse    = errors.New("product is referenced by movements or sales")
)

// InsufficientStockError carries the product that could not cover a request.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	if e.ProductName == "" {
		return fmt.Sprintf("insufficient stock for product %d", e.ProductID)
	}
	return fmt.Sprintf("insufficient stock for product %s", e.ProductName)
}

// Is lets errors.Is(err, ErrInsufficientStock) match the typed error.
func (e *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NewInvalidArgument wraps ErrInvalidArgument with a message.
func NewInvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// NewProductNotFound reports an unknown product id.
func NewProductNotFound(id int64) error {
	return fmt.Errorf("%w: id %d", ErrProductNotFound, id)
}

// ErrorCode returns the taxonomy code for err, used in API responses.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidArgument):
		return "invalid_argument"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, ErrAlreadyExists):
		return "already_exists"
	case errors.Is(err, ErrProductInUse):
		return "failed_precondition"
	default:
		return "internal"
	}
}
