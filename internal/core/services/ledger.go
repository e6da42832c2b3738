// internal/core/services/ledger.go
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
)

// LedgerService is the only writer of product quantities. Every change goes
// through a stock movement applied under a row lock on the product.
type LedgerService struct {
	store  ports.Store
	cache  ports.CacheRepository
	logger *slog.Logger
}

// Statically assert that *LedgerService implements the ledger interfaces.
var (
	_ ports.LedgerService = (*LedgerService)(nil)
	_ ports.TxLedger      = (*LedgerService)(nil)
)

// NewLedgerService creates a new ledger service. cache may be nil.
func NewLedgerService(store ports.Store, cache ports.CacheRepository, logger *slog.Logger) *LedgerService {
	return &LedgerService{
		store:  store,
		cache:  cache,
		logger: logger.With(slog.String("service", "ledger")),
	}
}

// RecordMovement validates and applies a single movement in its own transaction
func (s *LedgerService) RecordMovement(ctx context.Context, req domain.MovementRequest) (*domain.StockMovement, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var movement *domain.StockMovement
	err := s.store.InTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		m, err := s.RecordInTx(ctx, repos, req)
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateProducts(ctx, s.cache, s.logger, req.ProductID)

	s.logger.InfoContext(ctx, "stock movement recorded",
		slog.Int64("movement_id", movement.ID),
		slog.Int64("product_id", movement.ProductID),
		slog.String("type", string(movement.Type)),
		slog.Int("quantity", movement.Quantity))

	return movement, nil
}

// RecordInTx locks the product, checks the movement against the current
// quantity, appends it to the ledger and stores the new quantity. It runs in
// the caller's transaction and never commits.
func (s *LedgerService) RecordInTx(ctx context.Context, repos ports.Repositories, req domain.MovementRequest) (*domain.StockMovement, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	product, err := repos.Products.FindByIDForUpdate(ctx, req.ProductID)
	if err != nil {
		return nil, fmt.Errorf("failed to lock product: %w", err)
	}
	if product == nil {
		return nil, domain.NewProductNotFound(req.ProductID)
	}

	next, err := domain.ApplyMovement(req.Type, req.Quantity, product.Quantity)
	if err != nil {
		if !errors.Is(err, domain.ErrInsufficientStock) {
			return nil, err
		}
		return nil, &domain.InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Quantity,
			Requested:   req.Quantity,
		}
	}

	movement := &domain.StockMovement{
		ProductID: product.ID,
		Type:      req.Type,
		Quantity:  req.Quantity,
		Reason:    req.Reason,
	}
	if err := repos.Movements.Create(ctx, movement); err != nil {
		return nil, err
	}

	if err := repos.Products.SetQuantity(ctx, product.ID, next); err != nil {
		return nil, err
	}

	return movement, nil
}

// ListMovements lists ledger entries newest first
func (s *LedgerService) ListMovements(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	if filter.Type != "" && !filter.Type.IsValid() {
		return nil, domain.NewInvalidArgument("type must be one of entrada, saida, ajuste")
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, domain.NewInvalidArgument("from must be before to")
	}

	movements, err := s.store.Repositories().Movements.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list movements: %w", err)
	}
	return movements, nil
}

// Reconcile replays a product's ledger and compares it with the stored
// quantity. The product row is locked so no movement lands in between.
func (s *LedgerService) Reconcile(ctx context.Context, productID int64) (*domain.Reconciliation, error) {
	var report domain.Reconciliation
	err := s.store.InTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		product, err := repos.Products.FindByIDForUpdate(ctx, productID)
		if err != nil {
			return fmt.Errorf("failed to lock product: %w", err)
		}
		if product == nil {
			return domain.NewProductNotFound(productID)
		}

		movements, err := repos.Movements.FindByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("failed to load movements: %w", err)
		}

		report = domain.Reconcile(product, movements)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if !report.Consistent {
		s.logger.WarnContext(ctx, "ledger drift detected",
			slog.Int64("product_id", productID),
			slog.Int("stored_quantity", report.StoredQuantity),
			slog.Int("ledger_quantity", report.LedgerQuantity))
	}

	return &report, nil
}

// ReconcileAll reconciles every product and returns the reports in id order.
// A product deleted while the sweep runs is skipped.
func (s *LedgerService) ReconcileAll(ctx context.Context) ([]domain.Reconciliation, error) {
	ids, err := s.store.Repositories().Products.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	reports := make([]domain.Reconciliation, 0, len(ids))
	drifted := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		report, err := s.Reconcile(ctx, id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				continue
			}
			return reports, fmt.Errorf("failed to reconcile product %d: %w", id, err)
		}
		if !report.Consistent {
			drifted++
		}
		reports = append(reports, *report)
	}

	s.logger.InfoContext(ctx, "ledger reconciliation finished",
		slog.Int("products", len(reports)),
		slog.Int("drifted", drifted))

	return reports, nil
}
