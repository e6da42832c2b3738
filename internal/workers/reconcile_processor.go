// internal/workers/reconcile_processor.go
package workers

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ammerola/gestor-be/internal/core/ports"
)

// ReconcileProcessor replays every product's ledger and reports drift
type ReconcileProcessor struct {
	ledger ports.LedgerService
	logger *slog.Logger
}

// NewReconcileProcessor creates a new reconcile processor
func NewReconcileProcessor(ledger ports.LedgerService, logger *slog.Logger) *ReconcileProcessor {
	return &ReconcileProcessor{
		ledger: ledger,
		logger: logger.With(slog.String("processor", "reconcile")),
	}
}

// ProcessReconcile handles ledger:reconcile tasks
func (p *ReconcileProcessor) ProcessReconcile(ctx context.Context, t *asynq.Task) error {
	start := time.Now()

	reports, err := p.ledger.ReconcileAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to reconcile ledger: %w", err)
	}

	drifted := make([]int64, 0)
	for _, r := range reports {
		if !r.Consistent {
			drifted = append(drifted, r.ProductID)
		}
	}

	if len(drifted) > 0 {
		p.logger.WarnContext(ctx, "products with ledger drift",
			slog.Any("product_ids", drifted))
	}

	p.logger.InfoContext(ctx, "reconciliation completed",
		slog.Int("products", len(reports)),
		slog.Int("drifted", len(drifted)),
		slog.Duration("duration", time.Since(start)))

	return nil
}
