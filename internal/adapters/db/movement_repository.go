// internal/adapters/db/movement_repository.go
package db

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
)

var movementColumns = []string{"id", "product_id", "type", "quantity", "reason", "created_at"}

// movementRepository implements ports.MovementRepository
type movementRepository struct {
	q      Querier
	logger *slog.Logger
}

// NewMovementRepository creates a new movement repository
func NewMovementRepository(q Querier, logger *slog.Logger) ports.MovementRepository {
	return &movementRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "stock_movements")),
	}
}

func scanMovement(row rowScanner) (*domain.StockMovement, error) {
	m := &domain.StockMovement{}
	var mtype string
	if err := row.Scan(&m.ID, &m.ProductID, &mtype, &m.Quantity, &m.Reason, &m.CreatedAt); err != nil {
		return nil, err
	}
	m.Type = domain.MovementType(mtype)
	return m, nil
}

// Create appends a movement to the ledger
func (r *movementRepository) Create(ctx context.Context, m *domain.StockMovement) error {
	query := `
		INSERT INTO stock_movements (product_id, type, quantity, reason)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query, m.ProductID, string(m.Type), m.Quantity, m.Reason).
		Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.NewProductNotFound(m.ProductID)
		}
		return fmt.Errorf("failed to create stock movement: %w", err)
	}

	r.logger.DebugContext(ctx, "stock movement created",
		slog.Int64("movement_id", m.ID),
		slog.Int64("product_id", m.ProductID),
		slog.String("type", string(m.Type)),
		slog.Int("quantity", m.Quantity))

	return nil
}

// FindAll lists movements newest first
func (r *movementRepository) FindAll(ctx context.Context, filter domain.MovementFilter) ([]domain.StockMovement, error) {
	query, args, err := buildMovementListQuery(filter).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return r.queryMovements(ctx, query, args...)
}

// FindByProduct lists a product's movements in creation order
func (r *movementRepository) FindByProduct(ctx context.Context, productID int64) ([]domain.StockMovement, error) {
	query, args, err := psql.Select(movementColumns...).From("stock_movements").
		Where(squirrel.Eq{"product_id": productID}).
		OrderBy("created_at ASC", "id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return r.queryMovements(ctx, query, args...)
}

func (r *movementRepository) queryMovements(ctx context.Context, query string, args ...any) ([]domain.StockMovement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query stock movements: %w", err)
	}
	defer rows.Close()

	movements := make([]domain.StockMovement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock movement: %w", err)
		}
		movements = append(movements, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return movements, nil
}

func buildMovementListQuery(filter domain.MovementFilter) squirrel.SelectBuilder {
	b := psql.Select(movementColumns...).From("stock_movements")

	if filter.ProductID > 0 {
		b = b.Where(squirrel.Eq{"product_id": filter.ProductID})
	}
	if filter.Type != "" {
		b = b.Where(squirrel.Eq{"type": string(filter.Type)})
	}
	if filter.From != nil {
		b = b.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		b = b.Where(squirrel.Lt{"created_at": *filter.To})
	}

	b = b.OrderBy("created_at DESC", "id DESC")
	return pageBounds(b, filter.Limit, filter.Offset)
}
