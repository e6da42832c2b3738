// internal/adapters/db/sale_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
)

var (
	saleColumns     = []string{"id", "total_amount", "payment_method", "status", "user_id", "created_at"}
	saleItemColumns = []string{
		"id", "sale_id", "product_id", "product_name", "product_sku",
		"quantity", "unit_price", "total_price", "created_at",
	}
)

// saleRepository implements ports.SaleRepository
type saleRepository struct {
	q      Querier
	logger *slog.Logger
}

// NewSaleRepository creates a new sale repository
func NewSaleRepository(q Querier, logger *slog.Logger) ports.SaleRepository {
	return &saleRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "sales")),
	}
}

func scanSale(row rowScanner) (*domain.Sale, error) {
	s := &domain.Sale{}
	var method, status string
	if err := row.Scan(&s.ID, &s.TotalAmount, &method, &status, &s.UserID, &s.CreatedAt); err != nil {
		return nil, err
	}
	s.PaymentMethod = domain.PaymentMethod(method)
	s.Status = domain.SaleStatus(status)
	return s, nil
}

func scanSaleItem(row rowScanner) (*domain.SaleItem, error) {
	it := &domain.SaleItem{}
	err := row.Scan(
		&it.ID, &it.SaleID, &it.ProductID, &it.ProductName, &it.ProductSKU,
		&it.Quantity, &it.UnitPrice, &it.TotalPrice, &it.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return it, nil
}

// Create inserts the sale header and all of its items. Callers run it in a
// transaction so the sale is never partially stored.
func (r *saleRepository) Create(ctx context.Context, s *domain.Sale) error {
	if s.Status == "" {
		s.Status = domain.SaleCompleted
	}

	query := `
		INSERT INTO sales (total_amount, payment_method, status, user_id)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at`

	err := r.q.QueryRow(ctx, query, s.TotalAmount, string(s.PaymentMethod), string(s.Status), s.UserID).
		Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}

	if len(s.Items) == 0 {
		return nil
	}

	query, args, err := buildSaleItemsInsert(s).ToSql()
	if err != nil {
		return fmt.Errorf("failed to build sale items insert: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to create sale items: %w", err)
	}
	defer rows.Close()

	i := 0
	for rows.Next() {
		if i >= len(s.Items) {
			return fmt.Errorf("unexpected sale item row %d", i)
		}
		if err := rows.Scan(&s.Items[i].ID, &s.Items[i].CreatedAt); err != nil {
			return fmt.Errorf("failed to scan sale item: %w", err)
		}
		s.Items[i].SaleID = s.ID
		i++
	}
	if err := rows.Err(); err != nil {
		if isForeignKeyViolation(err) {
			return fmt.Errorf("sale item references unknown product: %w", domain.ErrProductNotFound)
		}
		return fmt.Errorf("failed to create sale items: %w", err)
	}

	r.logger.DebugContext(ctx, "sale created",
		slog.Int64("sale_id", s.ID),
		slog.Int("items", len(s.Items)),
		slog.String("total", s.TotalAmount.StringFixed(2)))

	return nil
}

// FindByID retrieves a sale with its items ordered by id
func (r *saleRepository) FindByID(ctx context.Context, id int64) (*domain.Sale, error) {
	query, args, err := psql.Select(saleColumns...).From("sales").Where(squirrel.Eq{"id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	sale, err := scanSale(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}

	query, args, err = psql.Select(saleItemColumns...).From("sale_items").
		Where(squirrel.Eq{"sale_id": id}).
		OrderBy("id ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sale items: %w", err)
	}
	defer rows.Close()

	sale.Items = make([]domain.SaleItem, 0)
	for rows.Next() {
		it, err := scanSaleItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sale item: %w", err)
		}
		sale.Items = append(sale.Items, *it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}

	return sale, nil
}

// FindAll lists sale headers newest first along with the total count
func (r *saleRepository) FindAll(ctx context.Context, filter domain.SaleFilter) ([]domain.Sale, int64, error) {
	countSQL, countArgs, err := applySaleFilter(psql.Select("COUNT(*)").From("sales"), filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count sales: %w", err)
	}

	query, args, err := buildSaleListQuery(filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query sales: %w", err)
	}
	defer rows.Close()

	sales := make([]domain.Sale, 0)
	for rows.Next() {
		s, err := scanSale(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan sale: %w", err)
		}
		sales = append(sales, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating rows: %w", err)
	}

	return sales, total, nil
}

func buildSaleItemsInsert(s *domain.Sale) squirrel.InsertBuilder {
	b := psql.Insert("sale_items").Columns(
		"sale_id", "product_id", "product_name", "product_sku",
		"quantity", "unit_price", "total_price",
	)
	for _, it := range s.Items {
		b = b.Values(s.ID, it.ProductID, it.ProductName, it.ProductSKU, it.Quantity, it.UnitPrice, it.TotalPrice)
	}
	return b.Suffix("RETURNING id, created_at")
}

func applySaleFilter(b squirrel.SelectBuilder, filter domain.SaleFilter) squirrel.SelectBuilder {
	if filter.UserID != "" {
		b = b.Where(squirrel.Eq{"user_id": filter.UserID})
	}
	if filter.PaymentMethod != "" {
		b = b.Where(squirrel.Eq{"payment_method": string(filter.PaymentMethod)})
	}
	if filter.Status != "" {
		b = b.Where(squirrel.Eq{"status": string(filter.Status)})
	}
	if filter.From != nil {
		b = b.Where(squirrel.GtOrEq{"created_at": *filter.From})
	}
	if filter.To != nil {
		b = b.Where(squirrel.Lt{"created_at": *filter.To})
	}
	return b
}

func buildSaleListQuery(filter domain.SaleFilter) squirrel.SelectBuilder {
	b := applySaleFilter(psql.Select(saleColumns...).From("sales"), filter).
		OrderBy("created_at DESC", "id DESC")
	return pageBounds(b, filter.Limit, filter.Offset)
}
