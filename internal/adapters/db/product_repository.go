// internal/adapters/db/product_repository.go
package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
)

var productColumns = []string{
	"id", "name", "sku", "category", "cost_price", "sale_price",
	"quantity", "min_stock", "created_at", "updated_at",
}

// productSortColumns maps accepted sort keys to columns
var productSortColumns = map[string]string{
	"name":     "name",
	"sku":      "sku",
	"quantity": "quantity",
	"price":    "sale_price",
	"created":  "created_at",
	"updated":  "updated_at",
}

// rowScanner is satisfied by pgx.Row, pgx.Rows and *sql.Rows
type rowScanner interface {
	Scan(dest ...any) error
}

// productRepository implements ports.ProductRepository
type productRepository struct {
	q      Querier
	logger *slog.Logger
}

// NewProductRepository creates a new product repository
func NewProductRepository(q Querier, logger *slog.Logger) ports.ProductRepository {
	return &productRepository{
		q:      q,
		logger: logger.With(slog.String("repository", "products")),
	}
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	p := &domain.Product{}
	err := row.Scan(
		&p.ID, &p.Name, &p.SKU, &p.Category, &p.CostPrice, &p.SalePrice,
		&p.Quantity, &p.MinStock, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a product with its opening quantity
func (r *productRepository) Create(ctx context.Context, p *domain.Product) error {
	query := `
		INSERT INTO products (name, sku, category, cost_price, sale_price, quantity, min_stock)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at, updated_at`

	err := r.q.QueryRow(ctx, query,
		p.Name, p.SKU, p.Category, p.CostPrice, p.SalePrice, p.Quantity, p.MinStock,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("sku %q: %w", p.SKU, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to create product: %w", err)
	}

	r.logger.DebugContext(ctx, "product created",
		slog.Int64("product_id", p.ID),
		slog.String("sku", p.SKU))

	return nil
}

// Update writes the catalog fields. Quantity is owned by the ledger and is
// never written here.
func (r *productRepository) Update(ctx context.Context, p *domain.Product) error {
	query := `
		UPDATE products
		SET name = $2, sku = $3, category = $4, cost_price = $5, sale_price = $6,
		    min_stock = $7, updated_at = NOW()
		WHERE id = $1
		RETURNING quantity, updated_at`

	err := r.q.QueryRow(ctx, query,
		p.ID, p.Name, p.SKU, p.Category, p.CostPrice, p.SalePrice, p.MinStock,
	).Scan(&p.Quantity, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.NewProductNotFound(p.ID)
		}
		if isUniqueViolation(err) {
			return fmt.Errorf("sku %q: %w", p.SKU, domain.ErrAlreadyExists)
		}
		return fmt.Errorf("failed to update product: %w", err)
	}

	return nil
}

// Delete removes a product that nothing references
func (r *productRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return domain.ErrProductInUse
		}
		return fmt.Errorf("failed to delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewProductNotFound(id)
	}
	return nil
}

// FindByID retrieves a product by ID
func (r *productRepository) FindByID(ctx context.Context, id int64) (*domain.Product, error) {
	return r.findOne(ctx, psql.Select(productColumns...).From("products").Where(squirrel.Eq{"id": id}))
}

// FindByIDForUpdate retrieves a product and locks its row
func (r *productRepository) FindByIDForUpdate(ctx context.Context, id int64) (*domain.Product, error) {
	return r.findOne(ctx, psql.Select(productColumns...).From("products").
		Where(squirrel.Eq{"id": id}).Suffix("FOR UPDATE"))
}

func (r *productRepository) findOne(ctx context.Context, b squirrel.SelectBuilder) (*domain.Product, error) {
	query, args, err := b.ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	p, err := scanProduct(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return p, nil
}

// FindAll lists products matching the filter along with the total count
func (r *productRepository) FindAll(ctx context.Context, filter domain.ProductFilter) ([]domain.Product, int64, error) {
	countSQL, countArgs, err := buildProductCountQuery(filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build count query: %w", err)
	}

	var total int64
	if err := r.q.QueryRow(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	query, args, err := buildProductListQuery(filter).ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("failed to build query: %w", err)
	}

	products, err := r.queryProducts(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return products, total, nil
}

// FindLowStock lists products at or below a positive minimum, lowest first
func (r *productRepository) FindLowStock(ctx context.Context) ([]domain.Product, error) {
	query, args, err := buildLowStockQuery().ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}
	return r.queryProducts(ctx, query, args...)
}

// ListIDs returns every product id in ascending order
func (r *productRepository) ListIDs(ctx context.Context) ([]int64, error) {
	rows, err := r.q.Query(ctx, `SELECT id FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list product ids: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan product ids: %w", err)
	}
	return ids, nil
}

// SetQuantity stores the ledger's projection of the product quantity.
// Values outside [0, MaxQuantity] never reach the database.
func (r *productRepository) SetQuantity(ctx context.Context, id int64, quantity int) error {
	if quantity < 0 {
		return &domain.InsufficientStockError{ProductID: id}
	}
	if quantity > domain.MaxQuantity {
		return domain.NewInvalidArgument("quantity cannot exceed %d", domain.MaxQuantity)
	}

	tag, err := r.q.Exec(ctx,
		`UPDATE products SET quantity = $2, updated_at = NOW() WHERE id = $1`, id, quantity)
	if err != nil {
		if isCheckViolation(err) {
			return &domain.InsufficientStockError{ProductID: id}
		}
		return fmt.Errorf("failed to update product quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.NewProductNotFound(id)
	}
	return nil
}

// IsReferenced reports whether movements or sale items point at the product
func (r *productRepository) IsReferenced(ctx context.Context, id int64) (bool, error) {
	query := `
		SELECT EXISTS(SELECT 1 FROM stock_movements WHERE product_id = $1)
		    OR EXISTS(SELECT 1 FROM sale_items WHERE product_id = $1)`

	var referenced bool
	if err := r.q.QueryRow(ctx, query, id).Scan(&referenced); err != nil {
		return false, fmt.Errorf("failed to check product references: %w", err)
	}
	return referenced, nil
}

func (r *productRepository) queryProducts(ctx context.Context, query string, args ...any) ([]domain.Product, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query products: %w", err)
	}
	defer rows.Close()

	products := make([]domain.Product, 0)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return products, nil
}

func applyProductFilter(b squirrel.SelectBuilder, filter domain.ProductFilter) squirrel.SelectBuilder {
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := "%" + s + "%"
		b = b.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"sku": pattern},
		})
	}
	if filter.Category != "" {
		b = b.Where(squirrel.Eq{"category": filter.Category})
	}
	if filter.LowStock {
		b = b.Where("quantity <= min_stock").Where(squirrel.Gt{"min_stock": 0})
	}
	return b
}

func buildProductCountQuery(filter domain.ProductFilter) squirrel.SelectBuilder {
	return applyProductFilter(psql.Select("COUNT(*)").From("products"), filter)
}

func buildProductListQuery(filter domain.ProductFilter) squirrel.SelectBuilder {
	b := applyProductFilter(psql.Select(productColumns...).From("products"), filter)

	column, ok := productSortColumns[filter.SortBy]
	if !ok {
		column = "name"
	}
	direction := "ASC"
	if filter.Desc {
		direction = "DESC"
	}
	b = b.OrderBy(column+" "+direction, "id ASC")

	return pageBounds(b, filter.Limit, filter.Offset)
}

func buildLowStockQuery() squirrel.SelectBuilder {
	return psql.Select(productColumns...).From("products").
		Where("quantity <= min_stock").
		Where(squirrel.Gt{"min_stock": 0}).
		OrderBy("quantity ASC", "id ASC")
}
