// internal/core/services/catalog.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
)

// OpeningStockReason is the ledger reason for stock a product is created with.
const OpeningStockReason = "Estoque inicial"

// CatalogService handles product business logic
type CatalogService struct {
	store  ports.Store
	ledger ports.TxLedger
	cache  ports.CacheRepository
	logger *slog.Logger
}

// Statically assert that *CatalogService implements the CatalogService interface.
var _ ports.CatalogService = (*CatalogService)(nil)

// NewCatalogService creates a new catalog service. cache may be nil.
func NewCatalogService(store ports.Store, ledger ports.TxLedger, cache ports.CacheRepository, logger *slog.Logger) *CatalogService {
	return &CatalogService{
		store:  store,
		ledger: ledger,
		cache:  cache,
		logger: logger.With(slog.String("service", "catalog")),
	}
}

// CreateProduct stores a product. A positive opening quantity is recorded as
// an inbound movement in the same transaction so the ledger replays to it.
func (s *CatalogService) CreateProduct(ctx context.Context, product *domain.Product) error {
	if err := product.Validate(); err != nil {
		return err
	}

	opening := product.Quantity
	err := s.store.InTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		product.Quantity = 0
		if err := repos.Products.Create(ctx, product); err != nil {
			return err
		}
		if opening == 0 {
			return nil
		}

		reason := OpeningStockReason
		if _, err := s.ledger.RecordInTx(ctx, repos, domain.MovementRequest{
			ProductID: product.ID,
			Type:      domain.MovementInbound,
			Quantity:  opening,
			Reason:    &reason,
		}); err != nil {
			return fmt.Errorf("failed to record opening stock: %w", err)
		}
		product.Quantity = opening
		return nil
	})
	if err != nil {
		product.Quantity = opening
		return err
	}

	invalidateProducts(ctx, s.cache, s.logger)

	s.logger.InfoContext(ctx, "product created",
		slog.Int64("product_id", product.ID),
		slog.String("sku", product.SKU),
		slog.Int("quantity", product.Quantity))

	return nil
}

// UpdateProduct edits catalog fields. Quantity is not editable here.
func (s *CatalogService) UpdateProduct(ctx context.Context, id int64, update domain.ProductUpdate) (*domain.Product, error) {
	var product *domain.Product
	err := s.store.InTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		p, err := repos.Products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get product: %w", err)
		}
		if p == nil {
			return domain.NewProductNotFound(id)
		}
		if err := update.Apply(p); err != nil {
			return err
		}
		if err := repos.Products.Update(ctx, p); err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	invalidateProducts(ctx, s.cache, s.logger, id)

	s.logger.InfoContext(ctx, "product updated", slog.Int64("product_id", id))
	return product, nil
}

// DeleteProduct removes a product that has no ledger or sale history
func (s *CatalogService) DeleteProduct(ctx context.Context, id int64) error {
	err := s.store.InTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		p, err := repos.Products.FindByIDForUpdate(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get product: %w", err)
		}
		if p == nil {
			return domain.NewProductNotFound(id)
		}

		referenced, err := repos.Products.IsReferenced(ctx, id)
		if err != nil {
			return err
		}
		if referenced {
			return domain.ErrProductInUse
		}
		return repos.Products.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	invalidateProducts(ctx, s.cache, s.logger, id)

	s.logger.InfoContext(ctx, "product deleted", slog.Int64("product_id", id))
	return nil
}

// GetProduct retrieves a product by ID, reading through the cache when one is configured
func (s *CatalogService) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	fetch := func() (interface{}, error) {
		p, err := s.store.Repositories().Products.FindByID(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("failed to get product: %w", err)
		}
		if p == nil {
			return nil, domain.NewProductNotFound(id)
		}
		return p, nil
	}

	if s.cache == nil {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		return v.(*domain.Product), nil
	}

	var product domain.Product
	if err := s.cache.GetOrSet(ctx, productCacheKey(id), &product, fetch, productCacheTTL); err != nil {
		return nil, err
	}
	return &product, nil
}

// ListProducts lists products with search, category and low stock filters
func (s *CatalogService) ListProducts(ctx context.Context, params ports.ListParams) (*ports.ProductList, error) {
	params.Normalize()

	filter := domain.ProductFilter{
		Search:   params.Search,
		Category: params.Category,
		LowStock: params.LowStock,
		SortBy:   params.SortBy,
		Desc:     strings.EqualFold(params.SortOrder, "desc"),
		Limit:    params.PageSize,
		Offset:   params.Offset(),
	}

	products, total, err := s.store.Repositories().Products.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	return &ports.ProductList{
		Products:   products,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: total,
		TotalPages: params.TotalPages(total),
	}, nil
}

// LowStock lists products at or below their minimum, lowest quantity first
func (s *CatalogService) LowStock(ctx context.Context) ([]domain.Product, error) {
	fetch := func() (interface{}, error) {
		products, err := s.store.Repositories().Products.FindLowStock(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list low stock products: %w", err)
		}
		return products, nil
	}

	if s.cache == nil {
		v, err := fetch()
		if err != nil {
			return nil, err
		}
		return v.([]domain.Product), nil
	}

	var products []domain.Product
	if err := s.cache.GetOrSet(ctx, lowStockCacheKey, &products, fetch, productCacheTTL); err != nil {
		return nil, err
	}
	if products == nil {
		products = make([]domain.Product, 0)
	}
	return products, nil
}
