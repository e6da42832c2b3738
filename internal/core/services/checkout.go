// internal/core/services/checkout.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
)

// CheckoutService turns a cart into a sale. The sale, its items and one
// outbound movement per line are written in a single transaction, so either
// all of them persist or none do.
type CheckoutService struct {
	store  ports.Store
	ledger ports.TxLedger
	cache  ports.CacheRepository
	logger *slog.Logger
}

// Statically assert that *CheckoutService implements the CheckoutService interface.
var _ ports.CheckoutService = (*CheckoutService)(nil)

// NewCheckoutService creates a new checkout service. cache may be nil.
func NewCheckoutService(store ports.Store, ledger ports.TxLedger, cache ports.CacheRepository, logger *slog.Logger) *CheckoutService {
	return &CheckoutService{
		store:  store,
		ledger: ledger,
		cache:  cache,
		logger: logger.With(slog.String("service", "checkout")),
	}
}

// Checkout validates the cart, locks every product in ascending id order,
// checks stock against the summed request per product, stores the sale and
// records an outbound movement for each line.
func (s *CheckoutService) Checkout(ctx context.Context, req domain.CheckoutRequest) (*domain.Sale, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	requested := req.RequestedByProduct()
	ids := make([]int64, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	// Ascending lock order keeps concurrent checkouts over the same products
	// from deadlocking.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var sale *domain.Sale
	err := s.store.InTx(ctx, func(ctx context.Context, repos ports.Repositories) error {
		products := make(map[int64]*domain.Product, len(ids))
		for _, id := range ids {
			p, err := repos.Products.FindByIDForUpdate(ctx, id)
			if err != nil {
				return fmt.Errorf("failed to lock product: %w", err)
			}
			if p == nil {
				return domain.NewProductNotFound(id)
			}
			if p.Quantity < requested[id] {
				return &domain.InsufficientStockError{
					ProductID:   p.ID,
					ProductName: p.Name,
					Available:   p.Quantity,
					Requested:   requested[id],
				}
			}
			products[id] = p
		}

		items := make([]domain.SaleItem, 0, len(req.Items))
		for _, line := range req.Items {
			items = append(items, domain.NewSaleItem(products[line.ProductID], line.Quantity))
		}

		sale = &domain.Sale{
			TotalAmount:   domain.SumItems(items),
			PaymentMethod: req.PaymentMethod,
			Status:        domain.SaleCompleted,
			UserID:        req.Actor,
			Items:         items,
		}
		if err := repos.Sales.Create(ctx, sale); err != nil {
			return err
		}

		reason := domain.SaleMovementReason(sale.ID)
		for _, line := range req.Items {
			_, err := s.ledger.RecordInTx(ctx, repos, domain.MovementRequest{
				ProductID: line.ProductID,
				Type:      domain.MovementOutbound,
				Quantity:  line.Quantity,
				Reason:    &reason,
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.logger.WarnContext(ctx, "checkout rejected",
			slog.String("user_id", req.Actor),
			slog.Int("lines", len(req.Items)),
			slog.String("error", err.Error()))
		return nil, err
	}

	invalidateProducts(ctx, s.cache, s.logger, ids...)

	s.logger.InfoContext(ctx, "sale completed",
		slog.Int64("sale_id", sale.ID),
		slog.String("user_id", sale.UserID),
		slog.String("payment_method", string(sale.PaymentMethod)),
		slog.String("total", sale.TotalAmount.StringFixed(2)),
		slog.Int("items", len(sale.Items)))

	return sale, nil
}

// GetSale retrieves a sale with its items
func (s *CheckoutService) GetSale(ctx context.Context, id int64) (*domain.Sale, error) {
	sale, err := s.store.Repositories().Sales.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get sale: %w", err)
	}
	if sale == nil {
		return nil, fmt.Errorf("%w: id %d", domain.ErrSaleNotFound, id)
	}
	return sale, nil
}

// ListSales lists sale headers newest first
func (s *CheckoutService) ListSales(ctx context.Context, filter domain.SaleFilter, params ports.ListParams) (*ports.SaleList, error) {
	if filter.PaymentMethod != "" && !filter.PaymentMethod.IsValid() {
		return nil, domain.NewInvalidArgument("paymentMethod must be one of dinheiro, pix, cartao, fiado")
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return nil, domain.NewInvalidArgument("from must be before to")
	}

	params.Normalize()
	filter.Limit = params.PageSize
	filter.Offset = params.Offset()

	sales, total, err := s.store.Repositories().Sales.FindAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	return &ports.SaleList{
		Sales:      sales,
		Page:       params.Page,
		PageSize:   params.PageSize,
		TotalCount: total,
		TotalPages: params.TotalPages(total),
	}, nil
}
