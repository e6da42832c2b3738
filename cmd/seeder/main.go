// cmd/seeder/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ammerola/gestor-be/internal/adapters/db"
	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/services"
	"github.com/ammerola/gestor-be/internal/pkg/config"
	"github.com/ammerola/gestor-be/internal/pkg/logger"
)

const seederActor = "seeder"

// seedSummary counts what a run created
type seedSummary struct {
	created   int
	skipped   int
	movements int
	sales     int
	failed    []string
}

func main() {
	var (
		catalogFile = flag.String("file", "", "xlsx workbook with the catalog (built-in demo catalog when empty)")
		logLevel    = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
		dryRun      = flag.Bool("dry-run", false, "Preview the catalog without modifying the database")
		reset       = flag.Bool("reset", false, "Delete all sales, movements and products before seeding")
		withSales   = flag.Bool("sales", true, "Record demo movements and a demo sale after the catalog")
	)
	flag.Parse()

	slogger := logger.SetupLogger(*logLevel, "json")
	slog.SetDefault(slogger)

	products := demoCatalog()
	if *catalogFile != "" {
		loaded, err := loadCatalogWorkbook(*catalogFile)
		if err != nil {
			slogger.Error("failed to load catalog workbook",
				slog.String("file", *catalogFile),
				slog.String("error", err.Error()))
			os.Exit(1)
		}
		products = loaded
	}
	slogger.Info("catalog loaded", slog.Int("products", len(products)))

	if *dryRun {
		for _, p := range products {
			if err := p.Validate(); err != nil {
				fmt.Printf("INVALID: %s (%s) - %v\n", p.Name, p.SKU, err)
				continue
			}
			fmt.Printf("PRODUCT: %s (%s) qty=%d price=%s\n", p.Name, p.SKU, p.Quantity, p.SalePrice.StringFixed(2))
		}
		fmt.Println("\n[DRY RUN] No changes were made to the database")
		return
	}

	cfg, err := config.Load(slogger)
	if err != nil {
		slogger.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := context.Background()

	database, err := db.NewDatabase(ctx, &db.Config{
		Host:               cfg.Database.Host,
		Port:               cfg.Database.Port,
		User:               cfg.Database.User,
		Password:           cfg.Database.Password,
		Database:           cfg.Database.Name,
		SSLMode:            cfg.Database.SSLMode,
		MaxConnections:     4,
		MinConnections:     1,
		MaxConnLifetime:    cfg.Database.MaxConnLifetime,
		MaxConnIdleTime:    cfg.Database.MaxConnIdleTime,
		HealthCheckPeriod:  cfg.Database.HealthCheckPeriod,
		ConnectTimeout:     cfg.Database.ConnectTimeout,
		StatementCacheMode: cfg.Database.StatementCacheMode,
	}, slogger)
	if err != nil {
		slogger.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer database.Close()

	if *reset {
		if _, err := database.Exec(ctx, "TRUNCATE sale_items, sales, stock_movements, products RESTART IDENTITY CASCADE"); err != nil {
			slogger.Error("failed to reset tables", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slogger.Warn("all inventory tables truncated")
	}

	store := db.NewStore(database, slogger)
	ledger := services.NewLedgerService(store, nil, slogger)
	catalog := services.NewCatalogService(store, ledger, nil, slogger)
	checkout := services.NewCheckoutService(store, ledger, nil, slogger)

	summary := &seedSummary{}
	seeded := seedCatalog(ctx, catalog, products, summary, slogger)

	if *withSales && len(seeded) > 0 {
		seedActivity(logger.WithUserID(ctx, seederActor), ledger, checkout, seeded, summary, slogger)
	}

	fmt.Println("\n" + strings.Repeat("=", 60))
	fmt.Println("SEEDING SUMMARY")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Products created: %d\n", summary.created)
	fmt.Printf("Products skipped: %d\n", summary.skipped)
	fmt.Printf("Movements recorded: %d\n", summary.movements)
	fmt.Printf("Sales recorded: %d\n", summary.sales)
	if len(summary.failed) > 0 {
		fmt.Printf("\nFailed (%d):\n", len(summary.failed))
		for _, f := range summary.failed {
			fmt.Printf("  - %s\n", f)
		}
	}

	slogger.Info("seed operation completed",
		slog.Int("products_created", summary.created),
		slog.Int("products_skipped", summary.skipped),
		slog.Int("movements", summary.movements),
		slog.Int("sales", summary.sales),
		slog.Int("failed", len(summary.failed)))

	if len(summary.failed) > 0 {
		os.Exit(1)
	}
}

// seedCatalog creates products through the catalog so opening stock is
// ledgered. Existing SKUs are skipped, which makes reruns safe.
func seedCatalog(ctx context.Context, catalog *services.CatalogService, products []domain.Product, summary *seedSummary, logger *slog.Logger) []domain.Product {
	seeded := make([]domain.Product, 0, len(products))

	for i := range products {
		p := products[i]
		fmt.Printf("PROGRESS: %d/%d %s\n", i+1, len(products), p.SKU)

		err := catalog.CreateProduct(ctx, &p)
		switch {
		case err == nil:
			summary.created++
			seeded = append(seeded, p)
		case errors.Is(err, domain.ErrAlreadyExists):
			logger.Info("product already exists, skipping", slog.String("sku", p.SKU))
			summary.skipped++
		default:
			logger.Error("failed to create product",
				slog.String("sku", p.SKU),
				slog.String("error", err.Error()))
			summary.failed = append(summary.failed, fmt.Sprintf("%s: %v", p.SKU, err))
		}
	}

	return seeded
}

// seedActivity records a restock, a loss and one sale so the ledger has
// every movement type.
func seedActivity(ctx context.Context, ledger *services.LedgerService, checkout *services.CheckoutService, products []domain.Product, summary *seedSummary, logger *slog.Logger) {
	restock := "Compra fornecedor"
	loss := "Avaria"

	requests := []domain.MovementRequest{
		{ProductID: products[0].ID, Type: domain.MovementInbound, Quantity: 12, Reason: &restock},
	}
	if len(products) > 1 && products[1].Quantity > 0 {
		requests = append(requests, domain.MovementRequest{
			ProductID: products[1].ID, Type: domain.MovementOutbound, Quantity: 1, Reason: &loss,
		})
	}

	for _, req := range requests {
		if _, err := ledger.RecordMovement(ctx, req); err != nil {
			logger.Error("failed to record demo movement",
				slog.Int64("product_id", req.ProductID),
				slog.String("error", err.Error()))
			summary.failed = append(summary.failed, fmt.Sprintf("movement on %d: %v", req.ProductID, err))
			continue
		}
		summary.movements++
	}

	var cart []domain.CartLine
	for _, p := range products {
		if p.Quantity >= 3 && len(cart) < 3 {
			cart = append(cart, domain.CartLine{ProductID: p.ID, Quantity: 2})
		}
	}
	if len(cart) == 0 {
		return
	}

	sale, err := checkout.Checkout(ctx, domain.CheckoutRequest{
		Items:         cart,
		PaymentMethod: domain.PaymentPix,
		Actor:         seederActor,
	})
	if err != nil {
		logger.Error("failed to record demo sale", slog.String("error", err.Error()))
		summary.failed = append(summary.failed, fmt.Sprintf("sale: %v", err))
		return
	}
	summary.sales++
	summary.movements += len(cart)
	logger.Info("demo sale recorded",
		slog.Int64("sale_id", sale.ID),
		slog.String("total", sale.TotalAmount.StringFixed(2)))
}
