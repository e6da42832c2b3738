//go:build integration
// +build integration

package benchmarks

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/ammerola/gestor-be/internal/core/domain"
	"github.com/ammerola/gestor-be/internal/core/ports"
	"github.com/ammerola/gestor-be/internal/core/services"
	"github.com/ammerola/gestor-be/test/helpers"
)

func BenchmarkLedgerOperations(b *testing.B) {
	testDB := helpers.SetupTestDB(b)
	logger := helpers.TestLogger()

	ledger := services.NewLedgerService(testDB.Store, nil, logger)
	catalog := services.NewCatalogService(testDB.Store, ledger, nil, logger)
	checkout := services.NewCheckoutService(testDB.Store, ledger, nil, logger)
	ctx := context.Background()

	ids := seedProducts(b, catalog, 100, 1_000_000)

	b.Run("RecordMovement", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			typ := domain.MovementInbound
			if i%2 == 1 {
				typ = domain.MovementOutbound
			}
			if _, err := ledger.RecordMovement(ctx, domain.MovementRequest{
				ProductID: ids[i%len(ids)],
				Type:      typ,
				Quantity:  1,
			}); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("Checkout", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := checkout.Checkout(ctx, domain.CheckoutRequest{
				Items: []domain.CartLine{
					{ProductID: ids[i%len(ids)], Quantity: 1},
					{ProductID: ids[(i+1)%len(ids)], Quantity: 1},
				},
				PaymentMethod: domain.PaymentCash,
				Actor:         "bench",
			}); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("CheckoutParallelSameProduct", func(b *testing.B) {
		var failures atomic.Int64
		b.ResetTimer()
		b.RunParallel(func(pb *testing.PB) {
			for pb.Next() {
				_, err := checkout.Checkout(ctx, domain.CheckoutRequest{
					Items:         []domain.CartLine{{ProductID: ids[0], Quantity: 1}},
					PaymentMethod: domain.PaymentPix,
					Actor:         "bench",
				})
				if err != nil {
					failures.Add(1)
				}
			}
		})
		if n := failures.Load(); n > 0 {
			b.Fatalf("%d checkouts failed", n)
		}
	})

	b.Run("Reconcile", func(b *testing.B) {
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := ledger.Reconcile(ctx, ids[i%len(ids)]); err != nil {
				b.Fatal(err)
			}
		}
	})

	b.Run("ListProducts", func(b *testing.B) {
		params := ports.ListParams{Page: 1, PageSize: 50, Search: "Teste"}
		b.ResetTimer()
		for i := 0; i < b.N; i++ {
			if _, err := catalog.ListProducts(ctx, params); err != nil {
				b.Fatal(err)
			}
		}
	})
}
