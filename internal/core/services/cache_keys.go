// internal/core/services/cache_keys.go
package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ammerola/gestor-be/internal/core/ports"
)

const (
	productCacheTTL  = time.Minute
	lowStockCacheKey = "products:low_stock"
)

func productCacheKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

// invalidateProducts drops cached reads that depend on the given products.
// Failures are logged and never reported to the caller because the cache is
// only a read-through copy.
func invalidateProducts(ctx context.Context, cache ports.CacheRepository, logger *slog.Logger, ids ...int64) {
	if cache == nil {
		return
	}

	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, productCacheKey(id))
	}
	keys = append(keys, lowStockCacheKey)

	if err := cache.Delete(ctx, keys...); err != nil {
		logger.WarnContext(ctx, "failed to invalidate product cache",
			slog.Any("keys", keys),
			slog.String("error", err.Error()))
	}
}
