/**
 * @description
 * Periodic coin catalog refresh. Both binaries hold a Cache; the worker
 * and the API each run KeepFresh so the variant set tracked by the live
 * orderbook endpoint does not drift from the published config.
 *
 * @dependencies
 * - backend/internal/logger
 */

package coins

import (
	"context"
	"time"

	"github.com/dexstats-project/backend/internal/logger"
)

// CatalogSource fetches a complete catalog. *Client satisfies it.
type CatalogSource interface {
	FetchCatalog(ctx context.Context) (*Catalog, error)
}

// Refresh fetches a fresh catalog and installs it. On failure the cache
// keeps its current catalog.
func (c *Cache) Refresh(ctx context.Context, source CatalogSource) error {
	catalog, err := source.FetchCatalog(ctx)
	if err != nil {
		return err
	}
	c.Set(catalog)
	return nil
}

// KeepFresh reloads the catalog on every tick until ctx is cancelled.
// Failures are logged and the previous catalog stays in place.
func KeepFresh(ctx context.Context, cache *Cache, source CatalogSource, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := cache.Refresh(ctx, source); err != nil {
				logger.Warning("Coins config refresh failed, keeping previous catalog: %v", err)
			}
		}
	}
}
