// Package balancecache mirrors per-organization available balances into
// Redis for read-heavy dashboards. The cache is never authoritative:
// every value is re-derivable through the ledger, and writers only touch
// it after their database transaction has committed.
package balancecache

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"lcfs-backend/internal/domain"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Balances is what the cache needs from the ledger.
type Balances interface {
	Available(ctx context.Context, orgID uint, year int) (int64, error)
	EarliestEntryYear(ctx context.Context) (int, error)
}

// Cache is nil-safe: a nil *Cache disables caching entirely.
type Cache struct {
	Rdb *redis.Client
}

func key(orgID uint, year int) string {
	return fmt.Sprintf("balance:%d:%d", orgID, year)
}

// Set writes one (org, year) balance. Call after the ledger transaction
// commits, never before.
func (c *Cache) Set(ctx context.Context, orgID uint, year int, available int64) {
	if c == nil || c.Rdb == nil {
		return
	}
	if err := c.Rdb.Set(ctx, key(orgID, year), available, 0).Err(); err != nil {
		// A stale or missing cache entry is tolerable; the next read
		// falls back to the ledger.
		log.Warn().Err(err).Uint("org_id", orgID).Int("year", year).Msg("balance cache write failed")
	}
}

// Get returns the cached balance and whether it was present.
func (c *Cache) Get(ctx context.Context, orgID uint, year int) (int64, bool) {
	if c == nil || c.Rdb == nil {
		return 0, false
	}
	v, err := c.Rdb.Get(ctx, key(orgID, year)).Result()
	if err != nil {
		return 0, false
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// Prime fills the cache for every organization and every compliance year
// from the earliest ledger entry to the current year. Run at process
// start; the cache has no eviction because it is always re-derivable.
func (c *Cache) Prime(ctx context.Context, db *gorm.DB, ledger Balances) error {
	if c == nil || c.Rdb == nil {
		return nil
	}
	firstYear, err := ledger.EarliestEntryYear(ctx)
	if err != nil {
		return err
	}
	currentYear := time.Now().UTC().Year()

	var orgIDs []uint
	if err := db.WithContext(ctx).Model(&domain.Organization{}).Pluck("id", &orgIDs).Error; err != nil {
		return err
	}
	for _, orgID := range orgIDs {
		for year := firstYear; year <= currentYear; year++ {
			available, err := ledger.Available(ctx, orgID, year)
			if err != nil {
				return err
			}
			c.Set(ctx, orgID, year, available)
		}
	}
	log.Info().Int("organizations", len(orgIDs)).Int("from_year", firstYear).Int("to_year", currentYear).
		Msg("balance cache primed")
	return nil
}
