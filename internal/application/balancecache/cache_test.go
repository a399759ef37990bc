package balancecache

import (
	"context"
	"testing"
	"time"

	"lcfs-backend/internal/application/ledger"
	"lcfs-backend/internal/domain"

	"github.com/alicebob/miniredis/v2"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupCacheTest(t *testing.T) (*Cache, *ledger.Service, *gorm.DB) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Organization{}, &domain.Transaction{}))
	return &Cache{Rdb: rdb}, &ledger.Service{DB: db}, db
}

func TestSetGet(t *testing.T) {
	cache, _, _ := setupCacheTest(t)
	ctx := context.Background()

	_, ok := cache.Get(ctx, 1, 2025)
	assert.False(t, ok)

	cache.Set(ctx, 1, 2025, 900)
	got, ok := cache.Get(ctx, 1, 2025)
	require.True(t, ok)
	assert.Equal(t, int64(900), got)
}

func TestNilCacheIsSafe(t *testing.T) {
	var cache *Cache
	ctx := context.Background()
	cache.Set(ctx, 1, 2025, 100)
	_, ok := cache.Get(ctx, 1, 2025)
	assert.False(t, ok)
	assert.NoError(t, cache.Prime(ctx, nil, nil))
}

func TestPrime_FillsEveryOrgAndYear(t *testing.T) {
	cache, svc, db := setupCacheTest(t)
	ctx := context.Background()

	a := &domain.Organization{Name: "Acme Fuels", Code: "AAAAA"}
	b := &domain.Organization{Name: "Borealis Energy", Code: "AAAAB"}
	require.NoError(t, db.Create(a).Error)
	require.NoError(t, db.Create(b).Error)

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Commit(tx, a.ID, 1000); err != nil {
			return err
		}
		_, err := svc.Commit(tx, b.ID, 250)
		return err
	}))
	// Backdate one entry so priming spans more than one year.
	old := domain.Transaction{OrganizationID: a.ID, ComplianceUnits: 40, Action: domain.ActionAdjustment}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Model(&domain.Transaction{}).Where("id = ?", old.ID).
		Update("create_date", time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)).Error)

	require.NoError(t, cache.Prime(ctx, db, svc))

	year := time.Now().UTC().Year()
	gotA, ok := cache.Get(ctx, a.ID, year)
	require.True(t, ok)
	assert.Equal(t, int64(1040), gotA)

	gotA2024, ok := cache.Get(ctx, a.ID, 2024)
	require.True(t, ok)
	assert.Equal(t, int64(40), gotA2024)

	gotB, ok := cache.Get(ctx, b.ID, year)
	require.True(t, ok)
	assert.Equal(t, int64(250), gotB)
}
