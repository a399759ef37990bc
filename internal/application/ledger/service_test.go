package ledger

import (
	"context"
	"testing"
	"time"

	"lcfs-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupLedgerTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Organization{}, &domain.Transaction{}))
	return &Service{DB: db}, db
}

func createOrg(t *testing.T, db *gorm.DB, name, code string) *domain.Organization {
	org := &domain.Organization{Name: name, Code: code, Status: domain.OrgStatusRegistered}
	require.NoError(t, db.Create(org).Error)
	return org
}

func TestCommit_WritesAdjustmentAndBalance(t *testing.T) {
	svc, db := setupLedgerTest(t)
	org := createOrg(t, db, "Acme Fuels", "AAAAA")

	var entry *domain.Transaction
	err := db.Transaction(func(tx *gorm.DB) error {
		var err error
		entry, err = svc.Commit(tx, org.ID, 1000)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionAdjustment, entry.Action)

	avail, err := svc.Available(context.Background(), org.ID, time.Now().UTC().Year())
	require.NoError(t, err)
	assert.Equal(t, int64(1000), avail)

	var reloaded domain.Organization
	require.NoError(t, db.First(&reloaded, org.ID).Error)
	assert.Equal(t, int64(1000), reloaded.TotalBalance)
}

func TestCommit_NegativeThenPositiveCancels(t *testing.T) {
	svc, db := setupLedgerTest(t)
	org := createOrg(t, db, "Acme Fuels", "AAAAA")

	year := time.Now().UTC().Year()
	err := db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Commit(tx, org.ID, 700); err != nil {
			return err
		}
		if _, err := svc.Commit(tx, org.ID, -700); err != nil {
			return err
		}
		return nil
	})
	require.NoError(t, err)

	avail, err := svc.Available(context.Background(), org.ID, year)
	require.NoError(t, err)
	assert.Equal(t, int64(0), avail)
}

func TestCommit_InsufficientBalance(t *testing.T) {
	svc, db := setupLedgerTest(t)
	org := createOrg(t, db, "Acme Fuels", "AAAAA")

	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Commit(tx, org.ID, -1)
		return err
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	var count int64
	db.Model(&domain.Transaction{}).Count(&count)
	assert.Equal(t, int64(0), count, "failed commit must write no entry")
}

func TestReserve_ChecksCapacityAgainstExistingReservations(t *testing.T) {
	svc, db := setupLedgerTest(t)
	org := createOrg(t, db, "Acme Fuels", "AAAAA")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Commit(tx, org.ID, 100)
		return err
	}))

	// First reservation of 80 fits; a second of 30 would overdraw.
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Reserve(tx, org.ID, -80)
		return err
	}))
	err := db.Transaction(func(tx *gorm.DB) error {
		_, err := svc.Reserve(tx, org.ID, -30)
		return err
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	reserved, err := svc.Reserved(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(80), reserved)
}

func TestRelease_NegatesReservation(t *testing.T) {
	svc, db := setupLedgerTest(t)
	org := createOrg(t, db, "Acme Fuels", "AAAAA")

	var reservation *domain.Transaction
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Commit(tx, org.ID, 1000); err != nil {
			return err
		}
		var err error
		reservation, err = svc.Reserve(tx, org.ID, -100)
		return err
	}))

	var released *domain.Transaction
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		released, err = svc.Release(tx, reservation.ID)
		return err
	}))
	assert.Equal(t, domain.ActionReleased, released.Action)
	assert.Equal(t, int64(100), released.ComplianceUnits)
	require.NotNil(t, released.ReleasesEntryID)
	assert.Equal(t, reservation.ID, *released.ReleasesEntryID)

	reserved, err := svc.Reserved(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reserved)
}

func TestRelease_SecondCallIsNoOp(t *testing.T) {
	svc, db := setupLedgerTest(t)
	org := createOrg(t, db, "Acme Fuels", "AAAAA")

	var reservation *domain.Transaction
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Commit(tx, org.ID, 500); err != nil {
			return err
		}
		var err error
		reservation, err = svc.Reserve(tx, org.ID, -200)
		return err
	}))

	var first, second *domain.Transaction
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		first, err = svc.Release(tx, reservation.ID)
		return err
	}))
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		var err error
		second, err = svc.Release(tx, reservation.ID)
		return err
	}))
	assert.Equal(t, first.ID, second.ID, "double release returns the same entry")

	var count int64
	db.Model(&domain.Transaction{}).Where("action = ?", domain.ActionReleased).Count(&count)
	assert.Equal(t, int64(1), count)

	reserved, err := svc.Reserved(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reserved, "reserved aggregate not decremented twice")
}

func TestSettleReservation_ClearsAggregateWithoutReleasedRow(t *testing.T) {
	svc, db := setupLedgerTest(t)
	org := createOrg(t, db, "Acme Fuels", "AAAAA")

	var reservation *domain.Transaction
	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		if _, err := svc.Commit(tx, org.ID, 500); err != nil {
			return err
		}
		var err error
		reservation, err = svc.Reserve(tx, org.ID, -200)
		return err
	}))

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		return svc.SettleReservation(tx, reservation.ID)
	}))

	reserved, err := svc.Reserved(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reserved)

	var count int64
	db.Model(&domain.Transaction{}).Where("action = ?", domain.ActionReleased).Count(&count)
	assert.Equal(t, int64(0), count, "settling writes no Released row")
}

func TestAvailable_IsPeriodBounded(t *testing.T) {
	svc, db := setupLedgerTest(t)
	org := createOrg(t, db, "Acme Fuels", "AAAAA")

	old := domain.Transaction{
		OrganizationID:  org.ID,
		ComplianceUnits: 300,
		Action:          domain.ActionAdjustment,
	}
	require.NoError(t, db.Create(&old).Error)
	require.NoError(t, db.Model(&domain.Transaction{}).Where("id = ?", old.ID).
		Update("create_date", time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)).Error)

	recent := domain.Transaction{
		OrganizationID:  org.ID,
		ComplianceUnits: 200,
		Action:          domain.ActionAdjustment,
	}
	require.NoError(t, db.Create(&recent).Error)
	require.NoError(t, db.Model(&domain.Transaction{}).Where("id = ?", recent.ID).
		Update("create_date", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)).Error)

	for _, tc := range []struct {
		year int
		want int64
	}{
		{2022, 0},
		{2023, 300},
		{2024, 300},
		{2025, 500},
	} {
		got, err := svc.Available(context.Background(), org.ID, tc.year)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, "year %d", tc.year)
	}
}

func TestReservedExcludesPositiveReservations(t *testing.T) {
	svc, db := setupLedgerTest(t)
	org := createOrg(t, db, "Acme Fuels", "AAAAA")

	require.NoError(t, db.Transaction(func(tx *gorm.DB) error {
		// A receiving-side reservation (positive) does not count toward
		// the reserved aggregate.
		_, err := svc.Reserve(tx, org.ID, 50)
		return err
	}))

	reserved, err := svc.Reserved(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reserved)
}
