package database

import (
	"strings"
	"testing"

	"lcfs-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupSeedTest(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(db))
	return db
}

func TestSeed_DevelopmentInstallsLoginAccounts(t *testing.T) {
	db := setupSeedTest(t)
	require.NoError(t, Seed(db, "development"))

	var users []domain.User
	require.NoError(t, db.Find(&users).Error)
	assert.Len(t, users, 5)

	var supplier domain.User
	require.NoError(t, db.Where("email = ?", "supplier@devfuels.localhost").First(&supplier).Error)
	assert.True(t, supplier.IsActive)
	require.NotNil(t, supplier.OrganizationID)
	assert.True(t, strings.Contains(supplier.Roles, domain.RoleSigningAuthority))
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(supplier.PasswordHash), []byte("Development1!")))

	var org domain.Organization
	require.NoError(t, db.First(&org, *supplier.OrganizationID).Error)
	assert.Equal(t, domain.OrgStatusRegistered, org.Status)
}

func TestSeed_ProductionSkipsDevUsers(t *testing.T) {
	db := setupSeedTest(t)
	require.NoError(t, Seed(db, "production"))

	var users int64
	require.NoError(t, db.Model(&domain.User{}).Count(&users).Error)
	assert.Equal(t, int64(0), users)

	// Reference data still installs everywhere.
	var flags int64
	require.NoError(t, db.Model(&domain.TransferStatusVisibility{}).Count(&flags).Error)
	assert.Equal(t, int64(9), flags)
}

func TestSeed_RerunDoesNotDuplicateUsers(t *testing.T) {
	db := setupSeedTest(t)
	require.NoError(t, Seed(db, "development"))
	require.NoError(t, Seed(db, "development"))

	var users int64
	require.NoError(t, db.Model(&domain.User{}).Count(&users).Error)
	assert.Equal(t, int64(5), users)

	var orgs int64
	require.NoError(t, db.Model(&domain.Organization{}).Count(&orgs).Error)
	assert.Equal(t, int64(1), orgs)
}
