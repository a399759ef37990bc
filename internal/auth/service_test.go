package auth

import (
	"testing"

	"lcfs-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.User{}))
	return db
}

func seedUser(t *testing.T, db *gorm.DB, email, password string, active bool) *domain.User {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	u := &domain.User{
		Email: email, PasswordHash: string(hash), FullName: "Pat Supplier",
		Roles: domain.RoleSupplier + "," + domain.RoleSigningAuthority, IsActive: active,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestLoginUser_RequiresEmailAndPassword(t *testing.T) {
	db := setupAuthTest(t)
	_, err := LoginUser(db, LoginInput{})
	assert.Equal(t, ErrEmailPasswordRequired, err)
}

func TestLoginUser_UnknownEmail(t *testing.T) {
	db := setupAuthTest(t)
	_, err := LoginUser(db, LoginInput{Email: "nobody@example.com", Password: "pw"})
	assert.Equal(t, ErrInvalidEmail, err)
}

func TestLoginUser_WrongPassword(t *testing.T) {
	db := setupAuthTest(t)
	seedUser(t, db, "pat@example.com", "correct horse", true)
	_, err := LoginUser(db, LoginInput{Email: "pat@example.com", Password: "wrong"})
	assert.Equal(t, ErrIncorrectPassword, err)
}

func TestLoginUser_InactiveRejected(t *testing.T) {
	db := setupAuthTest(t)
	seedUser(t, db, "pat@example.com", "correct horse", false)
	_, err := LoginUser(db, LoginInput{Email: "pat@example.com", Password: "correct horse"})
	assert.Equal(t, ErrInvalidEmail, err)
}

func TestLoginUser_Success(t *testing.T) {
	db := setupAuthTest(t)
	seeded := seedUser(t, db, "pat@example.com", "correct horse", true)

	u, err := LoginUser(db, LoginInput{Email: "pat@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.Equal(t, seeded.ID, u.ID)

	shape := Shape(u)
	assert.Equal(t, []string{domain.RoleSupplier, domain.RoleSigningAuthority}, shape.Roles)
}

func TestVerifyUser(t *testing.T) {
	db := setupAuthTest(t)
	seeded := seedUser(t, db, "pat@example.com", "pw", true)

	shape, err := VerifyUser(db, seeded.ID)
	require.NoError(t, err)
	assert.Equal(t, "pat@example.com", shape.Email)

	_, err = VerifyUser(db, 0)
	assert.Equal(t, ErrNotAuthenticated, err)
	_, err = VerifyUser(db, seeded.ID+10)
	assert.Equal(t, ErrNotAuthenticated, err)
}
