package adjustments

import (
	"context"
	"testing"

	"lcfs-backend/internal/application/ledger"
	"lcfs-backend/internal/application/outbox"
	"lcfs-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupIssuanceTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Organization{}, &domain.Transaction{},
		&domain.AdminAdjustment{}, &domain.InitiativeAgreement{},
		&domain.IssuanceHistory{}, &domain.OutboxEvent{},
	))
	led := &ledger.Service{DB: db}
	return &Service{DB: db, Ledger: led, Outbox: &outbox.Service{}}, db
}

func seedIssuanceOrg(t *testing.T, db *gorm.DB, balance int64) *domain.Organization {
	org := &domain.Organization{Name: "Acme Fuels", Code: "AAAAA", Status: domain.OrgStatusRegistered}
	require.NoError(t, db.Create(org).Error)
	if balance != 0 {
		require.NoError(t, db.Create(&domain.Transaction{
			OrganizationID: org.ID, ComplianceUnits: balance, Action: domain.ActionAdjustment,
		}).Error)
		require.NoError(t, db.Model(org).Update("total_balance", balance).Error)
	}
	return org
}

func analyst() domain.Actor {
	return domain.Actor{UserID: 11, DisplayName: "Ana Lyst", Roles: []string{domain.RoleAnalyst}}
}

func director() domain.Actor {
	return domain.Actor{UserID: 12, DisplayName: "Dir Ector", Roles: []string{domain.RoleDirector}}
}

func TestInitiativeAgreement_ApprovalCommitsUnits(t *testing.T) {
	svc, db := setupIssuanceTest(t)
	org := seedIssuanceOrg(t, db, 0)
	ctx := context.Background()

	ia, err := svc.CreateInitiativeAgreement(ctx, analyst(), org.ID, 250, "P3 initiative 2025-07")
	require.NoError(t, err)
	assert.Equal(t, domain.IssuanceDraft, ia.CurrentStatus)

	ia, err = svc.TransitionInitiativeAgreement(ctx, analyst(), ia.ID, domain.IssuanceRecommended)
	require.NoError(t, err)
	ia, err = svc.TransitionInitiativeAgreement(ctx, director(), ia.ID, domain.IssuanceApproved)
	require.NoError(t, err)
	require.NotNil(t, ia.TransactionID)
	require.NotNil(t, ia.TransactionEffectiveDate)

	var entry domain.Transaction
	require.NoError(t, db.First(&entry, *ia.TransactionID).Error)
	assert.Equal(t, int64(250), entry.ComplianceUnits)
	assert.Equal(t, domain.ActionAdjustment, entry.Action)

	var refreshed domain.Organization
	require.NoError(t, db.First(&refreshed, org.ID).Error)
	assert.Equal(t, int64(250), refreshed.TotalBalance)

	var histories int64
	require.NoError(t, db.Model(&domain.IssuanceHistory{}).
		Where("parent_type = ? AND parent_id = ?", "InitiativeAgreement", ia.ID).Count(&histories).Error)
	assert.Equal(t, int64(3), histories)
}

func TestInitiativeAgreement_RejectsNonPositiveUnits(t *testing.T) {
	svc, db := setupIssuanceTest(t)
	org := seedIssuanceOrg(t, db, 0)

	_, err := svc.CreateInitiativeAgreement(context.Background(), analyst(), org.ID, -50, "")
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestAdminAdjustment_NegativeCorrection(t *testing.T) {
	svc, db := setupIssuanceTest(t)
	org := seedIssuanceOrg(t, db, 300)
	ctx := context.Background()

	adj, err := svc.CreateAdminAdjustment(ctx, analyst(), org.ID, -120, "audit correction")
	require.NoError(t, err)
	_, err = svc.TransitionAdminAdjustment(ctx, analyst(), adj.ID, domain.IssuanceRecommended)
	require.NoError(t, err)
	adj, err = svc.TransitionAdminAdjustment(ctx, director(), adj.ID, domain.IssuanceApproved)
	require.NoError(t, err)

	var refreshed domain.Organization
	require.NoError(t, db.First(&refreshed, org.ID).Error)
	assert.Equal(t, int64(180), refreshed.TotalBalance)
}

func TestAdminAdjustment_NegativeBeyondBalanceRejected(t *testing.T) {
	svc, db := setupIssuanceTest(t)
	org := seedIssuanceOrg(t, db, 100)
	ctx := context.Background()

	adj, err := svc.CreateAdminAdjustment(ctx, analyst(), org.ID, -500, "")
	require.NoError(t, err)
	_, err = svc.TransitionAdminAdjustment(ctx, analyst(), adj.ID, domain.IssuanceRecommended)
	require.NoError(t, err)
	_, err = svc.TransitionAdminAdjustment(ctx, director(), adj.ID, domain.IssuanceApproved)
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	// The failed approval rolls back entirely.
	var a domain.AdminAdjustment
	require.NoError(t, db.First(&a, adj.ID).Error)
	assert.Equal(t, domain.IssuanceRecommended, a.CurrentStatus)
	assert.Nil(t, a.TransactionID)
}

func TestIssuance_ApprovalNeedsDirector(t *testing.T) {
	svc, db := setupIssuanceTest(t)
	org := seedIssuanceOrg(t, db, 0)
	ctx := context.Background()

	ia, err := svc.CreateInitiativeAgreement(ctx, analyst(), org.ID, 10, "")
	require.NoError(t, err)
	_, err = svc.TransitionInitiativeAgreement(ctx, analyst(), ia.ID, domain.IssuanceRecommended)
	require.NoError(t, err)
	_, err = svc.TransitionInitiativeAgreement(ctx, analyst(), ia.ID, domain.IssuanceApproved)
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestIssuance_SupplierCannotCreate(t *testing.T) {
	svc, db := setupIssuanceTest(t)
	org := seedIssuanceOrg(t, db, 0)

	supplier := domain.Actor{UserID: 5, OrganizationID: &org.ID, Roles: []string{domain.RoleAnalyst}}
	_, err := svc.CreateAdminAdjustment(context.Background(), supplier, org.ID, 10, "")
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestIssuance_DraftCanBeDeleted(t *testing.T) {
	svc, db := setupIssuanceTest(t)
	org := seedIssuanceOrg(t, db, 0)
	ctx := context.Background()

	adj, err := svc.CreateAdminAdjustment(ctx, analyst(), org.ID, 40, "")
	require.NoError(t, err)
	adj, err = svc.TransitionAdminAdjustment(ctx, analyst(), adj.ID, domain.IssuanceDeleted)
	require.NoError(t, err)
	assert.Equal(t, domain.IssuanceDeleted, adj.CurrentStatus)

	_, err = svc.TransitionAdminAdjustment(ctx, analyst(), adj.ID, domain.IssuanceRecommended)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}
