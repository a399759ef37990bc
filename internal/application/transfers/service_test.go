package transfers

import (
	"context"
	"testing"
	"time"

	"lcfs-backend/internal/application/ledger"
	"lcfs-backend/internal/application/outbox"
	"lcfs-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupTransferTest(t *testing.T) (*Service, *gorm.DB) {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Organization{}, &domain.Transaction{}, &domain.Transfer{},
		&domain.TransferHistory{}, &domain.TransferComment{}, &domain.OutboxEvent{},
	))
	led := &ledger.Service{DB: db}
	return &Service{DB: db, Ledger: led, Outbox: &outbox.Service{}}, db
}

func seedOrg(t *testing.T, db *gorm.DB, name, code string, balance int64) *domain.Organization {
	org := &domain.Organization{Name: name, Code: code, Status: domain.OrgStatusRegistered}
	require.NoError(t, db.Create(org).Error)
	if balance != 0 {
		require.NoError(t, db.Create(&domain.Transaction{
			OrganizationID: org.ID, ComplianceUnits: balance, Action: domain.ActionAdjustment,
		}).Error)
		require.NoError(t, db.Model(org).Update("total_balance", balance).Error)
	}
	return org
}

func supplierActor(orgID uint, roles ...string) domain.Actor {
	return domain.Actor{UserID: 1, OrganizationID: &orgID, DisplayName: "Pat Supplier", Roles: roles}
}

func govActor(roles ...string) domain.Actor {
	return domain.Actor{UserID: 99, DisplayName: "Gov Reviewer", Roles: roles}
}

func draftTransfer(t *testing.T, svc *Service, from, to *domain.Organization, quantity int64) *domain.Transfer {
	tr, err := svc.Create(context.Background(), supplierActor(from.ID, domain.RoleSigningAuthority), CreateTransferInput{
		ToOrganizationID: to.ID,
		Quantity:         quantity,
		PricePerUnit:     decimal.NewFromInt(25),
		AgreementDate:    time.Now().UTC().AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	return tr
}

func TestCreate_RejectsZeroQuantity(t *testing.T) {
	svc, db := setupTransferTest(t)
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)

	_, err := svc.Create(context.Background(), supplierActor(a.ID), CreateTransferInput{
		ToOrganizationID: b.ID,
		Quantity:         0,
		AgreementDate:    time.Now(),
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpdateDraft_RejectsNegativePrice(t *testing.T) {
	svc, db := setupTransferTest(t)
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)
	tr := draftTransfer(t, svc, a, b, 10)

	_, err := svc.UpdateDraft(context.Background(), supplierActor(a.ID), tr.ID, CreateTransferInput{
		ToOrganizationID: b.ID,
		Quantity:         10,
		PricePerUnit:     decimal.NewFromInt(-5),
		AgreementDate:    tr.AgreementDate,
	})
	require.ErrorIs(t, err, domain.ErrValidation)

	var kept domain.Transfer
	require.NoError(t, db.First(&kept, tr.ID).Error)
	assert.True(t, kept.PricePerUnit.Equal(decimal.NewFromInt(25)))
}

func TestCreate_RejectsSelfTransfer(t *testing.T) {
	svc, db := setupTransferTest(t)
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)

	_, err := svc.Create(context.Background(), supplierActor(a.ID), CreateTransferInput{
		ToOrganizationID: a.ID, Quantity: 10, AgreementDate: time.Now(),
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestCreate_RejectsUnregisteredParty(t *testing.T) {
	svc, db := setupTransferTest(t)
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)
	require.NoError(t, db.Model(b).Update("status", domain.OrgStatusSuspended).Error)

	_, err := svc.Create(context.Background(), supplierActor(a.ID), CreateTransferInput{
		ToOrganizationID: b.ID, Quantity: 10, AgreementDate: time.Now(),
	})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestHappyPathTransfer(t *testing.T) {
	svc, db := setupTransferTest(t)
	ctx := context.Background()
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)
	year := time.Now().UTC().Year()

	tr := draftTransfer(t, svc, a, b, 100)

	tr, err := svc.Transition(ctx, supplierActor(a.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSent, TransitionOptions{})
	require.NoError(t, err)
	require.NotNil(t, tr.FromTransactionID)
	assert.Equal(t, "A", tr.Category)

	reserved, err := svc.Ledger.Reserved(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(100), reserved)

	tr, err = svc.Transition(ctx, supplierActor(b.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSubmitted, TransitionOptions{})
	require.NoError(t, err)

	tr, err = svc.Transition(ctx, govActor(domain.RoleAnalyst), tr.ID, domain.TransferRecommended, TransitionOptions{Recommendation: domain.RecommendationRecord})
	require.NoError(t, err)

	tr, err = svc.Transition(ctx, govActor(domain.RoleDirector), tr.ID, domain.TransferRecorded, TransitionOptions{})
	require.NoError(t, err)
	require.NotNil(t, tr.ToTransactionID)
	require.NotNil(t, tr.TransactionEffectiveDate)

	availA, err := svc.Ledger.Available(ctx, a.ID, year)
	require.NoError(t, err)
	availB, err := svc.Ledger.Available(ctx, b.ID, year)
	require.NoError(t, err)
	assert.Equal(t, int64(900), availA)
	assert.Equal(t, int64(100), availB)

	reserved, err = svc.Ledger.Reserved(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reserved)

	var adjustments int64
	db.Model(&domain.Transaction{}).Where("action = ?", domain.ActionAdjustment).
		Where("organization_id IN ?", []uint{a.ID, b.ID}).Count(&adjustments)
	assert.Equal(t, int64(3), adjustments, "seed + sender commit + receiver commit")

	// One history row and one outbox event per transition (Draft, Sent,
	// Submitted, Recommended, Recorded).
	var histories, events int64
	db.Model(&domain.TransferHistory{}).Where("transfer_id = ?", tr.ID).Count(&histories)
	db.Model(&domain.OutboxEvent{}).Where("entity_type = ? AND entity_id = ?", domain.EntityTransfer, tr.ID).Count(&events)
	assert.Equal(t, int64(5), histories)
	assert.Equal(t, int64(5), events)

	var last domain.TransferHistory
	require.NoError(t, db.Where("transfer_id = ?", tr.ID).Order("id DESC").First(&last).Error)
	assert.Equal(t, domain.TransferRecorded, last.Status)
}

func TestRescindAfterSend(t *testing.T) {
	svc, db := setupTransferTest(t)
	ctx := context.Background()
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)
	year := time.Now().UTC().Year()

	tr := draftTransfer(t, svc, a, b, 100)
	tr, err := svc.Transition(ctx, supplierActor(a.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSent, TransitionOptions{})
	require.NoError(t, err)

	tr, err = svc.Transition(ctx, supplierActor(a.ID), tr.ID, domain.TransferRescinded, TransitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.TransferRescinded, tr.CurrentStatus)

	availA, err := svc.Ledger.Available(ctx, a.ID, year)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), availA)
	reserved, err := svc.Ledger.Reserved(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reserved)

	var reservedEntry, releasedEntry domain.Transaction
	require.NoError(t, db.Where("action = ?", domain.ActionReserved).First(&reservedEntry).Error)
	require.NoError(t, db.Where("action = ?", domain.ActionReleased).First(&releasedEntry).Error)
	assert.Equal(t, int64(-100), reservedEntry.ComplianceUnits)
	assert.Equal(t, int64(100), releasedEntry.ComplianceUnits)
}

func TestSend_InsufficientBalanceLeavesDraft(t *testing.T) {
	svc, db := setupTransferTest(t)
	ctx := context.Background()
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 50)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)

	tr := draftTransfer(t, svc, a, b, 100)
	_, err := svc.Transition(ctx, supplierActor(a.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSent, TransitionOptions{})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	reloaded, err := svc.Get(ctx, tr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferDraft, reloaded.CurrentStatus)

	var entries int64
	db.Model(&domain.Transaction{}).Where("action <> ?", domain.ActionAdjustment).Count(&entries)
	assert.Equal(t, int64(0), entries, "no reservation persisted")
}

func TestDecline_ReleasesReservation(t *testing.T) {
	svc, db := setupTransferTest(t)
	ctx := context.Background()
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)

	tr := draftTransfer(t, svc, a, b, 250)
	tr, err := svc.Transition(ctx, supplierActor(a.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSent, TransitionOptions{})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, supplierActor(b.ID), tr.ID, domain.TransferDeclined, TransitionOptions{})
	require.NoError(t, err)

	reserved, err := svc.Ledger.Reserved(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), reserved)
}

func TestRefuse_ReleasesReservation(t *testing.T) {
	svc, db := setupTransferTest(t)
	ctx := context.Background()
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)

	tr := draftTransfer(t, svc, a, b, 100)
	tr, err := svc.Transition(ctx, supplierActor(a.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSent, TransitionOptions{})
	require.NoError(t, err)
	tr, err = svc.Transition(ctx, supplierActor(b.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSubmitted, TransitionOptions{})
	require.NoError(t, err)
	tr, err = svc.Transition(ctx, govActor(domain.RoleAnalyst), tr.ID, domain.TransferRecommended, TransitionOptions{Recommendation: domain.RecommendationRefuse})
	require.NoError(t, err)
	tr, err = svc.Transition(ctx, govActor(domain.RoleDirector), tr.ID, domain.TransferRefused, TransitionOptions{})
	require.NoError(t, err)

	// One Released entry with the negation of the reservation.
	var reservedEntry domain.Transaction
	require.NoError(t, db.Where("action = ?", domain.ActionReserved).First(&reservedEntry).Error)
	var releasedEntry domain.Transaction
	require.NoError(t, db.Where("action = ?", domain.ActionReleased).First(&releasedEntry).Error)
	assert.Equal(t, -reservedEntry.ComplianceUnits, releasedEntry.ComplianceUnits)
}

func TestTransition_InvalidEdgeRejected(t *testing.T) {
	svc, db := setupTransferTest(t)
	ctx := context.Background()
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)

	tr := draftTransfer(t, svc, a, b, 100)
	_, err := svc.Transition(ctx, govActor(domain.RoleDirector), tr.ID, domain.TransferRecorded, TransitionOptions{})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestTransition_RoleAndPartyEnforced(t *testing.T) {
	svc, db := setupTransferTest(t)
	ctx := context.Background()
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)
	c := seedOrg(t, db, "Cascadia Renewables", "AAAAC", 0)

	tr := draftTransfer(t, svc, a, b, 100)

	// Sender without signing authority cannot send.
	_, err := svc.Transition(ctx, supplierActor(a.ID), tr.ID, domain.TransferSent, TransitionOptions{})
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	tr, err = svc.Transition(ctx, supplierActor(a.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSent, TransitionOptions{})
	require.NoError(t, err)

	// A third organization cannot submit.
	_, err = svc.Transition(ctx, supplierActor(c.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSubmitted, TransitionOptions{})
	require.ErrorIs(t, err, domain.ErrPermissionDenied)

	// An analyst cannot record; that is the director's transition.
	tr, err = svc.Transition(ctx, supplierActor(b.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSubmitted, TransitionOptions{})
	require.NoError(t, err)
	tr, err = svc.Transition(ctx, govActor(domain.RoleAnalyst), tr.ID, domain.TransferRecommended, TransitionOptions{Recommendation: domain.RecommendationRecord})
	require.NoError(t, err)
	_, err = svc.Transition(ctx, govActor(domain.RoleAnalyst), tr.ID, domain.TransferRecorded, TransitionOptions{})
	require.ErrorIs(t, err, domain.ErrPermissionDenied)
}

func TestRecommended_RequiresRecommendationValue(t *testing.T) {
	svc, db := setupTransferTest(t)
	ctx := context.Background()
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)

	tr := draftTransfer(t, svc, a, b, 100)
	tr, err := svc.Transition(ctx, supplierActor(a.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSent, TransitionOptions{})
	require.NoError(t, err)
	tr, err = svc.Transition(ctx, supplierActor(b.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSubmitted, TransitionOptions{})
	require.NoError(t, err)

	_, err = svc.Transition(ctx, govActor(domain.RoleAnalyst), tr.ID, domain.TransferRecommended, TransitionOptions{})
	require.ErrorIs(t, err, domain.ErrValidation)
}

func TestInProgressCounts(t *testing.T) {
	svc, db := setupTransferTest(t)
	ctx := context.Background()
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)

	tr := draftTransfer(t, svc, a, b, 100)
	tr, err := svc.Transition(ctx, supplierActor(a.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSent, TransitionOptions{})
	require.NoError(t, err)

	var orgA, orgB domain.Organization
	require.NoError(t, db.First(&orgA, a.ID).Error)
	require.NoError(t, db.First(&orgB, b.ID).Error)
	assert.Equal(t, 1, orgA.CountTransfersInProgress)
	assert.Equal(t, 1, orgB.CountTransfersInProgress)

	_, err = svc.Transition(ctx, supplierActor(a.ID), tr.ID, domain.TransferRescinded, TransitionOptions{})
	require.NoError(t, err)
	require.NoError(t, db.First(&orgA, a.ID).Error)
	require.NoError(t, db.First(&orgB, b.ID).Error)
	assert.Equal(t, 0, orgA.CountTransfersInProgress)
	assert.Equal(t, 0, orgB.CountTransfersInProgress)
}

func TestDeleteDraft(t *testing.T) {
	svc, db := setupTransferTest(t)
	ctx := context.Background()
	a := seedOrg(t, db, "Acme Fuels", "AAAAA", 1000)
	b := seedOrg(t, db, "Borealis Energy", "AAAAB", 0)

	tr := draftTransfer(t, svc, a, b, 100)
	tr, err := svc.Transition(ctx, supplierActor(a.ID), tr.ID, domain.TransferDeleted, TransitionOptions{})
	require.NoError(t, err)
	assert.Equal(t, domain.TransferDeleted, tr.CurrentStatus)

	// Deleted is terminal.
	_, err = svc.Transition(ctx, supplierActor(a.ID, domain.RoleSigningAuthority), tr.ID, domain.TransferSent, TransitionOptions{})
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCategoryForAgreementAge(t *testing.T) {
	base := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "A", domain.CategoryForAgreementAge(base, base.AddDate(0, 3, 0)))
	assert.Equal(t, "B", domain.CategoryForAgreementAge(base, base.AddDate(0, 8, 0)))
	assert.Equal(t, "C", domain.CategoryForAgreementAge(base, base.AddDate(1, 2, 0)))
}
