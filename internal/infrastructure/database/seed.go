package database

import (
	"strings"

	"lcfs-backend/internal/domain"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Seed installs the reference data the state machines and the summary
// calculator depend on, plus development login accounts outside
// production. Idempotent; safe to run on every startup.
func Seed(db *gorm.DB, env string) error {
	if err := seedVisibility(db); err != nil {
		return err
	}
	if err := seedFuelReferenceData(db); err != nil {
		return err
	}
	if env != "production" {
		if err := seedDevUsers(db); err != nil {
			return err
		}
	}
	return nil
}

// Which audiences see a transfer in each status. Drafts and deletions are
// sender-private; government joins at submission.
func seedVisibility(db *gorm.DB) error {
	flags := []domain.TransferStatusVisibility{
		{Status: domain.TransferDraft, VisibleToSender: true},
		{Status: domain.TransferDeleted, VisibleToSender: true},
		{Status: domain.TransferSent, VisibleToSender: true, VisibleToReceiver: true},
		{Status: domain.TransferRescinded, VisibleToSender: true, VisibleToReceiver: true, VisibleToGovernment: true},
		{Status: domain.TransferDeclined, VisibleToSender: true, VisibleToReceiver: true},
		{Status: domain.TransferSubmitted, VisibleToSender: true, VisibleToReceiver: true, VisibleToGovernment: true},
		{Status: domain.TransferRecommended, VisibleToSender: true, VisibleToReceiver: true, VisibleToGovernment: true},
		{Status: domain.TransferRecorded, VisibleToSender: true, VisibleToReceiver: true, VisibleToGovernment: true},
		{Status: domain.TransferRefused, VisibleToSender: true, VisibleToReceiver: true, VisibleToGovernment: true},
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&flags).Error
}

func seedFuelReferenceData(db *gorm.DB) error {
	categories := []domain.FuelCategory{
		{Name: domain.FuelClassGasoline, RenewableRequirement: decimal.RequireFromString("0.05")},
		{Name: domain.FuelClassDiesel, RenewableRequirement: decimal.RequireFromString("0.04")},
		{Name: domain.FuelClassJetFuel, RenewableRequirement: decimal.Zero},
	}
	if err := db.Clauses(clause.OnConflict{DoNothing: true}).Create(&categories).Error; err != nil {
		return err
	}
	provisions := []domain.ProvisionOfTheAct{
		{Name: "Fuel code - section 19 (b) (i)", Method: domain.ProvisionFuelCode},
		{Name: "Default carbon intensity - section 19 (b) (ii)", Method: domain.ProvisionDefaultCI},
		{Name: "Prescribed carbon intensity - section 19 (a)", Method: domain.ProvisionPrescribed},
		{Name: "Alternative method - section 20", Method: domain.ProvisionAlternative},
	}
	return db.Clauses(clause.OnConflict{DoNothing: true}).Create(&provisions).Error
}

// seedDevUsers installs one supplier organization and login accounts for
// every role so a fresh development or test environment is usable without
// manual user setup. Production user management happens elsewhere.
func seedDevUsers(db *gorm.DB) error {
	org := &domain.Organization{Name: "Development Fuels Ltd.", Code: "DEV01", Status: domain.OrgStatusRegistered}
	var existing domain.Organization
	err := db.Where("code = ?", org.Code).First(&existing).Error
	if err == nil {
		org = &existing
	} else if err != gorm.ErrRecordNotFound {
		return err
	} else if err := db.Create(org).Error; err != nil {
		return err
	}

	accounts := []struct {
		email, name string
		orgID       *uint
		roles       []string
	}{
		{"director@gov.localhost", "Dev Director", nil, []string{domain.RoleDirector}},
		{"analyst@gov.localhost", "Dev Analyst", nil, []string{domain.RoleAnalyst}},
		{"manager@gov.localhost", "Dev Compliance Manager", nil, []string{domain.RoleComplianceManager}},
		{"admin@gov.localhost", "Dev Administrator", nil, []string{domain.RoleAdministrator}},
		{"supplier@devfuels.localhost", "Dev Supplier", &org.ID, []string{domain.RoleSupplier, domain.RoleSigningAuthority}},
	}
	for _, a := range accounts {
		if _, err := SeedUser(db, a.email, "Development1!", a.name, a.orgID, a.roles); err != nil {
			return err
		}
	}
	return nil
}

// SeedUser upserts a user with a bcrypt password hash. The roles slice is
// stored comma-separated.
func SeedUser(db *gorm.DB, email, password, fullName string, orgID *uint, roles []string) (*domain.User, error) {
	var existing domain.User
	err := db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if err != gorm.ErrRecordNotFound {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	u := &domain.User{
		Email:          email,
		PasswordHash:   string(hash),
		FullName:       fullName,
		OrganizationID: orgID,
		Roles:          strings.Join(roles, ","),
		IsActive:       true,
	}
	if err := db.Create(u).Error; err != nil {
		return nil, err
	}
	return u, nil
}
