package database

import (
	"fmt"
	"time"

	"lcfs-backend/internal/domain"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// Open opens a GORM DB from DSN (Postgres pooler URL).
// PreferSimpleProtocol disables prepared statement caching to avoid 42P05
// ("prepared statement already exists") when using connection poolers (e.g. PgBouncer, Render).
func Open(dsn string, statementTimeout time.Duration) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{
		DSN:                  dsn,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	if err != nil {
		return nil, err
	}
	if statementTimeout > 0 {
		if err := db.Exec(fmt.Sprintf("SET statement_timeout = %d", statementTimeout.Milliseconds())).Error; err != nil {
			return nil, err
		}
	}
	return db, nil
}

// AutoMigrate runs migrations for every persisted model.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Organization{},
		&domain.OrganizationAddress{},
		&domain.Transaction{},
		&domain.Transfer{},
		&domain.TransferHistory{},
		&domain.TransferComment{},
		&domain.TransferStatusVisibility{},
		&domain.ComplianceReport{},
		&domain.ComplianceReportHistory{},
		&domain.ComplianceReportSummary{},
		&domain.OrganizationSnapshot{},
		&domain.FuelSupply{},
		&domain.FuelExport{},
		&domain.NotionalTransfer{},
		&domain.OtherUse{},
		&domain.AllocationAgreement{},
		&domain.FuelType{},
		&domain.FuelCategory{},
		&domain.EndUseType{},
		&domain.EnergyEffectivenessRatio{},
		&domain.AdditionalCarbonIntensity{},
		&domain.TargetCarbonIntensity{},
		&domain.FuelCode{},
		&domain.ProvisionOfTheAct{},
		&domain.AdminAdjustment{},
		&domain.InitiativeAgreement{},
		&domain.IssuanceHistory{},
		&domain.OutboxEvent{},
	)
}
