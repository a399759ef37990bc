package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Line-item row action types. Rows are immutable per report version;
// editing writes a new row in a new version with the same GroupUUID and
// the next Version. A DELETE row tombstones the whole group.
const (
	ActionTypeCreate = "CREATE"
	ActionTypeUpdate = "UPDATE"
	ActionTypeDelete = "DELETE"
)

// VersionedRow is embedded by every report line-item table.
type VersionedRow struct {
	GroupUUID  uuid.UUID `gorm:"column:group_uuid;type:uuid;not null;index" json:"group_uuid"`
	Version    int       `gorm:"column:version;not null;default:0" json:"version"`
	ActionType string    `gorm:"column:action_type;type:varchar(6);not null;default:CREATE" json:"action_type"`
}

// FuelSupply is one fuel supplied for the compliance period.
type FuelSupply struct {
	ID                 uint `gorm:"primaryKey" json:"fuel_supply_id"`
	ComplianceReportID uint `gorm:"column:compliance_report_id;not null;index" json:"compliance_report_id"`
	VersionedRow

	FuelTypeID     uint  `gorm:"column:fuel_type_id;not null" json:"fuel_type_id"`
	FuelCategoryID uint  `gorm:"column:fuel_category_id;not null" json:"fuel_category_id"`
	EndUseTypeID   *uint `gorm:"column:end_use_type_id" json:"end_use_type_id"`
	ProvisionID    uint  `gorm:"column:provision_id;not null" json:"provision_id"`
	FuelCodeID     *uint `gorm:"column:fuel_code_id" json:"fuel_code_id"`

	Quantity      decimal.Decimal  `gorm:"column:quantity;type:decimal(20,2);not null" json:"quantity"`
	Units         string           `gorm:"column:units;type:varchar(10);not null;default:L" json:"units"`
	CIOfFuel      *decimal.Decimal `gorm:"column:ci_of_fuel;type:decimal(10,2)" json:"ci_of_fuel"`
	EnergyDensity *decimal.Decimal `gorm:"column:energy_density;type:decimal(10,2)" json:"energy_density"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FuelSupply) TableName() string { return "fuel_supplies" }

// FuelExport is fuel exported from British Columbia; always a debit.
type FuelExport struct {
	ID                 uint `gorm:"primaryKey" json:"fuel_export_id"`
	ComplianceReportID uint `gorm:"column:compliance_report_id;not null;index" json:"compliance_report_id"`
	VersionedRow

	FuelTypeID     uint  `gorm:"column:fuel_type_id;not null" json:"fuel_type_id"`
	FuelCategoryID uint  `gorm:"column:fuel_category_id;not null" json:"fuel_category_id"`
	ProvisionID    uint  `gorm:"column:provision_id;not null" json:"provision_id"`
	FuelCodeID     *uint `gorm:"column:fuel_code_id" json:"fuel_code_id"`

	Quantity decimal.Decimal  `gorm:"column:quantity;type:decimal(20,2);not null" json:"quantity"`
	CIOfFuel *decimal.Decimal `gorm:"column:ci_of_fuel;type:decimal(10,2)" json:"ci_of_fuel"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FuelExport) TableName() string { return "fuel_exports" }

// NotionalTransfer moves renewable volume between suppliers on paper for
// the renewable requirement; Received adds, Transferred subtracts.
const (
	NotionalReceived    = "Received"
	NotionalTransferred = "Transferred"
)

type NotionalTransfer struct {
	ID                 uint `gorm:"primaryKey" json:"notional_transfer_id"`
	ComplianceReportID uint `gorm:"column:compliance_report_id;not null;index" json:"compliance_report_id"`
	VersionedRow

	LegalName      string          `gorm:"column:legal_name;not null" json:"legal_name"`
	FuelCategoryID uint            `gorm:"column:fuel_category_id;not null" json:"fuel_category_id"`
	ReceivedOrTransferred string   `gorm:"column:received_or_transferred;type:varchar(12);not null" json:"received_or_transferred"`
	Quantity       decimal.Decimal `gorm:"column:quantity;type:decimal(20,2);not null" json:"quantity"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (NotionalTransfer) TableName() string { return "notional_transfers" }

// OtherUse is fuel put to a non-transportation purpose.
type OtherUse struct {
	ID                 uint `gorm:"primaryKey" json:"other_use_id"`
	ComplianceReportID uint `gorm:"column:compliance_report_id;not null;index" json:"compliance_report_id"`
	VersionedRow

	FuelTypeID     uint            `gorm:"column:fuel_type_id;not null" json:"fuel_type_id"`
	FuelCategoryID uint            `gorm:"column:fuel_category_id;not null" json:"fuel_category_id"`
	ExpectedUse    string          `gorm:"column:expected_use;not null" json:"expected_use"`
	Quantity       decimal.Decimal `gorm:"column:quantity;type:decimal(20,2);not null" json:"quantity"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (OtherUse) TableName() string { return "other_uses" }

// AllocationAgreement allocates responsibility for fuel between two
// suppliers under an agreement; Allocated-to rows credit the counterparty.
const (
	AllocationFrom = "Allocated from"
	AllocationTo   = "Allocated to"
)

type AllocationAgreement struct {
	ID                 uint `gorm:"primaryKey" json:"allocation_agreement_id"`
	ComplianceReportID uint `gorm:"column:compliance_report_id;not null;index" json:"compliance_report_id"`
	VersionedRow

	TransactionPartner string `gorm:"column:transaction_partner;not null" json:"transaction_partner"`
	AllocationType     string `gorm:"column:allocation_type;type:varchar(15);not null" json:"allocation_type"`

	FuelTypeID     uint  `gorm:"column:fuel_type_id;not null" json:"fuel_type_id"`
	FuelCategoryID uint  `gorm:"column:fuel_category_id;not null" json:"fuel_category_id"`
	ProvisionID    uint  `gorm:"column:provision_id;not null" json:"provision_id"`
	FuelCodeID     *uint `gorm:"column:fuel_code_id" json:"fuel_code_id"`

	Quantity decimal.Decimal `gorm:"column:quantity;type:decimal(20,2);not null" json:"quantity"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (AllocationAgreement) TableName() string { return "allocation_agreements" }
