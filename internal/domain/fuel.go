package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Fuel classes for the renewable sub-schedule.
const (
	FuelClassGasoline = "Gasoline"
	FuelClassDiesel   = "Diesel"
	FuelClassJetFuel  = "Jet fuel"
)

// Provision-of-the-act determination methods. The method picks where the
// recorded carbon intensity of a line item comes from.
const (
	ProvisionFuelCode    = "Fuel code"
	ProvisionDefaultCI   = "Default carbon intensity"
	ProvisionPrescribed  = "Prescribed carbon intensity"
	ProvisionAlternative = "Alternative method"
)

// FuelType is a reference row: one fuel the regulation recognizes.
type FuelType struct {
	ID            uint             `gorm:"primaryKey" json:"fuel_type_id"`
	Name          string           `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Fossil        bool             `gorm:"column:fossil;not null;default:false" json:"fossil"`
	Renewable     bool             `gorm:"column:renewable;not null;default:false" json:"renewable"`
	DefaultCI     *decimal.Decimal `gorm:"column:default_ci;type:decimal(10,2)" json:"default_ci"`
	EnergyDensity decimal.Decimal  `gorm:"column:energy_density;type:decimal(10,2);not null" json:"energy_density"` // MJ per unit
	Units         string           `gorm:"column:units;type:varchar(10);not null;default:L" json:"units"`
	UnrecognizedCI bool            `gorm:"column:unrecognized_ci;not null;default:false" json:"unrecognized_ci"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FuelType) TableName() string { return "fuel_types" }

// FuelCategory is a fuel class (Gasoline, Diesel, Jet fuel).
type FuelCategory struct {
	ID   uint   `gorm:"primaryKey" json:"fuel_category_id"`
	Name string `gorm:"column:name;type:varchar(15);not null;uniqueIndex" json:"name"`

	// RenewableRequirement is the prescribed renewable percentage of total
	// volume for this class (0.05 gasoline, 0.04 diesel, 0 jet fuel).
	RenewableRequirement decimal.Decimal `gorm:"column:renewable_requirement;type:decimal(5,4);not null;default:0" json:"renewable_requirement"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FuelCategory) TableName() string { return "fuel_categories" }

// EndUseType qualifies how a fuel is used (e.g. light-duty motor vehicle,
// shore power). Part of the EER lookup key.
type EndUseType struct {
	ID   uint   `gorm:"primaryKey" json:"end_use_type_id"`
	Name string `gorm:"column:name;not null" json:"name"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (EndUseType) TableName() string { return "end_use_types" }

// EnergyEffectivenessRatio is keyed (fuel type, fuel category, end use).
// A missing end use falls back to the row with a null end use.
type EnergyEffectivenessRatio struct {
	ID             uint            `gorm:"primaryKey" json:"eer_id"`
	FuelTypeID     uint            `gorm:"column:fuel_type_id;not null;index" json:"fuel_type_id"`
	FuelCategoryID uint            `gorm:"column:fuel_category_id;not null;index" json:"fuel_category_id"`
	EndUseTypeID   *uint           `gorm:"column:end_use_type_id" json:"end_use_type_id"`
	Ratio          decimal.Decimal `gorm:"column:ratio;type:decimal(5,2);not null" json:"ratio"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (EnergyEffectivenessRatio) TableName() string { return "energy_effectiveness_ratios" }

// AdditionalCarbonIntensity is the use-attributable CI term (UCI) keyed
// like the EER lookup. Absent rows mean a UCI of zero.
type AdditionalCarbonIntensity struct {
	ID           uint            `gorm:"primaryKey" json:"uci_id"`
	FuelTypeID   uint            `gorm:"column:fuel_type_id;not null;index" json:"fuel_type_id"`
	EndUseTypeID *uint           `gorm:"column:end_use_type_id" json:"end_use_type_id"`
	Intensity    decimal.Decimal `gorm:"column:intensity;type:decimal(10,2);not null" json:"intensity"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (AdditionalCarbonIntensity) TableName() string { return "additional_carbon_intensities" }

// TargetCarbonIntensity is the class limit for one compliance period.
type TargetCarbonIntensity struct {
	ID               uint            `gorm:"primaryKey" json:"target_ci_id"`
	FuelCategoryID   uint            `gorm:"column:fuel_category_id;not null;index" json:"fuel_category_id"`
	CompliancePeriod int             `gorm:"column:compliance_period;not null;index" json:"compliance_period"`
	TargetCI         decimal.Decimal `gorm:"column:target_ci;type:decimal(10,2);not null" json:"target_ci"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (TargetCarbonIntensity) TableName() string { return "target_carbon_intensities" }

// FuelCode is an approved code carrying its own carbon intensity.
type FuelCode struct {
	ID            uint            `gorm:"primaryKey" json:"fuel_code_id"`
	Code          string          `gorm:"column:code;not null;uniqueIndex" json:"code"`
	FuelTypeID    uint            `gorm:"column:fuel_type_id;not null" json:"fuel_type_id"`
	CarbonIntensity decimal.Decimal `gorm:"column:carbon_intensity;type:decimal(10,2);not null" json:"carbon_intensity"`
	EffectiveDate time.Time       `gorm:"column:effective_date" json:"effective_date"`
	ExpirationDate *time.Time     `gorm:"column:expiration_date" json:"expiration_date"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (FuelCode) TableName() string { return "fuel_codes" }

// ProvisionOfTheAct is the clause under which a carbon intensity is
// claimed; Method selects the CI source during summary calculation.
type ProvisionOfTheAct struct {
	ID     uint   `gorm:"primaryKey" json:"provision_id"`
	Name   string `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Method string `gorm:"column:method;type:varchar(30);not null" json:"method"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (ProvisionOfTheAct) TableName() string { return "provisions_of_the_act" }
