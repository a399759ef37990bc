package domain

import "time"

// Statuses shared by admin adjustments and initiative agreements.
const (
	IssuanceDraft       = "Draft"
	IssuanceRecommended = "Recommended"
	IssuanceApproved    = "Approved"
	IssuanceDeleted     = "Deleted"
)

// AdminAdjustment is a government-initiated correction of an
// organization's balance. Director approval commits the units.
type AdminAdjustment struct {
	ID               uint   `gorm:"primaryKey" json:"admin_adjustment_id"`
	ToOrganizationID uint   `gorm:"column:to_organization_id;not null;index" json:"to_organization_id"`
	ComplianceUnits  int64  `gorm:"column:compliance_units;not null" json:"compliance_units"`
	CurrentStatus    string `gorm:"column:current_status;type:varchar(12);not null;default:Draft" json:"current_status"`
	TransactionID    *uint  `gorm:"column:transaction_id" json:"transaction_id"`

	TransactionEffectiveDate *time.Time `gorm:"column:transaction_effective_date" json:"transaction_effective_date"`
	GovComment               string     `gorm:"column:gov_comment" json:"gov_comment"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ToOrganization *Organization     `gorm:"foreignKey:ToOrganizationID" json:"to_organization,omitempty"`
	History        []IssuanceHistory `gorm:"polymorphic:Parent;polymorphicValue:AdminAdjustment" json:"history,omitempty"`
}

func (AdminAdjustment) TableName() string { return "admin_adjustments" }

// InitiativeAgreement issues credits for an approved Part 3 initiative.
type InitiativeAgreement struct {
	ID               uint   `gorm:"primaryKey" json:"initiative_agreement_id"`
	ToOrganizationID uint   `gorm:"column:to_organization_id;not null;index" json:"to_organization_id"`
	ComplianceUnits  int64  `gorm:"column:compliance_units;not null" json:"compliance_units"`
	CurrentStatus    string `gorm:"column:current_status;type:varchar(12);not null;default:Draft" json:"current_status"`
	TransactionID    *uint  `gorm:"column:transaction_id" json:"transaction_id"`

	TransactionEffectiveDate *time.Time `gorm:"column:transaction_effective_date" json:"transaction_effective_date"`
	GovComment               string     `gorm:"column:gov_comment" json:"gov_comment"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	ToOrganization *Organization     `gorm:"foreignKey:ToOrganizationID" json:"to_organization,omitempty"`
	History        []IssuanceHistory `gorm:"polymorphic:Parent;polymorphicValue:InitiativeAgreement" json:"history,omitempty"`
}

func (InitiativeAgreement) TableName() string { return "initiative_agreements" }

// IssuanceHistory records transitions for both issuance entity kinds.
type IssuanceHistory struct {
	ID          uint      `gorm:"primaryKey" json:"history_id"`
	ParentID    uint      `gorm:"column:parent_id;not null;index" json:"parent_id"`
	ParentType  string    `gorm:"column:parent_type;type:varchar(25);not null" json:"parent_type"`
	Status      string    `gorm:"column:status;type:varchar(12);not null" json:"status"`
	UserID      uint      `gorm:"column:user_id;not null" json:"user_id"`
	DisplayName string    `gorm:"column:display_name" json:"display_name"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (IssuanceHistory) TableName() string { return "issuance_histories" }
