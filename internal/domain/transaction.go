package domain

import "time"

// Ledger entry actions. Reserved entries hold units pending a transfer;
// Released entries negate a specific reservation; Adjustment entries are
// final committed movements.
const (
	ActionAdjustment = "Adjustment"
	ActionReserved   = "Reserved"
	ActionReleased   = "Released"
)

// Transaction is one append-only ledger entry of signed compliance units
// against an organization. Rows are never updated or deleted; corrections
// are new rows. The per-organization available balance for a period is
// the sum of Adjustment rows created in or before that year; the reserved
// total is the sum of outstanding negative Reserved rows.
type Transaction struct {
	ID              uint   `gorm:"primaryKey" json:"transaction_id"`
	OrganizationID  uint   `gorm:"column:organization_id;not null;index" json:"organization_id"`
	ComplianceUnits int64  `gorm:"column:compliance_units;not null" json:"compliance_units"`
	Action          string `gorm:"column:action;type:varchar(10);not null" json:"action"`

	// ReleasesEntryID links a Released row to the reservation it negates.
	// A reservation with a Released row pointing at it is spent; a second
	// release of the same entry is detected through this link.
	ReleasesEntryID *uint `gorm:"column:releases_entry_id;index" json:"releases_entry_id,omitempty"`

	CreateDate time.Time `gorm:"column:create_date;autoCreateTime" json:"create_date"`
	UpdateDate time.Time `gorm:"column:update_date;autoUpdateTime" json:"update_date"`
}

func (Transaction) TableName() string { return "transactions" }
