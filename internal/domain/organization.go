package domain

import (
	"time"

	"gorm.io/gorm"
)

// Organization statuses. Only Registered organizations may take part in
// credit transfers.
const (
	OrgStatusRegistered   = "Registered"
	OrgStatusUnregistered = "Unregistered"
	OrgStatusSuspended    = "Suspended"
	OrgStatusCanceled     = "Canceled"
)

// OrgCodeMax is the largest assignable organization code (ZZZZZ base 36).
const OrgCodeMax = 36*36*36*36*36 - 1

// Organization is a fuel supplier. TotalBalance, ReservedBalance and
// CountTransfersInProgress are write-through columns maintained by the
// ledger and transfer services inside the same transaction as the write
// that changes them; the query layer can always re-derive them from the
// transactions table.
type Organization struct {
	ID     uint   `gorm:"primaryKey" json:"organization_id"`
	Name   string `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Code   string `gorm:"column:code;type:char(5);not null;uniqueIndex" json:"code"`
	Status string `gorm:"column:status;type:varchar(20);not null;default:Registered" json:"status"`

	TotalBalance             int64 `gorm:"column:total_balance;not null;default:0" json:"total_balance"`
	ReservedBalance          int64 `gorm:"column:reserved_balance;not null;default:0" json:"reserved_balance"`
	CountTransfersInProgress int   `gorm:"column:count_transfers_in_progress;not null;default:0" json:"count_transfers_in_progress"`

	EDRMSRecord *string `gorm:"column:edrms_record" json:"edrms_record"`

	CreatedAt time.Time      `json:"createdAt"`
	UpdatedAt time.Time      `json:"updatedAt"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	LegalAddress   *OrganizationAddress `gorm:"foreignKey:OrganizationID" json:"legal_address,omitempty"`
}

func (Organization) TableName() string { return "organizations" }

// CanTransact reports whether the organization may send or receive a
// transfer.
func (o *Organization) CanTransact() bool { return o.Status == OrgStatusRegistered }

// OrganizationAddress holds the legal / service / records addresses that
// get frozen onto a report snapshot at submission.
type OrganizationAddress struct {
	ID             uint   `gorm:"primaryKey" json:"address_id"`
	OrganizationID uint   `gorm:"column:organization_id;not null;index" json:"organization_id"`
	AddressType    string `gorm:"column:address_type;type:varchar(10);not null" json:"address_type"` // legal | service | records
	StreetAddress  string `gorm:"column:street_address" json:"street_address"`
	City           string `gorm:"column:city" json:"city"`
	Province       string `gorm:"column:province" json:"province"`
	PostalCode     string `gorm:"column:postal_code" json:"postal_code"`
	Country        string `gorm:"column:country" json:"country"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (OrganizationAddress) TableName() string { return "organization_addresses" }
