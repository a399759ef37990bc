package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Transfer statuses (stable strings, persisted and exposed).
const (
	TransferDraft       = "Draft"
	TransferDeleted     = "Deleted"
	TransferSent        = "Sent"
	TransferSubmitted   = "Submitted"
	TransferRecommended = "Recommended"
	TransferRecorded    = "Recorded"
	TransferRefused     = "Refused"
	TransferDeclined    = "Declined"
	TransferRescinded   = "Rescinded"
)

// Analyst recommendation values.
const (
	RecommendationRecord = "Record"
	RecommendationRefuse = "Refuse"
)

// Comment audiences on a transfer.
const (
	CommentFromOrg    = "FROM_ORG"
	CommentToOrg      = "TO_ORG"
	CommentGovernment = "GOVERNMENT"
)

// Transfer is a peer-to-peer movement of compliance units between two
// organizations. FromTransactionID is the reservation written on the
// sender when the transfer is signed and sent; ToTransactionID is set
// only when the director records the transfer.
type Transfer struct {
	ID                 uint `gorm:"primaryKey" json:"transfer_id"`
	FromOrganizationID uint `gorm:"column:from_organization_id;not null;index" json:"from_organization_id"`
	ToOrganizationID   uint `gorm:"column:to_organization_id;not null;index" json:"to_organization_id"`

	Quantity     int64           `gorm:"column:quantity;not null" json:"quantity"`
	PricePerUnit decimal.Decimal `gorm:"column:price_per_unit;type:decimal(13,2);not null" json:"price_per_unit"`

	AgreementDate            time.Time  `gorm:"column:agreement_date;not null" json:"agreement_date"`
	TransactionEffectiveDate *time.Time `gorm:"column:transaction_effective_date" json:"transaction_effective_date"`

	Category       string  `gorm:"column:category;type:char(1)" json:"category"` // A | B | C, from agreement-date age
	Recommendation *string `gorm:"column:recommendation;type:varchar(10)" json:"recommendation"`
	CurrentStatus  string  `gorm:"column:current_status;type:varchar(15);not null;default:Draft" json:"current_status"`

	FromTransactionID *uint `gorm:"column:from_transaction_id" json:"from_transaction_id"`
	ToTransactionID   *uint `gorm:"column:to_transaction_id" json:"to_transaction_id"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	FromOrganization *Organization    `gorm:"foreignKey:FromOrganizationID" json:"from_organization,omitempty"`
	ToOrganization   *Organization    `gorm:"foreignKey:ToOrganizationID" json:"to_organization,omitempty"`
	History          []TransferHistory `gorm:"foreignKey:TransferID" json:"history,omitempty"`
	Comments         []TransferComment `gorm:"foreignKey:TransferID" json:"comments,omitempty"`
}

func (Transfer) TableName() string { return "transfers" }

// InProgress reports whether the transfer counts toward the parties'
// count_transfers_in_progress columns.
func (t *Transfer) InProgress() bool {
	switch t.CurrentStatus {
	case TransferSent, TransferSubmitted, TransferRecommended:
		return true
	}
	return false
}

// TransferHistory is one accepted transition. Append-only; the latest row
// always matches the transfer's current status.
type TransferHistory struct {
	ID          uint      `gorm:"primaryKey" json:"history_id"`
	TransferID  uint      `gorm:"column:transfer_id;not null;index" json:"transfer_id"`
	Status      string    `gorm:"column:status;type:varchar(15);not null" json:"status"`
	UserID      uint      `gorm:"column:user_id;not null" json:"user_id"`
	DisplayName string    `gorm:"column:display_name" json:"display_name"`
	CreatedAt   time.Time `json:"createdAt"`
}

func (TransferHistory) TableName() string { return "transfer_histories" }

// TransferComment is a per-audience note attached to a transfer.
type TransferComment struct {
	ID         uint      `gorm:"primaryKey" json:"comment_id"`
	TransferID uint      `gorm:"column:transfer_id;not null;index" json:"transfer_id"`
	Audience   string    `gorm:"column:audience;type:varchar(12);not null" json:"audience"`
	Comment    string    `gorm:"column:comment;not null" json:"comment"`
	UserID     uint      `gorm:"column:user_id;not null" json:"user_id"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (TransferComment) TableName() string { return "transfer_comments" }

// TransferStatusVisibility declares which audiences may observe a
// transfer in a given status. The query layer filters lists with it.
type TransferStatusVisibility struct {
	Status              string `gorm:"column:status;type:varchar(15);primaryKey" json:"status"`
	VisibleToSender     bool   `gorm:"column:visible_to_sender;not null" json:"visible_to_sender"`
	VisibleToReceiver   bool   `gorm:"column:visible_to_receiver;not null" json:"visible_to_receiver"`
	VisibleToGovernment bool   `gorm:"column:visible_to_government;not null" json:"visible_to_government"`
}

func (TransferStatusVisibility) TableName() string { return "transfer_status_visibilities" }

// CategoryForAgreementAge maps the age of the agreement at send time to
// the pricing category: A under six months, B under a year, C otherwise.
func CategoryForAgreementAge(agreementDate, sentAt time.Time) string {
	switch {
	case sentAt.Before(agreementDate.AddDate(0, 6, 0)):
		return "A"
	case sentAt.Before(agreementDate.AddDate(1, 0, 0)):
		return "B"
	default:
		return "C"
	}
}
