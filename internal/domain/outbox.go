package domain

import (
	"time"

	"gorm.io/datatypes"
)

// Entity type names used in outbox events.
const (
	EntityTransfer            = "TRANSFER"
	EntityComplianceReport    = "COMPLIANCE_REPORT"
	EntityAdminAdjustment     = "ADMIN_ADJUSTMENT"
	EntityInitiativeAgreement = "INITIATIVE_AGREEMENT"
)

// OutboxEvent records one accepted state transition for downstream
// subscribers (email, in-app notifications). Appended in the same
// transaction as the transition; at-least-once delivery is the
// subscriber's problem.
type OutboxEvent struct {
	ID         uint           `gorm:"primaryKey" json:"event_id"`
	EventType  string         `gorm:"column:event_type;type:varchar(60);not null;index" json:"event_type"`
	EntityType string         `gorm:"column:entity_type;type:varchar(25);not null" json:"entity_type"`
	EntityID   uint           `gorm:"column:entity_id;not null;index" json:"entity_id"`
	FromStatus string         `gorm:"column:from_status;type:varchar(30)" json:"from_status"`
	ToStatus   string         `gorm:"column:to_status;type:varchar(30);not null" json:"to_status"`
	ActorUserID uint          `gorm:"column:actor_user_id;not null" json:"actor_user_id"`
	Payload    datatypes.JSON `gorm:"column:payload" json:"payload,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}

func (OutboxEvent) TableName() string { return "outbox_events" }
