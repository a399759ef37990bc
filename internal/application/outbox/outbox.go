// Package outbox appends state-transition events for downstream
// notification subscribers. Appends happen inside the caller's
// transaction, so an event exists exactly when its transition committed.
package outbox

import (
	"encoding/json"
	"strings"

	"lcfs-backend/internal/domain"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Service struct{}

// EventType builds the stable event name, e.g. TRANSFER__SENT.
func EventType(entityType, toStatus string) string {
	return entityType + "__" + strings.ToUpper(toStatus)
}

// Append writes one event inside tx. Payload may be nil.
func (s *Service) Append(tx *gorm.DB, entityType string, entityID uint, fromStatus, toStatus string, actor domain.Actor, payload map[string]interface{}) error {
	var raw datatypes.JSON
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		raw = datatypes.JSON(b)
	}
	return tx.Create(&domain.OutboxEvent{
		EventType:   EventType(entityType, toStatus),
		EntityType:  entityType,
		EntityID:    entityID,
		FromStatus:  fromStatus,
		ToStatus:    toStatus,
		ActorUserID: actor.UserID,
		Payload:     raw,
	}).Error
}
