package models

import (
	"time"

	"gorm.io/datatypes"
)

// OutboxEvent is an outbound fact written in the same transaction as the
// booking change it describes. A publisher drains unpublished rows after
// commit, so delivery is at-least-once; consumers dedupe on the event ID.
type OutboxEvent struct {
	ID          string         `json:"id" gorm:"type:varchar(36);primaryKey"`
	EventType   string         `json:"eventType" gorm:"type:varchar(64);not null;index"`
	Payload     datatypes.JSON `json:"payload" gorm:"not null"`
	CreatedAt   time.Time      `json:"createdAt"`
	PublishedAt *time.Time     `json:"publishedAt,omitempty" gorm:"index"`
}
