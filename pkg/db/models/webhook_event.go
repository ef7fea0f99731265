package models

import "time"

// WebhookEvent is the processed-event ledger. A row's existence means the
// event was already handled; the primary key uniqueness is the at-most-once
// guard against provider redelivery.
type WebhookEvent struct {
	EventID   string    `gorm:"column:event_id;primaryKey"`
	EventType string    `gorm:"column:event_type;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
