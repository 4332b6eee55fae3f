package models

import (
	"time"
)

// Notification is a write-only outbox row. Delivery (push, in-app polling)
// is handled by the notification service; failure to deliver never rolls
// back the points transaction that created the row.
type Notification struct {
	ID       string `json:"id" gorm:"primaryKey;type:uuid"`
	PlayerID string `json:"player_id" gorm:"type:uuid;not null;index"`
	Type     string `json:"type" gorm:"not null"` // battle_won, battle_lost, battle_expired, reward_granted, ...
	Title    string `json:"title"`
	Body     string `json:"body"`
	Data     map[string]interface{} `json:"data,omitempty" gorm:"serializer:json"`

	Read      bool      `json:"read" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}
