package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// WebhookRegistration is a legacy-dialect outbound endpoint. Deliveries to it
// are HMAC-signed with the per-registration secret.
type WebhookRegistration struct {
	ID        uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	URL       string         `gorm:"column:url;not null"`
	Events    pq.StringArray `gorm:"column:events;type:text[]"`
	Secret    string         `gorm:"column:secret;not null"`
	Active    bool           `gorm:"column:active;not null;default:true"`
	CreatedAt time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
