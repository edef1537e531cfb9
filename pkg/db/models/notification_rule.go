package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/floraweave/floraweave-backend/pkg/enums"
)

// NotificationRule maps a domain event to a WhatsApp template. Delivery is
// handled by an external consumer of the notification topic.
type NotificationRule struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	EventType    enums.OutboxEventType `gorm:"column:event_type;type:event_type;not null;uniqueIndex"`
	TemplateName string                `gorm:"column:template_name;not null"`
	IsEnabled    bool                  `gorm:"column:is_enabled;not null;default:true"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
