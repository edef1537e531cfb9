package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog records one admin mutation for the back-office log screen.
type AuditLog struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ActorID    uuid.UUID `gorm:"column:actor_id;type:uuid;not null;index"`
	Action     string    `gorm:"column:action;not null"`
	EntityType string    `gorm:"column:entity_type;not null"`
	EntityID   uuid.UUID `gorm:"column:entity_id;type:uuid;not null"`
	Detail     *string   `gorm:"column:detail"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime;index"`
}
