package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/floraweave/floraweave-backend/pkg/enums"
)

// DesignRequest is a custom-design intake submitted from the storefront.
type DesignRequest struct {
	ID                uuid.UUID                 `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name              string                    `gorm:"column:name;not null"`
	Email             string                    `gorm:"column:email;not null"`
	Phone             *string                   `gorm:"column:phone"`
	Description       string                    `gorm:"column:description;not null"`
	PreferredFabricID *uuid.UUID                `gorm:"column:preferred_fabric_id;type:uuid"`
	ReferenceMediaIDs pq.StringArray            `gorm:"column:reference_media_ids;type:text[];not null;default:'{}'"`
	Status            enums.DesignRequestStatus `gorm:"column:status;type:design_request_status;not null;default:'new'"`
	AdminNote         *string                   `gorm:"column:admin_note"`
	CreatedAt         time.Time                 `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time                 `gorm:"column:updated_at;autoUpdateTime"`
}
