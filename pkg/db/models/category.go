package models

import (
	"time"

	"github.com/google/uuid"
)

// Category nodes form a two-level tree: ParentID nil marks a top-level category,
// otherwise the row is a subcategory.
type Category struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string     `gorm:"column:name;not null"`
	Slug         string     `gorm:"column:slug;not null;uniqueIndex"`
	ParentID     *uuid.UUID `gorm:"column:parent_id;type:uuid;index"`
	DisplayOrder int        `gorm:"column:display_order;not null;default:0"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
