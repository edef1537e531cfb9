package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/floraweave/floraweave-backend/pkg/enums"
)

// DetailSection is a titled rich-text block rendered on the product page.
type DetailSection struct {
	ID           uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID `gorm:"column:product_id;type:uuid;not null;index"`
	Title        string    `gorm:"column:title;not null"`
	Content      string    `gorm:"column:content;not null;default:''"`
	DisplayOrder int       `gorm:"column:display_order;not null;default:0"`
	CreatedAt    time.Time `gorm:"column:created_at;autoCreateTime"`
}

// CustomField is an admin-defined input collected from the buyer at add-to-cart.
type CustomField struct {
	ID           uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID             `gorm:"column:product_id;type:uuid;not null;index"`
	Label        string                `gorm:"column:label;not null"`
	FieldType    enums.CustomFieldType `gorm:"column:field_type;type:custom_field_type;not null"`
	Placeholder  string                `gorm:"column:placeholder;not null;default:''"`
	IsRequired   bool                  `gorm:"column:is_required;not null;default:false"`
	DisplayOrder int                   `gorm:"column:display_order;not null;default:0"`
	CreatedAt    time.Time             `gorm:"column:created_at;autoCreateTime"`
}

// ProductMedia is one gallery entry; DisplayOrder drives the carousel.
type ProductMedia struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	MediaID      *uuid.UUID      `gorm:"column:media_id;type:uuid"`
	URL          string          `gorm:"column:url;not null"`
	Type         enums.MediaType `gorm:"column:type;type:media_type;not null"`
	DisplayOrder int             `gorm:"column:display_order;not null;default:0"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}
