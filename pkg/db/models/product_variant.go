package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProductVariant is a named selectable attribute (e.g. Size) with priced options.
// DisplayOrder is dense (0..n-1) and renumbered on every reorder or delete.
type ProductVariant struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID    uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	Name         string          `gorm:"column:name;not null"`
	Unit         *string         `gorm:"column:unit"`
	DisplayOrder int             `gorm:"column:display_order;not null;default:0"`
	Options      []VariantOption `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// VariantOption carries the price delta applied when the option is selected.
type VariantOption struct {
	ID            uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	VariantID     uuid.UUID       `gorm:"column:variant_id;type:uuid;not null;index"`
	Value         string          `gorm:"column:value;not null"`
	PriceModifier decimal.Decimal `gorm:"column:price_modifier;type:numeric(12,2);not null;default:0"`
	DisplayOrder  int             `gorm:"column:display_order;not null;default:0"`
	CreatedAt     time.Time       `gorm:"column:created_at;autoCreateTime"`
}
