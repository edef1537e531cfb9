package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/pkg/enums"
)

// PricingSlab maps a quantity band to a discount off the base per-meter price.
// MaxQuantity nil means the band is unbounded above.
type PricingSlab struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID     uuid.UUID          `gorm:"column:product_id;type:uuid;not null;index"`
	MinQuantity   int                `gorm:"column:min_quantity;not null"`
	MaxQuantity   *int               `gorm:"column:max_quantity"`
	DiscountType  enums.DiscountType `gorm:"column:discount_type;type:discount_type;not null"`
	DiscountValue decimal.Decimal    `gorm:"column:discount_value;type:numeric(12,2);not null;default:0"`
	DisplayOrder  int                `gorm:"column:display_order;not null;default:0"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
}
