package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/pkg/enums"
	"github.com/floraweave/floraweave-backend/pkg/types"
)

// CartRecord is the single active cart snapshot per customer.
type CartRecord struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID    uuid.UUID       `gorm:"column:user_id;type:uuid;not null;index"`
	Subtotal  decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2);not null;default:0"`
	GSTAmount decimal.Decimal `gorm:"column:gst_amount;type:numeric(12,2);not null;default:0"`
	Total     decimal.Decimal `gorm:"column:total;type:numeric(12,2);not null;default:0"`
	Items     []CartItem      `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// CartItem snapshots one configured product line. Quantity is meters for
// PLAIN/DESIGNED and an item count for DIGITAL. Prices are copied from the
// catalog at upsert time; the breakdown layer re-expands them for display.
type CartItem struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	CartID            uuid.UUID               `gorm:"column:cart_id;type:uuid;not null;index"`
	ProductID         uuid.UUID               `gorm:"column:product_id;type:uuid;not null"`
	ProductName       string                  `gorm:"column:product_name;not null"`
	Kind              enums.ProductKind       `gorm:"column:kind;type:product_kind;not null"`
	Quantity          decimal.Decimal         `gorm:"column:quantity;type:numeric(10,2);not null"`
	UnitPrice         decimal.Decimal         `gorm:"column:unit_price;type:numeric(12,2);not null"`
	TotalPrice        decimal.Decimal         `gorm:"column:total_price;type:numeric(12,2);not null"`
	DesignPrice       *decimal.Decimal        `gorm:"column:design_price;type:numeric(12,2)"`
	FabricPrice       *decimal.Decimal        `gorm:"column:fabric_price;type:numeric(12,2)"`
	FabricProductID   *uuid.UUID              `gorm:"column:fabric_product_id;type:uuid"`
	VariantSelections types.VariantSelections `gorm:"column:variant_selections;type:jsonb;not null;default:'[]'"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
}
