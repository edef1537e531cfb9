package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/pkg/enums"
	"github.com/floraweave/floraweave-backend/pkg/types"
)

// Order is an immutable snapshot taken from the cart at checkout.
type Order struct {
	ID              uuid.UUID           `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Number          string              `gorm:"column:number;not null;uniqueIndex"`
	UserID          uuid.UUID           `gorm:"column:user_id;type:uuid;not null;index"`
	Status          enums.OrderStatus   `gorm:"column:status;type:order_status;not null;default:'pending'"`
	PaymentStatus   enums.PaymentStatus `gorm:"column:payment_status;type:payment_status;not null;default:'unpaid'"`
	Subtotal        decimal.Decimal     `gorm:"column:subtotal;type:numeric(12,2);not null"`
	GSTAmount       decimal.Decimal     `gorm:"column:gst_amount;type:numeric(12,2);not null;default:0"`
	Total           decimal.Decimal     `gorm:"column:total;type:numeric(12,2);not null"`
	ShippingAddress *types.Address      `gorm:"column:shipping_address;type:jsonb"`
	Lines           []OrderLine         `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time           `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time           `gorm:"column:updated_at;autoUpdateTime"`
}

// OrderLine mirrors the cart item it was created from. Stored prices are
// authoritative; the breakdown layer never overrides them.
type OrderLine struct {
	ID                uuid.UUID               `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID               `gorm:"column:order_id;type:uuid;not null;index"`
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
	DigitalFileKey    *string                 `gorm:"column:digital_file_key"`
	CreatedAt         time.Time               `gorm:"column:created_at;autoCreateTime"`
}
