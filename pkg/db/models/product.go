package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/pkg/enums"
)

// Product is the canonical catalog record. Exactly one of the kind-specific
// price columns is populated depending on Kind.
type Product struct {
	ID            uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name          string            `gorm:"column:name;not null"`
	Slug          string            `gorm:"column:slug;not null;uniqueIndex"`
	CategoryID    uuid.UUID         `gorm:"column:category_id;type:uuid;not null"`
	SubcategoryID *uuid.UUID        `gorm:"column:subcategory_id;type:uuid"`
	Description   string            `gorm:"column:description;not null;default:''"`
	Kind          enums.ProductKind `gorm:"column:kind;type:product_kind;not null"`

	PricePerMeter *decimal.Decimal `gorm:"column:price_per_meter;type:numeric(12,2)"`
	DesignPrice   *decimal.Decimal `gorm:"column:design_price;type:numeric(12,2)"`
	BasePrice     *decimal.Decimal `gorm:"column:base_price;type:numeric(12,2)"`

	UnitExtension string           `gorm:"column:unit_extension;not null;default:'meter'"`
	GSTRate       *decimal.Decimal `gorm:"column:gst_rate;type:numeric(5,2)"`
	HSNCode       *string          `gorm:"column:hsn_code"`

	// DESIGNED products may recommend up to ten plain fabrics to print on.
	RecommendedPlainIDs pq.StringArray `gorm:"column:recommended_plain_ids;type:text[];not null;default:'{}'"`

	DigitalFileKey *string `gorm:"column:digital_file_key"`

	Status enums.ProductStatus `gorm:"column:status;type:product_status;not null;default:'inactive'"`

	Variants       []ProductVariant `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	PricingSlabs   []PricingSlab    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	DetailSections []DetailSection  `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	CustomFields   []CustomField    `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
	Media          []ProductMedia   `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
