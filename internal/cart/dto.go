package cart

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/internal/pricing"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/types"
)

// CartDTO is the customer's cart with per-line breakdowns and totals.
type CartDTO struct {
	ID        uuid.UUID       `json:"id"`
	Items     []ItemDTO       `json:"items"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	GSTAmount decimal.Decimal `json:"gst_amount"`
	Total     decimal.Decimal `json:"total"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// ItemDTO is one configured line plus its display breakdown.
type ItemDTO struct {
	ID                uuid.UUID               `json:"id"`
	ProductID         uuid.UUID               `json:"product_id"`
	ProductName       string                  `json:"product_name"`
	Kind              string                  `json:"type"`
	Quantity          decimal.Decimal         `json:"quantity"`
	UnitPrice         decimal.Decimal         `json:"unit_price"`
	TotalPrice        decimal.Decimal         `json:"total_price"`
	DesignPrice       *decimal.Decimal        `json:"design_price,omitempty"`
	FabricPrice       *decimal.Decimal        `json:"fabric_price,omitempty"`
	FabricProductID   *uuid.UUID              `json:"fabric_product_id,omitempty"`
	VariantSelections types.VariantSelections `json:"variant_selections"`
	Breakdown         *pricing.Breakdown      `json:"breakdown,omitempty"`
}

func newItemDTO(item models.CartItem, breakdown *pricing.Breakdown) ItemDTO {
	return ItemDTO{
		ID:                item.ID,
		ProductID:         item.ProductID,
		ProductName:       item.ProductName,
		Kind:              item.Kind.String(),
		Quantity:          item.Quantity,
		UnitPrice:         item.UnitPrice,
		TotalPrice:        item.TotalPrice,
		DesignPrice:       item.DesignPrice,
		FabricPrice:       item.FabricPrice,
		FabricProductID:   item.FabricProductID,
		VariantSelections: item.VariantSelections,
		Breakdown:         breakdown,
	}
}
