package orders

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/internal/pricing"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/types"
)

// OrderDTO is the full order view with per-line breakdowns.
type OrderDTO struct {
	ID              uuid.UUID       `json:"id"`
	Number          string          `json:"number"`
	UserID          uuid.UUID       `json:"user_id"`
	Status          string          `json:"status"`
	PaymentStatus   string          `json:"payment_status"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	GSTAmount       decimal.Decimal `json:"gst_amount"`
	Total           decimal.Decimal `json:"total"`
	ShippingAddress *types.Address  `json:"shipping_address,omitempty"`
	Lines           []LineDTO       `json:"lines"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// LineDTO mirrors the immutable line snapshot. The digital file key is never
// exposed here; downloads go through the authorization endpoint.
type LineDTO struct {
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
	HasDigitalFile    bool                    `json:"has_digital_file"`
	Breakdown         *pricing.Breakdown      `json:"breakdown,omitempty"`
}

// ListResultDTO is one cursor page of orders.
type ListResultDTO struct {
	Orders     []OrderDTO `json:"orders"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

// NewOrderDTO maps the model, rebuilding each line's display breakdown from
// the stored snapshot.
func NewOrderDTO(order *models.Order) OrderDTO {
	dto := OrderDTO{
		ID:              order.ID,
		Number:          order.Number,
		UserID:          order.UserID,
		Status:          order.Status.String(),
		PaymentStatus:   order.PaymentStatus.String(),
		Subtotal:        order.Subtotal,
		GSTAmount:       order.GSTAmount,
		Total:           order.Total,
		ShippingAddress: order.ShippingAddress,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Lines:           make([]LineDTO, len(order.Lines)),
	}
	for i, line := range order.Lines {
		dto.Lines[i] = newLineDTO(line)
	}
	return dto
}

func newLineDTO(line models.OrderLine) LineDTO {
	return LineDTO{
		ID:                line.ID,
		ProductID:         line.ProductID,
		ProductName:       line.ProductName,
		Kind:              line.Kind.String(),
		Quantity:          line.Quantity,
		UnitPrice:         line.UnitPrice,
		TotalPrice:        line.TotalPrice,
		DesignPrice:       line.DesignPrice,
		FabricPrice:       line.FabricPrice,
		FabricProductID:   line.FabricProductID,
		VariantSelections: line.VariantSelections,
		HasDigitalFile:    line.DigitalFileKey != nil,
		Breakdown:         lineBreakdown(line),
	}
}

// lineBreakdown re-expands the stored snapshot. Stored totals are
// authoritative, so no catalog lookup happens here.
func lineBreakdown(line models.OrderLine) *pricing.Breakdown {
	unit := line.UnitPrice
	total := line.TotalPrice
	breakdown, err := pricing.Reconstruct(pricing.LineInput{
		Kind:        line.Kind,
		Quantity:    line.Quantity,
		UnitPrice:   &unit,
		TotalPrice:  &total,
		DesignPrice: line.DesignPrice,
		FabricPrice: line.FabricPrice,
		Selections:  line.VariantSelections,
	})
	if err != nil {
		return nil
	}
	return breakdown
}
