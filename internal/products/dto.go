package product

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/pkg/db/models"
)

// ProductDTO is the full product payload returned to the back office and the
// storefront detail page.
type ProductDTO struct {
	ID            uuid.UUID  `json:"id"`
	Name          string     `json:"name"`
	Slug          string     `json:"slug"`
	CategoryID    uuid.UUID  `json:"category_id"`
	SubcategoryID *uuid.UUID `json:"subcategory_id,omitempty"`
	Description   string     `json:"description"`
	Kind          string     `json:"type"`

	PricePerMeter *decimal.Decimal `json:"price_per_meter,omitempty"`
	DesignPrice   *decimal.Decimal `json:"design_price,omitempty"`
	BasePrice     *decimal.Decimal `json:"base_price,omitempty"`

	UnitExtension string           `json:"unit_extension"`
	GSTRate       *decimal.Decimal `json:"gst_rate,omitempty"`
	HSNCode       *string          `json:"hsn_code,omitempty"`

	RecommendedPlainIDs []string `json:"recommended_plain_product_ids,omitempty"`
	HasDigitalFile      bool     `json:"has_digital_file"`

	Status string `json:"status"`

	Variants       []VariantDTO       `json:"variants"`
	PricingSlabs   []SlabDTO          `json:"pricing_slabs"`
	DetailSections []DetailSectionDTO `json:"detail_sections"`
	CustomFields   []CustomFieldDTO   `json:"custom_fields"`
	Media          []MediaDTO         `json:"media"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// VariantDTO is one named attribute with its priced options.
type VariantDTO struct {
	ID           uuid.UUID   `json:"id"`
	Name         string      `json:"name"`
	Unit         *string     `json:"unit,omitempty"`
	DisplayOrder int         `json:"display_order"`
	Options      []OptionDTO `json:"options"`
}

// OptionDTO is a selectable value with its price delta.
type OptionDTO struct {
	ID            uuid.UUID       `json:"id"`
	Value         string          `json:"value"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
	DisplayOrder  int             `json:"display_order"`
}

// SlabDTO carries a quantity band plus the effective per-meter price pair the
// storefront shows as "before/after slab".
type SlabDTO struct {
	ID             uuid.UUID        `json:"id"`
	MinQuantity    int              `json:"min_quantity"`
	MaxQuantity    *int             `json:"max_quantity,omitempty"`
	DiscountType   string           `json:"discount_type"`
	DiscountValue  decimal.Decimal  `json:"discount_value"`
	DisplayOrder   int              `json:"display_order"`
	BasePrice      *decimal.Decimal `json:"base_price,omitempty"`
	EffectivePrice *decimal.Decimal `json:"effective_price,omitempty"`
}

// DetailSectionDTO is a titled content block.
type DetailSectionDTO struct {
	ID           uuid.UUID `json:"id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	DisplayOrder int       `json:"display_order"`
}

// CustomFieldDTO is an admin-defined buyer input.
type CustomFieldDTO struct {
	ID           uuid.UUID `json:"id"`
	Label        string    `json:"label"`
	FieldType    string    `json:"field_type"`
	Placeholder  string    `json:"placeholder"`
	IsRequired   bool      `json:"is_required"`
	DisplayOrder int       `json:"display_order"`
}

// MediaDTO is one gallery entry.
type MediaDTO struct {
	ID           uuid.UUID  `json:"id"`
	MediaID      *uuid.UUID `json:"media_id,omitempty"`
	URL          string     `json:"url"`
	Type         string     `json:"type"`
	DisplayOrder int        `json:"display_order"`
}

// ListItemDTO is the trimmed card shown on catalog pages.
type ListItemDTO struct {
	ID            uuid.UUID        `json:"id"`
	Name          string           `json:"name"`
	Slug          string           `json:"slug"`
	Kind          string           `json:"type"`
	Price         *decimal.Decimal `json:"price,omitempty"`
	Status        string           `json:"status"`
	PrimaryImage  *string          `json:"primary_image,omitempty"`
	UnitExtension string           `json:"unit_extension"`
	CreatedAt     time.Time        `json:"created_at"`
}

// ListResultDTO is one page of catalog results.
type ListResultDTO struct {
	Items      []ListItemDTO `json:"items"`
	NextCursor *string       `json:"next_cursor,omitempty"`
}

// NewProductDTO builds the full payload from the persisted model. The slab
// price pair is derived from the stored design price so clients redisplay it
// without recomputing.
func NewProductDTO(p *models.Product) *ProductDTO {
	dto := &ProductDTO{
		ID:             p.ID,
		Name:           p.Name,
		Slug:           p.Slug,
		CategoryID:     p.CategoryID,
		SubcategoryID:  p.SubcategoryID,
		Description:    p.Description,
		Kind:           p.Kind.String(),
		PricePerMeter:  p.PricePerMeter,
		DesignPrice:    p.DesignPrice,
		BasePrice:      p.BasePrice,
		UnitExtension:  p.UnitExtension,
		GSTRate:        p.GSTRate,
		HSNCode:        p.HSNCode,
		HasDigitalFile: p.DigitalFileKey != nil,
		Status:         p.Status.String(),
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
	dto.RecommendedPlainIDs = append([]string{}, p.RecommendedPlainIDs...)

	dto.Variants = make([]VariantDTO, len(p.Variants))
	for i, variant := range p.Variants {
		options := make([]OptionDTO, len(variant.Options))
		for j, opt := range variant.Options {
			options[j] = OptionDTO{
				ID:            opt.ID,
				Value:         opt.Value,
				PriceModifier: opt.PriceModifier,
				DisplayOrder:  opt.DisplayOrder,
			}
		}
		dto.Variants[i] = VariantDTO{
			ID:           variant.ID,
			Name:         variant.Name,
			Unit:         variant.Unit,
			DisplayOrder: variant.DisplayOrder,
			Options:      options,
		}
	}

	dto.PricingSlabs = make([]SlabDTO, len(p.PricingSlabs))
	for i, slab := range p.PricingSlabs {
		entry := SlabDTO{
			ID:            slab.ID,
			MinQuantity:   slab.MinQuantity,
			MaxQuantity:   slab.MaxQuantity,
			DiscountType:  slab.DiscountType.String(),
			DiscountValue: slab.DiscountValue,
			DisplayOrder:  slab.DisplayOrder,
		}
		if p.DesignPrice != nil {
			effective := EffectiveUnitPrice(*p.DesignPrice, slab.DiscountType, slab.DiscountValue)
			entry.BasePrice = p.DesignPrice
			entry.EffectivePrice = &effective
		}
		dto.PricingSlabs[i] = entry
	}

	dto.DetailSections = make([]DetailSectionDTO, len(p.DetailSections))
	for i, section := range p.DetailSections {
		dto.DetailSections[i] = DetailSectionDTO{
			ID:           section.ID,
			Title:        section.Title,
			Content:      section.Content,
			DisplayOrder: section.DisplayOrder,
		}
	}

	dto.CustomFields = make([]CustomFieldDTO, len(p.CustomFields))
	for i, field := range p.CustomFields {
		dto.CustomFields[i] = CustomFieldDTO{
			ID:           field.ID,
			Label:        field.Label,
			FieldType:    field.FieldType.String(),
			Placeholder:  field.Placeholder,
			IsRequired:   field.IsRequired,
			DisplayOrder: field.DisplayOrder,
		}
	}

	dto.Media = make([]MediaDTO, len(p.Media))
	for i, media := range p.Media {
		dto.Media[i] = MediaDTO{
			ID:           media.ID,
			MediaID:      media.MediaID,
			URL:          media.URL,
			Type:         media.Type.String(),
			DisplayOrder: media.DisplayOrder,
		}
	}

	return dto
}

// NewListItemDTO builds the catalog card payload.
func NewListItemDTO(p *models.Product) ListItemDTO {
	item := ListItemDTO{
		ID:            p.ID,
		Name:          p.Name,
		Slug:          p.Slug,
		Kind:          p.Kind.String(),
		Status:        p.Status.String(),
		UnitExtension: p.UnitExtension,
		CreatedAt:     p.CreatedAt,
	}
	switch {
	case p.PricePerMeter != nil:
		item.Price = p.PricePerMeter
	case p.DesignPrice != nil:
		item.Price = p.DesignPrice
	case p.BasePrice != nil:
		item.Price = p.BasePrice
	}
	for _, media := range p.Media {
		if media.DisplayOrder == 0 {
			url := media.URL
			item.PrimaryImage = &url
			break
		}
	}
	return item
}
