package product

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/pkg/enums"
)

const maxRecommendedPlain = 10

// VariantInput is one named attribute of a draft with its priced options.
type VariantInput struct {
	ID           uuid.UUID
	Name         string
	Unit         *string
	DisplayOrder int
	Options      []OptionInput
}

// OptionInput is a selectable value carrying a price delta.
type OptionInput struct {
	ID            uuid.UUID
	Value         string
	PriceModifier decimal.Decimal
	DisplayOrder  int
}

// DetailSectionInput is a titled content block.
type DetailSectionInput struct {
	Title        string
	Content      string
	DisplayOrder int
}

// CustomFieldInput is an admin-defined buyer input.
type CustomFieldInput struct {
	Label        string
	FieldType    enums.CustomFieldType
	Placeholder  string
	IsRequired   bool
	DisplayOrder int
}

// MediaInput is one gallery entry.
type MediaInput struct {
	MediaID      *uuid.UUID
	URL          string
	Type         enums.MediaType
	DisplayOrder int
}

// DraftInput is the whole product aggregate as submitted by the back office.
// It is persisted atomically; collections replace whatever is stored.
type DraftInput struct {
	Name          string
	CategoryID    uuid.UUID
	SubcategoryID *uuid.UUID
	Description   string
	Kind          enums.ProductKind

	PricePerMeter *decimal.Decimal
	DesignPrice   *decimal.Decimal
	BasePrice     *decimal.Decimal

	UnitExtension string
	GSTRate       *decimal.Decimal
	HSNCode       *string

	RecommendedPlainIDs []uuid.UUID
	DigitalFileKey      *string

	Media          []MediaInput
	PricingSlabs   []SlabInput
	DetailSections []DetailSectionInput
	CustomFields   []CustomFieldInput
	Variants       []VariantInput

	Status enums.ProductStatus
}

// ValidateField validates a single draft field by its form key, branching on
// the selected kind so requirements swap when the kind changes. It returns an
// empty string when the field is valid.
func ValidateField(d DraftInput, field string) string {
	switch field {
	case "name":
		if strings.TrimSpace(d.Name) == "" {
			return "name is required"
		}
	case "categoryId":
		if d.CategoryID == uuid.Nil {
			return "category is required"
		}
	case "type":
		if !d.Kind.IsValid() {
			return "product type is required"
		}
	case "pricePerMeter":
		if d.Kind != enums.ProductKindPlain {
			return ""
		}
		if d.PricePerMeter == nil || !d.PricePerMeter.IsPositive() {
			return "price per meter is required"
		}
	case "designPrice":
		if d.Kind != enums.ProductKindDesigned {
			return ""
		}
		if d.DesignPrice == nil || !d.DesignPrice.IsPositive() {
			return "design price is required"
		}
	case "basePrice":
		if d.Kind != enums.ProductKindDigital {
			return ""
		}
		if d.BasePrice == nil || !d.BasePrice.IsPositive() {
			return "price is required"
		}
	case "digitalFile":
		if d.Kind != enums.ProductKindDigital {
			return ""
		}
		if d.DigitalFileKey == nil || strings.TrimSpace(*d.DigitalFileKey) == "" {
			return "digital file is required"
		}
	case "gstRate":
		if d.GSTRate != nil && (d.GSTRate.IsNegative() || d.GSTRate.GreaterThan(oneHundred)) {
			return "gst rate must be between 0 and 100"
		}
	case "recommendedPlainProductIds":
		if d.Kind != enums.ProductKindDesigned {
			return ""
		}
		if len(d.RecommendedPlainIDs) > maxRecommendedPlain {
			return "at most 10 recommended fabrics are allowed"
		}
	}
	return ""
}

var draftFields = []string{
	"name",
	"categoryId",
	"type",
	"pricePerMeter",
	"designPrice",
	"basePrice",
	"digitalFile",
	"gstRate",
	"recommendedPlainProductIds",
}

// ValidateDraft runs every field validator plus, for DESIGNED drafts, the
// full pricing slab sweep. The map is empty when the draft is submittable.
func ValidateDraft(d DraftInput) map[string]string {
	errs := map[string]string{}
	for _, field := range draftFields {
		if msg := ValidateField(d, field); msg != "" {
			errs[field] = msg
		}
	}
	for _, msg := range validateCollections(d) {
		errs[msg.key] = msg.value
	}
	if d.Kind == enums.ProductKindDesigned {
		for key, msg := range ValidateSlabs(d.PricingSlabs) {
			errs[key] = msg
		}
	}
	return errs
}

type keyedError struct {
	key   string
	value string
}

func validateCollections(d DraftInput) []keyedError {
	var errs []keyedError
	for i, variant := range d.Variants {
		if strings.TrimSpace(variant.Name) == "" {
			errs = append(errs, keyedError{variantFieldKey(i, "name"), "variant name is required"})
		}
		seen := map[uuid.UUID]bool{}
		for _, opt := range variant.Options {
			if opt.ID != uuid.Nil && seen[opt.ID] {
				errs = append(errs, keyedError{variantFieldKey(i, "options"), "option ids must be unique"})
				break
			}
			seen[opt.ID] = true
		}
	}
	for i, field := range d.CustomFields {
		if strings.TrimSpace(field.Label) == "" {
			errs = append(errs, keyedError{customFieldKey(i, "label"), "label is required"})
		}
		if !field.FieldType.IsValid() {
			errs = append(errs, keyedError{customFieldKey(i, "fieldType"), "field type is required"})
		}
	}
	for i, media := range d.Media {
		if !media.Type.IsValid() {
			errs = append(errs, keyedError{mediaFieldKey(i, "type"), "media type is required"})
		}
	}
	return errs
}

// Normalize renumbers every ordered collection densely in slice order. It runs
// on both validated and draft submissions so stored orders never have gaps.
func Normalize(d *DraftInput) {
	Renumber(d.Variants, func(v *VariantInput, i int) { v.DisplayOrder = i })
	for vi := range d.Variants {
		Renumber(d.Variants[vi].Options, func(o *OptionInput, i int) { o.DisplayOrder = i })
	}
	Renumber(d.PricingSlabs, func(s *SlabInput, i int) { s.DisplayOrder = i })
	Renumber(d.DetailSections, func(s *DetailSectionInput, i int) { s.DisplayOrder = i })
	Renumber(d.CustomFields, func(f *CustomFieldInput, i int) { f.DisplayOrder = i })
	Renumber(d.Media, func(m *MediaInput, i int) { m.DisplayOrder = i })
}

func variantFieldKey(idx int, field string) string {
	return "variant_" + strconv.Itoa(idx) + "_" + field
}

func customFieldKey(idx int, field string) string {
	return "customField_" + strconv.Itoa(idx) + "_" + field
}

func mediaFieldKey(idx int, field string) string {
	return "media_" + strconv.Itoa(idx) + "_" + field
}
