package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/floraweave/floraweave-backend/api/middleware"
	"github.com/floraweave/floraweave-backend/api/responses"
	"github.com/floraweave/floraweave-backend/api/validators"
	productsvc "github.com/floraweave/floraweave-backend/internal/products"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
)

type productVariantOptionPayload struct {
	ID            uuid.UUID       `json:"id"`
	Value         string          `json:"value" validate:"required,max=120"`
	PriceModifier decimal.Decimal `json:"price_modifier"`
	DisplayOrder  int             `json:"display_order"`
}

type productVariantPayload struct {
	ID           uuid.UUID                     `json:"id"`
	Name         string                        `json:"name" validate:"required,max=120"`
	Unit         *string                       `json:"unit,omitempty"`
	DisplayOrder int                           `json:"display_order"`
	Options      []productVariantOptionPayload `json:"options" validate:"dive"`
}

type productSlabPayload struct {
	MinQuantity   int             `json:"min_quantity"`
	MaxQuantity   *int            `json:"max_quantity,omitempty"`
	DiscountType  string          `json:"discount_type" validate:"required"`
	DiscountValue decimal.Decimal `json:"discount_value"`
	DisplayOrder  int             `json:"display_order"`
}

type productDetailSectionPayload struct {
	Title        string `json:"title" validate:"required,max=200"`
	Content      string `json:"content"`
	DisplayOrder int    `json:"display_order"`
}

type productCustomFieldPayload struct {
	Label        string `json:"label" validate:"required,max=200"`
	FieldType    string `json:"field_type" validate:"required"`
	Placeholder  string `json:"placeholder"`
	IsRequired   bool   `json:"is_required"`
	DisplayOrder int    `json:"display_order"`
}

type productMediaPayload struct {
	MediaID      *uuid.UUID `json:"media_id,omitempty"`
	URL          string     `json:"url" validate:"required"`
	Type         string     `json:"type" validate:"required"`
	DisplayOrder int        `json:"display_order"`
}

type productDraftRequest struct {
	Name          string     `json:"name"`
	CategoryID    uuid.UUID  `json:"category_id"`
	SubcategoryID *uuid.UUID `json:"subcategory_id,omitempty"`
	Description   string     `json:"description"`
	Kind          string     `json:"type" validate:"required"`

	PricePerMeter *decimal.Decimal `json:"price_per_meter,omitempty"`
	DesignPrice   *decimal.Decimal `json:"design_price,omitempty"`
	BasePrice     *decimal.Decimal `json:"base_price,omitempty"`

	UnitExtension string           `json:"unit_extension"`
	GSTRate       *decimal.Decimal `json:"gst_rate,omitempty"`
	HSNCode       *string          `json:"hsn_code,omitempty"`

	RecommendedPlainIDs []uuid.UUID `json:"recommended_plain_product_ids,omitempty"`
	DigitalFileKey      *string     `json:"digital_file_key,omitempty"`

	Media          []productMediaPayload         `json:"media" validate:"dive"`
	PricingSlabs   []productSlabPayload          `json:"pricing_slabs" validate:"dive"`
	DetailSections []productDetailSectionPayload `json:"detail_sections" validate:"dive"`
	CustomFields   []productCustomFieldPayload   `json:"custom_fields" validate:"dive"`
	Variants       []productVariantPayload       `json:"variants" validate:"dive"`

	Status string `json:"status"`
}

func (req productDraftRequest) toInput() (productsvc.DraftInput, error) {
	kind, err := enums.ParseProductKind(req.Kind)
	if err != nil {
		return productsvc.DraftInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product type")
	}

	status := enums.ProductStatusInactive
	if req.Status != "" {
		status, err = enums.ParseProductStatus(req.Status)
		if err != nil {
			return productsvc.DraftInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid product status")
		}
	}

	input := productsvc.DraftInput{
		Name:                validators.SanitizeString(req.Name, 200),
		CategoryID:          req.CategoryID,
		SubcategoryID:       req.SubcategoryID,
		Description:         strings.TrimSpace(req.Description),
		Kind:                kind,
		PricePerMeter:       req.PricePerMeter,
		DesignPrice:         req.DesignPrice,
		BasePrice:           req.BasePrice,
		UnitExtension:       strings.TrimSpace(req.UnitExtension),
		GSTRate:             req.GSTRate,
		HSNCode:             req.HSNCode,
		RecommendedPlainIDs: req.RecommendedPlainIDs,
		DigitalFileKey:      req.DigitalFileKey,
		Status:              status,
	}

	input.Media = make([]productsvc.MediaInput, len(req.Media))
	for i, m := range req.Media {
		mediaType, err := enums.ParseMediaType(m.Type)
		if err != nil {
			return productsvc.DraftInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid media type")
		}
		input.Media[i] = productsvc.MediaInput{
			MediaID:      m.MediaID,
			URL:          m.URL,
			Type:         mediaType,
			DisplayOrder: m.DisplayOrder,
		}
	}

	input.PricingSlabs = make([]productsvc.SlabInput, len(req.PricingSlabs))
	for i, s := range req.PricingSlabs {
		discountType, err := enums.ParseDiscountType(s.DiscountType)
		if err != nil {
			return productsvc.DraftInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid discount type")
		}
		input.PricingSlabs[i] = productsvc.SlabInput{
			MinQuantity:   s.MinQuantity,
			MaxQuantity:   s.MaxQuantity,
			DiscountType:  discountType,
			DiscountValue: s.DiscountValue,
			DisplayOrder:  s.DisplayOrder,
		}
	}

	input.DetailSections = make([]productsvc.DetailSectionInput, len(req.DetailSections))
	for i, d := range req.DetailSections {
		input.DetailSections[i] = productsvc.DetailSectionInput{
			Title:        validators.SanitizeString(d.Title, 200),
			Content:      d.Content,
			DisplayOrder: d.DisplayOrder,
		}
	}

	input.CustomFields = make([]productsvc.CustomFieldInput, len(req.CustomFields))
	for i, c := range req.CustomFields {
		fieldType, err := enums.ParseCustomFieldType(c.FieldType)
		if err != nil {
			return productsvc.DraftInput{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid custom field type")
		}
		input.CustomFields[i] = productsvc.CustomFieldInput{
			Label:        validators.SanitizeString(c.Label, 200),
			FieldType:    fieldType,
			Placeholder:  c.Placeholder,
			IsRequired:   c.IsRequired,
			DisplayOrder: c.DisplayOrder,
		}
	}

	input.Variants = make([]productsvc.VariantInput, len(req.Variants))
	for i, v := range req.Variants {
		variant := productsvc.VariantInput{
			ID:           v.ID,
			Name:         validators.SanitizeString(v.Name, 120),
			Unit:         v.Unit,
			DisplayOrder: v.DisplayOrder,
		}
		variant.Options = make([]productsvc.OptionInput, len(v.Options))
		for j, o := range v.Options {
			variant.Options[j] = productsvc.OptionInput{
				ID:            o.ID,
				Value:         validators.SanitizeString(o.Value, 120),
				PriceModifier: o.PriceModifier,
				DisplayOrder:  o.DisplayOrder,
			}
		}
		input.Variants[i] = variant
	}

	return input, nil
}

func draftMode(r *http.Request) bool {
	return strings.EqualFold(r.URL.Query().Get("draft"), "true")
}

// ProductCreate persists a new product aggregate. With ?draft=true the
// payload skips publish validation and lands inactive.
func ProductCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload productDraftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.CreateProduct(r.Context(), actorID, input, draftMode(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

// ProductUpdate replaces the stored aggregate with the submitted one.
func ProductUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload productDraftRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.UpdateProduct(r.Context(), actorID, productID, input, draftMode(r))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

// ProductDelete removes a product.
func ProductDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteProduct(r.Context(), actorID, productID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// ProductDetail returns the full aggregate by id for the back office.
func ProductDetail(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := svc.GetProduct(r.Context(), productID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}

type validateFieldRequest struct {
	Field string              `json:"field" validate:"required"`
	Draft productDraftRequest `json:"draft" validate:"required"`
}

// ProductValidateField runs single-field validation against a draft so the
// back office surfaces errors as the admin types.
func ProductValidateField(logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload validateFieldRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.Draft.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		message := productsvc.ValidateField(input, payload.Field)
		responses.WriteSuccess(w, map[string]any{
			"field": payload.Field,
			"valid": message == "",
			"error": message,
		})
	}
}

type moveRequest struct {
	FromID uuid.UUID `json:"from_id" validate:"required"`
	ToID   uuid.UUID `json:"to_id" validate:"required"`
}

// ProductMoveVariant swaps two variants' display positions.
func ProductMoveVariant(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productMove(svc.MoveVariant, logg)
}

// ProductMoveSlab swaps two pricing slabs' display positions.
func ProductMoveSlab(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return productMove(svc.MoveSlab, logg)
}

func productMove(move func(ctx context.Context, actorID, productID, fromID, toID uuid.UUID) (*productsvc.ProductDTO, error), logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		productID, err := validators.ParsePathUUID(chi.URLParam(r, "productId"), "productId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload moveRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		product, err := move(r.Context(), actorID, productID, payload.FromID, payload.ToID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, product)
	}
}
