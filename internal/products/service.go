package product

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/db"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
	"github.com/floraweave/floraweave-backend/pkg/outbox"
)

// Service exposes catalog management and storefront read operations.
type Service interface {
	CreateProduct(ctx context.Context, actorID uuid.UUID, input DraftInput, draftMode bool) (*ProductDTO, error)
	UpdateProduct(ctx context.Context, actorID, productID uuid.UUID, input DraftInput, draftMode bool) (*ProductDTO, error)
	DeleteProduct(ctx context.Context, actorID, productID uuid.UUID) error
	GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error)
	GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error)
	ListProducts(ctx context.Context, input ListInput) (*ListResultDTO, error)
	MoveVariant(ctx context.Context, actorID, productID, fromID, toID uuid.UUID) (*ProductDTO, error)
	MoveSlab(ctx context.Context, actorID, productID, fromID, toID uuid.UUID) (*ProductDTO, error)
}

type categoryChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type auditWriter interface {
	Record(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail *string) error
}

type outboxInserter interface {
	Insert(tx *gorm.DB, event models.OutboxEvent) error
}

type service struct {
	repo       *Repository
	dbClient   *db.Client
	categories categoryChecker
	audit      auditWriter
	outbox     outboxInserter
	logg       *logger.Logger
}

// NewService constructs a product service instance.
func NewService(repo *Repository, dbClient *db.Client, categories categoryChecker, audit auditWriter, outboxRepo outboxInserter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("product repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if categories == nil {
		return nil, fmt.Errorf("category checker required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit writer required")
	}
	if outboxRepo == nil {
		return nil, fmt.Errorf("outbox repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		dbClient:   dbClient,
		categories: categories,
		audit:      audit,
		outbox:     outboxRepo,
		logg:       logg,
	}, nil
}

// CreateProduct persists the whole aggregate in one transaction. When
// draftMode is set validation is bypassed and the product is stored inactive.
func (s *service) CreateProduct(ctx context.Context, actorID uuid.UUID, input DraftInput, draftMode bool) (*ProductDTO, error) {
	if err := s.prepareDraft(ctx, &input, draftMode); err != nil {
		return nil, err
	}

	model, err := buildModel(input)
	if err != nil {
		return nil, err
	}

	slug, err := s.uniqueSlug(ctx, input.Name, uuid.Nil)
	if err != nil {
		return nil, err
	}
	model.Slug = slug

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, model); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating product")
		}
		if err := s.audit.Record(ctx, tx, actorID, "product.create", "product", model.ID, nil); err != nil {
			return err
		}
		if model.Status == enums.ProductStatusActive {
			return s.appendPublishedEvent(tx, model, actorID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "product_id", model.ID.String()), "product created")
	return s.GetProduct(ctx, model.ID)
}

// UpdateProduct replaces the stored aggregate with the submitted one.
func (s *service) UpdateProduct(ctx context.Context, actorID, productID uuid.UUID, input DraftInput, draftMode bool) (*ProductDTO, error) {
	existing, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFoundOrInternal(err, "loading product")
	}

	if err := s.prepareDraft(ctx, &input, draftMode); err != nil {
		return nil, err
	}

	model, err := buildModel(input)
	if err != nil {
		return nil, err
	}
	model.ID = existing.ID
	model.CreatedAt = existing.CreatedAt

	if input.Name == existing.Name {
		model.Slug = existing.Slug
	} else {
		slug, err := s.uniqueSlug(ctx, input.Name, existing.ID)
		if err != nil {
			return nil, err
		}
		model.Slug = slug
	}

	wasInactive := existing.Status == enums.ProductStatusInactive

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.ReplaceChildren(ctx, existing.ID, model); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "replacing product collections")
		}
		row := *model
		row.Variants = nil
		row.PricingSlabs = nil
		row.DetailSections = nil
		row.CustomFields = nil
		row.Media = nil
		if err := repo.Update(ctx, &row); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating product")
		}
		if err := s.audit.Record(ctx, tx, actorID, "product.update", "product", existing.ID, nil); err != nil {
			return err
		}
		if wasInactive && model.Status == enums.ProductStatusActive {
			return s.appendPublishedEvent(tx, model, actorID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.GetProduct(ctx, productID)
}

// DeleteProduct removes the product and its collections.
func (s *service) DeleteProduct(ctx context.Context, actorID, productID uuid.UUID) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Delete(ctx, productID); err != nil {
			return notFoundOrInternal(err, "deleting product")
		}
		return s.audit.Record(ctx, tx, actorID, "product.delete", "product", productID, nil)
	})
}

// GetProduct returns the full aggregate payload.
func (s *service) GetProduct(ctx context.Context, productID uuid.UUID) (*ProductDTO, error) {
	model, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFoundOrInternal(err, "loading product")
	}
	return NewProductDTO(model), nil
}

// GetProductBySlug returns the aggregate for the storefront detail page.
func (s *service) GetProductBySlug(ctx context.Context, slug string) (*ProductDTO, error) {
	model, err := s.repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, notFoundOrInternal(err, "loading product")
	}
	return NewProductDTO(model), nil
}

// MoveVariant relocates a variant to another variant's position and persists
// the renumbered orders. Unresolved ids and self-drops change nothing.
func (s *service) MoveVariant(ctx context.Context, actorID, productID, fromID, toID uuid.UUID) (*ProductDTO, error) {
	model, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFoundOrInternal(err, "loading product")
	}

	changed := MoveItem(model.Variants, fromID, toID,
		func(v models.ProductVariant) uuid.UUID { return v.ID },
		func(v *models.ProductVariant, i int) { v.DisplayOrder = i },
	)
	if changed {
		err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.SaveVariantOrders(ctx, model.Variants); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving variant order")
			}
			return s.audit.Record(ctx, tx, actorID, "product.variant.move", "product", productID, nil)
		})
		if err != nil {
			return nil, err
		}
	}
	return NewProductDTO(model), nil
}

// MoveSlab relocates a pricing slab the same way.
func (s *service) MoveSlab(ctx context.Context, actorID, productID, fromID, toID uuid.UUID) (*ProductDTO, error) {
	model, err := s.repo.FindByID(ctx, productID)
	if err != nil {
		return nil, notFoundOrInternal(err, "loading product")
	}

	changed := MoveItem(model.PricingSlabs, fromID, toID,
		func(s models.PricingSlab) uuid.UUID { return s.ID },
		func(s *models.PricingSlab, i int) { s.DisplayOrder = i },
	)
	if changed {
		err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			repo := s.repo.WithTx(tx)
			if err := repo.SaveSlabOrders(ctx, model.PricingSlabs); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "saving slab order")
			}
			return s.audit.Record(ctx, tx, actorID, "product.slab.move", "product", productID, nil)
		})
		if err != nil {
			return nil, err
		}
	}
	return NewProductDTO(model), nil
}

func (s *service) prepareDraft(ctx context.Context, input *DraftInput, draftMode bool) error {
	ApplySlabDefaults(input.PricingSlabs)
	Normalize(input)

	if draftMode {
		input.Status = enums.ProductStatusInactive
	} else {
		if errs := ValidateDraft(*input); len(errs) > 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, "product draft failed validation").WithDetails(errs)
		}
	}
	if !input.Status.IsValid() {
		input.Status = enums.ProductStatusInactive
	}

	if input.CategoryID != uuid.Nil {
		ok, err := s.categories.Exists(ctx, input.CategoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking category")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "category does not exist")
		}
	}
	if input.SubcategoryID != nil {
		ok, err := s.categories.Exists(ctx, *input.SubcategoryID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking subcategory")
		}
		if !ok {
			return pkgerrors.New(pkgerrors.CodeValidation, "subcategory does not exist")
		}
	}
	return nil
}

func (s *service) appendPublishedEvent(tx *gorm.DB, model *models.Product, actorID uuid.UUID) error {
	event, err := outbox.NewEvent(
		enums.EventProductPublished,
		enums.AggregateProduct,
		model.ID,
		&actorID,
		map[string]any{"product_id": model.ID, "name": model.Name, "type": model.Kind},
	)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building outbox event")
	}
	if err := s.outbox.Insert(tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting outbox event")
	}
	return nil
}

func (s *service) uniqueSlug(ctx context.Context, name string, excludeID uuid.UUID) (string, error) {
	base := Slugify(name)
	if base == "" {
		base = "product"
	}
	slug := base
	for i := 2; ; i++ {
		taken, err := s.repo.SlugExists(ctx, slug, excludeID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking slug")
		}
		if !taken {
			return slug, nil
		}
		slug = fmt.Sprintf("%s-%d", base, i)
	}
}

// buildModel maps the validated draft onto the persistence model, keeping only
// the price field that matches the kind.
func buildModel(input DraftInput) (*models.Product, error) {
	model := &models.Product{
		Name:          strings.TrimSpace(input.Name),
		CategoryID:    input.CategoryID,
		SubcategoryID: input.SubcategoryID,
		Description:   input.Description,
		Kind:          input.Kind,
		UnitExtension: input.UnitExtension,
		GSTRate:       input.GSTRate,
		HSNCode:       input.HSNCode,
		Status:        input.Status,
	}
	if model.UnitExtension == "" {
		model.UnitExtension = "meter"
	}

	switch input.Kind {
	case enums.ProductKindPlain:
		model.PricePerMeter = input.PricePerMeter
	case enums.ProductKindDesigned:
		model.DesignPrice = input.DesignPrice
		ids := make([]string, 0, len(input.RecommendedPlainIDs))
		for _, id := range input.RecommendedPlainIDs {
			ids = append(ids, id.String())
		}
		model.RecommendedPlainIDs = ids
	case enums.ProductKindDigital:
		model.BasePrice = input.BasePrice
		model.DigitalFileKey = input.DigitalFileKey
	default:
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid product type")
	}

	model.Variants = make([]models.ProductVariant, len(input.Variants))
	for i, variant := range input.Variants {
		options := make([]models.VariantOption, len(variant.Options))
		for j, opt := range variant.Options {
			options[j] = models.VariantOption{
				ID:            opt.ID,
				Value:         opt.Value,
				PriceModifier: opt.PriceModifier,
				DisplayOrder:  opt.DisplayOrder,
			}
		}
		model.Variants[i] = models.ProductVariant{
			ID:           variant.ID,
			Name:         variant.Name,
			Unit:         variant.Unit,
			DisplayOrder: variant.DisplayOrder,
			Options:      options,
		}
	}

	if input.Kind == enums.ProductKindDesigned {
		model.PricingSlabs = make([]models.PricingSlab, len(input.PricingSlabs))
		for i, slab := range input.PricingSlabs {
			model.PricingSlabs[i] = models.PricingSlab{
				MinQuantity:   slab.MinQuantity,
				MaxQuantity:   slab.MaxQuantity,
				DiscountType:  slab.DiscountType,
				DiscountValue: slab.DiscountValue,
				DisplayOrder:  slab.DisplayOrder,
			}
		}
	}

	model.DetailSections = make([]models.DetailSection, len(input.DetailSections))
	for i, section := range input.DetailSections {
		model.DetailSections[i] = models.DetailSection{
			Title:        section.Title,
			Content:      section.Content,
			DisplayOrder: section.DisplayOrder,
		}
	}

	model.CustomFields = make([]models.CustomField, len(input.CustomFields))
	for i, field := range input.CustomFields {
		model.CustomFields[i] = models.CustomField{
			Label:        field.Label,
			FieldType:    field.FieldType,
			Placeholder:  field.Placeholder,
			IsRequired:   field.IsRequired,
			DisplayOrder: field.DisplayOrder,
		}
	}

	model.Media = make([]models.ProductMedia, len(input.Media))
	for i, media := range input.Media {
		model.Media[i] = models.ProductMedia{
			MediaID:      media.MediaID,
			URL:          media.URL,
			Type:         media.Type,
			DisplayOrder: media.DisplayOrder,
		}
	}

	return model, nil
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases the name and collapses runs of other characters to '-'.
func Slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugStripRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}

func notFoundOrInternal(err error, message string) error {
	if IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "product not found")
	}
	if typed := pkgerrors.As(err); typed != nil {
		return typed
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, message)
}
