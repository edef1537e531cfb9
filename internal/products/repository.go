package product

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/pagination"
)

// Repository wires together product persistence helpers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

// Create persists the product together with its nested collections.
func (r *Repository) Create(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).Create(product).Error
}

// Update saves the product row without touching associations.
func (r *Repository) Update(ctx context.Context, product *models.Product) error {
	return r.db.WithContext(ctx).
		Omit("Variants", "PricingSlabs", "DetailSections", "CustomFields", "Media").
		Save(product).Error
}

// Delete removes the product; children cascade at the database level.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.Product{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// FindByID loads the product with every nested collection ordered for display.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.preloadAll(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindBySlug loads the product by its storefront slug.
func (r *Repository) FindBySlug(ctx context.Context, slug string) (*models.Product, error) {
	var product models.Product
	err := r.preloadAll(r.db.WithContext(ctx)).First(&product, "slug = ?", slug).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindByIDs loads a set of products with variants and slabs, used by the
// cart and breakdown layers.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Variants", orderByDisplay).
		Preload("Variants.Options", orderByDisplay).
		Preload("PricingSlabs", orderByDisplay).
		Where("id IN ?", ids).
		Find(&products).Error
	return products, err
}

// SlugExists reports whether another product already owns the slug.
func (r *Repository) SlugExists(ctx context.Context, slug string, excludeID uuid.UUID) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Product{}).Where("slug = ?", slug)
	if excludeID != uuid.Nil {
		query = query.Where("id <> ?", excludeID)
	}
	if err := query.Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// ReplaceChildren swaps out every nested collection for the product in one go.
func (r *Repository) ReplaceChildren(ctx context.Context, productID uuid.UUID, product *models.Product) error {
	tx := r.db.WithContext(ctx)

	if err := tx.Where("variant_id IN (?)",
		tx.Session(&gorm.Session{NewDB: true}).
			Model(&models.ProductVariant{}).
			Select("id").
			Where("product_id = ?", productID),
	).Delete(&models.VariantOption{}).Error; err != nil {
		return err
	}
	for _, model := range []any{
		&models.ProductVariant{},
		&models.PricingSlab{},
		&models.DetailSection{},
		&models.CustomField{},
		&models.ProductMedia{},
	} {
		if err := tx.Where("product_id = ?", productID).Delete(model).Error; err != nil {
			return err
		}
	}

	for i := range product.Variants {
		product.Variants[i].ProductID = productID
		if err := tx.Create(&product.Variants[i]).Error; err != nil {
			return err
		}
	}
	if len(product.PricingSlabs) > 0 {
		for i := range product.PricingSlabs {
			product.PricingSlabs[i].ProductID = productID
		}
		if err := tx.Create(&product.PricingSlabs).Error; err != nil {
			return err
		}
	}
	if len(product.DetailSections) > 0 {
		for i := range product.DetailSections {
			product.DetailSections[i].ProductID = productID
		}
		if err := tx.Create(&product.DetailSections).Error; err != nil {
			return err
		}
	}
	if len(product.CustomFields) > 0 {
		for i := range product.CustomFields {
			product.CustomFields[i].ProductID = productID
		}
		if err := tx.Create(&product.CustomFields).Error; err != nil {
			return err
		}
	}
	if len(product.Media) > 0 {
		for i := range product.Media {
			product.Media[i].ProductID = productID
		}
		if err := tx.Create(&product.Media).Error; err != nil {
			return err
		}
	}
	return nil
}

// SaveVariantOrders persists renumbered display orders after a reorder.
func (r *Repository) SaveVariantOrders(ctx context.Context, variants []models.ProductVariant) error {
	tx := r.db.WithContext(ctx)
	for i := range variants {
		err := tx.Model(&models.ProductVariant{}).
			Where("id = ?", variants[i].ID).
			Update("display_order", variants[i].DisplayOrder).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// SaveSlabOrders persists renumbered display orders for pricing slabs.
func (r *Repository) SaveSlabOrders(ctx context.Context, slabs []models.PricingSlab) error {
	tx := r.db.WithContext(ctx)
	for i := range slabs {
		err := tx.Model(&models.PricingSlab{}).
			Where("id = ?", slabs[i].ID).
			Update("display_order", slabs[i].DisplayOrder).Error
		if err != nil {
			return err
		}
	}
	return nil
}

// ListFilter narrows catalog listings.
type ListFilter struct {
	Kind          *enums.ProductKind
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	Query         string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	ActiveOnly    bool
}

// List returns a cursor-paginated page of products, newest first. The caller
// trims the extra buffered row.
func (r *Repository) List(ctx context.Context, filter ListFilter, params pagination.Params) ([]models.Product, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Preload("Media", orderByDisplay).
		Preload("PricingSlabs", orderByDisplay)

	if filter.ActiveOnly {
		query = query.Where("status = ?", enums.ProductStatusActive)
	}
	if filter.Kind != nil {
		query = query.Where("kind = ?", *filter.Kind)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.SubcategoryID != nil {
		query = query.Where("subcategory_id = ?", *filter.SubcategoryID)
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		like := "%" + strings.ToLower(q) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}
	if filter.MinPrice != nil {
		query = query.Where("COALESCE(price_per_meter, design_price, base_price) >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("COALESCE(price_per_meter, design_price, base_price) <= ?", *filter.MaxPrice)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	if cursor != nil {
		query = query.Where(
			"created_at < ? OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var products []models.Product
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

// CountByCategory returns how many products reference the category directly
// or as a subcategory.
func (r *Repository) CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("category_id = ? OR subcategory_id = ?", categoryID, categoryID).
		Count(&count).Error
	return count, err
}

// IsNotFound reports whether the error is the gorm missing-record sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}

func (r *Repository) preloadAll(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Variants", orderByDisplay).
		Preload("Variants.Options", orderByDisplay).
		Preload("PricingSlabs", orderByDisplay).
		Preload("DetailSections", orderByDisplay).
		Preload("CustomFields", orderByDisplay).
		Preload("Media", orderByDisplay)
}

func orderByDisplay(db *gorm.DB) *gorm.DB {
	return db.Order("display_order ASC")
}
