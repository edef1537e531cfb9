package categories

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/db"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
)

// Service manages the category tree backing catalog filters.
type Service interface {
	CreateCategory(ctx context.Context, actorID uuid.UUID, input CreateInput) (*CategoryDTO, error)
	UpdateCategory(ctx context.Context, actorID, categoryID uuid.UUID, input UpdateInput) (*CategoryDTO, error)
	DeleteCategory(ctx context.Context, actorID, categoryID uuid.UUID) error
	ListTree(ctx context.Context) ([]CategoryDTO, error)
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// CreateInput holds the validated payload for a new category.
type CreateInput struct {
	Name         string
	ParentID     *uuid.UUID
	DisplayOrder int
}

// UpdateInput holds optional mutation values.
type UpdateInput struct {
	Name         *string
	DisplayOrder *int
}

// CategoryDTO is a tree node with its subcategories and product count.
type CategoryDTO struct {
	ID           uuid.UUID     `json:"id"`
	Name         string        `json:"name"`
	Slug         string        `json:"slug"`
	ParentID     *uuid.UUID    `json:"parent_id,omitempty"`
	DisplayOrder int           `json:"display_order"`
	ProductCount int64         `json:"product_count"`
	Children     []CategoryDTO `json:"children,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
}

type productCounter interface {
	CountByCategory(ctx context.Context, categoryID uuid.UUID) (int64, error)
}

type auditWriter interface {
	Record(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail *string) error
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	products productCounter
	audit    auditWriter
	logg     *logger.Logger
}

// NewService constructs a category service instance.
func NewService(repo *Repository, dbClient *db.Client, products productCounter, audit auditWriter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("category repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if products == nil {
		return nil, fmt.Errorf("product counter required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit writer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, products: products, audit: audit, logg: logg}, nil
}

// CreateCategory adds a top-level category or a subcategory. The tree is two
// levels deep: a subcategory cannot parent another category.
func (s *service) CreateCategory(ctx context.Context, actorID uuid.UUID, input CreateInput) (*CategoryDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}

	if input.ParentID != nil {
		parent, err := s.repo.FindByID(ctx, *input.ParentID)
		if err != nil {
			if IsNotFound(err) {
				return nil, pkgerrors.New(pkgerrors.CodeValidation, "parent category does not exist")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading parent category")
		}
		if parent.ParentID != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "subcategories cannot have children")
		}
	}

	slug, err := s.uniqueSlug(ctx, name, uuid.Nil)
	if err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:         name,
		Slug:         slug,
		ParentID:     input.ParentID,
		DisplayOrder: input.DisplayOrder,
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, category); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating category")
		}
		return s.audit.Record(ctx, tx, actorID, "category.create", "category", category.ID, nil)
	})
	if err != nil {
		return nil, err
	}

	dto := toDTO(category)
	return &dto, nil
}

// UpdateCategory renames or reorders a category.
func (s *service) UpdateCategory(ctx context.Context, actorID, categoryID uuid.UUID, input UpdateInput) (*CategoryDTO, error) {
	category, err := s.repo.FindByID(ctx, categoryID)
	if err != nil {
		if IsNotFound(err) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading category")
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
		}
		if name != category.Name {
			slug, err := s.uniqueSlug(ctx, name, category.ID)
			if err != nil {
				return nil, err
			}
			category.Name = name
			category.Slug = slug
		}
	}
	if input.DisplayOrder != nil {
		category.DisplayOrder = *input.DisplayOrder
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, category); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating category")
		}
		return s.audit.Record(ctx, tx, actorID, "category.update", "category", category.ID, nil)
	})
	if err != nil {
		return nil, err
	}

	dto := toDTO(category)
	return &dto, nil
}

// DeleteCategory refuses to delete a category that still has subcategories or
// products referencing it.
func (s *service) DeleteCategory(ctx context.Context, actorID, categoryID uuid.UUID) error {
	children, err := s.repo.CountChildren(ctx, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting subcategories")
	}
	if children > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has subcategories")
	}

	products, err := s.products.CountByCategory(ctx, categoryID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting category products")
	}
	if products > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "category still has products")
	}

	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Delete(ctx, categoryID); err != nil {
			if IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "category not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting category")
		}
		return s.audit.Record(ctx, tx, actorID, "category.delete", "category", categoryID, nil)
	})
}

// ListTree returns top-level categories with nested subcategories and product
// counts.
func (s *service) ListTree(ctx context.Context) ([]CategoryDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing categories")
	}

	childrenByParent := map[uuid.UUID][]CategoryDTO{}
	var roots []CategoryDTO
	for i := range rows {
		dto := toDTO(&rows[i])
		count, err := s.products.CountByCategory(ctx, rows[i].ID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "counting category products")
		}
		dto.ProductCount = count
		if rows[i].ParentID == nil {
			roots = append(roots, dto)
		} else {
			childrenByParent[*rows[i].ParentID] = append(childrenByParent[*rows[i].ParentID], dto)
		}
	}
	for i := range roots {
		roots[i].Children = childrenByParent[roots[i].ID]
	}
	return roots, nil
}

// Exists reports whether the category id resolves; used by the product layer.
func (s *service) Exists(ctx context.Context, id uuid.UUID) (bool, error) {
	return s.repo.Exists(ctx, id)
}

func (s *service) uniqueSlug(ctx context.Context, name string, excludeID uuid.UUID) (string, error) {
	base := slugify(name)
	if base == "" {
		base = "category"
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

func toDTO(category *models.Category) CategoryDTO {
	return CategoryDTO{
		ID:           category.ID,
		Name:         category.Name,
		Slug:         category.Slug,
		ParentID:     category.ParentID,
		DisplayOrder: category.DisplayOrder,
		CreatedAt:    category.CreatedAt,
	}
}

var slugStripRe = regexp.MustCompile(`[^a-z0-9]+`)

func slugify(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = slugStripRe.ReplaceAllString(slug, "-")
	return strings.Trim(slug, "-")
}
