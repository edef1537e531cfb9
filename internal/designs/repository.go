package designs

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/pagination"
)

// Repository persists custom-design intake requests.
type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// WithTx returns a repository bound to the provided transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{db: tx}
}

func (r *Repository) Create(ctx context.Context, request *models.DesignRequest) error {
	return r.db.WithContext(ctx).Create(request).Error
}

func (r *Repository) Update(ctx context.Context, request *models.DesignRequest) error {
	return r.db.WithContext(ctx).Save(request).Error
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DesignRequest, error) {
	var request models.DesignRequest
	if err := r.db.WithContext(ctx).First(&request, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &request, nil
}

// List returns one cursor page, newest first, optionally filtered by status.
func (r *Repository) List(ctx context.Context, status *enums.DesignRequestStatus, params pagination.Params) ([]models.DesignRequest, error) {
	query := r.db.WithContext(ctx).Model(&models.DesignRequest{})
	if status != nil {
		query = query.Where("status = ?", *status)
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

	var rows []models.DesignRequest
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// IsNotFound reports whether the error is the gorm missing-record sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
