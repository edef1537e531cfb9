package notify

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
)

// Repository persists notification rules.
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

func (r *Repository) Create(ctx context.Context, rule *models.NotificationRule) error {
	return r.db.WithContext(ctx).Create(rule).Error
}

func (r *Repository) Update(ctx context.Context, rule *models.NotificationRule) error {
	return r.db.WithContext(ctx).Save(rule).Error
}

func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.NotificationRule{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.NotificationRule, error) {
	var rule models.NotificationRule
	if err := r.db.WithContext(ctx).First(&rule, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *Repository) FindByEventType(ctx context.Context, eventType enums.OutboxEventType) (*models.NotificationRule, error) {
	var rule models.NotificationRule
	if err := r.db.WithContext(ctx).First(&rule, "event_type = ?", eventType).Error; err != nil {
		return nil, err
	}
	return &rule, nil
}

func (r *Repository) ListAll(ctx context.Context) ([]models.NotificationRule, error) {
	var rules []models.NotificationRule
	err := r.db.WithContext(ctx).Order("event_type ASC").Find(&rules).Error
	return rules, err
}

// IsNotFound reports whether the error is the gorm missing-record sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
