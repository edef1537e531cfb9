package cart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/db/models"
)

// Repository persists the single active cart per customer.
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

// FindByUser loads the cart with its items, oldest line first.
func (r *Repository) FindByUser(ctx context.Context, userID uuid.UUID) (*models.CartRecord, error) {
	var cart models.CartRecord
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("created_at ASC") }).
		First(&cart, "user_id = ?", userID).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save upserts the cart row and replaces its items wholesale.
func (r *Repository) Save(ctx context.Context, cart *models.CartRecord) error {
	tx := r.db.WithContext(ctx)

	items := cart.Items
	cart.Items = nil
	if err := tx.Save(cart).Error; err != nil {
		return err
	}
	if err := tx.Where("cart_id = ?", cart.ID).Delete(&models.CartItem{}).Error; err != nil {
		return err
	}
	for i := range items {
		items[i].CartID = cart.ID
		if err := tx.Create(&items[i]).Error; err != nil {
			return err
		}
	}
	cart.Items = items
	return nil
}

// Clear drops the cart and everything in it.
func (r *Repository) Clear(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.CartRecord{}, "user_id = ?", userID).Error
}

// IsNotFound reports whether the error is the gorm missing-record sentinel.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
