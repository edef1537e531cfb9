package audit

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/db/models"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/pagination"
)

// Recorder appends audit rows inside the caller's transaction so the log and
// the mutation commit together.
type Recorder struct {
	db *gorm.DB
}

func NewRecorder(db *gorm.DB) *Recorder {
	return &Recorder{db: db}
}

// Record writes one audit row. A transaction is required; admin mutations are
// never logged outside the change they describe.
func (r *Recorder) Record(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail *string) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	entry := models.AuditLog{
		ActorID:    actorID,
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Detail:     detail,
	}
	return tx.WithContext(ctx).Create(&entry).Error
}

// EntryDTO is one row of the back-office log screen.
type EntryDTO struct {
	ID         uuid.UUID `json:"id"`
	ActorID    uuid.UUID `json:"actor_id"`
	Action     string    `json:"action"`
	EntityType string    `json:"entity_type"`
	EntityID   uuid.UUID `json:"entity_id"`
	Detail     *string   `json:"detail,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// ListResult is one page of audit entries.
type ListResult struct {
	Entries    []EntryDTO `json:"entries"`
	NextCursor *string    `json:"next_cursor,omitempty"`
}

// ListFilter narrows the audit listing.
type ListFilter struct {
	ActorID    *uuid.UUID
	EntityType string
}

// List returns a cursor-paginated page of audit entries, newest first.
func (r *Recorder) List(ctx context.Context, filter ListFilter, params pagination.Params) (*ListResult, error) {
	query := r.db.WithContext(ctx).Model(&models.AuditLog{})
	if filter.ActorID != nil {
		query = query.Where("actor_id = ?", *filter.ActorID)
	}
	if filter.EntityType != "" {
		query = query.Where("entity_type = ?", filter.EntityType)
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

	var rows []models.AuditLog
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(pagination.LimitWithBuffer(params.Limit)).
		Find(&rows).Error
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing audit log")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	result := &ListResult{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	result.Entries = make([]EntryDTO, len(rows))
	for i, row := range rows {
		result.Entries[i] = EntryDTO{
			ID:         row.ID,
			ActorID:    row.ActorID,
			Action:     row.Action,
			EntityType: row.EntityType,
			EntityID:   row.EntityID,
			Detail:     row.Detail,
			CreatedAt:  row.CreatedAt,
		}
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result, nil
}
