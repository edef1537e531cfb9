package product

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	"github.com/floraweave/floraweave-backend/pkg/pagination"
)

// ListInput holds catalog listing filters and cursor parameters. AdminView
// includes inactive drafts; the storefront never sees them.
type ListInput struct {
	Kind          *enums.ProductKind
	CategoryID    *uuid.UUID
	SubcategoryID *uuid.UUID
	Query         string
	MinPrice      *decimal.Decimal
	MaxPrice      *decimal.Decimal
	AdminView     bool

	Limit  int
	Cursor string
}

// ListProducts returns one page of catalog cards plus the cursor for the next.
func (s *service) ListProducts(ctx context.Context, input ListInput) (*ListResultDTO, error) {
	filter := ListFilter{
		Kind:          input.Kind,
		CategoryID:    input.CategoryID,
		SubcategoryID: input.SubcategoryID,
		Query:         input.Query,
		MinPrice:      input.MinPrice,
		MaxPrice:      input.MaxPrice,
		ActiveOnly:    !input.AdminView,
	}
	params := pagination.Params{Limit: input.Limit, Cursor: input.Cursor}

	rows, err := s.repo.List(ctx, filter, params)
	if err != nil {
		if typed := pkgerrors.As(err); typed != nil {
			return nil, typed
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing products")
	}

	limit := pagination.NormalizeLimit(input.Limit)
	result := &ListResultDTO{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	result.Items = make([]ListItemDTO, len(rows))
	for i := range rows {
		result.Items[i] = NewListItemDTO(&rows[i])
	}

	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result, nil
}
