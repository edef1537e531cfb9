package designs

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/db"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
	"github.com/floraweave/floraweave-backend/pkg/outbox"
	"github.com/floraweave/floraweave-backend/pkg/pagination"
)

const maxReferenceMedia = 5

// Service handles the storefront custom-design intake and its back-office
// review queue.
type Service interface {
	SubmitRequest(ctx context.Context, input SubmitInput) (*RequestDTO, error)
	GetRequest(ctx context.Context, requestID uuid.UUID) (*RequestDTO, error)
	ListRequests(ctx context.Context, input ListInput) (*ListResultDTO, error)
	UpdateRequest(ctx context.Context, actorID, requestID uuid.UUID, input ReviewInput) (*RequestDTO, error)
}

// SubmitInput is the public intake payload; no account is required.
type SubmitInput struct {
	Name              string
	Email             string
	Phone             *string
	Description       string
	PreferredFabricID *uuid.UUID
	ReferenceMediaIDs []uuid.UUID
}

// ReviewInput moves a request through review and/or attaches an admin note.
type ReviewInput struct {
	Status    *enums.DesignRequestStatus
	AdminNote *string
}

// ListInput filters and paginates the review queue.
type ListInput struct {
	Status *enums.DesignRequestStatus
	Limit  int
	Cursor string
}

// RequestDTO is one intake request as shown in the back office.
type RequestDTO struct {
	ID                uuid.UUID   `json:"id"`
	Name              string      `json:"name"`
	Email             string      `json:"email"`
	Phone             *string     `json:"phone,omitempty"`
	Description       string      `json:"description"`
	PreferredFabricID *uuid.UUID  `json:"preferred_fabric_id,omitempty"`
	ReferenceMediaIDs []string    `json:"reference_media_ids"`
	Status            string      `json:"status"`
	AdminNote         *string     `json:"admin_note,omitempty"`
	CreatedAt         time.Time   `json:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at"`
}

// ListResultDTO is one cursor page of requests.
type ListResultDTO struct {
	Requests   []RequestDTO `json:"requests"`
	NextCursor *string      `json:"next_cursor,omitempty"`
}

type mediaChecker interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

type productLoader interface {
	FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error)
}

type auditWriter interface {
	Record(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail *string) error
}

type outboxInserter interface {
	Insert(tx *gorm.DB, event models.OutboxEvent) error
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	media    mediaChecker
	products productLoader
	audit    auditWriter
	outbox   outboxInserter
	logg     *logger.Logger
}

// NewService constructs a design request service instance.
func NewService(repo *Repository, dbClient *db.Client, media mediaChecker, products productLoader, audit auditWriter, outboxRepo outboxInserter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("design request repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if media == nil {
		return nil, fmt.Errorf("media checker required")
	}
	if products == nil {
		return nil, fmt.Errorf("product loader required")
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
		repo:     repo,
		dbClient: dbClient,
		media:    media,
		products: products,
		audit:    audit,
		outbox:   outboxRepo,
		logg:     logg,
	}, nil
}

// SubmitRequest validates the intake and records it along with its created
// event.
func (s *service) SubmitRequest(ctx context.Context, input SubmitInput) (*RequestDTO, error) {
	if err := validateSubmit(input); err != nil {
		return nil, err
	}

	if input.PreferredFabricID != nil {
		if err := s.checkPreferredFabric(ctx, *input.PreferredFabricID); err != nil {
			return nil, err
		}
	}
	for _, mediaID := range input.ReferenceMediaIDs {
		exists, err := s.media.Exists(ctx, mediaID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "checking reference media")
		}
		if !exists {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "reference media does not exist")
		}
	}

	request := &models.DesignRequest{
		Name:              strings.TrimSpace(input.Name),
		Email:             strings.TrimSpace(input.Email),
		Phone:             input.Phone,
		Description:       strings.TrimSpace(input.Description),
		PreferredFabricID: input.PreferredFabricID,
		ReferenceMediaIDs: mediaIDStrings(input.ReferenceMediaIDs),
		Status:            enums.DesignRequestStatusNew,
	}

	err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating design request")
		}
		return s.appendRequestEvent(tx, enums.EventDesignRequestCreated, request, nil)
	})
	if err != nil {
		return nil, err
	}

	s.logg.Info(s.logg.WithField(ctx, "design_request_id", request.ID.String()), "design request submitted")
	dto := toDTO(request)
	return &dto, nil
}

// GetRequest loads one request for review.
func (s *service) GetRequest(ctx context.Context, requestID uuid.UUID) (*RequestDTO, error) {
	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, notFoundOrInternal(err, "design request not found", "loading design request")
	}
	dto := toDTO(request)
	return &dto, nil
}

// ListRequests returns one cursor page of the review queue.
func (s *service) ListRequests(ctx context.Context, input ListInput) (*ListResultDTO, error) {
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid design request status")
	}

	params := pagination.Params{Limit: input.Limit, Cursor: input.Cursor}
	rows, err := s.repo.List(ctx, input.Status, params)
	if err != nil {
		if pkgerrors.As(err) != nil {
			return nil, err
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing design requests")
	}

	limit := pagination.NormalizeLimit(params.Limit)
	result := &ListResultDTO{}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	result.Requests = make([]RequestDTO, len(rows))
	for i := range rows {
		result.Requests[i] = toDTO(&rows[i])
	}
	if hasMore && len(rows) > 0 {
		last := rows[len(rows)-1]
		cursor := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &cursor
	}
	return result, nil
}

// UpdateRequest applies a status change and/or admin note, audit-logged and
// mirrored to the outbox.
func (s *service) UpdateRequest(ctx context.Context, actorID, requestID uuid.UUID, input ReviewInput) (*RequestDTO, error) {
	if input.Status == nil && input.AdminNote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "nothing to update")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid design request status")
	}

	request, err := s.repo.FindByID(ctx, requestID)
	if err != nil {
		return nil, notFoundOrInternal(err, "design request not found", "loading design request")
	}

	var detail *string
	if input.Status != nil && *input.Status != request.Status {
		text := fmt.Sprintf("%s -> %s", request.Status, *input.Status)
		detail = &text
		request.Status = *input.Status
	}
	if input.AdminNote != nil {
		request.AdminNote = input.AdminNote
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Update(ctx, request); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating design request")
		}
		if err := s.audit.Record(ctx, tx, actorID, "design_request.update", "design_request", request.ID, detail); err != nil {
			return err
		}
		return s.appendRequestEvent(tx, enums.EventDesignRequestUpdated, request, &actorID)
	})
	if err != nil {
		return nil, err
	}

	dto := toDTO(request)
	return &dto, nil
}

func (s *service) checkPreferredFabric(ctx context.Context, fabricID uuid.UUID) error {
	rows, err := s.products.FindByIDs(ctx, []uuid.UUID{fabricID})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading preferred fabric")
	}
	if len(rows) == 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "preferred fabric does not exist")
	}
	if rows[0].Kind != enums.ProductKindPlain {
		return pkgerrors.New(pkgerrors.CodeValidation, "preferred fabric must be a plain product")
	}
	return nil
}

func (s *service) appendRequestEvent(tx *gorm.DB, eventType enums.OutboxEventType, request *models.DesignRequest, actorID *uuid.UUID) error {
	event, err := outbox.NewEvent(
		eventType,
		enums.AggregateDesignRequest,
		request.ID,
		actorID,
		map[string]any{
			"design_request_id": request.ID,
			"name":              request.Name,
			"status":            request.Status,
		},
	)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "building outbox event")
	}
	if err := s.outbox.Insert(tx, event); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "inserting outbox event")
	}
	return nil
}

func validateSubmit(input SubmitInput) error {
	errs := map[string]string{}
	if strings.TrimSpace(input.Name) == "" {
		errs["name"] = "name is required"
	}
	email := strings.TrimSpace(input.Email)
	if email == "" {
		errs["email"] = "email is required"
	} else if !strings.Contains(email, "@") {
		errs["email"] = "email is invalid"
	}
	if strings.TrimSpace(input.Description) == "" {
		errs["description"] = "description is required"
	}
	if len(input.ReferenceMediaIDs) > maxReferenceMedia {
		errs["referenceMediaIds"] = fmt.Sprintf("at most %d reference files are allowed", maxReferenceMedia)
	}
	if len(errs) > 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "design request failed validation").WithDetails(errs)
	}
	return nil
}

func mediaIDStrings(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

func toDTO(request *models.DesignRequest) RequestDTO {
	return RequestDTO{
		ID:                request.ID,
		Name:              request.Name,
		Email:             request.Email,
		Phone:             request.Phone,
		Description:       request.Description,
		PreferredFabricID: request.PreferredFabricID,
		ReferenceMediaIDs: append([]string{}, request.ReferenceMediaIDs...),
		Status:            request.Status.String(),
		AdminNote:         request.AdminNote,
		CreatedAt:         request.CreatedAt,
		UpdatedAt:         request.UpdatedAt,
	}
}

func notFoundOrInternal(err error, notFoundMsg, internalMsg string) error {
	if IsNotFound(err) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFoundMsg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeInternal, err, internalMsg)
}
