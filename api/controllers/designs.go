package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/floraweave/floraweave-backend/api/middleware"
	"github.com/floraweave/floraweave-backend/api/responses"
	"github.com/floraweave/floraweave-backend/api/validators"
	designsvc "github.com/floraweave/floraweave-backend/internal/designs"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
)

type submitDesignRequest struct {
	Name              string      `json:"name" validate:"required,min=2,max=120"`
	Email             string      `json:"email" validate:"required,email"`
	Phone             *string     `json:"phone,omitempty" validate:"omitempty,max=20"`
	Description       string      `json:"description" validate:"required,min=10"`
	PreferredFabricID *uuid.UUID  `json:"preferred_fabric_id,omitempty"`
	ReferenceMediaIDs []uuid.UUID `json:"reference_media_ids,omitempty"`
}

// DesignSubmit takes a public custom design request.
func DesignSubmit(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload submitDesignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.SubmitRequest(r.Context(), designsvc.SubmitInput{
			Name:              validators.SanitizeString(payload.Name, 120),
			Email:             payload.Email,
			Phone:             payload.Phone,
			Description:       strings.TrimSpace(payload.Description),
			PreferredFabricID: payload.PreferredFabricID,
			ReferenceMediaIDs: payload.ReferenceMediaIDs,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, request)
	}
}

// AdminDesignRequests lists the review queue with an optional status filter.
func AdminDesignRequests(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultPageSize, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := designsvc.ListInput{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		}

		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseDesignRequestStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request status"))
				return
			}
			input.Status = &status
		}

		page, err := svc.ListRequests(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}

// AdminDesignRequestDetail returns one intake request.
func AdminDesignRequestDetail(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		requestID, err := validators.ParsePathUUID(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		request, err := svc.GetRequest(r.Context(), requestID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}

type reviewDesignRequest struct {
	Status    *string `json:"status,omitempty"`
	AdminNote *string `json:"admin_note,omitempty" validate:"omitempty,max=2000"`
}

// AdminDesignRequestUpdate moves a request through review or records a note.
func AdminDesignRequestUpdate(svc designsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		requestID, err := validators.ParsePathUUID(chi.URLParam(r, "requestId"), "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload reviewDesignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := designsvc.ReviewInput{AdminNote: payload.AdminNote}
		if payload.Status != nil {
			status, err := enums.ParseDesignRequestStatus(*payload.Status)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid request status"))
				return
			}
			input.Status = &status
		}

		request, err := svc.UpdateRequest(r.Context(), actorID, requestID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, request)
	}
}
