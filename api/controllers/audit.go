package controllers

import (
	"net/http"
	"strings"

	"github.com/floraweave/floraweave-backend/api/responses"
	"github.com/floraweave/floraweave-backend/api/validators"
	"github.com/floraweave/floraweave-backend/internal/audit"
	"github.com/floraweave/floraweave-backend/pkg/logger"
	"github.com/floraweave/floraweave-backend/pkg/pagination"
)

// AdminAuditLog lists audit entries, newest first, filterable by actor and
// entity type.
func AdminAuditLog(recorder *audit.Recorder, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := validators.ParseQueryInt(r, "limit", defaultPageSize, 1, maxPageSize)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filter := audit.ListFilter{
			EntityType: strings.TrimSpace(r.URL.Query().Get("entity_type")),
		}
		if filter.ActorID, err = validators.ParseQueryUUID(r, "actor_id"); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := recorder.List(r.Context(), filter, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, page)
	}
}
