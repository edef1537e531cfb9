package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/floraweave/floraweave-backend/api/middleware"
	"github.com/floraweave/floraweave-backend/api/responses"
	"github.com/floraweave/floraweave-backend/api/validators"
	notifysvc "github.com/floraweave/floraweave-backend/internal/notify"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
)

// AdminNotificationRules lists every event-to-template mapping.
func AdminNotificationRules(svc notifysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rules, err := svc.ListRules(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rules)
	}
}

type saveRuleRequest struct {
	EventType    string `json:"event_type" validate:"required"`
	TemplateName string `json:"template_name" validate:"required,max=200"`
	IsEnabled    bool   `json:"is_enabled"`
}

// AdminNotificationRuleSave creates or replaces the rule for an event type.
func AdminNotificationRuleSave(svc notifysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		var payload saveRuleRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		eventType, err := enums.ParseOutboxEventType(payload.EventType)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid event type"))
			return
		}

		rule, err := svc.SaveRule(r.Context(), actorID, notifysvc.RuleInput{
			EventType:    eventType,
			TemplateName: payload.TemplateName,
			IsEnabled:    payload.IsEnabled,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, rule)
	}
}

// AdminNotificationRuleDelete removes a rule; the event stops notifying.
func AdminNotificationRuleDelete(svc notifysvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		actorID, ok := middleware.ActorID(r.Context())
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing"))
			return
		}

		ruleID, err := validators.ParsePathUUID(chi.URLParam(r, "ruleId"), "ruleId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteRule(r.Context(), actorID, ruleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
