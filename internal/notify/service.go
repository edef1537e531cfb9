package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/floraweave/floraweave-backend/pkg/db"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	pkgerrors "github.com/floraweave/floraweave-backend/pkg/errors"
	"github.com/floraweave/floraweave-backend/pkg/logger"
)

// Service manages the mapping of domain events to notification templates.
// One rule per event type; the outbox worker consults it before publishing.
type Service interface {
	ListRules(ctx context.Context) ([]RuleDTO, error)
	SaveRule(ctx context.Context, actorID uuid.UUID, input RuleInput) (*RuleDTO, error)
	DeleteRule(ctx context.Context, actorID, ruleID uuid.UUID) error
	TemplateFor(ctx context.Context, eventType enums.OutboxEventType) (string, bool, error)
}

// RuleInput creates or replaces the rule for an event type.
type RuleInput struct {
	EventType    enums.OutboxEventType
	TemplateName string
	IsEnabled    bool
}

// RuleDTO is one event-to-template mapping.
type RuleDTO struct {
	ID           uuid.UUID `json:"id"`
	EventType    string    `json:"event_type"`
	TemplateName string    `json:"template_name"`
	IsEnabled    bool      `json:"is_enabled"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type auditWriter interface {
	Record(ctx context.Context, tx *gorm.DB, actorID uuid.UUID, action, entityType string, entityID uuid.UUID, detail *string) error
}

type service struct {
	repo     *Repository
	dbClient *db.Client
	audit    auditWriter
	logg     *logger.Logger
}

// NewService constructs a notification rule service instance.
func NewService(repo *Repository, dbClient *db.Client, audit auditWriter, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification rule repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if audit == nil {
		return nil, fmt.Errorf("audit writer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{repo: repo, dbClient: dbClient, audit: audit, logg: logg}, nil
}

// ListRules returns every rule ordered by event type.
func (s *service) ListRules(ctx context.Context) ([]RuleDTO, error) {
	rows, err := s.repo.ListAll(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing notification rules")
	}
	rules := make([]RuleDTO, len(rows))
	for i := range rows {
		rules[i] = toDTO(&rows[i])
	}
	return rules, nil
}

// SaveRule creates the rule for an event type or replaces the existing one.
func (s *service) SaveRule(ctx context.Context, actorID uuid.UUID, input RuleInput) (*RuleDTO, error) {
	if !input.EventType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid event type")
	}
	template := strings.TrimSpace(input.TemplateName)
	if template == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "template name is required")
	}

	rule, err := s.repo.FindByEventType(ctx, input.EventType)
	action := "notification_rule.create"
	switch {
	case err == nil:
		action = "notification_rule.update"
		rule.TemplateName = template
		rule.IsEnabled = input.IsEnabled
	case IsNotFound(err):
		rule = &models.NotificationRule{
			EventType:    input.EventType,
			TemplateName: template,
			IsEnabled:    input.IsEnabled,
		}
	default:
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading notification rule")
	}

	err = s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if rule.ID == uuid.Nil {
			if err := repo.Create(ctx, rule); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "creating notification rule")
			}
		} else if err := repo.Update(ctx, rule); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "updating notification rule")
		}
		return s.audit.Record(ctx, tx, actorID, action, "notification_rule", rule.ID, nil)
	})
	if err != nil {
		return nil, err
	}

	dto := toDTO(rule)
	return &dto, nil
}

// DeleteRule removes the mapping; the event simply stops notifying.
func (s *service) DeleteRule(ctx context.Context, actorID, ruleID uuid.UUID) error {
	return s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Delete(ctx, ruleID); err != nil {
			if IsNotFound(err) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "notification rule not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "deleting notification rule")
		}
		return s.audit.Record(ctx, tx, actorID, "notification_rule.delete", "notification_rule", ruleID, nil)
	})
}

// TemplateFor returns the template name and whether notifications are enabled
// for the event type. Missing rules read as disabled.
func (s *service) TemplateFor(ctx context.Context, eventType enums.OutboxEventType) (string, bool, error) {
	rule, err := s.repo.FindByEventType(ctx, eventType)
	if err != nil {
		if IsNotFound(err) {
			return "", false, nil
		}
		return "", false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "loading notification rule")
	}
	return rule.TemplateName, rule.IsEnabled, nil
}

func toDTO(rule *models.NotificationRule) RuleDTO {
	return RuleDTO{
		ID:           rule.ID,
		EventType:    rule.EventType.String(),
		TemplateName: rule.TemplateName,
		IsEnabled:    rule.IsEnabled,
		CreatedAt:    rule.CreatedAt,
		UpdatedAt:    rule.UpdatedAt,
	}
}
