package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/floraweave/floraweave-backend/pkg/config"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	"github.com/floraweave/floraweave-backend/pkg/logger"
	"github.com/floraweave/floraweave-backend/pkg/metrics"
)

const (
	defaultBatchSize   = 50
	defaultPollMs      = 500
	defaultMaxAttempts = 10
	publishTimeout     = 15 * time.Second
)

type outboxSource interface {
	FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error)
	MarkPublished(id uuid.UUID) error
	MarkFailed(id uuid.UUID, err error) error
}

type templateResolver interface {
	TemplateFor(ctx context.Context, eventType enums.OutboxEventType) (string, bool, error)
}

// Publisher matches the Pub/Sub v2 publisher surface the drainer needs.
type Publisher interface {
	Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult
}

// PublishResult resolves to the server-assigned message id.
type PublishResult interface {
	Get(ctx context.Context) (string, error)
}

// NewTopicPublisher adapts a Pub/Sub publisher handle to the Publisher
// interface.
func NewTopicPublisher(pub *gcppubsub.Publisher) Publisher {
	return topicPublisher{pub: pub}
}

type topicPublisher struct {
	pub *gcppubsub.Publisher
}

func (t topicPublisher) Publish(ctx context.Context, msg *gcppubsub.Message) PublishResult {
	return t.pub.Publish(ctx, msg)
}

// Drainer moves committed outbox rows onto the notification topic. Events
// whose rule is disabled or missing are consumed without publishing.
type Drainer struct {
	repo         outboxSource
	rules        templateResolver
	publisher    Publisher
	metrics      *metrics.OutboxMetrics
	logg         *logger.Logger
	batchSize    int
	maxAttempts  int
	pollInterval time.Duration
}

// NewDrainer constructs a drainer from the outbox config.
func NewDrainer(repo outboxSource, rules templateResolver, publisher Publisher, m *metrics.OutboxMetrics, cfg config.OutboxConfig, logg *logger.Logger) (*Drainer, error) {
	if repo == nil {
		return nil, errors.New("outbox repository required")
	}
	if rules == nil {
		return nil, errors.New("rule resolver required")
	}
	if publisher == nil {
		return nil, errors.New("publisher required")
	}
	if logg == nil {
		return nil, errors.New("logger required")
	}

	batch := cfg.BatchSize
	if batch <= 0 {
		batch = defaultBatchSize
	}
	pollMs := cfg.PollIntervalMS
	if pollMs <= 0 {
		pollMs = defaultPollMs
	}
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}

	return &Drainer{
		repo:         repo,
		rules:        rules,
		publisher:    publisher,
		metrics:      m,
		logg:         logg,
		batchSize:    batch,
		maxAttempts:  maxAttempts,
		pollInterval: time.Duration(pollMs) * time.Millisecond,
	}, nil
}

// Run polls until the context is canceled. A pass that drained a full batch
// loops immediately; an empty pass waits out the poll interval.
func (d *Drainer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			d.logg.Info(ctx, "outbox drainer stopping")
			return ctx.Err()
		default:
		}

		drained, err := d.DrainOnce(ctx)
		if err != nil {
			d.logg.Error(ctx, "outbox drain pass failed", err)
		}
		if err == nil && drained == d.batchSize {
			continue
		}

		select {
		case <-ctx.Done():
			d.logg.Info(ctx, "outbox drainer stopping")
			return ctx.Err()
		case <-time.After(d.pollInterval):
		}
	}
}

// DrainOnce processes up to one batch and returns how many events it handled.
func (d *Drainer) DrainOnce(ctx context.Context) (int, error) {
	started := time.Now()

	events, err := d.repo.FetchUnpublished(d.batchSize, d.maxAttempts)
	if err != nil {
		return 0, fmt.Errorf("fetching outbox events: %w", err)
	}
	defer func() {
		d.metrics.ObserveDrain(time.Since(started), len(events))
	}()

	handled := 0
	for _, event := range events {
		if err := d.handleEvent(ctx, event); err != nil {
			d.logg.Error(d.logg.WithField(ctx, "event_id", event.ID.String()), "publishing outbox event failed", err)
			d.metrics.IncFailed(event.EventType.String())
			if markErr := d.repo.MarkFailed(event.ID, err); markErr != nil {
				return handled, fmt.Errorf("marking event failed: %w", markErr)
			}
			continue
		}
		d.metrics.IncPublished(event.EventType.String())
		if err := d.repo.MarkPublished(event.ID); err != nil {
			return handled, fmt.Errorf("marking event published: %w", err)
		}
		handled++
	}
	return handled, nil
}

func (d *Drainer) handleEvent(ctx context.Context, event models.OutboxEvent) error {
	template, enabled, err := d.rules.TemplateFor(ctx, event.EventType)
	if err != nil {
		return err
	}
	if !enabled {
		return nil
	}

	publishCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	result := d.publisher.Publish(publishCtx, &gcppubsub.Message{
		Data: event.Payload,
		Attributes: map[string]string{
			"event_type":     event.EventType.String(),
			"aggregate_type": event.AggregateType.String(),
			"aggregate_id":   event.AggregateID.String(),
			"template":       template,
		},
	})
	if _, err := result.Get(publishCtx); err != nil {
		return fmt.Errorf("publishing to notification topic: %w", err)
	}
	return nil
}
