package worker

import (
	"context"
	"errors"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/floraweave/floraweave-backend/pkg/config"
	"github.com/floraweave/floraweave-backend/pkg/db/models"
	"github.com/floraweave/floraweave-backend/pkg/enums"
	"github.com/floraweave/floraweave-backend/pkg/logger"
	"github.com/floraweave/floraweave-backend/pkg/metrics"
)

type fakeOutbox struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (f *fakeOutbox) FetchUnpublished(limit, maxAttempts int) ([]models.OutboxEvent, error) {
	var rows []models.OutboxEvent
	for _, event := range f.events {
		if len(rows) == limit {
			break
		}
		if f.isPublished(event.ID) || event.AttemptCount >= maxAttempts {
			continue
		}
		rows = append(rows, event)
	}
	return rows, nil
}

func (f *fakeOutbox) isPublished(id uuid.UUID) bool {
	for _, published := range f.published {
		if published == id {
			return true
		}
	}
	return false
}

func (f *fakeOutbox) MarkPublished(id uuid.UUID) error {
	f.published = append(f.published, id)
	return nil
}

func (f *fakeOutbox) MarkFailed(id uuid.UUID, _ error) error {
	f.failed = append(f.failed, id)
	return nil
}

type fakeRules struct {
	templates map[enums.OutboxEventType]string
}

func (f *fakeRules) TemplateFor(_ context.Context, eventType enums.OutboxEventType) (string, bool, error) {
	template, ok := f.templates[eventType]
	return template, ok, nil
}

type fakeResult struct {
	err error
}

func (f fakeResult) Get(context.Context) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "msg-1", nil
}

type fakePublisher struct {
	messages []*gcppubsub.Message
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, msg *gcppubsub.Message) PublishResult {
	f.messages = append(f.messages, msg)
	return fakeResult{err: f.err}
}

func newTestDrainer(t *testing.T, repo *fakeOutbox, rules *fakeRules, pub *fakePublisher) *Drainer {
	t.Helper()
	drainer, err := NewDrainer(repo, rules, pub, metrics.NewOutboxMetrics(nil), config.OutboxConfig{
		BatchSize:      10,
		PollIntervalMS: 10,
		MaxAttempts:    3,
	}, logger.New(logger.Options{ServiceName: "worker-test"}))
	if err != nil {
		t.Fatalf("NewDrainer: %v", err)
	}
	return drainer
}

func newEvent(eventType enums.OutboxEventType, attempts int) models.OutboxEvent {
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     eventType,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       []byte(`{"version":1}`),
		AttemptCount:  attempts,
	}
}

func TestDrainOncePublishesEnabledEvents(t *testing.T) {
	event := newEvent(enums.EventOrderCreated, 0)
	repo := &fakeOutbox{events: []models.OutboxEvent{event}}
	rules := &fakeRules{templates: map[enums.OutboxEventType]string{
		enums.EventOrderCreated: "order_confirmation",
	}}
	pub := &fakePublisher{}

	drained, err := newTestDrainer(t, repo, rules, pub).DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if drained != 1 {
		t.Fatalf("drained = %d, want 1", drained)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("messages = %d, want 1", len(pub.messages))
	}
	msg := pub.messages[0]
	if msg.Attributes["event_type"] != "order_created" || msg.Attributes["template"] != "order_confirmation" {
		t.Fatalf("attributes = %v", msg.Attributes)
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("published = %v", repo.published)
	}
}

func TestDrainOnceConsumesDisabledEvents(t *testing.T) {
	event := newEvent(enums.EventProductPublished, 0)
	repo := &fakeOutbox{events: []models.OutboxEvent{event}}
	pub := &fakePublisher{}

	drained, err := newTestDrainer(t, repo, &fakeRules{templates: map[enums.OutboxEventType]string{}}, pub).DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if drained != 1 {
		t.Fatalf("drained = %d, want 1", drained)
	}
	if len(pub.messages) != 0 {
		t.Fatal("nothing should be published without an enabled rule")
	}
	if len(repo.published) != 1 {
		t.Fatal("event should still be marked published")
	}
}

func TestDrainOnceMarksFailures(t *testing.T) {
	event := newEvent(enums.EventOrderCreated, 0)
	repo := &fakeOutbox{events: []models.OutboxEvent{event}}
	rules := &fakeRules{templates: map[enums.OutboxEventType]string{
		enums.EventOrderCreated: "order_confirmation",
	}}
	pub := &fakePublisher{err: errors.New("topic unavailable")}

	drained, err := newTestDrainer(t, repo, rules, pub).DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if drained != 0 {
		t.Fatalf("drained = %d, want 0", drained)
	}
	if len(repo.failed) != 1 || repo.failed[0] != event.ID {
		t.Fatalf("failed = %v", repo.failed)
	}
	if len(repo.published) != 0 {
		t.Fatal("failed event must not be marked published")
	}
}

func TestDrainOnceLeavesPoisonedEventsAlone(t *testing.T) {
	event := newEvent(enums.EventOrderCreated, 3)
	repo := &fakeOutbox{events: []models.OutboxEvent{event}}
	rules := &fakeRules{templates: map[enums.OutboxEventType]string{
		enums.EventOrderCreated: "order_confirmation",
	}}
	pub := &fakePublisher{}

	drained, err := newTestDrainer(t, repo, rules, pub).DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if drained != 0 || len(pub.messages) != 0 || len(repo.failed) != 0 {
		t.Fatalf("poisoned event must be left alone: drained=%d messages=%d failed=%d", drained, len(pub.messages), len(repo.failed))
	}
}

func TestDrainOncePublishesBehindPoisonedBacklog(t *testing.T) {
	fresh := newEvent(enums.EventOrderCreated, 0)
	repo := &fakeOutbox{events: []models.OutboxEvent{
		newEvent(enums.EventOrderCreated, 3),
		newEvent(enums.EventOrderCreated, 3),
		fresh,
	}}
	rules := &fakeRules{templates: map[enums.OutboxEventType]string{
		enums.EventOrderCreated: "order_confirmation",
	}}
	pub := &fakePublisher{}

	drainer, err := NewDrainer(repo, rules, pub, metrics.NewOutboxMetrics(nil), config.OutboxConfig{
		BatchSize:      2,
		PollIntervalMS: 10,
		MaxAttempts:    3,
	}, logger.New(logger.Options{ServiceName: "worker-test"}))
	if err != nil {
		t.Fatalf("NewDrainer: %v", err)
	}

	drained, err := drainer.DrainOnce(context.Background())
	if err != nil {
		t.Fatalf("DrainOnce: %v", err)
	}
	if drained != 1 {
		t.Fatalf("drained = %d, want 1", drained)
	}
	if len(repo.published) != 1 || repo.published[0] != fresh.ID {
		t.Fatalf("fresh event behind exhausted rows must publish, got %v", repo.published)
	}
}
