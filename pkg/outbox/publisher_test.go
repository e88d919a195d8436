package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	gcppubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/packaxis/packaxis-backend/pkg/config"
	"github.com/packaxis/packaxis-backend/pkg/db/models"
	"github.com/packaxis/packaxis-backend/pkg/enums"
	"github.com/packaxis/packaxis-backend/pkg/logger"
)

type stubDB struct{}

func (stubDB) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubPublisherRepo struct {
	events    []models.OutboxEvent
	published []uuid.UUID
	failed    []uuid.UUID
}

func (s *stubPublisherRepo) FetchUnpublishedTx(tx *gorm.DB, limit, maxAttempts int) ([]models.OutboxEvent, error) {
	events := s.events
	s.events = nil
	return events, nil
}

func (s *stubPublisherRepo) MarkPublishedTx(tx *gorm.DB, id uuid.UUID) error {
	s.published = append(s.published, id)
	return nil
}

func (s *stubPublisherRepo) MarkFailedTx(tx *gorm.DB, id uuid.UUID, cause error) error {
	s.failed = append(s.failed, id)
	return nil
}

type stubResult struct {
	err error
}

func (r stubResult) Get(ctx context.Context) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return "msg-1", nil
}

type stubTransport struct {
	messages []*gcppubsub.Message
	err      error
}

func (s *stubTransport) Publish(ctx context.Context, msg *gcppubsub.Message) publishResult {
	s.messages = append(s.messages, msg)
	return stubResult{err: s.err}
}

func outboxEvent(t *testing.T) models.OutboxEvent {
	t.Helper()
	envelope := PayloadEnvelope{
		EventID: uuid.NewString(),
		Data:    json.RawMessage(`{"order_number":"PKX1"}`),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return models.OutboxEvent{
		ID:            uuid.New(),
		EventType:     enums.EventOrderCreated,
		AggregateType: enums.AggregateOrder,
		AggregateID:   uuid.New(),
		Payload:       payload,
	}
}

func newTestPublisher(t *testing.T, repo *stubPublisherRepo, transport *stubTransport) *Publisher {
	t.Helper()
	pub, err := NewPublisher(PublisherParams{
		Config:            config.OutboxConfig{},
		Logger:            logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
		DB:                stubDB{},
		Repository:        repo,
		PublisherOverride: transport,
	})
	if err != nil {
		t.Fatalf("new publisher: %v", err)
	}
	return pub
}

func TestProcessBatchPublishes(t *testing.T) {
	event := outboxEvent(t)
	repo := &stubPublisherRepo{events: []models.OutboxEvent{event}}
	transport := &stubTransport{}
	pub := newTestPublisher(t, repo, transport)

	processed, err := pub.processBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to process")
	}
	if len(repo.published) != 1 || repo.published[0] != event.ID {
		t.Fatalf("expected event marked published, got %v", repo.published)
	}
	if len(transport.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(transport.messages))
	}

	msg := transport.messages[0]
	if msg.Attributes["event_type"] != "order_created" {
		t.Fatalf("unexpected attributes %v", msg.Attributes)
	}
	if msg.Attributes["aggregate_id"] != event.AggregateID.String() {
		t.Fatalf("aggregate id not forwarded: %v", msg.Attributes)
	}
}

func TestProcessBatchMarksFailures(t *testing.T) {
	event := outboxEvent(t)
	repo := &stubPublisherRepo{events: []models.OutboxEvent{event}}
	transport := &stubTransport{err: errors.New("topic unavailable")}
	pub := newTestPublisher(t, repo, transport)

	processed, err := pub.processBatch(context.Background())
	if err != nil {
		t.Fatalf("publish failures are per-event, got batch error: %v", err)
	}
	if !processed {
		t.Fatal("expected batch to process")
	}
	if len(repo.failed) != 1 || repo.failed[0] != event.ID {
		t.Fatalf("expected event marked failed, got %v", repo.failed)
	}
	if len(repo.published) != 0 {
		t.Fatalf("expected no published marks, got %v", repo.published)
	}
}

func TestProcessBatchEmptyOutbox(t *testing.T) {
	repo := &stubPublisherRepo{}
	pub := newTestPublisher(t, repo, &stubTransport{})

	processed, err := pub.processBatch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if processed {
		t.Fatal("expected idle batch")
	}
}
