package notifications

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	pubsub "cloud.google.com/go/pubsub/v2"
	"github.com/google/uuid"

	"github.com/packaxis/packaxis-backend/pkg/logger"
	"github.com/packaxis/packaxis-backend/pkg/outbox"
	"github.com/packaxis/packaxis-backend/pkg/outbox/idempotency"
	"github.com/packaxis/packaxis-backend/pkg/outbox/payloads"
)

type stubMailer struct {
	sent []OrderConfirmation
	err  error
}

func (s *stubMailer) SendOrderConfirmation(ctx context.Context, confirmation OrderConfirmation) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, confirmation)
	return nil
}

type fakeIdempotencyStore struct {
	keys map[string]bool
}

func (s *fakeIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	return "", nil
}

func (s *fakeIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *fakeIdempotencyStore) IdempotencyKey(scope, id string) string {
	return "idempotency:" + scope + ":" + id
}

func (s *fakeIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	for _, key := range keys {
		delete(s.keys, key)
	}
	return nil
}

func newTestConsumer(t *testing.T, mailer *stubMailer) (*Consumer, *fakeIdempotencyStore) {
	t.Helper()
	store := &fakeIdempotencyStore{keys: map[string]bool{}}
	manager, err := idempotency.NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return &Consumer{
		mailer:      mailer,
		idempotency: manager,
		logg:        logger.New(logger.Options{ServiceName: "test", Output: io.Discard}),
	}, store
}

func orderCreatedMessage(t *testing.T, eventID string) *pubsub.Message {
	t.Helper()
	data, err := json.Marshal(payloads.OrderCreatedEvent{
		OrderID:       uuid.New(),
		OrderNumber:   "PKX20260105143000",
		CustomerEmail: "dana@example.com",
		Province:      "ON",
		Total:         122.99,
	})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	envelope, err := json.Marshal(outbox.PayloadEnvelope{
		EventID: eventID,
		Data:    data,
	})
	if err != nil {
		t.Fatalf("marshal envelope: %v", err)
	}
	return &pubsub.Message{
		Data:       envelope,
		Attributes: map[string]string{"event_type": "order_created"},
	}
}

func TestProcessSendsConfirmation(t *testing.T) {
	mailer := &stubMailer{}
	consumer, _ := newTestConsumer(t, mailer)

	result := consumer.process(context.Background(), orderCreatedMessage(t, uuid.NewString()))
	if !result.ack || result.nack {
		t.Fatalf("expected ack, got %+v", result)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 confirmation, got %d", len(mailer.sent))
	}
	sent := mailer.sent[0]
	if sent.OrderNumber != "PKX20260105143000" || sent.Email != "dana@example.com" || sent.Total != 122.99 {
		t.Fatalf("unexpected confirmation %+v", sent)
	}
}

func TestProcessSkipsOtherEventTypes(t *testing.T) {
	mailer := &stubMailer{}
	consumer, _ := newTestConsumer(t, mailer)

	msg := orderCreatedMessage(t, uuid.NewString())
	msg.Attributes["event_type"] = "order_paid"

	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected ack for skipped event, got %+v", result)
	}
	if len(mailer.sent) != 0 {
		t.Fatal("expected no email for non-order-created event")
	}
}

func TestProcessDeduplicates(t *testing.T) {
	mailer := &stubMailer{}
	consumer, _ := newTestConsumer(t, mailer)

	eventID := uuid.NewString()
	first := consumer.process(context.Background(), orderCreatedMessage(t, eventID))
	second := consumer.process(context.Background(), orderCreatedMessage(t, eventID))

	if !first.ack || !second.ack {
		t.Fatalf("expected both acked, got %+v and %+v", first, second)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected duplicate suppressed, got %d sends", len(mailer.sent))
	}
}

func TestProcessNacksOnMailerFailure(t *testing.T) {
	mailer := &stubMailer{err: errors.New("sendgrid unavailable")}
	consumer, store := newTestConsumer(t, mailer)

	eventID := uuid.NewString()
	result := consumer.process(context.Background(), orderCreatedMessage(t, eventID))
	if !result.nack {
		t.Fatalf("expected nack, got %+v", result)
	}
	// The processed marker must be cleared so redelivery retries the email.
	if len(store.keys) != 0 {
		t.Fatalf("expected idempotency marker cleared, got %v", store.keys)
	}

	mailer.err = nil
	retry := consumer.process(context.Background(), orderCreatedMessage(t, eventID))
	if !retry.ack {
		t.Fatalf("expected retry to succeed, got %+v", retry)
	}
	if len(mailer.sent) != 1 {
		t.Fatalf("expected 1 send after retry, got %d", len(mailer.sent))
	}
}

func TestProcessAcksMalformedEnvelope(t *testing.T) {
	mailer := &stubMailer{}
	consumer, _ := newTestConsumer(t, mailer)

	msg := &pubsub.Message{
		Data:       []byte("not json"),
		Attributes: map[string]string{"event_type": "order_created"},
	}
	result := consumer.process(context.Background(), msg)
	if !result.ack {
		t.Fatalf("expected poison message acked, got %+v", result)
	}
}
