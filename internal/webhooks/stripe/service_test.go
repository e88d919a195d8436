package stripewebhook

import (
	"context"
	"encoding/json"
	"io"
	"testing"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/packaxis/packaxis-backend/pkg/errors"
	"github.com/packaxis/packaxis-backend/pkg/logger"
)

type stubOrders struct {
	paid      []string
	cancelled []string
	reason    string
}

func (s *stubOrders) MarkPaid(ctx context.Context, orderNumber, transactionID string) error {
	s.paid = append(s.paid, orderNumber+":"+transactionID)
	return nil
}

func (s *stubOrders) Cancel(ctx context.Context, orderNumber, reason string) error {
	s.cancelled = append(s.cancelled, orderNumber)
	s.reason = reason
	return nil
}

func newTestService(t *testing.T, orders *stubOrders) *Service {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	service, err := NewService(orders, logg)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return service
}

func intentEvent(t *testing.T, eventType stripe.EventType, intent stripe.PaymentIntent) *stripe.Event {
	t.Helper()
	raw, err := json.Marshal(intent)
	if err != nil {
		t.Fatalf("marshal intent: %v", err)
	}
	return &stripe.Event{
		Type: eventType,
		Data: &stripe.EventData{Raw: raw},
	}
}

func TestHandleEventPaymentSucceeded(t *testing.T) {
	orders := &stubOrders{}
	service := newTestService(t, orders)

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, stripe.PaymentIntent{
		ID:       "pi_123",
		Metadata: map[string]string{"order_number": "PKX20260105143000"},
	})

	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders.paid) != 1 || orders.paid[0] != "PKX20260105143000:pi_123" {
		t.Fatalf("expected paid transition, got %v", orders.paid)
	}
}

func TestHandleEventPaymentFailed(t *testing.T) {
	orders := &stubOrders{}
	service := newTestService(t, orders)

	event := intentEvent(t, stripe.EventTypePaymentIntentPaymentFailed, stripe.PaymentIntent{
		ID:       "pi_123",
		Metadata: map[string]string{"order_number": "PKX1"},
		LastPaymentError: &stripe.Error{
			Msg: "Your card was declined.",
		},
	})

	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders.cancelled) != 1 || orders.cancelled[0] != "PKX1" {
		t.Fatalf("expected cancellation, got %v", orders.cancelled)
	}
	if orders.reason != "Your card was declined." {
		t.Fatalf("expected card decline reason, got %q", orders.reason)
	}
}

func TestHandleEventMissingMetadata(t *testing.T) {
	service := newTestService(t, &stubOrders{})

	event := intentEvent(t, stripe.EventTypePaymentIntentSucceeded, stripe.PaymentIntent{ID: "pi_123"})

	err := service.HandleEvent(context.Background(), event)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHandleEventIgnoresOtherTypes(t *testing.T) {
	orders := &stubOrders{}
	service := newTestService(t, orders)

	event := intentEvent(t, "charge.refunded", stripe.PaymentIntent{ID: "pi_123"})
	if err := service.HandleEvent(context.Background(), event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders.paid) != 0 || len(orders.cancelled) != 0 {
		t.Fatal("expected no transitions for unhandled event type")
	}
}
