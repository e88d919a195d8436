package stripewebhook

import (
	"context"
	"encoding/json"

	"github.com/stripe/stripe-go/v84"

	pkgerrors "github.com/packaxis/packaxis-backend/pkg/errors"
	"github.com/packaxis/packaxis-backend/pkg/logger"
)

// orderNumberMetadataKey is set on the payment intent when the storefront
// starts the charge, and ties the webhook back to the order.
const orderNumberMetadataKey = "order_number"

type orderTransitioner interface {
	MarkPaid(ctx context.Context, orderNumber, transactionID string) error
	Cancel(ctx context.Context, orderNumber, reason string) error
}

// Service maps Stripe payment events onto order status transitions.
type Service struct {
	orders orderTransitioner
	logg   *logger.Logger
}

func NewService(orders orderTransitioner, logg *logger.Logger) (*Service, error) {
	if orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order service required")
	}
	if logg == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "logger required")
	}
	return &Service{orders: orders, logg: logg}, nil
}

// HandleEvent applies a verified Stripe event. A successful charge moves the
// order to PROCESSING, a failed one cancels it. Other events are ignored.
func (s *Service) HandleEvent(ctx context.Context, event *stripe.Event) error {
	if event == nil || event.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "stripe event data required")
	}

	switch event.Type {
	case stripe.EventTypePaymentIntentSucceeded:
		intent, err := decodePaymentIntent(event)
		if err != nil {
			return err
		}
		orderNumber, err := orderNumberFrom(intent)
		if err != nil {
			return err
		}
		return s.orders.MarkPaid(ctx, orderNumber, intent.ID)
	case stripe.EventTypePaymentIntentPaymentFailed:
		intent, err := decodePaymentIntent(event)
		if err != nil {
			return err
		}
		orderNumber, err := orderNumberFrom(intent)
		if err != nil {
			return err
		}
		reason := "payment failed"
		if intent.LastPaymentError != nil && intent.LastPaymentError.Msg != "" {
			reason = intent.LastPaymentError.Msg
		}
		return s.orders.Cancel(ctx, orderNumber, reason)
	default:
		s.logg.Info(ctx, "ignoring stripe event type "+string(event.Type))
		return nil
	}
}

func decodePaymentIntent(event *stripe.Event) (*stripe.PaymentIntent, error) {
	var intent stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &intent); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode payment intent event")
	}
	return &intent, nil
}

func orderNumberFrom(intent *stripe.PaymentIntent) (string, error) {
	orderNumber := intent.Metadata[orderNumberMetadataKey]
	if orderNumber == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "order number missing from payment intent metadata")
	}
	return orderNumber, nil
}
