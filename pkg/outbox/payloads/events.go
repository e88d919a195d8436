package payloads

import (
	"time"

	"github.com/google/uuid"

	"github.com/packaxis/packaxis-backend/pkg/enums"
)

// OrderCreatedEvent signals a completed checkout. The worker turns it into a
// confirmation email.
type OrderCreatedEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	CustomerEmail string    `json:"customer_email"`
	Province      string    `json:"province"`
	Total         float64   `json:"total"`
	CouponCode    string    `json:"coupon_code,omitempty"`
}

// OrderStatusChangedEvent is emitted on every lifecycle transition.
type OrderStatusChangedEvent struct {
	OrderID     uuid.UUID         `json:"order_id"`
	OrderNumber string            `json:"order_number"`
	From        enums.OrderStatus `json:"from"`
	To          enums.OrderStatus `json:"to"`
}

// OrderPaidEvent is emitted when the payment webhook confirms the charge.
type OrderPaidEvent struct {
	OrderID       uuid.UUID `json:"order_id"`
	OrderNumber   string    `json:"order_number"`
	TransactionID string    `json:"transaction_id"`
	PaidAt        time.Time `json:"paid_at"`
}

// OrderCancelledEvent is emitted when an order is cancelled, whether by the
// payment webhook or a support action.
type OrderCancelledEvent struct {
	OrderID     uuid.UUID `json:"order_id"`
	OrderNumber string    `json:"order_number"`
	Reason      string    `json:"reason,omitempty"`
	CancelledAt time.Time `json:"cancelled_at"`
}

// CouponRedeemedEvent records a successful coupon redemption at order time.
type CouponRedeemedEvent struct {
	DiscountID uuid.UUID `json:"discount_id"`
	Code       string    `json:"code"`
	OrderID    uuid.UUID `json:"order_id"`
	Amount     float64   `json:"amount"`
}

// ShipmentUpdatedEvent surfaces carrier status transitions.
type ShipmentUpdatedEvent struct {
	OrderID        uuid.UUID            `json:"order_id"`
	OrderNumber    string               `json:"order_number"`
	TrackingNumber string               `json:"tracking_number"`
	Status         enums.ShipmentStatus `json:"status"`
}
