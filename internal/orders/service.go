package orders

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
	"github.com/packaxis/packaxis-backend/pkg/enums"
	pkgerrors "github.com/packaxis/packaxis-backend/pkg/errors"
	"github.com/packaxis/packaxis-backend/pkg/logger"
	"github.com/packaxis/packaxis-backend/pkg/outbox"
	"github.com/packaxis/packaxis-backend/pkg/outbox/payloads"
)

// orderNumberPrefix is stamped on every order number, followed by the
// creation timestamp and an optional collision suffix.
const orderNumberPrefix = "PKX"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type orderStore interface {
	CreateTx(tx *gorm.DB, order *models.Order) error
	ExistsByOrderNumberTx(tx *gorm.DB, orderNumber string) (bool, error)
	FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
	FindByOrderNumberTx(tx *gorm.DB, orderNumber string) (*models.Order, error)
	UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status enums.OrderStatus, transactionID *string) error
	CreateTrackingTx(tx *gorm.DB, tracking *models.ShipmentTracking) error
	UpdateTrackingStatusTx(tx *gorm.DB, id uuid.UUID, status enums.ShipmentStatus) error
	FindTrackingByOrderTx(tx *gorm.DB, orderID uuid.UUID) (*models.ShipmentTracking, error)
}

type couponRedeemer interface {
	Redeem(ctx context.Context, tx *gorm.DB, code string) error
}

type eventEmitter interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service owns the order lifecycle: creation, payment transitions, shipping.
type Service struct {
	repo    orderStore
	tx      txRunner
	coupons couponRedeemer
	events  eventEmitter
	logg    *logger.Logger
	now     func() time.Time
}

// NewService builds the order service.
func NewService(repo orderStore, tx txRunner, coupons couponRedeemer, events eventEmitter, logg *logger.Logger) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("order repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon redeemer required")
	}
	if events == nil {
		return nil, fmt.Errorf("event emitter required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{
		repo:    repo,
		tx:      tx,
		coupons: coupons,
		events:  events,
		logg:    logg,
		now:     time.Now,
	}, nil
}

// WithClock overrides the time source used for order numbers in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	clone := *s
	clone.now = now
	return &clone
}

// LineInput is one item snapshot in a new order.
type LineInput struct {
	ProductID *uuid.UUID
	SKU       string
	Name      string
	Qty       int
	UnitPrice decimal.Decimal
	WeightKg  decimal.Decimal
}

// AddressInput is the customer-supplied shipping address.
type AddressInput struct {
	FirstName  string
	LastName   string
	Line1      string
	Line2      string
	City       string
	Province   enums.Province
	PostalCode string
	Phone      string
}

// TotalsInput carries the quoted amounts the storefront confirmed.
type TotalsInput struct {
	Subtotal decimal.Decimal
	Discount decimal.Decimal
	Tax      decimal.Decimal
	TaxRate  decimal.Decimal
	TaxLabel string
	Shipping decimal.Decimal
	Total    decimal.Decimal
}

// CreateInput is the full order-creation payload.
type CreateInput struct {
	Items             []LineInput
	Address           AddressInput
	GuestEmail        string
	CouponCode        string
	Totals            TotalsInput
	EstimatedDelivery string
}

// Create persists the order atomically: address snapshots, the order row
// with a unique PKX number, line snapshots, coupon redemption, and the
// order-created outbox event all commit together.
func (s *Service) Create(ctx context.Context, input CreateInput) (*models.Order, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "No items in order")
	}
	if strings.TrimSpace(input.GuestEmail) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Email is required for guest checkout")
	}
	if !input.Address.Province.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "Unknown province code")
	}

	var order *models.Order
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		orderNumber, err := s.generateOrderNumber(tx)
		if err != nil {
			return err
		}

		order = s.buildOrder(orderNumber, input)
		if err := s.repo.CreateTx(tx, order); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting order")
		}

		if code := strings.TrimSpace(input.CouponCode); code != "" {
			if err := s.coupons.Redeem(ctx, tx, code); err != nil {
				return err
			}
			if err := s.events.Emit(ctx, tx, outbox.DomainEvent{
				EventType:     enums.EventCouponRedeemed,
				AggregateType: enums.AggregateDiscount,
				AggregateID:   order.ID,
				Data: payloads.CouponRedeemedEvent{
					Code:    strings.ToUpper(code),
					OrderID: order.ID,
					Amount:  input.Totals.Discount.InexactFloat64(),
				},
			}); err != nil {
				return err
			}
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCreated,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCreatedEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				CustomerEmail: order.CustomerEmail,
				Province:      string(order.Province),
				Total:         order.Total.InexactFloat64(),
				CouponCode:    strings.ToUpper(strings.TrimSpace(input.CouponCode)),
			},
		})
	})
	if err != nil {
		return nil, err
	}

	logCtx := s.logg.WithOrderNumber(ctx, order.OrderNumber)
	s.logg.Info(logCtx, "order created")
	return order, nil
}

func (s *Service) buildOrder(orderNumber string, input CreateInput) *models.Order {
	var couponCode *string
	if code := strings.ToUpper(strings.TrimSpace(input.CouponCode)); code != "" {
		couponCode = &code
	}
	var estimated *string
	if input.EstimatedDelivery != "" {
		estimated = &input.EstimatedDelivery
	}

	lines := make([]models.OrderLine, 0, len(input.Items))
	for _, item := range input.Items {
		qty := decimal.NewFromInt(int64(item.Qty))
		lines = append(lines, models.OrderLine{
			ProductID: item.ProductID,
			SKU:       item.SKU,
			Name:      item.Name,
			Qty:       item.Qty,
			UnitPrice: item.UnitPrice,
			LineTotal: item.UnitPrice.Mul(qty).Round(2),
			WeightKg:  item.WeightKg,
		})
	}

	// Billing mirrors shipping until the storefront collects them separately.
	addresses := []models.OrderAddress{
		snapshotAddress(models.AddressKindShipping, input.Address),
		snapshotAddress(models.AddressKindBilling, input.Address),
	}

	return &models.Order{
		OrderNumber:       orderNumber,
		Status:            enums.OrderStatusPending,
		CustomerEmail:     strings.TrimSpace(input.GuestEmail),
		Province:          input.Address.Province,
		Subtotal:          input.Totals.Subtotal,
		Discount:          input.Totals.Discount,
		Tax:               input.Totals.Tax,
		TaxRate:           input.Totals.TaxRate,
		TaxLabel:          input.Totals.TaxLabel,
		Shipping:          input.Totals.Shipping,
		Total:             input.Totals.Total,
		CouponCode:        couponCode,
		EstimatedDelivery: estimated,
		Lines:             lines,
		Addresses:         addresses,
	}
}

func snapshotAddress(kind models.AddressKind, input AddressInput) models.OrderAddress {
	var line2 *string
	if input.Line2 != "" {
		line2 = &input.Line2
	}
	var phone *string
	if input.Phone != "" {
		phone = &input.Phone
	}
	return models.OrderAddress{
		Kind:       kind,
		FirstName:  input.FirstName,
		LastName:   input.LastName,
		Line1:      input.Line1,
		Line2:      line2,
		City:       input.City,
		Province:   input.Province,
		PostalCode: input.PostalCode,
		Country:    "CA",
		Phone:      phone,
	}
}

// generateOrderNumber builds PKX<YYYYMMDDHHMMSS>, appending -1, -2, ... on
// collision within the same second.
func (s *Service) generateOrderNumber(tx *gorm.DB) (string, error) {
	base := orderNumberPrefix + s.now().Format("20060102150405")
	candidate := base
	for suffix := 1; ; suffix++ {
		exists, err := s.repo.ExistsByOrderNumberTx(tx, candidate)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "checking order number")
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, suffix)
	}
}

// GetByOrderNumber loads the order snapshot for display.
func (s *Service) GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	order, err := s.repo.FindByOrderNumber(ctx, orderNumber)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
	}
	return order, nil
}

// MarkPaid records the successful charge and moves the order to PROCESSING.
func (s *Service) MarkPaid(ctx context.Context, orderNumber, transactionID string) error {
	return s.transition(ctx, orderNumber, enums.OrderStatusProcessing, func(tx *gorm.DB, order *models.Order) error {
		if err := s.repo.UpdateStatusTx(tx, order.ID, enums.OrderStatusProcessing, &transactionID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderPaid,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderPaidEvent{
				OrderID:       order.ID,
				OrderNumber:   order.OrderNumber,
				TransactionID: transactionID,
				PaidAt:        s.now(),
			},
		})
	})
}

// Cancel moves the order to CANCELLED from any non-terminal state.
func (s *Service) Cancel(ctx context.Context, orderNumber, reason string) error {
	return s.transition(ctx, orderNumber, enums.OrderStatusCancelled, func(tx *gorm.DB, order *models.Order) error {
		if err := s.repo.UpdateStatusTx(tx, order.ID, enums.OrderStatusCancelled, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderCancelled,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderCancelledEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				Reason:      reason,
				CancelledAt: s.now(),
			},
		})
	})
}

// Ship moves the order to SHIPPED and opens a tracking record.
func (s *Service) Ship(ctx context.Context, orderNumber string, carrier enums.Carrier, trackingNumber string) error {
	if !carrier.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "Unknown carrier")
	}
	if strings.TrimSpace(trackingNumber) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "Tracking number is required")
	}
	return s.transition(ctx, orderNumber, enums.OrderStatusShipped, func(tx *gorm.DB, order *models.Order) error {
		if err := s.repo.UpdateStatusTx(tx, order.ID, enums.OrderStatusShipped, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
		}
		tracking := &models.ShipmentTracking{
			OrderID:        order.ID,
			Carrier:        carrier,
			TrackingNumber: trackingNumber,
			Status:         enums.ShipmentStatusInTransit,
		}
		if err := s.repo.CreateTrackingTx(tx, tracking); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "inserting tracking")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentUpdated,
			AggregateType: enums.AggregateShipment,
			AggregateID:   order.ID,
			Data: payloads.ShipmentUpdatedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				TrackingNumber: trackingNumber,
				Status:         enums.ShipmentStatusInTransit,
			},
		})
	})
}

// MarkDelivered closes the loop: tracking and order both become DELIVERED.
func (s *Service) MarkDelivered(ctx context.Context, orderNumber string) error {
	return s.transition(ctx, orderNumber, enums.OrderStatusDelivered, func(tx *gorm.DB, order *models.Order) error {
		if err := s.repo.UpdateStatusTx(tx, order.ID, enums.OrderStatusDelivered, nil); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating order status")
		}
		tracking, err := s.repo.FindTrackingByOrderTx(tx, order.ID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return nil
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading tracking")
		}
		if err := s.repo.UpdateTrackingStatusTx(tx, tracking.ID, enums.ShipmentStatusDelivered); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "updating tracking")
		}
		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventShipmentUpdated,
			AggregateType: enums.AggregateShipment,
			AggregateID:   order.ID,
			Data: payloads.ShipmentUpdatedEvent{
				OrderID:        order.ID,
				OrderNumber:    order.OrderNumber,
				TrackingNumber: tracking.TrackingNumber,
				Status:         enums.ShipmentStatusDelivered,
			},
		})
	})
}

// transition loads the order, enforces the status machine, applies the
// change, and emits the status-changed event, all within one transaction.
func (s *Service) transition(ctx context.Context, orderNumber string, target enums.OrderStatus, apply func(tx *gorm.DB, order *models.Order) error) error {
	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		order, err := s.repo.FindByOrderNumberTx(tx, orderNumber)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "Order not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading order")
		}

		if !order.Status.CanTransitionTo(target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("Cannot move order from %s to %s", order.Status, target))
		}

		if err := apply(tx, order); err != nil {
			return err
		}

		return s.events.Emit(ctx, tx, outbox.DomainEvent{
			EventType:     enums.EventOrderStatusChanged,
			AggregateType: enums.AggregateOrder,
			AggregateID:   order.ID,
			Data: payloads.OrderStatusChangedEvent{
				OrderID:     order.ID,
				OrderNumber: order.OrderNumber,
				From:        order.Status,
				To:          target,
			},
		})
	})
}
