package orders

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
	"github.com/packaxis/packaxis-backend/pkg/enums"
)

// Repository persists orders and their snapshots.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateTx inserts the order with its lines and address snapshots.
func (r *Repository) CreateTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(order).Error
}

// ExistsByOrderNumberTx reports whether an order number is already taken.
func (r *Repository) ExistsByOrderNumberTx(tx *gorm.DB, orderNumber string) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	var count int64
	err := tx.Model(&models.Order{}).
		Where("order_number = ?", orderNumber).
		Count(&count).Error
	return count > 0, err
}

// FindByOrderNumber loads an order with lines and address snapshots.
func (r *Repository) FindByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error) {
	var order models.Order
	err := r.db.WithContext(ctx).
		Preload("Lines").
		Preload("Addresses").
		First(&order, "order_number = ?", orderNumber).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// FindByOrderNumberTx loads an order inside tx for a status transition.
func (r *Repository) FindByOrderNumberTx(tx *gorm.DB, orderNumber string) (*models.Order, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var order models.Order
	err := tx.First(&order, "order_number = ?", orderNumber).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateStatusTx moves the order to the target status, optionally recording
// the payment transaction id.
func (r *Repository) UpdateStatusTx(tx *gorm.DB, id uuid.UUID, status enums.OrderStatus, transactionID *string) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	updates := map[string]any{"status": status}
	if transactionID != nil {
		updates["transaction_id"] = *transactionID
	}
	return tx.Model(&models.Order{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// CreateTrackingTx inserts a shipment tracking row.
func (r *Repository) CreateTrackingTx(tx *gorm.DB, tracking *models.ShipmentTracking) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	return tx.Create(tracking).Error
}

// UpdateTrackingStatusTx updates the carrier status for a tracking row.
func (r *Repository) UpdateTrackingStatusTx(tx *gorm.DB, id uuid.UUID, status enums.ShipmentStatus) error {
	if tx == nil {
		return errors.New("transaction required")
	}
	updates := map[string]any{"status": status}
	if status == enums.ShipmentStatusDelivered {
		updates["delivered_at"] = time.Now().UTC()
	}
	return tx.Model(&models.ShipmentTracking{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// FindTrackingByOrderTx loads the tracking row for an order.
func (r *Repository) FindTrackingByOrderTx(tx *gorm.DB, orderID uuid.UUID) (*models.ShipmentTracking, error) {
	if tx == nil {
		return nil, errors.New("transaction required")
	}
	var tracking models.ShipmentTracking
	err := tx.First(&tracking, "order_id = ?", orderID).Error
	if err != nil {
		return nil, err
	}
	return &tracking, nil
}
