package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/packaxis/packaxis-backend/pkg/enums"
)

// ShipmentTracking records carrier progress for a shipped order.
type ShipmentTracking struct {
	ID                uuid.UUID            `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID           uuid.UUID            `gorm:"column:order_id;type:uuid;not null;index"`
	Carrier           enums.Carrier        `gorm:"column:carrier;not null"`
	TrackingNumber    string               `gorm:"column:tracking_number;not null"`
	Status            enums.ShipmentStatus `gorm:"column:status;not null;default:'PENDING'"`
	EstimatedDelivery *time.Time           `gorm:"column:estimated_delivery"`
	DeliveredAt       *time.Time           `gorm:"column:delivered_at"`
	CreatedAt         time.Time            `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time            `gorm:"column:updated_at;autoUpdateTime"`
}
