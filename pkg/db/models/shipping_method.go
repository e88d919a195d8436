package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/packaxis/packaxis-backend/pkg/enums"
)

// ShippingMethod is a rate card entry for one carrier/service combination.
type ShippingMethod struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Carrier         enums.Carrier         `gorm:"column:carrier;not null"`
	Service         enums.ShippingService `gorm:"column:service;not null"`
	Description     *string               `gorm:"column:description"`
	BaseRate        decimal.Decimal       `gorm:"column:base_rate;type:numeric(10,2);not null"`
	PerKgRate       decimal.Decimal       `gorm:"column:per_kg_rate;type:numeric(10,2);not null;default:0"`
	MinDeliveryDays int                   `gorm:"column:min_delivery_days;not null"`
	MaxDeliveryDays int                   `gorm:"column:max_delivery_days;not null"`
	ProcessingDays  int                   `gorm:"column:processing_days;not null;default:5"`
	IsActive        bool                  `gorm:"column:is_active;not null;default:true"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

// DeliveryRange renders the storefront label, e.g. "3-5 business days".
func (m ShippingMethod) DeliveryRange() string {
	if m.MinDeliveryDays == m.MaxDeliveryDays {
		return fmt.Sprintf("%d business days", m.MaxDeliveryDays)
	}
	return fmt.Sprintf("%d-%d business days", m.MinDeliveryDays, m.MaxDeliveryDays)
}
