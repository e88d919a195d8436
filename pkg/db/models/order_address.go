package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/packaxis/packaxis-backend/pkg/enums"
)

// AddressKind distinguishes the shipping snapshot from the billing snapshot.
type AddressKind string

const (
	AddressKindShipping AddressKind = "shipping"
	AddressKindBilling  AddressKind = "billing"
)

// OrderAddress is an immutable address snapshot attached to an order.
type OrderAddress struct {
	ID         uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID    uuid.UUID      `gorm:"column:order_id;type:uuid;not null;index"`
	Kind       AddressKind    `gorm:"column:kind;not null"`
	FirstName  string         `gorm:"column:first_name;not null"`
	LastName   string         `gorm:"column:last_name;not null"`
	Line1      string         `gorm:"column:line1;not null"`
	Line2      *string        `gorm:"column:line2"`
	City       string         `gorm:"column:city;not null"`
	Province   enums.Province `gorm:"column:province;type:varchar(2);not null"`
	PostalCode string         `gorm:"column:postal_code;not null"`
	Country    string         `gorm:"column:country;not null;default:'CA'"`
	Phone      *string        `gorm:"column:phone"`
	CreatedAt  time.Time      `gorm:"column:created_at;autoCreateTime"`
}
