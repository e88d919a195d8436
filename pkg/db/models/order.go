package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/packaxis/packaxis-backend/pkg/enums"
)

// Order is the persisted checkout result. All monetary fields are snapshots
// taken at creation time; later rate or coupon changes never touch them.
type Order struct {
	ID                uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderNumber       string            `gorm:"column:order_number;not null;uniqueIndex:uq_orders_order_number"`
	Status            enums.OrderStatus `gorm:"column:status;not null;default:'PENDING'"`
	CustomerEmail     string            `gorm:"column:customer_email;not null"`
	Province          enums.Province    `gorm:"column:province;type:varchar(2);not null"`
	Subtotal          decimal.Decimal   `gorm:"column:subtotal;type:numeric(10,2);not null"`
	Discount          decimal.Decimal   `gorm:"column:discount;type:numeric(10,2);not null;default:0"`
	Tax               decimal.Decimal   `gorm:"column:tax;type:numeric(10,2);not null"`
	TaxRate           decimal.Decimal   `gorm:"column:tax_rate;type:numeric(6,4);not null"`
	TaxLabel          string            `gorm:"column:tax_label;not null"`
	Shipping          decimal.Decimal   `gorm:"column:shipping;type:numeric(10,2);not null"`
	Total             decimal.Decimal   `gorm:"column:total;type:numeric(10,2);not null"`
	CouponCode        *string           `gorm:"column:coupon_code"`
	EstimatedDelivery *string           `gorm:"column:estimated_delivery"`
	TransactionID     *string           `gorm:"column:transaction_id"`
	Lines             []OrderLine       `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Addresses         []OrderAddress    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt         time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}

// ShippingAddress returns the shipping snapshot if present.
func (o Order) ShippingAddress() *OrderAddress {
	for i := range o.Addresses {
		if o.Addresses[i].Kind == AddressKindShipping {
			return &o.Addresses[i]
		}
	}
	return nil
}
