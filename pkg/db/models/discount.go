package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	dbtypes "github.com/packaxis/packaxis-backend/pkg/db/types"
	"github.com/packaxis/packaxis-backend/pkg/enums"
)

// Discount is a coupon definition. Codes are stored uppercase.
type Discount struct {
	ID                   uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Code                 string             `gorm:"column:code;not null;uniqueIndex"`
	Description          *string            `gorm:"column:description"`
	DiscountType         enums.DiscountType `gorm:"column:discount_type;not null"`
	Value                decimal.Decimal    `gorm:"column:value;type:numeric(10,2);not null"`
	MinOrderValue        decimal.Decimal    `gorm:"column:min_order_value;type:numeric(10,2);not null;default:0"`
	UsageLimit           *int               `gorm:"column:usage_limit"`
	UsageCount           int                `gorm:"column:usage_count;not null;default:0"`
	AppliesToShipping    bool               `gorm:"column:applies_to_shipping;not null;default:false"`
	ApplicableProductIDs dbtypes.UUIDArray  `gorm:"column:applicable_product_ids;type:uuid[]"`
	StartsAt             *time.Time         `gorm:"column:starts_at"`
	EndsAt               *time.Time         `gorm:"column:ends_at"`
	IsActive             bool               `gorm:"column:is_active;not null;default:true"`
	CreatedAt            time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt            time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// HasUsageRemaining reports whether the coupon is under its usage limit.
func (d Discount) HasUsageRemaining() bool {
	if d.UsageLimit == nil {
		return true
	}
	return d.UsageCount < *d.UsageLimit
}
