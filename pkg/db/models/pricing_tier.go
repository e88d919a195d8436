package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PricingTier captures wholesale pricing per quantity band. Tiers are read
// back ordered by min_qty; the first band containing the quantity wins.
type PricingTier struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null;index"`
	MinQty         int             `gorm:"column:min_qty;not null"`
	MaxQty         *int            `gorm:"column:max_qty"`
	WholesalePrice decimal.Decimal `gorm:"column:wholesale_price;type:numeric(10,2);not null"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}

// Covers reports whether qty falls within the band. A nil MaxQty means the
// band is open-ended.
func (t PricingTier) Covers(qty int) bool {
	if qty < t.MinQty {
		return false
	}
	if t.MaxQty != nil && qty > *t.MaxQty {
		return false
	}
	return true
}
