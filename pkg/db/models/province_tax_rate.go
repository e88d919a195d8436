package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/packaxis/packaxis-backend/pkg/enums"
)

// ProvinceTaxRate stores the GST/PST components per province. The combined
// rate is always derived, never stored, so the components cannot drift.
type ProvinceTaxRate struct {
	ID        uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Province  enums.Province  `gorm:"column:province;type:varchar(2);not null;uniqueIndex"`
	GSTRate   decimal.Decimal `gorm:"column:gst_rate;type:numeric(6,4);not null"`
	PSTRate   decimal.Decimal `gorm:"column:pst_rate;type:numeric(6,4);not null;default:0"`
	IsActive  bool            `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}

// TotalRate returns the combined tax rate (GST + PST).
func (r ProvinceTaxRate) TotalRate() decimal.Decimal {
	return r.GSTRate.Add(r.PSTRate)
}
