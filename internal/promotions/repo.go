package promotions

import (
	"context"
	"errors"
	"strings"

	"gorm.io/gorm"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
)

// Repository reads and redeems coupon definitions.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindActiveByCode returns the active coupon with the given (uppercased) code.
func (r *Repository) FindActiveByCode(ctx context.Context, code string) (*models.Discount, error) {
	var row models.Discount
	err := r.db.WithContext(ctx).
		Where("code = ? AND is_active = ?", strings.ToUpper(code), true).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// RedeemTx increments the coupon's usage count inside tx. The guard is part
// of the UPDATE itself so two concurrent orders can never both take the last
// redemption. Returns false when the limit was already exhausted.
func (r *Repository) RedeemTx(tx *gorm.DB, code string) (bool, error) {
	if tx == nil {
		return false, errors.New("transaction required")
	}
	result := tx.Model(&models.Discount{}).
		Where("code = ? AND is_active = ?", strings.ToUpper(code), true).
		Where("usage_limit IS NULL OR usage_count < usage_limit").
		Update("usage_count", gorm.Expr("usage_count + 1"))
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
