package taxes

import (
	"context"

	"gorm.io/gorm"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
	"github.com/packaxis/packaxis-backend/pkg/enums"
)

// Repository reads province tax rates.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindActiveByProvince returns the active tax rate row for the province.
func (r *Repository) FindActiveByProvince(ctx context.Context, province enums.Province) (*models.ProvinceTaxRate, error) {
	var row models.ProvinceTaxRate
	err := r.db.WithContext(ctx).
		Where("province = ? AND is_active = ?", province, true).
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListActive returns all active tax rate rows ordered by province code.
func (r *Repository) ListActive(ctx context.Context) ([]models.ProvinceTaxRate, error) {
	var rows []models.ProvinceTaxRate
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("province ASC").
		Find(&rows).Error
	return rows, err
}
