package shipping

import (
	"context"

	"gorm.io/gorm"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
	"github.com/packaxis/packaxis-backend/pkg/enums"
)

// Repository reads the shipping rate card.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindActiveByService returns the cheapest active method for the service
// tier. Ordering by base_rate keeps the pick deterministic when several
// methods share a service.
func (r *Repository) FindActiveByService(ctx context.Context, service enums.ShippingService) (*models.ShippingMethod, error) {
	var row models.ShippingMethod
	err := r.db.WithContext(ctx).
		Where("service = ? AND is_active = ?", service, true).
		Order("base_rate ASC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// FirstActive returns the cheapest active method across all services.
func (r *Repository) FirstActive(ctx context.Context) (*models.ShippingMethod, error) {
	var row models.ShippingMethod
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("base_rate ASC").
		First(&row).Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListActive returns all active methods ordered by base rate.
func (r *Repository) ListActive(ctx context.Context) ([]models.ShippingMethod, error) {
	var rows []models.ShippingMethod
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("base_rate ASC").
		Find(&rows).Error
	return rows, err
}
