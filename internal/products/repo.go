package products

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
)

// Repository reads catalog products with their pricing tiers.
type Repository struct {
	db *gorm.DB
}

// NewRepository builds a repository tied to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// FindActiveByID loads an active product with tiers in min_qty order.
func (r *Repository) FindActiveByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("PricingTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_qty ASC")
		}).
		First(&product, "id = ? AND is_active = ?", id, true).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}

// FindActiveBySKU loads an active product by SKU with tiers in min_qty order.
func (r *Repository) FindActiveBySKU(ctx context.Context, sku string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).
		Preload("PricingTiers", func(db *gorm.DB) *gorm.DB {
			return db.Order("min_qty ASC")
		}).
		First(&product, "sku = ? AND is_active = ?", sku, true).Error
	if err != nil {
		return nil, err
	}
	return &product, nil
}
