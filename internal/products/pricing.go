package products

import (
	"github.com/shopspring/decimal"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
)

// ResolveUnitPrice returns the effective unit price for the quantity. Tiers
// are checked in stored (min_qty ascending) order and the first band that
// covers the quantity wins; without a match the retail price applies.
func ResolveUnitPrice(product *models.Product, qty int) decimal.Decimal {
	if product == nil {
		return decimal.Zero
	}
	for _, tier := range product.PricingTiers {
		if tier.Covers(qty) {
			return tier.WholesalePrice
		}
	}
	return product.Price
}

// AppliedTier returns the tier used for the quantity, or nil when retail
// pricing applies.
func AppliedTier(product *models.Product, qty int) *models.PricingTier {
	if product == nil {
		return nil
	}
	for i := range product.PricingTiers {
		if product.PricingTiers[i].Covers(qty) {
			return &product.PricingTiers[i]
		}
	}
	return nil
}
