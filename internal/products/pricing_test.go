package products

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
)

func tieredProduct() *models.Product {
	ten := 10
	fortyNine := 49
	return &models.Product{
		SKU:   "BOX-10x10",
		Name:  "10x10 Shipping Box",
		Price: decimal.RequireFromString("2.50"),
		PricingTiers: []models.PricingTier{
			{MinQty: 5, MaxQty: &ten, WholesalePrice: decimal.RequireFromString("2.00")},
			{MinQty: 11, MaxQty: &fortyNine, WholesalePrice: decimal.RequireFromString("1.75")},
			{MinQty: 50, WholesalePrice: decimal.RequireFromString("1.50")},
		},
	}
}

func TestResolveUnitPrice(t *testing.T) {
	product := tieredProduct()

	cases := []struct {
		qty  int
		want string
	}{
		{1, "2.50"},
		{4, "2.50"},
		{5, "2.00"},
		{10, "2.00"},
		{11, "1.75"},
		{49, "1.75"},
		{50, "1.50"},
		{500, "1.50"},
	}

	for _, tc := range cases {
		got := ResolveUnitPrice(product, tc.qty)
		if !got.Equal(decimal.RequireFromString(tc.want)) {
			t.Fatalf("qty %d: expected %s, got %s", tc.qty, tc.want, got)
		}
	}
}

func TestResolveUnitPriceNoTiers(t *testing.T) {
	product := &models.Product{Price: decimal.RequireFromString("9.99")}
	got := ResolveUnitPrice(product, 100)
	if !got.Equal(product.Price) {
		t.Fatalf("expected retail price, got %s", got)
	}

	if !ResolveUnitPrice(nil, 1).IsZero() {
		t.Fatal("expected zero price for nil product")
	}
}

func TestAppliedTier(t *testing.T) {
	product := tieredProduct()

	tier := AppliedTier(product, 7)
	if tier == nil {
		t.Fatal("expected a tier for qty 7")
	}
	if tier.MinQty != 5 {
		t.Fatalf("expected 5+ band, got min_qty %d", tier.MinQty)
	}

	if AppliedTier(product, 2) != nil {
		t.Fatal("expected retail pricing for qty 2")
	}
	if AppliedTier(nil, 2) != nil {
		t.Fatal("expected nil tier for nil product")
	}
}
