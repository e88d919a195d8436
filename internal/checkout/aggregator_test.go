package checkout

import (
	"context"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/packaxis/packaxis-backend/internal/promotions"
	"github.com/packaxis/packaxis-backend/internal/taxes"
	"github.com/packaxis/packaxis-backend/pkg/enums"
	pkgerrors "github.com/packaxis/packaxis-backend/pkg/errors"
	"github.com/packaxis/packaxis-backend/pkg/logger"
	"github.com/packaxis/packaxis-backend/pkg/metrics"
)

type stubRater struct{}

func (stubRater) ResolveProvince(postalCode, override string) (enums.Province, error) {
	return taxes.ValidatePostalCode(postalCode)
}

func (stubRater) RateFor(ctx context.Context, province enums.Province, detailed bool) (taxes.Rate, error) {
	return taxes.Rate{
		Province: province,
		Rate:     decimal.RequireFromString("0.13"),
		Label:    "HST",
	}, nil
}

type stubPricer struct {
	cost decimal.Decimal
}

func (stubPricer) ResolveService(ctx context.Context, requested string) (enums.ShippingService, error) {
	return enums.ShippingServiceStandard, nil
}

func (s stubPricer) Cost(ctx context.Context, service enums.ShippingService, weightKg decimal.Decimal) decimal.Decimal {
	return s.cost
}

func (stubPricer) EstimateDelivery(ctx context.Context, service enums.ShippingService) string {
	return "Fri, Jan 09, 2026"
}

type stubCoupons struct {
	result promotions.Result
}

func (s stubCoupons) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (promotions.Result, error) {
	if code == "" {
		return promotions.Result{Discount: decimal.Zero}, nil
	}
	return s.result, nil
}

func newTestAggregator(t *testing.T, coupons couponValidator) *Aggregator {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	agg, err := NewAggregator(stubRater{}, stubPricer{cost: decimal.RequireFromString("9.99")}, coupons, logg, nil)
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}
	return agg
}

func cartInput(coupon string) QuoteInput {
	return QuoteInput{
		PostalCode: "M5V 3A8",
		CouponCode: coupon,
		Items: []QuoteItem{
			{Price: decimal.RequireFromString("25.00"), Quantity: 4, WeightKg: decimal.RequireFromString("0.5")},
		},
	}
}

func TestCalculateOntarioCart(t *testing.T) {
	agg := newTestAggregator(t, stubCoupons{})

	quote, err := agg.Calculate(context.Background(), cartInput(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	assertDecimal(t, "subtotal", quote.Subtotal, "100.00")
	assertDecimal(t, "tax", quote.Tax, "13.00")
	assertDecimal(t, "shipping", quote.Shipping, "9.99")
	assertDecimal(t, "total", quote.Total, "122.99")
	if quote.Province != enums.ProvinceON {
		t.Fatalf("expected ON, got %s", quote.Province)
	}
	if quote.TaxLabel != "HST" {
		t.Fatalf("expected HST label, got %q", quote.TaxLabel)
	}
	if quote.EstimatedDelivery == "" {
		t.Fatal("expected a delivery estimate")
	}
	if len(quote.Warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", quote.Warnings)
	}
}

func TestCalculateWithPercentageCoupon(t *testing.T) {
	agg := newTestAggregator(t, stubCoupons{result: promotions.Result{
		Discount: decimal.RequireFromString("20.00"),
		Coupon: &promotions.Coupon{
			Code:  "SAVE20",
			Type:  enums.DiscountTypePercentage,
			Value: decimal.NewFromInt(20),
			Label: "20% off",
		},
	}})

	quote, err := agg.Calculate(context.Background(), cartInput("SAVE20"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Tax applies to the discounted subtotal: (100 - 20) x 0.13.
	assertDecimal(t, "discount", quote.Discount, "20.00")
	assertDecimal(t, "tax", quote.Tax, "10.40")
	assertDecimal(t, "shipping", quote.Shipping, "9.99")
	assertDecimal(t, "total", quote.Total, "100.39")
	if quote.Coupon == nil || quote.Coupon.Code != "SAVE20" {
		t.Fatalf("expected applied coupon, got %+v", quote.Coupon)
	}
}

func TestCalculateCouponWarningIsSoft(t *testing.T) {
	agg := newTestAggregator(t, stubCoupons{result: promotions.Result{
		Discount: decimal.Zero,
		Warning:  "This coupon has expired",
	}})

	quote, err := agg.Calculate(context.Background(), cartInput("OLD"))
	if err != nil {
		t.Fatalf("expected soft failure, got error: %v", err)
	}
	if len(quote.Warnings) != 1 || quote.Warnings[0] != "This coupon has expired" {
		t.Fatalf("expected expiry warning, got %v", quote.Warnings)
	}
	assertDecimal(t, "discount", quote.Discount, "0")
	assertDecimal(t, "total", quote.Total, "122.99")
}

func TestCalculateInvalidPostalCode(t *testing.T) {
	agg := newTestAggregator(t, stubCoupons{})

	input := cartInput("")
	input.PostalCode = "ZZZ ZZZ"
	_, err := agg.Calculate(context.Background(), input)
	if err == nil {
		t.Fatal("expected error for invalid postal code")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if typed.Message() != "Invalid postal code format. Use: A1A 1A1" {
		t.Fatalf("unexpected message %q", typed.Message())
	}
}

func TestCalculateCouponAppliesToShipping(t *testing.T) {
	percentOff := stubCoupons{result: promotions.Result{
		Discount: decimal.RequireFromString("20.00"),
		Coupon: &promotions.Coupon{
			Code:              "SHIP20",
			Type:              enums.DiscountTypePercentage,
			Value:             decimal.NewFromInt(20),
			Label:             "20% off",
			AppliesToShipping: true,
		},
	}}
	agg := newTestAggregator(t, percentOff)

	quote, err := agg.Calculate(context.Background(), cartInput("SHIP20"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// 9.99 less 20% = 7.99 after rounding the cut to cents.
	assertDecimal(t, "shipping", quote.Shipping, "7.99")

	// Fixed coupon: value left after the subtotal clamp comes off shipping.
	fixed := stubCoupons{result: promotions.Result{
		Discount: decimal.RequireFromString("100.00"),
		Coupon: &promotions.Coupon{
			Code:              "FLAT105",
			Type:              enums.DiscountTypeFixed,
			Value:             decimal.NewFromInt(105),
			Label:             "$105.00 off",
			AppliesToShipping: true,
		},
	}}
	agg = newTestAggregator(t, fixed)

	quote, err = agg.Calculate(context.Background(), cartInput("FLAT105"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	assertDecimal(t, "shipping", quote.Shipping, "4.99")
	assertDecimal(t, "total", quote.Total, "4.99")
}

type failingPricer struct {
	stubPricer
}

func (failingPricer) ResolveService(ctx context.Context, requested string) (enums.ShippingService, error) {
	return "", pkgerrors.New(pkgerrors.CodeDependency, "Service temporarily unavailable")
}

func TestCalculateDependencyErrorRecordsDuration(t *testing.T) {
	registry := prometheus.NewRegistry()
	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	agg, err := NewAggregator(stubRater{}, failingPricer{}, stubCoupons{}, logg, metrics.NewCheckoutMetrics(registry))
	if err != nil {
		t.Fatalf("new aggregator: %v", err)
	}

	if _, err := agg.Calculate(context.Background(), cartInput("")); err == nil {
		t.Fatal("expected dependency error")
	}

	families, err := registry.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	found := false
	for _, family := range families {
		if family.GetName() != "checkout_quote_duration_seconds" {
			continue
		}
		for _, metric := range family.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" && label.GetValue() == "error" {
					found = true
				}
			}
		}
	}
	if !found {
		t.Fatal("expected a duration observation with outcome=error")
	}
}

func assertDecimal(t *testing.T, field string, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("%s: expected %s, got %s", field, want, got)
	}
}
