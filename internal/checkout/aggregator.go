package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/packaxis/packaxis-backend/internal/promotions"
	"github.com/packaxis/packaxis-backend/internal/taxes"
	"github.com/packaxis/packaxis-backend/pkg/enums"
	"github.com/packaxis/packaxis-backend/pkg/logger"
	"github.com/packaxis/packaxis-backend/pkg/metrics"
)

// QuoteItem is one cart line in a quote request. Price is the unit price the
// storefront displays; weight is per unit in kilograms.
type QuoteItem struct {
	ProductID *uuid.UUID
	Price     decimal.Decimal
	Quantity  int
	WeightKg  decimal.Decimal
}

// QuoteInput is the full quote request.
type QuoteInput struct {
	PostalCode       string
	ProvinceOverride string
	ShippingMethod   string
	CouponCode       string
	Items            []QuoteItem
}

// Quote is the calculated checkout breakdown.
type Quote struct {
	Subtotal          decimal.Decimal
	Tax               decimal.Decimal
	TaxRate           decimal.Decimal
	TaxLabel          string
	Shipping          decimal.Decimal
	Discount          decimal.Decimal
	Total             decimal.Decimal
	EstimatedDelivery string
	Province          enums.Province
	ShippingService   enums.ShippingService
	Coupon            *promotions.Coupon
	Warnings          []string
}

type provinceRater interface {
	ResolveProvince(postalCode, override string) (enums.Province, error)
	RateFor(ctx context.Context, province enums.Province, detailed bool) (taxes.Rate, error)
}

type shipmentPricer interface {
	ResolveService(ctx context.Context, requested string) (enums.ShippingService, error)
	Cost(ctx context.Context, service enums.ShippingService, weightKg decimal.Decimal) decimal.Decimal
	EstimateDelivery(ctx context.Context, service enums.ShippingService) string
}

type couponValidator interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (promotions.Result, error)
}

// Aggregator composes taxes, shipping, and promotions into one quote.
type Aggregator struct {
	taxes    provinceRater
	shipping shipmentPricer
	coupons  couponValidator
	logg     *logger.Logger
	metrics  *metrics.CheckoutMetrics
}

// NewAggregator builds the quote aggregator.
func NewAggregator(taxResolver provinceRater, shippingCalc shipmentPricer, coupons couponValidator, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Aggregator, error) {
	if taxResolver == nil {
		return nil, fmt.Errorf("tax resolver required")
	}
	if shippingCalc == nil {
		return nil, fmt.Errorf("shipping calculator required")
	}
	if coupons == nil {
		return nil, fmt.Errorf("coupon validator required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Aggregator{
		taxes:    taxResolver,
		shipping: shippingCalc,
		coupons:  coupons,
		logg:     logg,
		metrics:  m,
	}, nil
}

// Calculate runs the quote pipeline. Coupon failures are soft: they land in
// Warnings and the quote still succeeds with a zero discount. Only an
// invalid postal code or an infrastructure failure returns an error.
//
// Order of operations: province, subtotal and weight, shipping service
// substitution, discount, taxable amount, tax, shipping, total, delivery
// estimate. Tax applies to the discounted subtotal but never to shipping.
func (a *Aggregator) Calculate(ctx context.Context, input QuoteInput) (*Quote, error) {
	started := time.Now()

	province, err := a.taxes.ResolveProvince(input.PostalCode, input.ProvinceOverride)
	if err != nil {
		a.metrics.ObserveQuoteDuration("rejected", time.Since(started))
		return nil, err
	}

	subtotal := decimal.Zero
	weight := decimal.Zero
	for _, item := range input.Items {
		qty := decimal.NewFromInt(int64(item.Quantity))
		subtotal = subtotal.Add(item.Price.Mul(qty))
		weight = weight.Add(item.WeightKg.Mul(qty))
	}
	subtotal = subtotal.Round(2)

	service, err := a.shipping.ResolveService(ctx, input.ShippingMethod)
	if err != nil {
		a.metrics.ObserveQuoteDuration("error", time.Since(started))
		return nil, err
	}

	quote := &Quote{
		Subtotal:        subtotal,
		Province:        province,
		ShippingService: service,
		Discount:        decimal.Zero,
	}

	couponResult, err := a.coupons.Validate(ctx, input.CouponCode, subtotal)
	if err != nil {
		a.metrics.ObserveQuoteDuration("error", time.Since(started))
		return nil, err
	}
	if couponResult.Warning != "" {
		quote.Warnings = append(quote.Warnings, couponResult.Warning)
	}
	quote.Discount = couponResult.Discount
	quote.Coupon = couponResult.Coupon

	taxable := subtotal.Sub(quote.Discount)

	rate, err := a.taxes.RateFor(ctx, province, true)
	if err != nil {
		a.metrics.ObserveQuoteDuration("error", time.Since(started))
		return nil, err
	}
	quote.TaxRate = rate.Rate
	quote.TaxLabel = rate.Label
	quote.Tax = taxes.Amount(taxable, rate.Rate)

	quote.Shipping = a.shipping.Cost(ctx, service, weight)
	if couponResult.Coupon != nil && couponResult.Coupon.AppliesToShipping {
		quote.Shipping = shippingAfterCoupon(quote.Shipping, subtotal, couponResult)
	}

	quote.Total = taxable.Add(quote.Tax).Add(quote.Shipping).Round(2)
	quote.EstimatedDelivery = a.shipping.EstimateDelivery(ctx, service)

	a.metrics.IncQuote(string(province))
	a.metrics.ObserveQuoteDuration("ok", time.Since(started))
	return quote, nil
}

// shippingAfterCoupon extends the coupon to the shipping charge. Percentage
// coupons take the same percentage off shipping; fixed coupons spend any
// value left over after the subtotal clamp. Never goes below zero.
func shippingAfterCoupon(shipping, subtotal decimal.Decimal, result promotions.Result) decimal.Decimal {
	coupon := result.Coupon
	switch coupon.Type {
	case enums.DiscountTypePercentage:
		cut := shipping.Mul(coupon.Value).Div(decimal.NewFromInt(100)).Round(2)
		shipping = shipping.Sub(cut)
	case enums.DiscountTypeFixed:
		remainder := coupon.Value.Sub(result.Discount)
		if remainder.IsPositive() {
			shipping = shipping.Sub(remainder)
		}
	}
	if shipping.IsNegative() {
		return decimal.Zero
	}
	return shipping.Round(2)
}
