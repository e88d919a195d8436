package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/packaxis/packaxis-backend/api/responses"
	"github.com/packaxis/packaxis-backend/api/validators"
	"github.com/packaxis/packaxis-backend/internal/checkout"
	"github.com/packaxis/packaxis-backend/internal/shipping"
	"github.com/packaxis/packaxis-backend/internal/taxes"
	"github.com/packaxis/packaxis-backend/pkg/enums"
	pkgerrors "github.com/packaxis/packaxis-backend/pkg/errors"
	"github.com/packaxis/packaxis-backend/pkg/logger"
)

// The storefront predates the standard response envelope, so the checkout
// endpoints keep their original flat shapes.

type checkoutItemRequest struct {
	ID       string  `json:"id"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gt=0"`
	Weight   float64 `json:"weight"`
}

type checkoutCalculateRequest struct {
	PostalCode     string                `json:"postal_code"`
	Province       string                `json:"province"`
	ShippingMethod string                `json:"shipping_method"`
	CouponCode     string                `json:"coupon_code"`
	Items          []checkoutItemRequest `json:"items" validate:"required,min=1,dive"`
}

type checkoutCouponResponse struct {
	Code  string `json:"code"`
	Label string `json:"label"`
	Type  string `json:"type"`
}

type checkoutCalculateResponse struct {
	Success           bool                    `json:"success"`
	Subtotal          float64                 `json:"subtotal"`
	Tax               float64                 `json:"tax"`
	TaxRate           float64                 `json:"tax_rate"`
	TaxLabel          string                  `json:"tax_label"`
	Shipping          float64                 `json:"shipping"`
	Discount          float64                 `json:"discount"`
	Total             float64                 `json:"total"`
	EstimatedDelivery string                  `json:"estimated_delivery"`
	Province          string                  `json:"province"`
	Coupon            *checkoutCouponResponse `json:"coupon,omitempty"`
	Errors            []string                `json:"errors"`
}

type checkoutFailureResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors"`
}

type quoteCalculator interface {
	Calculate(ctx context.Context, input checkout.QuoteInput) (*checkout.Quote, error)
}

// CheckoutCalculate prices the cart: province, tax, shipping, coupon, total.
func CheckoutCalculate(agg quoteCalculator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req checkoutCalculateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			writeCheckoutFailure(ctx, logg, w, err)
			return
		}

		input := checkout.QuoteInput{
			PostalCode:       req.PostalCode,
			ProvinceOverride: req.Province,
			ShippingMethod:   req.ShippingMethod,
			CouponCode:       req.CouponCode,
			Items:            make([]checkout.QuoteItem, 0, len(req.Items)),
		}
		for _, item := range req.Items {
			var productID *uuid.UUID
			if parsed, err := uuid.Parse(item.ID); err == nil {
				productID = &parsed
			}
			input.Items = append(input.Items, checkout.QuoteItem{
				ProductID: productID,
				Price:     decimal.NewFromFloat(item.Price),
				Quantity:  item.Quantity,
				WeightKg:  decimal.NewFromFloat(item.Weight),
			})
		}

		quote, err := agg.Calculate(ctx, input)
		if err != nil {
			writeCheckoutFailure(ctx, logg, w, err)
			return
		}

		resp := checkoutCalculateResponse{
			Success:           true,
			Subtotal:          quote.Subtotal.InexactFloat64(),
			Tax:               quote.Tax.InexactFloat64(),
			TaxRate:           quote.TaxRate.InexactFloat64(),
			TaxLabel:          quote.TaxLabel,
			Shipping:          quote.Shipping.InexactFloat64(),
			Discount:          quote.Discount.InexactFloat64(),
			Total:             quote.Total.InexactFloat64(),
			EstimatedDelivery: quote.EstimatedDelivery,
			Province:          string(quote.Province),
			Errors:            quote.Warnings,
		}
		if resp.Errors == nil {
			resp.Errors = []string{}
		}
		if quote.Coupon != nil {
			resp.Coupon = &checkoutCouponResponse{
				Code:  quote.Coupon.Code,
				Label: quote.Coupon.Label,
				Type:  string(quote.Coupon.Type),
			}
		}

		responses.WriteJSON(w, http.StatusOK, resp)
	}
}

// writeCheckoutFailure maps an error onto the storefront's flat failure
// shape. Validation problems surface their message; everything else stays
// generic.
func writeCheckoutFailure(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())
	msg := meta.PublicMessage
	if typed.Code() == pkgerrors.CodeValidation && typed.Message() != "" {
		msg = typed.Message()
	}

	if logg != nil {
		logg.Error(ctx, "checkout calculation failed", err)
	}

	responses.WriteJSON(w, meta.HTTPStatus, checkoutFailureResponse{
		Success: false,
		Errors:  []string{msg},
	})
}

type taxLister interface {
	ListRates(ctx context.Context) ([]taxes.Rate, error)
}

// The storefront expects rate as a fraction but percentage, gst, and pst in
// percent; percentage is a display string like "13%".
type taxRateResponse struct {
	Rate       float64 `json:"rate"`
	Percentage string  `json:"percentage"`
	Label      string  `json:"label"`
	GST        float64 `json:"gst"`
	PST        float64 `json:"pst"`
}

// CheckoutTaxes lists the active province tax rates for the storefront.
func CheckoutTaxes(resolver taxLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		rates, err := resolver.ListRates(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		hundred := decimal.NewFromInt(100)
		provinces := make(map[string]taxRateResponse, len(rates))
		for _, rate := range rates {
			provinces[string(rate.Province)] = taxRateResponse{
				Rate:       rate.Rate.InexactFloat64(),
				Percentage: rate.Rate.Mul(hundred).String() + "%",
				Label:      rate.Label,
				GST:        rate.GST.Mul(hundred).InexactFloat64(),
				PST:        rate.PST.Mul(hundred).InexactFloat64(),
			}
		}

		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"provinces": provinces,
		})
	}
}

type zoneLister interface {
	ListZones(ctx context.Context) ([]shipping.Zone, error)
}

type shippingZoneResponse struct {
	Method      string  `json:"method"`
	Label       string  `json:"label"`
	Carrier     string  `json:"carrier"`
	Days        string  `json:"days"`
	MinDays     int     `json:"min_days"`
	MaxDays     int     `json:"max_days"`
	BaseCost    float64 `json:"base_cost"`
	PerKgCost   float64 `json:"per_kg_cost"`
	Description string  `json:"description"`
}

// CheckoutShippingZones lists the active shipping methods, cheapest first.
func CheckoutShippingZones(calc zoneLister, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		zones, err := calc.ListZones(ctx)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		out := make([]shippingZoneResponse, 0, len(zones))
		for _, zone := range zones {
			out = append(out, shippingZoneResponse{
				Method:      string(zone.Method),
				Label:       zone.Label,
				Carrier:     string(zone.Carrier),
				Days:        zone.Days,
				MinDays:     zone.MinDays,
				MaxDays:     zone.MaxDays,
				BaseCost:    zone.BaseCost.InexactFloat64(),
				PerKgCost:   zone.PerKgCost.InexactFloat64(),
				Description: zone.Description,
			})
		}

		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"success":        true,
			"shipping_zones": out,
		})
	}
}

type provinceResponse struct {
	Code string `json:"code"`
	Name string `json:"name"`
}

// CheckoutProvinces serves the static province dropdown.
func CheckoutProvinces() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out := make([]provinceResponse, 0, len(enums.Provinces))
		for _, province := range enums.Provinces {
			out = append(out, provinceResponse{
				Code: string(province),
				Name: province.Name(),
			})
		}
		responses.WriteJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"provinces": out,
		})
	}
}
