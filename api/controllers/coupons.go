package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/packaxis/packaxis-backend/api/responses"
	"github.com/packaxis/packaxis-backend/api/validators"
	"github.com/packaxis/packaxis-backend/internal/promotions"
	"github.com/packaxis/packaxis-backend/pkg/logger"
)

type couponValidateRequest struct {
	Code     string  `json:"code"`
	Subtotal float64 `json:"subtotal" validate:"gte=0"`
}

type couponValidateResponse struct {
	Valid              bool     `json:"valid"`
	Code               string   `json:"code,omitempty"`
	DiscountType       string   `json:"discount_type,omitempty"`
	DiscountValue      *float64 `json:"discount_value,omitempty"`
	CalculatedDiscount *float64 `json:"calculated_discount,omitempty"`
	Label              string   `json:"label,omitempty"`
	AppliesToShipping  *bool    `json:"applies_to_shipping,omitempty"`
	Message            string   `json:"message"`
}

type couponChecker interface {
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (promotions.Result, error)
}

// CouponValidate checks a coupon code against the cart subtotal without
// redeeming it. The storefront calls this as the shopper types.
func CouponValidate(coupons couponChecker, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req couponValidateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := coupons.Validate(ctx, req.Code, decimal.NewFromFloat(req.Subtotal))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if result.Coupon == nil {
			message := result.Warning
			if message == "" {
				message = "No coupon code provided"
			}
			responses.WriteJSON(w, http.StatusOK, couponValidateResponse{
				Valid:   false,
				Message: message,
			})
			return
		}

		value := result.Coupon.Value.InexactFloat64()
		calculated := result.Discount.InexactFloat64()
		applies := result.Coupon.AppliesToShipping
		responses.WriteJSON(w, http.StatusOK, couponValidateResponse{
			Valid:              true,
			Code:               result.Coupon.Code,
			DiscountType:       string(result.Coupon.Type),
			DiscountValue:      &value,
			CalculatedDiscount: &calculated,
			Label:              result.Coupon.Label,
			AppliesToShipping:  &applies,
			Message:            fmt.Sprintf("Coupon applied! You save %s", result.Coupon.Label),
		})
	}
}
