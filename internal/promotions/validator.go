package promotions

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
	"github.com/packaxis/packaxis-backend/pkg/enums"
	pkgerrors "github.com/packaxis/packaxis-backend/pkg/errors"
	"github.com/packaxis/packaxis-backend/pkg/logger"
	"github.com/packaxis/packaxis-backend/pkg/metrics"
)

var oneHundred = decimal.NewFromInt(100)

// Coupon is the applied-coupon summary returned with a successful validation.
type Coupon struct {
	Code              string
	Type              enums.DiscountType
	Value             decimal.Decimal
	Label             string
	AppliesToShipping bool
}

// Result carries the outcome of a coupon validation. A soft failure leaves
// Discount at zero and sets Warning; checkout still succeeds.
type Result struct {
	Discount decimal.Decimal
	Coupon   *Coupon
	Warning  string
}

type couponStore interface {
	FindActiveByCode(ctx context.Context, code string) (*models.Discount, error)
	RedeemTx(tx *gorm.DB, code string) (bool, error)
}

// Validator applies coupon rules against an order subtotal.
type Validator struct {
	repo    couponStore
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
	now     func() time.Time
}

// NewValidator builds a coupon validator.
func NewValidator(repo couponStore, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Validator, error) {
	if repo == nil {
		return nil, fmt.Errorf("coupon repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Validator{repo: repo, logg: logg, metrics: m, now: time.Now}, nil
}

// WithClock overrides the time source for window checks in tests.
func (v *Validator) WithClock(now func() time.Time) *Validator {
	clone := *v
	clone.now = now
	return &clone
}

// Validate checks the coupon against the subtotal and computes the discount.
// A blank code is not an error: it returns a zero result. All rule failures
// are soft warnings; only infrastructure errors are returned as errors.
func (v *Validator) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (Result, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return Result{Discount: decimal.Zero}, nil
	}

	coupon, err := v.repo.FindActiveByCode(ctx, code)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			v.metrics.IncCouponValidation("invalid")
			return Result{Discount: decimal.Zero, Warning: fmt.Sprintf("Invalid coupon code: %s", code)}, nil
		}
		return Result{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading coupon")
	}

	now := v.now()
	if coupon.StartsAt != nil && now.Before(*coupon.StartsAt) {
		v.metrics.IncCouponValidation("not_yet_valid")
		return Result{Discount: decimal.Zero, Warning: "This coupon is not yet valid"}, nil
	}
	if coupon.EndsAt != nil && now.After(*coupon.EndsAt) {
		v.metrics.IncCouponValidation("expired")
		return Result{Discount: decimal.Zero, Warning: "This coupon has expired"}, nil
	}

	if !coupon.HasUsageRemaining() {
		v.metrics.IncCouponValidation("usage_limit")
		return Result{Discount: decimal.Zero, Warning: "This coupon has reached its usage limit"}, nil
	}

	if subtotal.LessThan(coupon.MinOrderValue) {
		v.metrics.IncCouponValidation("min_order")
		return Result{
			Discount: decimal.Zero,
			Warning:  fmt.Sprintf("Minimum order value of $%s required", coupon.MinOrderValue.StringFixed(2)),
		}, nil
	}

	if coupon.DiscountType != enums.DiscountTypePercentage && coupon.DiscountType != enums.DiscountTypeFixed {
		v.logg.Warn(v.logg.WithCouponCode(ctx, code), "coupon has no usable discount type")
		v.metrics.IncCouponValidation("misconfigured")
		return Result{Discount: decimal.Zero, Warning: "Invalid coupon configuration"}, nil
	}

	discount := discountAmount(coupon, subtotal)
	v.metrics.IncCouponValidation("applied")

	return Result{
		Discount: discount,
		Coupon: &Coupon{
			Code:              coupon.Code,
			Type:              coupon.DiscountType,
			Value:             coupon.Value,
			Label:             couponLabel(coupon),
			AppliesToShipping: coupon.AppliesToShipping,
		},
	}, nil
}

// Redeem burns one use of the coupon inside the caller's transaction.
// Returns a conflict error when the usage limit was exhausted between quote
// and order.
func (v *Validator) Redeem(ctx context.Context, tx *gorm.DB, code string) error {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return nil
	}
	ok, err := v.repo.RedeemTx(tx, code)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redeeming coupon")
	}
	if !ok {
		return pkgerrors.New(pkgerrors.CodeConflict, "This coupon has reached its usage limit")
	}
	return nil
}

// discountAmount computes the raw discount: percentage of subtotal, or a
// fixed amount clamped to the subtotal so the discount never exceeds it.
func discountAmount(coupon *models.Discount, subtotal decimal.Decimal) decimal.Decimal {
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		return subtotal.Mul(coupon.Value).Div(oneHundred).Round(2)
	case enums.DiscountTypeFixed:
		if coupon.Value.GreaterThan(subtotal) {
			return subtotal.Round(2)
		}
		return coupon.Value.Round(2)
	default:
		return decimal.Zero
	}
}

func couponLabel(coupon *models.Discount) string {
	switch coupon.DiscountType {
	case enums.DiscountTypePercentage:
		return fmt.Sprintf("%s%% off", coupon.Value.String())
	case enums.DiscountTypeFixed:
		return fmt.Sprintf("$%s off", coupon.Value.StringFixed(2))
	default:
		return coupon.Code
	}
}
