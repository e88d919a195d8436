package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/packaxis/packaxis-backend/internal/promotions"
	"github.com/packaxis/packaxis-backend/pkg/enums"
)

type stubCouponChecker struct {
	result promotions.Result
}

func (s stubCouponChecker) Validate(ctx context.Context, code string, subtotal decimal.Decimal) (promotions.Result, error) {
	return s.result, nil
}

func couponRequest(body string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/coupons/validate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestCouponValidateApplied(t *testing.T) {
	checker := stubCouponChecker{result: promotions.Result{
		Discount: decimal.RequireFromString("20.00"),
		Coupon: &promotions.Coupon{
			Code:  "SAVE20",
			Type:  enums.DiscountTypePercentage,
			Value: decimal.NewFromInt(20),
			Label: "20% off",
		},
	}}

	rec := httptest.NewRecorder()
	CouponValidate(checker, testLogger())(rec, couponRequest(`{"code":"SAVE20","subtotal":100}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Valid              bool    `json:"valid"`
		Code               string  `json:"code"`
		DiscountType       string  `json:"discount_type"`
		DiscountValue      float64 `json:"discount_value"`
		CalculatedDiscount float64 `json:"calculated_discount"`
		Label              string  `json:"label"`
		Message            string  `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Valid {
		t.Fatal("expected valid coupon")
	}
	if resp.Code != "SAVE20" || resp.DiscountValue != 20 || resp.CalculatedDiscount != 20 {
		t.Fatalf("unexpected coupon fields: %+v", resp)
	}
	if resp.Message != "Coupon applied! You save 20% off" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestCouponValidateRejected(t *testing.T) {
	checker := stubCouponChecker{result: promotions.Result{
		Discount: decimal.Zero,
		Warning:  "This coupon has expired",
	}}

	rec := httptest.NewRecorder()
	CouponValidate(checker, testLogger())(rec, couponRequest(`{"code":"OLD","subtotal":100}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Valid {
		t.Fatal("expected invalid coupon")
	}
	if resp.Message != "This coupon has expired" {
		t.Fatalf("unexpected message %q", resp.Message)
	}
}

func TestCouponValidateBlankCode(t *testing.T) {
	checker := stubCouponChecker{result: promotions.Result{Discount: decimal.Zero}}

	rec := httptest.NewRecorder()
	CouponValidate(checker, testLogger())(rec, couponRequest(`{"code":"","subtotal":100}`))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Valid || resp.Message != "No coupon code provided" {
		t.Fatalf("unexpected response %+v", resp)
	}
}
