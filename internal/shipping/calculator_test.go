package shipping

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
	"github.com/packaxis/packaxis-backend/pkg/enums"
	"github.com/packaxis/packaxis-backend/pkg/logger"
)

type stubMethodStore struct {
	methods map[enums.ShippingService]models.ShippingMethod
	first   *models.ShippingMethod
	err     error
}

func (s *stubMethodStore) FindActiveByService(ctx context.Context, service enums.ShippingService) (*models.ShippingMethod, error) {
	if s.err != nil {
		return nil, s.err
	}
	method, ok := s.methods[service]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &method, nil
}

func (s *stubMethodStore) FirstActive(ctx context.Context) (*models.ShippingMethod, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.first == nil {
		return nil, gorm.ErrRecordNotFound
	}
	return s.first, nil
}

func (s *stubMethodStore) ListActive(ctx context.Context) ([]models.ShippingMethod, error) {
	if s.err != nil {
		return nil, s.err
	}
	methods := make([]models.ShippingMethod, 0, len(s.methods))
	for _, method := range s.methods {
		methods = append(methods, method)
	}
	return methods, nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
}

func standardMethod() models.ShippingMethod {
	return models.ShippingMethod{
		Carrier:         enums.CarrierCanadaPost,
		Service:         enums.ShippingServiceStandard,
		BaseRate:        decimal.RequireFromString("9.99"),
		PerKgRate:       decimal.RequireFromString("0.50"),
		MinDeliveryDays: 3,
		MaxDeliveryDays: 5,
		ProcessingDays:  3,
		IsActive:        true,
	}
}

func TestCost(t *testing.T) {
	store := &stubMethodStore{methods: map[enums.ShippingService]models.ShippingMethod{
		enums.ShippingServiceStandard: standardMethod(),
	}}
	calc, err := NewCalculator(store, testLogger(), nil)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	ctx := context.Background()

	got := calc.Cost(ctx, enums.ShippingServiceStandard, decimal.NewFromInt(2))
	if want := decimal.RequireFromString("10.99"); !got.Equal(want) {
		t.Fatalf("expected %s, got %s", want, got)
	}

	got = calc.Cost(ctx, enums.ShippingServiceStandard, decimal.Zero)
	if want := decimal.RequireFromString("9.99"); !got.Equal(want) {
		t.Fatalf("expected base rate %s for weightless cart, got %s", want, got)
	}
}

func TestCostFallback(t *testing.T) {
	calc, err := NewCalculator(&stubMethodStore{}, testLogger(), nil)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}

	got := calc.Cost(context.Background(), enums.ShippingServiceExpress, decimal.NewFromInt(3))
	if !got.Equal(FallbackCost) {
		t.Fatalf("expected fallback cost %s, got %s", FallbackCost, got)
	}
}

func TestResolveService(t *testing.T) {
	express := standardMethod()
	express.Service = enums.ShippingServiceExpress
	store := &stubMethodStore{
		methods: map[enums.ShippingService]models.ShippingMethod{
			enums.ShippingServiceExpress: express,
		},
		first: &express,
	}
	calc, err := NewCalculator(store, testLogger(), nil)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	ctx := context.Background()

	// Configured tier resolves to itself.
	got, err := calc.ResolveService(ctx, "express")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != enums.ShippingServiceExpress {
		t.Fatalf("expected express, got %s", got)
	}

	// Unconfigured tier substitutes the cheapest active method's tier.
	got, err = calc.ResolveService(ctx, "overnight")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != enums.ShippingServiceExpress {
		t.Fatalf("expected substitution to express, got %s", got)
	}

	// Garbage input normalizes to standard, then substitutes.
	got, err = calc.ResolveService(ctx, "teleport")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != enums.ShippingServiceExpress {
		t.Fatalf("expected substitution to express, got %s", got)
	}

	// No configured methods at all: stay on standard.
	empty, err := NewCalculator(&stubMethodStore{}, testLogger(), nil)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	got, err = empty.ResolveService(ctx, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != enums.ShippingServiceStandard {
		t.Fatalf("expected standard, got %s", got)
	}
}

func TestEstimateDelivery(t *testing.T) {
	// Monday, January 5 2026.
	monday := time.Date(2026, time.January, 5, 10, 0, 0, 0, time.UTC)

	store := &stubMethodStore{methods: map[enums.ShippingService]models.ShippingMethod{
		enums.ShippingServiceStandard: standardMethod(),
	}}
	calc, err := NewCalculator(store, testLogger(), nil)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}
	calc = calc.WithClock(func() time.Time { return monday })

	// 3 processing days counted from Tuesday: Wed, Thu, Fri.
	got := calc.EstimateDelivery(context.Background(), enums.ShippingServiceStandard)
	if want := "Fri, Jan 09, 2026"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	// Unknown tier uses the 5-day fallback and skips the weekend.
	got = calc.EstimateDelivery(context.Background(), enums.ShippingServiceOvernight)
	if want := "Tue, Jan 13, 2026"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestListZones(t *testing.T) {
	description := "Cheapest option"
	method := standardMethod()
	method.Description = &description
	store := &stubMethodStore{methods: map[enums.ShippingService]models.ShippingMethod{
		enums.ShippingServiceStandard: method,
	}}
	calc, err := NewCalculator(store, testLogger(), nil)
	if err != nil {
		t.Fatalf("new calculator: %v", err)
	}

	zones, err := calc.ListZones(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(zones) != 1 {
		t.Fatalf("expected 1 zone, got %d", len(zones))
	}
	zone := zones[0]
	if zone.Method != enums.ShippingServiceStandard {
		t.Fatalf("unexpected method %s", zone.Method)
	}
	if zone.Days != "3-5 business days" {
		t.Fatalf("unexpected delivery range %q", zone.Days)
	}
	if zone.Description != description {
		t.Fatalf("unexpected description %q", zone.Description)
	}
}
