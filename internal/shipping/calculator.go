package shipping

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/packaxis/packaxis-backend/pkg/db/models"
	"github.com/packaxis/packaxis-backend/pkg/enums"
	pkgerrors "github.com/packaxis/packaxis-backend/pkg/errors"
	"github.com/packaxis/packaxis-backend/pkg/logger"
	"github.com/packaxis/packaxis-backend/pkg/metrics"
)

// FallbackCost is charged when no configured method matches the requested
// service. FallbackProcessingDays drives the delivery estimate in the same
// situation.
var FallbackCost = decimal.RequireFromString("5.00")

const (
	FallbackProcessingDays = 5

	deliveryDateFormat = "Mon, Jan 02, 2006"
)

type methodStore interface {
	FindActiveByService(ctx context.Context, service enums.ShippingService) (*models.ShippingMethod, error)
	FirstActive(ctx context.Context) (*models.ShippingMethod, error)
	ListActive(ctx context.Context) ([]models.ShippingMethod, error)
}

// Calculator prices shipments and estimates delivery dates.
type Calculator struct {
	repo    methodStore
	logg    *logger.Logger
	metrics *metrics.CheckoutMetrics
	now     func() time.Time
}

// NewCalculator builds a shipping calculator.
func NewCalculator(repo methodStore, logg *logger.Logger, m *metrics.CheckoutMetrics) (*Calculator, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipping method repository required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Calculator{repo: repo, logg: logg, metrics: m, now: time.Now}, nil
}

// WithClock overrides the time source. Tests pin the clock to make delivery
// estimates deterministic.
func (c *Calculator) WithClock(now func() time.Time) *Calculator {
	clone := *c
	clone.now = now
	return &clone
}

// ResolveService normalizes the requested service tier, substituting the
// cheapest active method's service when the requested one has no methods.
func (c *Calculator) ResolveService(ctx context.Context, requested string) (enums.ShippingService, error) {
	service, err := enums.ParseShippingService(requested)
	if err != nil {
		service = enums.ShippingServiceStandard
	}

	if _, err := c.repo.FindActiveByService(ctx, service); err == nil {
		return service, nil
	} else if err != gorm.ErrRecordNotFound {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading shipping method")
	}

	first, err := c.repo.FirstActive(ctx)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return enums.ShippingServiceStandard, nil
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "loading shipping methods")
	}
	return first.Service, nil
}

// Cost prices the shipment: base rate plus per-kg rate times total weight,
// rounded to cents. Missing configuration falls back to a flat charge.
func (c *Calculator) Cost(ctx context.Context, service enums.ShippingService, weightKg decimal.Decimal) decimal.Decimal {
	method, err := c.repo.FindActiveByService(ctx, service)
	if err != nil {
		logCtx := c.logg.WithField(ctx, "service", string(service))
		if err == gorm.ErrRecordNotFound {
			c.logg.Warn(logCtx, "shipping method not found, using fallback cost")
		} else {
			c.logg.Error(logCtx, "shipping cost lookup failed", err)
		}
		c.metrics.IncFallback("shipping_rate")
		return FallbackCost
	}

	cost := method.BaseRate
	if weightKg.IsPositive() {
		cost = cost.Add(method.PerKgRate.Mul(weightKg))
	}
	return cost.Round(2)
}

// EstimateDelivery returns the formatted delivery date: starting tomorrow,
// counting the method's processing days in business days (weekends skipped).
func (c *Calculator) EstimateDelivery(ctx context.Context, service enums.ShippingService) string {
	days := FallbackProcessingDays
	if method, err := c.repo.FindActiveByService(ctx, service); err == nil {
		days = method.ProcessingDays
	}

	date := c.now().AddDate(0, 0, 1)
	added := 0
	for added < days {
		date = date.AddDate(0, 0, 1)
		if wd := date.Weekday(); wd != time.Saturday && wd != time.Sunday {
			added++
		}
	}
	return date.Format(deliveryDateFormat)
}

// Zone is the storefront view of one shipping method.
type Zone struct {
	Method      enums.ShippingService
	Label       string
	Carrier     enums.Carrier
	Days        string
	MinDays     int
	MaxDays     int
	BaseCost    decimal.Decimal
	PerKgCost   decimal.Decimal
	Description string
}

// ListZones returns all active methods ordered by base rate.
func (c *Calculator) ListZones(ctx context.Context) ([]Zone, error) {
	rows, err := c.repo.ListActive(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "listing shipping methods")
	}
	zones := make([]Zone, 0, len(rows))
	for _, row := range rows {
		description := ""
		if row.Description != nil {
			description = *row.Description
		}
		zones = append(zones, Zone{
			Method:      row.Service,
			Label:       row.Service.Label(),
			Carrier:     row.Carrier,
			Days:        row.DeliveryRange(),
			MinDays:     row.MinDeliveryDays,
			MaxDays:     row.MaxDeliveryDays,
			BaseCost:    row.BaseRate,
			PerKgCost:   row.PerKgRate,
			Description: description,
		})
	}
	return zones, nil
}
