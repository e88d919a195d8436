package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/packaxis/packaxis-backend/api/controllers"
	webhookcontrollers "github.com/packaxis/packaxis-backend/api/controllers/webhooks"
	"github.com/packaxis/packaxis-backend/api/middleware"
	"github.com/packaxis/packaxis-backend/internal/checkout"
	"github.com/packaxis/packaxis-backend/internal/orders"
	"github.com/packaxis/packaxis-backend/internal/promotions"
	"github.com/packaxis/packaxis-backend/internal/shipping"
	"github.com/packaxis/packaxis-backend/internal/taxes"
	stripewebhook "github.com/packaxis/packaxis-backend/internal/webhooks/stripe"
	"github.com/packaxis/packaxis-backend/pkg/config"
	"github.com/packaxis/packaxis-backend/pkg/logger"
	"github.com/packaxis/packaxis-backend/pkg/redis"
	"github.com/packaxis/packaxis-backend/pkg/stripe"
)

// RouterParams carries everything the HTTP surface needs.
type RouterParams struct {
	Config             *config.Config
	Logger             *logger.Logger
	Redis              *redis.Client
	DBPinger           controllers.Pinger
	Aggregator         *checkout.Aggregator
	TaxResolver        *taxes.Resolver
	ShippingCalculator *shipping.Calculator
	CouponValidator    *promotions.Validator
	OrderService       *orders.Service
	StripeClient       *stripe.Client
	StripeWebhook      *stripewebhook.Service
	StripeGuard        *stripewebhook.IdempotencyGuard
	MetricsHandler     http.Handler
}

func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(params.Logger),
		middleware.RequestID(params.Logger),
		middleware.Logging(params.Logger),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(params.Config))
		r.Get("/ready", controllers.HealthReady(params.Config, params.Logger, params.DBPinger, params.Redis))
	})

	if params.MetricsHandler != nil {
		r.Handle("/metrics", params.MetricsHandler)
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Idempotency(params.Redis, params.Logger))

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/calculate", controllers.CheckoutCalculate(params.Aggregator, params.Logger))
			r.Get("/taxes", controllers.CheckoutTaxes(params.TaxResolver, params.Logger))
			r.Get("/shipping-zones", controllers.CheckoutShippingZones(params.ShippingCalculator, params.Logger))
			r.Get("/provinces", controllers.CheckoutProvinces())
		})

		r.Post("/coupons/validate", controllers.CouponValidate(params.CouponValidator, params.Logger))

		r.Route("/orders", func(r chi.Router) {
			r.Post("/", controllers.OrderCreate(params.OrderService, params.Logger))
			r.Get("/{orderNumber}", controllers.OrderDetail(params.OrderService, params.Logger))
		})

		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/stripe", webhookcontrollers.StripeWebhook(params.StripeWebhook, params.StripeClient, params.StripeGuard, params.Logger))
		})
	})

	return r
}
