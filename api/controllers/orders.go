package controllers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/packaxis/packaxis-backend/api/responses"
	"github.com/packaxis/packaxis-backend/api/validators"
	"github.com/packaxis/packaxis-backend/internal/orders"
	"github.com/packaxis/packaxis-backend/pkg/db/models"
	"github.com/packaxis/packaxis-backend/pkg/enums"
	pkgerrors "github.com/packaxis/packaxis-backend/pkg/errors"
	"github.com/packaxis/packaxis-backend/pkg/logger"
)

type orderItemRequest struct {
	ID       string  `json:"id"`
	SKU      string  `json:"sku"`
	Name     string  `json:"name" validate:"required"`
	Price    float64 `json:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" validate:"gt=0"`
	Weight   float64 `json:"weight"`
}

type orderAddressRequest struct {
	FirstName  string `json:"first_name" validate:"required"`
	LastName   string `json:"last_name" validate:"required"`
	Line1      string `json:"address_line1" validate:"required"`
	Line2      string `json:"address_line2"`
	City       string `json:"city" validate:"required"`
	Province   string `json:"province" validate:"required"`
	PostalCode string `json:"postal_code" validate:"required"`
	Phone      string `json:"phone"`
}

type orderTotalsRequest struct {
	Subtotal float64 `json:"subtotal" validate:"gte=0"`
	Discount float64 `json:"discount" validate:"gte=0"`
	Tax      float64 `json:"tax" validate:"gte=0"`
	TaxRate  float64 `json:"tax_rate" validate:"gte=0"`
	TaxLabel string  `json:"tax_label"`
	Shipping float64 `json:"shipping" validate:"gte=0"`
	Total    float64 `json:"total" validate:"gte=0"`
}

type orderCreateRequest struct {
	Email             string              `json:"email" validate:"required,email"`
	CouponCode        string              `json:"coupon_code"`
	EstimatedDelivery string              `json:"estimated_delivery"`
	Items             []orderItemRequest  `json:"items" validate:"required,min=1,dive"`
	ShippingAddress   orderAddressRequest `json:"shipping_address" validate:"required"`
	Totals            orderTotalsRequest  `json:"totals" validate:"required"`
}

type orderCreateResponse struct {
	Success     bool   `json:"success"`
	OrderNumber string `json:"order_number"`
	RedirectURL string `json:"redirect_url"`
}

type orderCreator interface {
	Create(ctx context.Context, input orders.CreateInput) (*models.Order, error)
	GetByOrderNumber(ctx context.Context, orderNumber string) (*models.Order, error)
}

// OrderCreate persists a completed checkout and returns the order number.
func OrderCreate(svc orderCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req orderCreateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		province, err := enums.ParseProvince(req.ShippingAddress.Province)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Unknown province code"))
			return
		}

		input := orders.CreateInput{
			GuestEmail:        req.Email,
			CouponCode:        req.CouponCode,
			EstimatedDelivery: req.EstimatedDelivery,
			Address: orders.AddressInput{
				FirstName:  req.ShippingAddress.FirstName,
				LastName:   req.ShippingAddress.LastName,
				Line1:      req.ShippingAddress.Line1,
				Line2:      req.ShippingAddress.Line2,
				City:       req.ShippingAddress.City,
				Province:   province,
				PostalCode: req.ShippingAddress.PostalCode,
				Phone:      req.ShippingAddress.Phone,
			},
			Totals: orders.TotalsInput{
				Subtotal: decimal.NewFromFloat(req.Totals.Subtotal),
				Discount: decimal.NewFromFloat(req.Totals.Discount),
				Tax:      decimal.NewFromFloat(req.Totals.Tax),
				TaxRate:  decimal.NewFromFloat(req.Totals.TaxRate),
				TaxLabel: req.Totals.TaxLabel,
				Shipping: decimal.NewFromFloat(req.Totals.Shipping),
				Total:    decimal.NewFromFloat(req.Totals.Total),
			},
			Items: make([]orders.LineInput, 0, len(req.Items)),
		}
		for _, item := range req.Items {
			var productID *uuid.UUID
			if parsed, parseErr := uuid.Parse(item.ID); parseErr == nil {
				productID = &parsed
			}
			input.Items = append(input.Items, orders.LineInput{
				ProductID: productID,
				SKU:       item.SKU,
				Name:      item.Name,
				Qty:       item.Quantity,
				UnitPrice: decimal.NewFromFloat(item.Price),
				WeightKg:  decimal.NewFromFloat(item.Weight),
			})
		}

		order, err := svc.Create(ctx, input)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteJSON(w, http.StatusCreated, orderCreateResponse{
			Success:     true,
			OrderNumber: order.OrderNumber,
			RedirectURL: fmt.Sprintf("/orders/%s/", order.OrderNumber),
		})
	}
}

type orderLineResponse struct {
	SKU       string  `json:"sku"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	LineTotal float64 `json:"line_total"`
}

type orderAddressResponse struct {
	Kind       string `json:"kind"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Line1      string `json:"address_line1"`
	Line2      string `json:"address_line2,omitempty"`
	City       string `json:"city"`
	Province   string `json:"province"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
}

type orderDetailResponse struct {
	OrderNumber       string                 `json:"order_number"`
	Status            string                 `json:"status"`
	CustomerEmail     string                 `json:"customer_email"`
	Province          string                 `json:"province"`
	Subtotal          float64                `json:"subtotal"`
	Discount          float64                `json:"discount"`
	Tax               float64                `json:"tax"`
	TaxLabel          string                 `json:"tax_label"`
	Shipping          float64                `json:"shipping"`
	Total             float64                `json:"total"`
	CouponCode        string                 `json:"coupon_code,omitempty"`
	EstimatedDelivery string                 `json:"estimated_delivery,omitempty"`
	Lines             []orderLineResponse    `json:"lines"`
	Addresses         []orderAddressResponse `json:"addresses"`
}

// OrderDetail returns the immutable order snapshot.
func OrderDetail(svc orderCreator, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderNumber := chi.URLParam(r, "orderNumber")
		if orderNumber == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Order number is required"))
			return
		}

		order, err := svc.GetByOrderNumber(ctx, orderNumber)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		responses.WriteSuccess(w, orderDetailView(order))
	}
}

func orderDetailView(order *models.Order) orderDetailResponse {
	resp := orderDetailResponse{
		OrderNumber:   order.OrderNumber,
		Status:        string(order.Status),
		CustomerEmail: order.CustomerEmail,
		Province:      string(order.Province),
		Subtotal:      order.Subtotal.InexactFloat64(),
		Discount:      order.Discount.InexactFloat64(),
		Tax:           order.Tax.InexactFloat64(),
		TaxLabel:      order.TaxLabel,
		Shipping:      order.Shipping.InexactFloat64(),
		Total:         order.Total.InexactFloat64(),
		Lines:         make([]orderLineResponse, 0, len(order.Lines)),
		Addresses:     make([]orderAddressResponse, 0, len(order.Addresses)),
	}
	if order.CouponCode != nil {
		resp.CouponCode = *order.CouponCode
	}
	if order.EstimatedDelivery != nil {
		resp.EstimatedDelivery = *order.EstimatedDelivery
	}
	for _, line := range order.Lines {
		resp.Lines = append(resp.Lines, orderLineResponse{
			SKU:       line.SKU,
			Name:      line.Name,
			Quantity:  line.Qty,
			UnitPrice: line.UnitPrice.InexactFloat64(),
			LineTotal: line.LineTotal.InexactFloat64(),
		})
	}
	for _, addr := range order.Addresses {
		view := orderAddressResponse{
			Kind:       string(addr.Kind),
			FirstName:  addr.FirstName,
			LastName:   addr.LastName,
			Line1:      addr.Line1,
			City:       addr.City,
			Province:   string(addr.Province),
			PostalCode: addr.PostalCode,
			Country:    addr.Country,
		}
		if addr.Line2 != nil {
			view.Line2 = *addr.Line2
		}
		resp.Addresses = append(resp.Addresses, view)
	}
	return resp
}
