package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/snackdash/snackdash-core/api/responses"
	"github.com/snackdash/snackdash-core/api/validators"
	"github.com/snackdash/snackdash-core/internal/gateway"
	"github.com/snackdash/snackdash-core/internal/remote"
	"github.com/snackdash/snackdash-core/pkg/enums"
	"github.com/snackdash/snackdash-core/pkg/logger"
	"github.com/snackdash/snackdash-core/pkg/types"
)

type createOrderRequest struct {
	CartKey            string              `json:"cart_key" validate:"required"`
	RestaurantRef      string              `json:"restaurant_ref" validate:"required"`
	Subtotal           decimal.Decimal     `json:"subtotal"`
	DeliveryFee        decimal.Decimal     `json:"delivery_fee"`
	Discount           decimal.Decimal     `json:"discount"`
	Total              decimal.Decimal     `json:"total"`
	PaymentMethod      enums.PaymentMethod `json:"payment_method" validate:"required"`
	DeliveryAddressRef string              `json:"delivery_address_ref" validate:"required"`
}

type orderLineRequest struct {
	ItemRef   string            `json:"item_ref" validate:"required"`
	UnitPrice decimal.Decimal   `json:"unit_price"`
	Quantity  int               `json:"quantity" validate:"gt=0"`
	Options   types.LineOptions `json:"options,omitempty"`
}

type createOrderLinesRequest struct {
	Lines []orderLineRequest `json:"lines" validate:"required,min=1,dive"`
}

// OrderCreate persists an order header.
func OrderCreate(svc remote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		var req createOrderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithCartKey(ctx, req.CartKey)

		order, err := svc.CreateOrder(ctx, gateway.OrderDTO{
			CartKey:            req.CartKey,
			RestaurantRef:      req.RestaurantRef,
			Subtotal:           req.Subtotal,
			DeliveryFee:        req.DeliveryFee,
			Discount:           req.Discount,
			Total:              req.Total,
			PaymentMethod:      req.PaymentMethod,
			DeliveryAddressRef: req.DeliveryAddressRef,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, remote.OrderToDTO(order))
	}
}

// OrderAddLines persists the immutable line snapshots of an order.
func OrderAddLines(svc remote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		orderID, err := validators.UUIDParam(r, "orderId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithOrderID(ctx, orderID.String())

		var req createOrderLinesRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		lines := make([]gateway.OrderLineDTO, len(req.Lines))
		for i, line := range req.Lines {
			lines[i] = gateway.OrderLineDTO{
				ItemRef:   line.ItemRef,
				UnitPrice: line.UnitPrice,
				Quantity:  line.Quantity,
				Options:   line.Options,
			}
		}

		if err := svc.AddOrderLines(ctx, orderID, lines); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]int{"lines": len(lines)})
	}
}
