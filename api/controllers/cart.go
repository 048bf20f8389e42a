package controllers

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/snackdash/snackdash-core/api/responses"
	"github.com/snackdash/snackdash-core/api/validators"
	"github.com/snackdash/snackdash-core/internal/gateway"
	"github.com/snackdash/snackdash-core/internal/remote"
	"github.com/snackdash/snackdash-core/pkg/logger"
	"github.com/snackdash/snackdash-core/pkg/types"
)

type upsertLineRequest struct {
	ItemRef       string            `json:"item_ref" validate:"required"`
	RestaurantRef string            `json:"restaurant_ref" validate:"required"`
	UnitPrice     decimal.Decimal   `json:"unit_price"`
	Quantity      int               `json:"quantity" validate:"gt=0"`
	Options       types.LineOptions `json:"options,omitempty"`
}

type quantityPatchRequest struct {
	Quantity int `json:"quantity" validate:"gt=0"`
}

// CartLines returns the full authoritative line list for a cart.
func CartLines(svc remote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		key, err := validators.CartKeyParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithCartKey(ctx, key)

		lines, err := svc.ListLines(ctx, key)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		dtos := make([]gateway.LineDTO, len(lines))
		for i, line := range lines {
			dtos[i] = remote.LineToDTO(line)
		}
		responses.WriteSuccess(w, dtos)
	}
}

// CartUpsertLine creates a line or converges a replayed create onto the
// existing one. PUT because the (item, options) identity makes it idempotent.
func CartUpsertLine(svc remote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		key, err := validators.CartKeyParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithCartKey(ctx, key)

		var req upsertLineRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		line, err := svc.UpsertLine(ctx, key, gateway.LineDTO{
			ItemRef:       req.ItemRef,
			RestaurantRef: req.RestaurantRef,
			UnitPrice:     req.UnitPrice,
			Quantity:      req.Quantity,
			Options:       req.Options,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, remote.LineToDTO(line))
	}
}

// CartSetQuantity sets the absolute quantity of a persisted line.
func CartSetQuantity(svc remote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		lineID, err := validators.UUIDParam(r, "lineId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req quantityPatchRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		line, err := svc.SetQuantity(ctx, lineID, req.Quantity)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, remote.LineToDTO(line))
	}
}

// CartDeleteLine removes a persisted line.
func CartDeleteLine(svc remote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		lineID, err := validators.UUIDParam(r, "lineId")
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.DeleteLine(ctx, lineID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// CartClear empties the cart. Clearing an already-empty cart succeeds.
func CartClear(svc remote.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		key, err := validators.CartKeyParam(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		ctx = logg.WithCartKey(ctx, key)

		if err := svc.ClearCart(ctx, key); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "cleared"})
	}
}
