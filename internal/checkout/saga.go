package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/snackdash/snackdash-core/internal/cart"
	"github.com/snackdash/snackdash-core/internal/gateway"
	"github.com/snackdash/snackdash-core/pkg/enums"
	pkgerrors "github.com/snackdash/snackdash-core/pkg/errors"
	"github.com/snackdash/snackdash-core/pkg/logger"
	"github.com/snackdash/snackdash-core/pkg/metrics"
)

// Step names the phase of order placement a failure happened in. It travels
// in error details so callers can distinguish "nothing happened" from "an
// order header exists but has no lines".
type Step string

const (
	StepResolvingRestaurant Step = "resolving_restaurant"
	StepCreatingOrder       Step = "creating_order"
	StepCreatingOrderLines  Step = "creating_order_lines"
	StepClearingRemoteCart  Step = "clearing_remote_cart"
	StepClearingLocalCart   Step = "clearing_local_cart"
)

// PlaceOrderInput carries everything placement needs beyond the cart itself.
// Discount is a signed adjustment: a 3.20 promotion arrives as -3.20.
type PlaceOrderInput struct {
	DeliveryFee        decimal.Decimal
	Discount           decimal.Decimal
	PaymentMethod      enums.PaymentMethod
	DeliveryAddressRef string
}

// PlaceOrderResult reports a completed placement. Warnings hold non-fatal
// cleanup failures, currently only a remote cart clear that did not go
// through.
type PlaceOrderResult struct {
	OrderID  uuid.UUID
	Total    decimal.Decimal
	Warnings error
}

// Saga drives order placement as a fixed sequence of steps against the order
// store and the cart store. At most one placement runs per cart at a time.
type Saga interface {
	PlaceOrder(ctx context.Context, store *cart.Store, in PlaceOrderInput) (PlaceOrderResult, error)
}

type SagaParams struct {
	Orders  gateway.OrderGateway
	Carts   gateway.CartGateway
	Logger  *logger.Logger
	Metrics *metrics.SagaMetrics
}

type saga struct {
	orders  gateway.OrderGateway
	carts   gateway.CartGateway
	logg    *logger.Logger
	metrics *metrics.SagaMetrics

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewSaga(params SagaParams) (Saga, error) {
	if params.Orders == nil {
		return nil, fmt.Errorf("order gateway required")
	}
	if params.Carts == nil {
		return nil, fmt.Errorf("cart gateway required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &saga{
		orders:   params.Orders,
		carts:    params.Carts,
		logg:     params.Logger,
		metrics:  params.Metrics,
		inflight: make(map[string]struct{}),
	}, nil
}

// PlaceOrder runs the placement sequence:
//
//  1. resolve the restaurant from the cart and revalidate single-restaurant
//  2. create the order header with the computed totals
//  3. snapshot every cart line into immutable order lines
//  4. clear the remote cart (failure here is a warning, not an error)
//  5. clear the local cart
//
// A failure before step 3 completes leaves the cart fully intact so the user
// can retry. A failure during step 3 surfaces as PARTIAL_ORDER_FAILURE with
// the orphaned order id in the details, again leaving the cart intact. Once
// the lines are persisted the order stands; cleanup problems no longer fail
// the placement.
func (s *saga) PlaceOrder(ctx context.Context, store *cart.Store, in PlaceOrderInput) (PlaceOrderResult, error) {
	key := store.Key()
	if !s.acquire(key) {
		return PlaceOrderResult{}, pkgerrors.New(pkgerrors.CodeSagaRunning, "an order is already being placed for this cart").
			WithDetails(map[string]any{"cart_key": key})
	}
	defer s.release(key)

	ctx = s.logg.WithCartKey(ctx, key)
	snap := store.Snapshot()

	if len(snap.Lines) == 0 {
		return PlaceOrderResult{}, pkgerrors.New(pkgerrors.CodeEmptyCart, "cannot place an order from an empty cart")
	}

	started := time.Now()
	defer func() { s.metrics.ObserveDuration(time.Since(started)) }()

	restaurant, err := s.resolveRestaurant(snap)
	if err != nil {
		s.fail(ctx, StepResolvingRestaurant, err)
		return PlaceOrderResult{}, err
	}

	total := snap.Subtotal.Add(in.DeliveryFee).Add(in.Discount)
	draft := gateway.OrderDraft{
		CartKey:            key,
		RestaurantRef:      restaurant,
		Subtotal:           snap.Subtotal,
		DeliveryFee:        in.DeliveryFee,
		Discount:           in.Discount,
		Total:              total,
		PaymentMethod:      in.PaymentMethod,
		DeliveryAddressRef: in.DeliveryAddressRef,
	}

	orderID, err := s.orders.CreateOrder(ctx, draft)
	if err != nil {
		s.fail(ctx, StepCreatingOrder, err)
		return PlaceOrderResult{}, pkgerrors.Wrap(pkgerrors.CodeRemoteUnavailable, err, "create order").
			WithDetails(map[string]any{"step": string(StepCreatingOrder)})
	}
	ctx = s.logg.WithOrderID(ctx, orderID.String())

	if err := s.orders.CreateOrderLines(ctx, orderID, draftLines(snap.Lines)); err != nil {
		s.fail(ctx, StepCreatingOrderLines, err)
		return PlaceOrderResult{}, pkgerrors.Wrap(pkgerrors.CodePartialOrder, err, "order was created but its lines were not").
			WithDetails(map[string]any{
				"order_id": orderID.String(),
				"step":     string(StepCreatingOrderLines),
			})
	}

	// the order is durable from here on; the remaining steps are cleanup
	var warnings error
	if err := s.carts.DeleteAll(ctx, key); err != nil {
		s.logg.Warn(s.logg.WithSagaStep(ctx, string(StepClearingRemoteCart)), "remote cart clear failed after placement")
		warnings = multierr.Append(warnings, fmt.Errorf("clear remote cart: %w", err))
	}
	store.ReplaceAll(nil)

	s.metrics.IncSuccess()
	s.logg.Info(ctx, "order placed")

	return PlaceOrderResult{OrderID: orderID, Total: total, Warnings: warnings}, nil
}

// resolveRestaurant revalidates that every line belongs to one restaurant.
// The cart store enforces this on every add, so a violation here means the
// local state itself is corrupt.
func (s *saga) resolveRestaurant(snap cart.Snapshot) (string, error) {
	restaurant := snap.Lines[0].RestaurantRef
	if restaurant == "" {
		return "", pkgerrors.New(pkgerrors.CodeDataIntegrity, "cart line is missing its restaurant")
	}
	for _, line := range snap.Lines[1:] {
		if line.RestaurantRef != restaurant {
			return "", pkgerrors.New(pkgerrors.CodeDataIntegrity, "cart holds lines from multiple restaurants").
				WithDetails(map[string]any{
					"restaurant":             restaurant,
					"conflicting_restaurant": line.RestaurantRef,
				})
		}
	}
	return restaurant, nil
}

func (s *saga) fail(ctx context.Context, step Step, err error) {
	s.metrics.IncFailure(string(step))
	s.logg.Error(s.logg.WithSagaStep(ctx, string(step)), "order placement failed", err)
}

func (s *saga) acquire(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.inflight[key]; running {
		return false
	}
	s.inflight[key] = struct{}{}
	return true
}

func (s *saga) release(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, key)
}

func draftLines(lines []cart.Line) []gateway.OrderLineDraft {
	out := make([]gateway.OrderLineDraft, 0, len(lines))
	for _, line := range lines {
		out = append(out, gateway.OrderLineDraft{
			ItemRef:   line.ItemRef,
			UnitPrice: line.UnitPrice,
			Quantity:  line.Quantity,
			Options:   line.Options.Clone(),
		})
	}
	return out
}
