package gateway

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/snackdash/snackdash-core/internal/cart"
	"github.com/snackdash/snackdash-core/pkg/enums"
	"github.com/snackdash/snackdash-core/pkg/types"
)

// CartGateway is the network boundary to the authoritative cart store. It is
// pure request/response: no retries, no queueing, no caching. That discipline
// belongs to the sync engine.
//
// Implementations map failures to the typed taxonomy: transport or server
// failures become REMOTE_UNAVAILABLE, a line that is already gone becomes
// NOT_FOUND.
type CartGateway interface {
	// FetchAll returns the full authoritative line list for a cart key.
	FetchAll(ctx context.Context, key string) ([]cart.Line, error)
	// CreateLine persists a line that so far exists only optimistically and
	// returns it with its server-assigned id. Keyed by (item, options)
	// identity, so replays are safe.
	CreateLine(ctx context.Context, key string, line cart.Line) (cart.Line, error)
	// UpsertQuantity sets the absolute quantity of a persisted line. The
	// store rejects quantities <= 0; callers must delete instead.
	UpsertQuantity(ctx context.Context, lineID uuid.UUID, quantity int) error
	// DeleteLine removes a persisted line.
	DeleteLine(ctx context.Context, lineID uuid.UUID) error
	// DeleteAll empties the cart.
	DeleteAll(ctx context.Context, key string) error
}

// OrderDraft is the order header persisted by the placement saga.
type OrderDraft struct {
	CartKey            string
	RestaurantRef      string
	Subtotal           decimal.Decimal
	DeliveryFee        decimal.Decimal
	Discount           decimal.Decimal
	Total              decimal.Decimal
	PaymentMethod      enums.PaymentMethod
	DeliveryAddressRef string
}

// OrderLineDraft is the immutable snapshot of one cart line at order time.
type OrderLineDraft struct {
	ItemRef   string
	UnitPrice decimal.Decimal
	Quantity  int
	Options   types.LineOptions
}

// OrderGateway persists orders. Two operations only; status transitions after
// creation belong to fulfillment, not to this core.
type OrderGateway interface {
	CreateOrder(ctx context.Context, draft OrderDraft) (uuid.UUID, error)
	CreateOrderLines(ctx context.Context, orderID uuid.UUID, lines []OrderLineDraft) error
}
