package badge

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/snackdash/snackdash-core/internal/cart"
)

func TestBadgeTracksEveryMutation(t *testing.T) {
	t.Parallel()

	store := cart.NewStore("cart-1")
	projector := NewProjector(store)
	defer projector.Close()

	if projector.Value() != 0 {
		t.Fatalf("fresh cart should project 0, got %d", projector.Value())
	}

	if _, err := store.UpsertLine(cart.UpsertInput{ItemRef: "a", RestaurantRef: "r1", Delta: 2, PriceIfNew: decimal.NewFromInt(5)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if projector.Value() != 2 {
		t.Fatalf("expected badge 2, got %d", projector.Value())
	}

	if _, err := store.UpsertLine(cart.UpsertInput{ItemRef: "b", RestaurantRef: "r1", Delta: 3, PriceIfNew: decimal.NewFromInt(4)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if projector.Value() != 5 {
		t.Fatalf("expected badge 5, got %d", projector.Value())
	}

	// reconciliation path updates the badge too
	store.ReplaceAll([]cart.Line{{ID: uuid.New(), ItemRef: "c", RestaurantRef: "r1", UnitPrice: decimal.NewFromInt(2), Quantity: 7}})
	if projector.Value() != 7 {
		t.Fatalf("expected badge 7 after replaceAll, got %d", projector.Value())
	}

	store.ReplaceAll(nil)
	if projector.Value() != 0 {
		t.Fatalf("expected badge 0 after clear, got %d", projector.Value())
	}
}

func TestBadgeStopsAfterClose(t *testing.T) {
	t.Parallel()

	store := cart.NewStore("cart-1")
	projector := NewProjector(store)
	projector.Close()

	if _, err := store.UpsertLine(cart.UpsertInput{ItemRef: "a", RestaurantRef: "r1", Delta: 1, PriceIfNew: decimal.NewFromInt(1)}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if projector.Value() != 0 {
		t.Fatalf("closed projector should stop updating, got %d", projector.Value())
	}
}
