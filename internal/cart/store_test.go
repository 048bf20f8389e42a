package cart

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	pkgerrors "github.com/snackdash/snackdash-core/pkg/errors"
	"github.com/snackdash/snackdash-core/pkg/types"
)

func addInput(item, restaurant string, delta int, price string) UpsertInput {
	return UpsertInput{
		ItemRef:       item,
		RestaurantRef: restaurant,
		Delta:         delta,
		PriceIfNew:    decimal.RequireFromString(price),
	}
}

func TestUpsertLineCreatesAndMerges(t *testing.T) {
	t.Parallel()

	store := NewStore("cart-1")

	qty, err := store.UpsertLine(addInput("pad-thai", "rest-1", 2, "11.50"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qty != 2 {
		t.Fatalf("expected quantity 2, got %d", qty)
	}

	qty, err = store.UpsertLine(addInput("pad-thai", "rest-1", 3, "99.99"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qty != 5 {
		t.Fatalf("expected merged quantity 5, got %d", qty)
	}

	snap := store.Snapshot()
	if len(snap.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(snap.Lines))
	}
	// price is fixed at first add, not re-priced by later increments
	if !snap.Lines[0].UnitPrice.Equal(decimal.RequireFromString("11.50")) {
		t.Fatalf("unit price changed on merge: %s", snap.Lines[0].UnitPrice)
	}
	if snap.TotalQuantity != 5 {
		t.Fatalf("expected badge quantity 5, got %d", snap.TotalQuantity)
	}
}

func TestUpsertLineOptionsMakeDistinctLines(t *testing.T) {
	t.Parallel()

	store := NewStore("cart-1")

	mild := addInput("curry", "rest-1", 1, "9.00")
	mild.Options = types.LineOptions{"spice": "mild"}
	hot := addInput("curry", "rest-1", 1, "9.00")
	hot.Options = types.LineOptions{"spice": "hot"}

	if _, err := store.UpsertLine(mild); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := store.UpsertLine(hot); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := store.Snapshot()
	if len(snap.Lines) != 2 {
		t.Fatalf("expected two distinct lines, got %d", len(snap.Lines))
	}
}

func TestUpsertLineNeverStoresZeroQuantity(t *testing.T) {
	t.Parallel()

	store := NewStore("cart-1")
	if _, err := store.UpsertLine(addInput("soup", "rest-1", 2, "4.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	qty, err := store.UpsertLine(addInput("soup", "rest-1", -5, "4.00"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if qty != 0 {
		t.Fatalf("expected removal to report 0, got %d", qty)
	}
	if snap := store.Snapshot(); len(snap.Lines) != 0 {
		t.Fatalf("line should be deleted, got %+v", snap.Lines)
	}

	// negative delta on an absent line is a no-op, not a stored zero
	if qty, err := store.UpsertLine(addInput("soup", "rest-1", -1, "4.00")); err != nil || qty != 0 {
		t.Fatalf("expected silent no-op, got qty=%d err=%v", qty, err)
	}
}

func TestUpsertLineRejectsCrossRestaurant(t *testing.T) {
	t.Parallel()

	store := NewStore("cart-1")
	if _, err := store.UpsertLine(addInput("pizza", "rest-1", 1, "12.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := store.Snapshot()

	_, err := store.UpsertLine(addInput("sushi", "rest-2", 1, "15.00"))
	if !pkgerrors.HasCode(err, pkgerrors.CodeCrossRestaurant) {
		t.Fatalf("expected cross-restaurant conflict, got %v", err)
	}

	after := store.Snapshot()
	if len(after.Lines) != len(before.Lines) || after.TotalQuantity != before.TotalQuantity {
		t.Fatalf("rejected add must leave the cart unchanged: before=%+v after=%+v", before, after)
	}
	if !after.Subtotal.Equal(before.Subtotal) {
		t.Fatalf("subtotal changed on rejected add")
	}
}

func TestRemoveLineByID(t *testing.T) {
	t.Parallel()

	store := NewStore("cart-1")
	id := uuid.New()
	store.ReplaceAll([]Line{
		{ID: id, ItemRef: "a", RestaurantRef: "rest-1", UnitPrice: decimal.NewFromInt(3), Quantity: 1},
		{ID: uuid.New(), ItemRef: "b", RestaurantRef: "rest-1", UnitPrice: decimal.NewFromInt(4), Quantity: 2},
	})

	store.RemoveLine(id)
	if snap := store.Snapshot(); len(snap.Lines) != 1 || snap.Lines[0].ItemRef != "b" {
		t.Fatalf("expected only line b to remain, got %+v", snap.Lines)
	}

	// unknown id is a no-op
	store.RemoveLine(uuid.New())
	if snap := store.Snapshot(); len(snap.Lines) != 1 {
		t.Fatalf("no-op removal mutated the store")
	}
}

func TestReplaceAllIsIdempotent(t *testing.T) {
	t.Parallel()

	store := NewStore("cart-1")
	lines := []Line{
		{ID: uuid.New(), ItemRef: "a", RestaurantRef: "rest-1", UnitPrice: decimal.NewFromInt(10), Quantity: 2},
	}

	store.ReplaceAll(lines)
	first := store.Snapshot()
	store.ReplaceAll(lines)
	second := store.Snapshot()

	if len(first.Lines) != len(second.Lines) || first.TotalQuantity != second.TotalQuantity || !first.Subtotal.Equal(second.Subtotal) {
		t.Fatalf("replaceAll is not idempotent: %+v vs %+v", first, second)
	}
}

func TestSubscribersSeeEveryMutation(t *testing.T) {
	t.Parallel()

	store := NewStore("cart-1")
	var seen []int
	unsubscribe := store.Subscribe(func(snap Snapshot) {
		seen = append(seen, snap.TotalQuantity)
	})

	if _, err := store.UpsertLine(addInput("a", "rest-1", 2, "1.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	store.ReplaceAll(nil)

	// priming snapshot, the upsert, the replace
	want := []int{0, 2, 0}
	if len(seen) != len(want) {
		t.Fatalf("expected %d notifications, got %v", len(want), seen)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("notification %d: expected %d, got %v", i, want[i], seen)
		}
	}

	unsubscribe()
	if _, err := store.UpsertLine(addInput("a", "rest-1", 1, "1.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(seen) != len(want) {
		t.Fatalf("unsubscribed subscriber still notified: %v", seen)
	}
}

func TestSnapshotIsACopy(t *testing.T) {
	t.Parallel()

	store := NewStore("cart-1")
	if _, err := store.UpsertLine(addInput("a", "rest-1", 1, "2.00")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	snap := store.Snapshot()
	snap.Lines[0].Quantity = 99

	if store.Snapshot().Lines[0].Quantity != 1 {
		t.Fatal("mutating a snapshot leaked into the store")
	}
}
