package cart

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/snackdash/snackdash-core/pkg/types"
)

func TestLineTotal(t *testing.T) {
	t.Parallel()

	line := Line{UnitPrice: decimal.RequireFromString("3.25"), Quantity: 3}
	if got := line.Total(); !got.Equal(decimal.RequireFromString("9.75")) {
		t.Fatalf("expected 9.75, got %s", got)
	}
}

func TestSubtotalAndTotalQuantity(t *testing.T) {
	t.Parallel()

	lines := []Line{
		{UnitPrice: decimal.NewFromInt(10), Quantity: 2},
		{UnitPrice: decimal.RequireFromString("5.50"), Quantity: 1},
	}

	if got := Subtotal(lines); !got.Equal(decimal.RequireFromString("25.50")) {
		t.Fatalf("expected subtotal 25.50, got %s", got)
	}
	if got := TotalQuantity(lines); got != 3 {
		t.Fatalf("expected total quantity 3, got %d", got)
	}
	if got := Subtotal(nil); !got.Equal(decimal.Zero) {
		t.Fatalf("empty subtotal should be zero, got %s", got)
	}
}

func TestIdentityKeySeparatesOptions(t *testing.T) {
	t.Parallel()

	plain := Line{ItemRef: "margherita", Options: nil}
	spicy := Line{ItemRef: "margherita", Options: types.LineOptions{"spice": "hot"}}

	if plain.IdentityKey() == spicy.IdentityKey() {
		t.Fatal("same item with different options must be a distinct line")
	}

	reordered := Line{ItemRef: "margherita", Options: types.LineOptions{"spice": "hot"}}
	if spicy.IdentityKey() != reordered.IdentityKey() {
		t.Fatal("equal options must produce equal identity")
	}
}

func TestLineCloneIsolatesOptions(t *testing.T) {
	t.Parallel()

	orig := Line{ItemRef: "ramen", Options: types.LineOptions{"note": "extra egg"}}
	dup := orig.Clone()
	dup.Options["note"] = "no egg"

	if orig.Options["note"] != "extra egg" {
		t.Fatalf("clone leaked writes into original: %v", orig.Options)
	}
}
