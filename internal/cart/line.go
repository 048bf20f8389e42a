package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/snackdash/snackdash-core/pkg/types"
)

// Line is one orderable entry in a cart. Identity is the (ItemRef, Options)
// pair; ID is assigned by the remote store and stays Nil while the line exists
// only optimistically.
type Line struct {
	ID            uuid.UUID
	ItemRef       string
	RestaurantRef string
	UnitPrice     decimal.Decimal
	Quantity      int
	Options       types.LineOptions
}

// IdentityKey collapses the (ItemRef, Options) pair into a comparable string.
func (l Line) IdentityKey() string {
	return l.ItemRef + "\x00" + l.Options.CanonicalKey()
}

// Total returns UnitPrice * Quantity for this line.
func (l Line) Total() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Clone returns a copy that shares no mutable state with the receiver.
func (l Line) Clone() Line {
	dup := l
	dup.Options = l.Options.Clone()
	return dup
}

// Subtotal sums the line totals of the given lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, line := range lines {
		sum = sum.Add(line.Total())
	}
	return sum
}

// TotalQuantity sums the quantities of the given lines. This is the badge
// value shown in navigation.
func TotalQuantity(lines []Line) int {
	total := 0
	for _, line := range lines {
		total += line.Quantity
	}
	return total
}

func cloneLines(lines []Line) []Line {
	if lines == nil {
		return nil
	}
	dup := make([]Line, len(lines))
	for i, line := range lines {
		dup[i] = line.Clone()
	}
	return dup
}
