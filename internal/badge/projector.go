package badge

import (
	"sync/atomic"

	"github.com/snackdash/snackdash-core/internal/cart"
)

// Projector derives the navigation badge count from cart state. It holds no
// state of its own beyond the last projected value; every store notification
// recomputes it.
type Projector struct {
	value       atomic.Int64
	unsubscribe func()
}

// NewProjector attaches a projector to the store. The store primes new
// subscribers, so the badge is correct immediately after construction.
func NewProjector(store *cart.Store) *Projector {
	p := &Projector{}
	p.unsubscribe = store.Subscribe(func(snap cart.Snapshot) {
		p.value.Store(int64(snap.TotalQuantity))
	})
	return p
}

// Value returns the current badge count.
func (p *Projector) Value() int {
	return int(p.value.Load())
}

// Close detaches the projector from the store.
func (p *Projector) Close() {
	if p.unsubscribe != nil {
		p.unsubscribe()
		p.unsubscribe = nil
	}
}
