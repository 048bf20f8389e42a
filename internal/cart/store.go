package cart

import (
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	pkgerrors "github.com/snackdash/snackdash-core/pkg/errors"
	"github.com/snackdash/snackdash-core/pkg/types"
)

// Snapshot is a read-only copy of the store's state plus its derived totals.
type Snapshot struct {
	Key           string
	Lines         []Line
	TotalQuantity int
	Subtotal      decimal.Decimal
}

// Restaurant returns the restaurant the cart is bound to, or "" when empty.
// All lines share one restaurant; the first line's ref is authoritative.
func (s Snapshot) Restaurant() string {
	if len(s.Lines) == 0 {
		return ""
	}
	return s.Lines[0].RestaurantRef
}

// Subscriber receives the post-mutation snapshot. Callbacks run synchronously
// on the mutating goroutine, after the store's own state is settled.
type Subscriber func(Snapshot)

// Store is the single in-memory source of truth the UI reads. It accepts
// optimistic mutations from the owning session and wholesale replacement from
// the sync engine; those are the only two write paths.
type Store struct {
	mu     sync.Mutex
	key    string
	lines  []Line
	subs   map[int]Subscriber
	nextID int
}

// NewStore builds an empty store bound to a cart key.
func NewStore(key string) *Store {
	return &Store{
		key:  key,
		subs: map[int]Subscriber{},
	}
}

// Key returns the cart identity this store is scoped to.
func (s *Store) Key() string {
	return s.key
}

// UpsertInput describes an optimistic add/increment/decrement.
type UpsertInput struct {
	ItemRef       string
	RestaurantRef string
	Options       types.LineOptions
	Delta         int
	PriceIfNew    decimal.Decimal
}

// UpsertLine applies Delta to the line identified by (ItemRef, Options),
// creating it at PriceIfNew when absent and Delta > 0, and removing it when
// the resulting quantity would drop to zero or below. It returns the resulting
// quantity (0 when the line was removed or never created).
//
// Adding an item from a different restaurant while the cart is non-empty is
// rejected and leaves the cart untouched.
func (s *Store) UpsertLine(in UpsertInput) (int, error) {
	if in.ItemRef == "" {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "item ref is required")
	}

	s.mu.Lock()
	identity := Line{ItemRef: in.ItemRef, Options: in.Options}.IdentityKey()
	idx := -1
	for i, line := range s.lines {
		if line.IdentityKey() == identity {
			idx = i
			break
		}
	}

	if idx == -1 {
		if in.Delta <= 0 {
			s.mu.Unlock()
			return 0, nil
		}
		if len(s.lines) > 0 && in.RestaurantRef != s.lines[0].RestaurantRef {
			current := s.lines[0].RestaurantRef
			s.mu.Unlock()
			return 0, pkgerrors.New(pkgerrors.CodeCrossRestaurant, "cart already holds items from another restaurant").
				WithDetails(map[string]any{"cart_restaurant": current, "requested_restaurant": in.RestaurantRef})
		}
		s.lines = append(s.lines, Line{
			ItemRef:       in.ItemRef,
			RestaurantRef: in.RestaurantRef,
			UnitPrice:     in.PriceIfNew,
			Quantity:      in.Delta,
			Options:       in.Options.Clone(),
		})
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return in.Delta, nil
	}

	next := s.lines[idx].Quantity + in.Delta
	if next <= 0 {
		s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
		snap := s.snapshotLocked()
		s.mu.Unlock()
		s.notify(snap)
		return 0, nil
	}

	s.lines[idx].Quantity = next
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
	return next, nil
}

// RemoveLine deletes the line with the given server-assigned id. Removing an
// unknown id is a no-op.
func (s *Store) RemoveLine(id uuid.UUID) {
	s.mu.Lock()
	idx := -1
	for i, line := range s.lines {
		if line.ID == id && id != uuid.Nil {
			idx = i
			break
		}
	}
	if idx == -1 {
		s.mu.Unlock()
		return
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// ReplaceAll atomically swaps the entire line list. This is the only path by
// which remote truth enters the store, so sync-driven and UI-driven writes
// never interleave field by field. Calling it twice with the same input is
// observably idempotent.
func (s *Store) ReplaceAll(lines []Line) {
	s.mu.Lock()
	s.lines = cloneLines(lines)
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snap)
}

// Snapshot returns a read-only copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe registers fn for post-mutation notifications and returns its
// unsubscribe func. The subscriber is immediately primed with the current
// snapshot so derived views never start stale.
func (s *Store) Subscribe(fn Subscriber) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	snap := s.snapshotLocked()
	s.mu.Unlock()

	fn(snap)

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

func (s *Store) snapshotLocked() Snapshot {
	return Snapshot{
		Key:           s.key,
		Lines:         cloneLines(s.lines),
		TotalQuantity: TotalQuantity(s.lines),
		Subtotal:      Subtotal(s.lines),
	}
}

func (s *Store) notify(snap Snapshot) {
	s.mu.Lock()
	subs := make([]Subscriber, 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
}
