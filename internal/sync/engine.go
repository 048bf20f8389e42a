package sync

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/snackdash/snackdash-core/internal/cart"
	"github.com/snackdash/snackdash-core/internal/gateway"
	pkgerrors "github.com/snackdash/snackdash-core/pkg/errors"
	"github.com/snackdash/snackdash-core/pkg/logger"
	"github.com/snackdash/snackdash-core/pkg/metrics"
)

const (
	triggerEdit = "edit"
	triggerPush = "push"
)

// SignalSource is the push-notification side of the engine: a stream of
// "this cart changed" signals. The redis change feed satisfies it.
type SignalSource interface {
	Signals() <-chan string
	Close() error
}

// EngineParams configure the sync engine.
type EngineParams struct {
	Store            *cart.Store
	Gateway          gateway.CartGateway
	Logger           *logger.Logger
	Metrics          *metrics.SyncMetrics
	ReconcileTimeout time.Duration
}

// Engine keeps the local store eventually consistent with the remote truth.
//
// Every local edit follows the same protocol: apply optimistically, issue the
// remote call, then reload the full authoritative state and replace the store
// wholesale. On remote failure the pre-edit snapshot is restored and the edit
// surfaces as SYNC_FAILED. Push signals run only the reload half. Because the
// reload is an atomic, idempotent replace, pushes racing edits cost an extra
// pass but cannot corrupt state; the last reload always reflects full server
// truth.
type Engine struct {
	store   *cart.Store
	gw      gateway.CartGateway
	logg    *logger.Logger
	metrics *metrics.SyncMetrics
	timeout time.Duration

	// serializes the optimistic-edit protocol; the store itself is safe, this
	// keeps snapshot/revert pairs from interleaving
	editMu sync.Mutex

	torndown atomic.Bool
}

// NewEngine builds an engine bound to one store and one gateway.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("cart store required")
	}
	if params.Gateway == nil {
		return nil, fmt.Errorf("cart gateway required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.ReconcileTimeout <= 0 {
		params.ReconcileTimeout = 15 * time.Second
	}
	return &Engine{
		store:   params.Store,
		gw:      params.Gateway,
		logg:    params.Logger,
		metrics: params.Metrics,
		timeout: params.ReconcileTimeout,
	}, nil
}

// UpsertItem applies an add/increment/decrement optimistically, makes it
// durable, and reconciles. The returned error is nil on full success,
// CROSS_RESTAURANT_CONFLICT when the add was rejected locally (cart
// untouched), or SYNC_FAILED when the remote write failed (edit reverted,
// safe to retry). When the failure is the server reporting the line gone,
// the store is additionally refreshed from the server before returning.
func (e *Engine) UpsertItem(ctx context.Context, in cart.UpsertInput) error {
	e.editMu.Lock()
	defer e.editMu.Unlock()

	prev := e.store.Snapshot()

	qty, err := e.store.UpsertLine(in)
	if err != nil {
		return err
	}

	target, existedBefore := findByIdentity(prev.Lines, in)

	var remoteErr error
	switch {
	case !existedBefore && qty > 0:
		// brand-new line: persist it whole
		after, ok := findByIdentity(e.store.Snapshot().Lines, in)
		if !ok {
			// a reconciliation replaced the store between the write and
			// this read; the server view already won
			return nil
		}
		_, remoteErr = e.gw.CreateLine(ctx, e.store.Key(), after)
	case !existedBefore:
		// negative delta on an absent line: local no-op, nothing remote
		return nil
	case target.ID == uuid.Nil && qty > 0:
		// the line exists locally but was never acknowledged by the server;
		// CreateLine upserts by identity so replaying the absolute state is safe
		after, ok := findByIdentity(e.store.Snapshot().Lines, in)
		if !ok {
			return nil
		}
		_, remoteErr = e.gw.CreateLine(ctx, e.store.Key(), after)
	case target.ID == uuid.Nil:
		// removed a line the server never saw
		return nil
	case qty == 0:
		remoteErr = e.gw.DeleteLine(ctx, target.ID)
		if pkgerrors.HasCode(remoteErr, pkgerrors.CodeNotFound) {
			// already gone remotely: the intent is satisfied
			remoteErr = nil
		}
	default:
		remoteErr = e.gw.UpsertQuantity(ctx, target.ID, qty)
	}

	if remoteErr != nil {
		syncErr := e.revert(ctx, prev, remoteErr)
		if pkgerrors.HasCode(remoteErr, pkgerrors.CodeNotFound) {
			// the server answered and no longer has the line; the reverted
			// view is stale, so pull its truth right away
			if err := e.reconcile(ctx, triggerEdit); err != nil {
				e.logg.Warn(e.logg.WithCartKey(ctx, e.store.Key()), "refresh after missing remote line failed")
			}
		}
		return syncErr
	}
	return e.reconcile(ctx, triggerEdit)
}

// RemoveLine deletes a persisted line optimistically and makes the removal
// durable. A line that is already gone remotely counts as success.
func (e *Engine) RemoveLine(ctx context.Context, lineID uuid.UUID) error {
	e.editMu.Lock()
	defer e.editMu.Unlock()

	prev := e.store.Snapshot()
	e.store.RemoveLine(lineID)

	err := e.gw.DeleteLine(ctx, lineID)
	if err != nil && !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		return e.revert(ctx, prev, err)
	}
	return e.reconcile(ctx, triggerEdit)
}

// ClearCart empties the cart locally and remotely.
func (e *Engine) ClearCart(ctx context.Context) error {
	e.editMu.Lock()
	defer e.editMu.Unlock()

	prev := e.store.Snapshot()
	e.store.ReplaceAll(nil)

	if err := e.gw.DeleteAll(ctx, e.store.Key()); err != nil {
		return e.revert(ctx, prev, err)
	}
	return e.reconcile(ctx, triggerEdit)
}

// Reconcile fetches the authoritative line list and replaces the store with
// it. After teardown it is a silent no-op.
func (e *Engine) Reconcile(ctx context.Context) error {
	return e.reconcile(ctx, triggerPush)
}

// Run consumes push signals until the context ends or the feed closes. Each
// signal triggers one reconciliation pass; signals arriving after Close are
// dropped.
func (e *Engine) Run(ctx context.Context, feed SignalSource) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-feed.Signals():
			if !ok {
				return nil
			}
			if e.torndown.Load() {
				e.metrics.IncDroppedSignal()
				continue
			}
			if err := e.reconcile(ctx, triggerPush); err != nil {
				e.logg.Warn(e.logg.WithCartKey(ctx, e.store.Key()), "push reconciliation failed")
			}
		}
	}
}

// Close marks the engine torn down. Any reconciliation that fires afterwards
// is dropped instead of touching the store.
func (e *Engine) Close() {
	e.torndown.Store(true)
}

func (e *Engine) reconcile(ctx context.Context, trigger string) error {
	if e.torndown.Load() {
		if trigger == triggerPush {
			e.metrics.IncDroppedSignal()
		}
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	started := time.Now()
	lines, err := e.gw.FetchAll(ctx, e.store.Key())
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeSyncFailed, err, "reload cart from remote store")
	}

	// re-check: teardown may have happened while the fetch was in flight
	if e.torndown.Load() {
		if trigger == triggerPush {
			e.metrics.IncDroppedSignal()
		}
		return nil
	}

	e.store.ReplaceAll(lines)
	e.metrics.IncReconcile(trigger)
	e.metrics.ObserveReconcile(time.Since(started))
	return nil
}

func (e *Engine) revert(ctx context.Context, prev cart.Snapshot, cause error) error {
	e.store.ReplaceAll(prev.Lines)
	e.metrics.IncEditFailure()
	e.logg.Warn(e.logg.WithCartKey(ctx, e.store.Key()), "optimistic edit reverted after remote failure")
	return pkgerrors.Wrap(pkgerrors.CodeSyncFailed, cause, "cart edit was not persisted")
}

func findByIdentity(lines []cart.Line, in cart.UpsertInput) (cart.Line, bool) {
	identity := cart.Line{ItemRef: in.ItemRef, Options: in.Options}.IdentityKey()
	for _, line := range lines {
		if line.IdentityKey() == identity {
			return line, true
		}
	}
	return cart.Line{}, false
}
