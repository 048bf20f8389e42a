package sync

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/snackdash/snackdash-core/internal/cart"
	pkgerrors "github.com/snackdash/snackdash-core/pkg/errors"
	"github.com/snackdash/snackdash-core/pkg/logger"
)

type stubGateway struct {
	lines []cart.Line

	fetchErr  error
	createErr error
	upsertErr error
	deleteErr error
	clearErr  error

	fetchCalls  int
	createCalls int
	upsertCalls int
	deleteCalls int
	clearCalls  int

	lastQuantity int
}

func (g *stubGateway) FetchAll(_ context.Context, _ string) ([]cart.Line, error) {
	g.fetchCalls++
	if g.fetchErr != nil {
		return nil, g.fetchErr
	}
	out := make([]cart.Line, len(g.lines))
	copy(out, g.lines)
	return out, nil
}

func (g *stubGateway) CreateLine(_ context.Context, _ string, line cart.Line) (cart.Line, error) {
	g.createCalls++
	if g.createErr != nil {
		return cart.Line{}, g.createErr
	}
	line.ID = uuid.New()
	g.lines = append(g.lines, line)
	return line, nil
}

func (g *stubGateway) UpsertQuantity(_ context.Context, lineID uuid.UUID, quantity int) error {
	g.upsertCalls++
	g.lastQuantity = quantity
	if g.upsertErr != nil {
		return g.upsertErr
	}
	for i := range g.lines {
		if g.lines[i].ID == lineID {
			g.lines[i].Quantity = quantity
		}
	}
	return nil
}

func (g *stubGateway) DeleteLine(_ context.Context, lineID uuid.UUID) error {
	g.deleteCalls++
	if g.deleteErr != nil {
		return g.deleteErr
	}
	for i := range g.lines {
		if g.lines[i].ID == lineID {
			g.lines = append(g.lines[:i], g.lines[i+1:]...)
			break
		}
	}
	return nil
}

func (g *stubGateway) DeleteAll(_ context.Context, _ string) error {
	g.clearCalls++
	if g.clearErr != nil {
		return g.clearErr
	}
	g.lines = nil
	return nil
}

type stubFeed struct {
	ch chan string
}

func newStubFeed() *stubFeed {
	return &stubFeed{ch: make(chan string, 8)}
}

func (f *stubFeed) Signals() <-chan string { return f.ch }
func (f *stubFeed) Close() error           { close(f.ch); return nil }

func testEngine(t *testing.T, gw *stubGateway) (*Engine, *cart.Store) {
	t.Helper()
	store := cart.NewStore("device-1")
	logg := logger.New(logger.Options{ServiceName: "sync-test", Level: zerolog.ErrorLevel, Output: io.Discard})
	engine, err := NewEngine(EngineParams{
		Store:            store,
		Gateway:          gw,
		Logger:           logg,
		ReconcileTimeout: time.Second,
	})
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return engine, store
}

func TestNewEngine_RequiresDependencies(t *testing.T) {
	t.Parallel()

	if _, err := NewEngine(EngineParams{}); err == nil {
		t.Fatal("expected error for missing dependencies")
	}
}

func TestUpsertItem_NewLinePersistedAndReconciled(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	engine, store := testEngine(t, gw)

	err := engine.UpsertItem(context.Background(), cart.UpsertInput{
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Delta:         2,
		PriceIfNew:    decimal.RequireFromString("4.50"),
	})
	if err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}

	if gw.createCalls != 1 {
		t.Fatalf("expected 1 create call, got %d", gw.createCalls)
	}
	if gw.fetchCalls != 1 {
		t.Fatalf("expected 1 fetch call, got %d", gw.fetchCalls)
	}

	snap := store.Snapshot()
	if len(snap.Lines) != 1 {
		t.Fatalf("expected 1 line, got %d", len(snap.Lines))
	}
	if snap.Lines[0].ID == uuid.Nil {
		t.Fatal("expected reconciliation to adopt the server-assigned id")
	}
	if snap.Lines[0].Quantity != 2 {
		t.Fatalf("expected quantity 2, got %d", snap.Lines[0].Quantity)
	}
}

func TestUpsertItem_IncrementUsesAbsoluteQuantity(t *testing.T) {
	t.Parallel()

	serverID := uuid.New()
	gw := &stubGateway{lines: []cart.Line{{
		ID:            serverID,
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		UnitPrice:     decimal.RequireFromString("4.50"),
		Quantity:      2,
	}}}
	engine, store := testEngine(t, gw)
	store.ReplaceAll(gw.lines)

	err := engine.UpsertItem(context.Background(), cart.UpsertInput{
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Delta:         1,
	})
	if err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}

	if gw.upsertCalls != 1 {
		t.Fatalf("expected 1 upsert call, got %d", gw.upsertCalls)
	}
	if gw.lastQuantity != 3 {
		t.Fatalf("expected absolute quantity 3 on the wire, got %d", gw.lastQuantity)
	}
	if got := store.Snapshot().Lines[0].Quantity; got != 3 {
		t.Fatalf("expected local quantity 3, got %d", got)
	}
}

func TestUpsertItem_DecrementToZeroDeletesRemotely(t *testing.T) {
	t.Parallel()

	serverID := uuid.New()
	gw := &stubGateway{lines: []cart.Line{{
		ID:            serverID,
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Quantity:      1,
	}}}
	engine, store := testEngine(t, gw)
	store.ReplaceAll(gw.lines)

	err := engine.UpsertItem(context.Background(), cart.UpsertInput{
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Delta:         -1,
	})
	if err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}

	if gw.deleteCalls != 1 {
		t.Fatalf("expected 1 delete call, got %d", gw.deleteCalls)
	}
	if len(store.Snapshot().Lines) != 0 {
		t.Fatal("expected empty cart after decrement to zero")
	}
}

func TestUpsertItem_RemoteFailureRevertsAndReturnsSyncFailed(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{createErr: pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "store offline")}
	engine, store := testEngine(t, gw)

	err := engine.UpsertItem(context.Background(), cart.UpsertInput{
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Delta:         1,
		PriceIfNew:    decimal.RequireFromString("4.50"),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeSyncFailed) {
		t.Fatalf("expected SYNC_FAILED, got %v", err)
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodeRemoteUnavailable) {
		t.Fatalf("expected the remote cause in the chain, got %v", err)
	}
	if len(store.Snapshot().Lines) != 0 {
		t.Fatal("expected the optimistic line to be reverted")
	}
}

func TestUpsertItem_CrossRestaurantRejectedWithoutRemoteCall(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	engine, store := testEngine(t, gw)
	store.ReplaceAll([]cart.Line{{
		ID:            uuid.New(),
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Quantity:      1,
	}})

	err := engine.UpsertItem(context.Background(), cart.UpsertInput{
		ItemRef:       "item-pho",
		RestaurantRef: "rest-2",
		Delta:         1,
		PriceIfNew:    decimal.RequireFromString("11.00"),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeCrossRestaurant) {
		t.Fatalf("expected CROSS_RESTAURANT_CONFLICT, got %v", err)
	}
	if gw.createCalls+gw.upsertCalls+gw.fetchCalls != 0 {
		t.Fatal("expected no remote traffic for a locally rejected edit")
	}
}

func TestUpsertItem_NotFoundOnUpdateRefreshesFromServer(t *testing.T) {
	t.Parallel()

	serverID := uuid.New()
	// server truth: the line is already gone
	gw := &stubGateway{
		upsertErr: pkgerrors.New(pkgerrors.CodeNotFound, "line gone"),
	}
	engine, store := testEngine(t, gw)
	store.ReplaceAll([]cart.Line{{
		ID:            serverID,
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Quantity:      2,
	}})

	err := engine.UpsertItem(context.Background(), cart.UpsertInput{
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Delta:         1,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeSyncFailed) {
		t.Fatalf("expected SYNC_FAILED, got %v", err)
	}
	if gw.fetchCalls != 1 {
		t.Fatalf("expected a refresh fetch after the server reported the line gone, got %d", gw.fetchCalls)
	}
	if got := len(store.Snapshot().Lines); got != 0 {
		t.Fatalf("expected the server-deleted line dropped from the store, got %d lines", got)
	}
}

func TestUpsertItem_SupersededByReloadSkipsCreate(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{}
	engine, store := testEngine(t, gw)

	var fired bool
	unsubscribe := store.Subscribe(func(snap cart.Snapshot) {
		if fired || len(snap.Lines) == 0 {
			return
		}
		fired = true
		// a reload lands between the optimistic write and the follow-up read
		store.ReplaceAll(nil)
	})
	defer unsubscribe()

	err := engine.UpsertItem(context.Background(), cart.UpsertInput{
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Delta:         1,
		PriceIfNew:    decimal.RequireFromString("9.00"),
	})
	if err != nil {
		t.Fatalf("UpsertItem: %v", err)
	}
	if gw.createCalls != 0 {
		t.Fatalf("expected no create for a superseded edit, got %d", gw.createCalls)
	}
	if len(store.Snapshot().Lines) != 0 {
		t.Fatal("expected the reloaded view to stand")
	}
}

func TestRemoveLine_NotFoundCountsAsSuccess(t *testing.T) {
	t.Parallel()

	serverID := uuid.New()
	gw := &stubGateway{deleteErr: pkgerrors.New(pkgerrors.CodeNotFound, "already deleted")}
	engine, store := testEngine(t, gw)
	store.ReplaceAll([]cart.Line{{
		ID:            serverID,
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Quantity:      1,
	}})

	if err := engine.RemoveLine(context.Background(), serverID); err != nil {
		t.Fatalf("RemoveLine: %v", err)
	}
	if gw.fetchCalls != 1 {
		t.Fatalf("expected a reconciliation fetch, got %d", gw.fetchCalls)
	}
	if len(store.Snapshot().Lines) != 0 {
		t.Fatal("expected the line to stay removed")
	}
}

func TestRemoveLine_RemoteFailureReverts(t *testing.T) {
	t.Parallel()

	serverID := uuid.New()
	gw := &stubGateway{deleteErr: pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "store offline")}
	engine, store := testEngine(t, gw)
	store.ReplaceAll([]cart.Line{{
		ID:            serverID,
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Quantity:      1,
	}})

	err := engine.RemoveLine(context.Background(), serverID)
	if !pkgerrors.HasCode(err, pkgerrors.CodeSyncFailed) {
		t.Fatalf("expected SYNC_FAILED, got %v", err)
	}
	if len(store.Snapshot().Lines) != 1 {
		t.Fatal("expected the removal to be reverted")
	}
}

func TestClearCart_RemoteFailureReverts(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{clearErr: pkgerrors.New(pkgerrors.CodeRemoteUnavailable, "store offline")}
	engine, store := testEngine(t, gw)
	store.ReplaceAll([]cart.Line{{
		ID:            uuid.New(),
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Quantity:      2,
	}})

	err := engine.ClearCart(context.Background())
	if !pkgerrors.HasCode(err, pkgerrors.CodeSyncFailed) {
		t.Fatalf("expected SYNC_FAILED, got %v", err)
	}
	if len(store.Snapshot().Lines) != 1 {
		t.Fatal("expected local lines restored after remote failure")
	}
}

func TestRun_PushSignalTriggersReload(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{lines: []cart.Line{{
		ID:            uuid.New(),
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Quantity:      4,
	}}}
	engine, store := testEngine(t, gw)
	// stale local state: a line the server no longer has
	store.ReplaceAll([]cart.Line{{
		ID:            uuid.New(),
		ItemRef:       "item-pho",
		RestaurantRef: "rest-1",
		Quantity:      1,
	}})
	feed := newStubFeed()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = engine.Run(context.Background(), feed)
	}()

	feed.ch <- "device-1"
	feed.Close()
	<-done

	if gw.fetchCalls != 1 {
		t.Fatalf("expected 1 fetch from the push signal, got %d", gw.fetchCalls)
	}
	snap := store.Snapshot()
	if len(snap.Lines) != 1 || snap.Lines[0].Quantity != 4 {
		t.Fatalf("expected store replaced with remote truth, got %+v", snap.Lines)
	}
	if snap.Lines[0].ItemRef != "item-taco" {
		t.Fatalf("expected the stale local line dropped, got %s", snap.Lines[0].ItemRef)
	}
}

func TestReconcile_AfterCloseIsNoOp(t *testing.T) {
	t.Parallel()

	gw := &stubGateway{lines: []cart.Line{{
		ID:            uuid.New(),
		ItemRef:       "item-taco",
		RestaurantRef: "rest-1",
		Quantity:      4,
	}}}
	engine, store := testEngine(t, gw)
	engine.Close()

	if err := engine.Reconcile(context.Background()); err != nil {
		t.Fatalf("Reconcile after Close: %v", err)
	}
	if gw.fetchCalls != 0 {
		t.Fatal("expected no remote traffic after teardown")
	}
	if len(store.Snapshot().Lines) != 0 {
		t.Fatal("expected the store untouched after teardown")
	}
}
