package cart

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"
	"testing"

	"github.com/lumenmarket/storefront-client/internal/api"
	"github.com/lumenmarket/storefront-client/pkg/apierrors"
	"github.com/lumenmarket/storefront-client/pkg/logger"
	"github.com/lumenmarket/storefront-client/pkg/storage"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// stubCart serves a mutable in-memory item list and counts every call.
type stubCart struct {
	mu    sync.Mutex
	items map[int64]api.CartItem

	getCalls    int
	addCalls    int
	updateCalls int
	removeCalls int
	clearCalls  int

	removeErrFor map[int64]error
}

func newStubCart(items ...api.CartItem) *stubCart {
	s := &stubCart{items: map[int64]api.CartItem{}}
	for _, item := range items {
		s.items[item.ProductID] = item
	}
	return s
}

func (s *stubCart) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.getCalls + s.addCalls + s.updateCalls + s.removeCalls + s.clearCalls
}

func (s *stubCart) Get(ctx context.Context) (*api.CartPayload, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.getCalls++
	payload := &api.CartPayload{}
	for _, item := range s.items {
		payload.Items = append(payload.Items, item)
	}
	sort.Slice(payload.Items, func(i, j int) bool {
		return payload.Items[i].ProductID < payload.Items[j].ProductID
	})
	return payload, nil
}

func (s *stubCart) Add(ctx context.Context, productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addCalls++
	item := s.items[productID]
	item.ProductID = productID
	item.CartID = productID * 100
	item.Quantity += quantity
	s.items[productID] = item
	return nil
}

func (s *stubCart) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.updateCalls++
	item, ok := s.items[productID]
	if !ok {
		return apierrors.NewTransport(404, "requested resource not found")
	}
	item.Quantity = quantity
	s.items[productID] = item
	return nil
}

func (s *stubCart) Remove(ctx context.Context, productID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeCalls++
	if err, ok := s.removeErrFor[productID]; ok {
		return err
	}
	delete(s.items, productID)
	return nil
}

func (s *stubCart) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clearCalls++
	s.items = map[int64]api.CartItem{}
	return nil
}

func testLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: io.Discard, Level: zerolog.Disabled})
}

func newTestStore(t *testing.T, client cartClient, persisted storage.Store) *Store {
	t.Helper()
	s, err := NewStore(StoreParams{Cart: client, Storage: persisted, Logger: testLogger()})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func item(productID int64, price string, quantity int) api.CartItem {
	return api.CartItem{
		CartID:    productID * 100,
		ProductID: productID,
		Price:     decimal.RequireFromString(price),
		Quantity:  quantity,
	}
}

func TestAddToCartRefetchesFullState(t *testing.T) {
	ctx := context.Background()
	backend := newStubCart()
	store := newTestStore(t, backend, storage.NewMemory())

	if err := store.AddToCart(ctx, ByID(5), 2); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if backend.addCalls != 1 || backend.getCalls != 1 {
		t.Fatalf("expected add then re-fetch, got add=%d get=%d", backend.addCalls, backend.getCalls)
	}

	items := store.Items()
	if len(items) != 1 || items[0].ProductID != 5 || items[0].Quantity != 2 {
		t.Fatalf("unexpected items %+v", items)
	}
	if !items[0].Selected {
		t.Fatalf("new items default to selected")
	}
}

func TestAddToCartByProduct(t *testing.T) {
	backend := newStubCart()
	store := newTestStore(t, backend, storage.NewMemory())

	err := store.AddToCart(context.Background(), ByProduct(api.Product{ProductID: 9}), 1)
	if err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if len(store.Items()) != 1 || store.Items()[0].ProductID != 9 {
		t.Fatalf("unexpected items %+v", store.Items())
	}
}

func TestAddToCartClampsQuantity(t *testing.T) {
	backend := newStubCart()
	store := newTestStore(t, backend, storage.NewMemory())

	if err := store.AddToCart(context.Background(), ByID(5), 0); err != nil {
		t.Fatalf("add to cart: %v", err)
	}
	if got := store.Items()[0].Quantity; got != 1 {
		t.Fatalf("expected clamped quantity 1, got %d", got)
	}
}

func TestAddToCartRejectsEmptyRef(t *testing.T) {
	backend := newStubCart()
	store := newTestStore(t, backend, storage.NewMemory())

	err := store.AddToCart(context.Background(), ProductRef{}, 1)
	if !apierrors.IsKind(err, apierrors.KindRequest) {
		t.Fatalf("expected request error, got %v", err)
	}
	if backend.calls() != 0 {
		t.Fatalf("invalid ref must not reach the wire")
	}
}

func TestUpdateQuantityZeroRemoves(t *testing.T) {
	ctx := context.Background()
	backend := newStubCart(item(5, "10.00", 2))
	store := newTestStore(t, backend, storage.NewMemory())
	store.FetchCart(ctx)

	if err := store.UpdateQuantity(ctx, 5, 0); err != nil {
		t.Fatalf("update quantity: %v", err)
	}
	if backend.updateCalls != 0 || backend.removeCalls != 1 {
		t.Fatalf("expected removal, got update=%d remove=%d", backend.updateCalls, backend.removeCalls)
	}
	if len(store.Items()) != 0 {
		t.Fatalf("expected empty cart, got %+v", store.Items())
	}
}

func TestSelectionIsPureLocal(t *testing.T) {
	ctx := context.Background()
	backend := newStubCart(item(1, "5.00", 1), item(2, "7.00", 1))
	store := newTestStore(t, backend, storage.NewMemory())
	store.FetchCart(ctx)
	baseline := backend.calls()

	store.ToggleSelect(1)
	store.ToggleSelectAll(false)
	store.ToggleSelectAll(true)
	store.ToggleSelect(2)
	_ = store.SelectedItems()

	if backend.calls() != baseline {
		t.Fatalf("selection must not issue network calls, got %d extra", backend.calls()-baseline)
	}
	selected := store.SelectedItems()
	if len(selected) != 1 || selected[0].ProductID != 1 {
		t.Fatalf("unexpected selection %+v", selected)
	}
}

func TestTotals(t *testing.T) {
	ctx := context.Background()
	backend := newStubCart(item(1, "19.90", 2), item(2, "0.10", 3))
	store := newTestStore(t, backend, storage.NewMemory())
	store.FetchCart(ctx)

	if got := store.TotalItems(); got != 5 {
		t.Fatalf("expected 5 items, got %d", got)
	}
	if got := store.TotalAmount(); got != "40.10" {
		t.Fatalf("expected 40.10, got %s", got)
	}

	store.ToggleSelect(2)
	if got := store.SelectedAmount(); got != "39.80" {
		t.Fatalf("expected 39.80, got %s", got)
	}
	if got := store.TotalAmount(); got != "40.10" {
		t.Fatalf("total must ignore selection, got %s", got)
	}
}

func TestTotalsEmptyCart(t *testing.T) {
	store := newTestStore(t, newStubCart(), storage.NewMemory())
	if got := store.TotalAmount(); got != "0.00" {
		t.Fatalf("expected 0.00, got %s", got)
	}
	if got := store.SelectedAmount(); got != "0.00" {
		t.Fatalf("expected 0.00, got %s", got)
	}
	if got := store.TotalItems(); got != 0 {
		t.Fatalf("expected 0 items, got %d", got)
	}
}

func TestClearCartSkipsRefetch(t *testing.T) {
	ctx := context.Background()
	backend := newStubCart(item(1, "5.00", 1))
	store := newTestStore(t, backend, storage.NewMemory())
	store.FetchCart(ctx)
	fetches := backend.getCalls

	if err := store.ClearCart(ctx); err != nil {
		t.Fatalf("clear cart: %v", err)
	}
	if backend.clearCalls != 1 {
		t.Fatalf("expected one clear call, got %d", backend.clearCalls)
	}
	if backend.getCalls != fetches {
		t.Fatalf("clear must not re-fetch, got %d extra", backend.getCalls-fetches)
	}
	if len(store.Items()) != 0 {
		t.Fatalf("expected empty cart, got %+v", store.Items())
	}
}

func TestInitCartWithoutTokenSkipsNetwork(t *testing.T) {
	ctx := context.Background()
	backend := newStubCart(item(1, "5.00", 1))
	store := newTestStore(t, backend, storage.NewMemory())
	store.FetchCart(ctx)
	baseline := backend.calls()

	store.InitCart(ctx)
	if backend.calls() != baseline {
		t.Fatalf("anonymous init must not hit the network")
	}
	if len(store.Items()) != 0 {
		t.Fatalf("anonymous init must reset local state, got %+v", store.Items())
	}
}

func TestInitCartWithTokenFetches(t *testing.T) {
	ctx := context.Background()
	backend := newStubCart(item(1, "5.00", 1))
	persisted := storage.NewMemory()
	persisted.Set(ctx, storage.KeyAccessToken, "abc")
	store := newTestStore(t, backend, persisted)

	store.InitCart(ctx)
	if backend.getCalls != 1 {
		t.Fatalf("expected one fetch, got %d", backend.getCalls)
	}
	if len(store.Items()) != 1 {
		t.Fatalf("expected loaded cart, got %+v", store.Items())
	}
}

func TestRemoveSelectedItemsPartialFailure(t *testing.T) {
	ctx := context.Background()
	backend := newStubCart(item(1, "5.00", 1), item(2, "7.00", 1), item(3, "9.00", 1))
	backend.removeErrFor = map[int64]error{2: errors.New("conflict")}
	store := newTestStore(t, backend, storage.NewMemory())
	store.FetchCart(ctx)
	store.ToggleSelect(3)
	fetches := backend.getCalls

	err := store.RemoveSelectedItems(ctx)
	if err == nil {
		t.Fatalf("expected partial failure to surface")
	}
	if backend.removeCalls != 2 {
		t.Fatalf("expected both selected deletes attempted, got %d", backend.removeCalls)
	}
	if backend.getCalls != fetches+1 {
		t.Fatalf("expected confirming re-fetch even on failure")
	}

	// Item 1 is gone, item 2 survived the failed delete, item 3 was
	// never selected.
	items := store.Items()
	if len(items) != 2 || items[0].ProductID != 2 || items[1].ProductID != 3 {
		t.Fatalf("unexpected surviving items %+v", items)
	}
}

func TestRemoveSelectedItemsAll(t *testing.T) {
	ctx := context.Background()
	backend := newStubCart(item(1, "5.00", 1), item(2, "7.00", 1))
	store := newTestStore(t, backend, storage.NewMemory())
	store.FetchCart(ctx)

	if err := store.RemoveSelectedItems(ctx); err != nil {
		t.Fatalf("remove selected: %v", err)
	}
	if len(store.Items()) != 0 {
		t.Fatalf("expected empty cart, got %+v", store.Items())
	}
}

func TestSelectedItemsProjection(t *testing.T) {
	ctx := context.Background()
	backend := newStubCart(item(5, "19.90", 2))
	store := newTestStore(t, backend, storage.NewMemory())
	store.FetchCart(ctx)

	selected := store.SelectedItems()
	if len(selected) != 1 {
		t.Fatalf("expected one selected item, got %+v", selected)
	}
	if selected[0].CartID != 500 || selected[0].ProductID != 5 || selected[0].Quantity != 2 {
		t.Fatalf("unexpected projection %+v", selected[0])
	}
}
