// Package cart holds the authoritative-cache of cart line items. Every
// mutation is backend-mediated: nothing is durable until a full
// re-fetch confirms it (read-after-write), trading round trips for
// correctness against server-side stock and price authority.
package cart

import (
	"context"
	"errors"
	"sync"

	"github.com/lumenmarket/storefront-client/internal/api"
	"github.com/lumenmarket/storefront-client/pkg/apierrors"
	"github.com/lumenmarket/storefront-client/pkg/logger"
	"github.com/lumenmarket/storefront-client/pkg/storage"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"
)

// Item is one product entry in the cart. ProductID is unique across
// the collection; Quantity is always >= 1.
type Item struct {
	CartID        int64
	ProductID     int64
	ProductName   string
	Price         decimal.Decimal
	ImageURL      string
	StockQuantity int
	Quantity      int
	Selected      bool
}

// ProductRef identifies the product of an add operation. It replaces
// the dynamic id-or-object coercion of the browser build with a typed
// union resolved up front.
type ProductRef struct {
	id int64
}

// ByID references a product by its identifier.
func ByID(id int64) ProductRef {
	return ProductRef{id: id}
}

// ByProduct references a product through its catalog summary.
func ByProduct(p api.Product) ProductRef {
	return ProductRef{id: p.ProductID}
}

// ProductID resolves the reference to a concrete identifier.
func (r ProductRef) ProductID() int64 {
	return r.id
}

type cartClient interface {
	Get(ctx context.Context) (*api.CartPayload, error)
	Add(ctx context.Context, productID int64, quantity int) error
	UpdateQuantity(ctx context.Context, productID int64, quantity int) error
	Remove(ctx context.Context, productID int64) error
	Clear(ctx context.Context) error
}

// StoreParams collects the collaborators of the cart store.
type StoreParams struct {
	Cart    cartClient
	Storage storage.Store
	Logger  *logger.Logger
}

type Store struct {
	// opMu serializes mutating operations end to end, including the
	// confirming re-fetch; stateMu guards the item slice alone.
	opMu    sync.Mutex
	stateMu sync.RWMutex
	items   []Item

	api     cartClient
	storage storage.Store
	log     *logger.Logger
}

func NewStore(params StoreParams) (*Store, error) {
	if params.Cart == nil {
		return nil, errors.New("cart client required")
	}
	if params.Storage == nil {
		return nil, errors.New("storage required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	return &Store{
		api:     params.Cart,
		storage: params.Storage,
		log:     params.Logger,
	}, nil
}

// FetchCart replaces local state wholesale with the backend's item
// collection. Errors are logged and treated as "no change"; the return
// value reports whether the refresh happened.
func (s *Store) FetchCart(ctx context.Context) bool {
	payload, err := s.api.Get(ctx)
	if err != nil {
		s.log.Warn(ctx, "fetch cart failed: "+err.Error())
		return false
	}

	items := make([]Item, 0, len(payload.Items))
	for _, entry := range payload.Items {
		selected := true
		if entry.Selected != nil {
			selected = *entry.Selected
		}
		items = append(items, Item{
			CartID:        entry.CartID,
			ProductID:     entry.ProductID,
			ProductName:   entry.ProductName,
			Price:         entry.UnitPrice(),
			ImageURL:      entry.ImageURL,
			StockQuantity: entry.StockQuantity,
			Quantity:      entry.Quantity,
			Selected:      selected,
		})
	}

	s.stateMu.Lock()
	s.items = items
	s.stateMu.Unlock()
	return true
}

// InitCart loads the cart at application start. Anonymous users have
// no server-side cart, so without a token it resets locally and skips
// the network entirely.
func (s *Store) InitCart(ctx context.Context) {
	token, err := s.storage.Get(ctx, storage.KeyAccessToken)
	if err != nil || token == "" {
		s.stateMu.Lock()
		s.items = nil
		s.stateMu.Unlock()
		return
	}
	s.FetchCart(ctx)
}

// AddToCart adds the referenced product and confirms via re-fetch.
// Quantity below one falls back to a single unit.
func (s *Store) AddToCart(ctx context.Context, ref ProductRef, quantity int) error {
	productID := ref.ProductID()
	if productID <= 0 {
		return apierrors.New(apierrors.KindRequest, "product reference required")
	}
	if quantity < 1 {
		s.log.Debug(ctx, "clamping add-to-cart quantity to 1")
		quantity = 1
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.api.Add(ctx, productID, quantity); err != nil {
		return err
	}
	s.FetchCart(ctx)
	return nil
}

// UpdateQuantity sets the quantity of a line item. A quantity of zero
// or less is a removal, not an update.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		return s.RemoveFromCart(ctx, productID)
	}

	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.api.UpdateQuantity(ctx, productID, quantity); err != nil {
		return err
	}
	s.FetchCart(ctx)
	return nil
}

// RemoveFromCart deletes one line item and confirms via re-fetch.
func (s *Store) RemoveFromCart(ctx context.Context, productID int64) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.api.Remove(ctx, productID); err != nil {
		return err
	}
	s.FetchCart(ctx)
	return nil
}

// ClearCart empties the cart. The result of a confirmed clear is
// known, so local state is replaced directly instead of re-fetching.
func (s *Store) ClearCart(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	if err := s.api.Clear(ctx); err != nil {
		return err
	}
	s.stateMu.Lock()
	s.items = nil
	s.stateMu.Unlock()
	return nil
}

// ToggleSelect flips the selection flag of a line item. Selection is a
// client-side checkout-staging concept and never touches the backend.
func (s *Store) ToggleSelect(productID int64) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i].Selected = !s.items[i].Selected
			return
		}
	}
}

// ToggleSelectAll sets the selection flag on every line item.
func (s *Store) ToggleSelectAll(selected bool) {
	s.stateMu.Lock()
	defer s.stateMu.Unlock()
	for i := range s.items {
		s.items[i].Selected = selected
	}
}

// SelectedItem is the projection handed to order creation.
type SelectedItem struct {
	CartID    int64
	ProductID int64
	Quantity  int
}

// SelectedItems projects the currently selected items for checkout.
func (s *Store) SelectedItems() []SelectedItem {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	var selected []SelectedItem
	for _, item := range s.items {
		if item.Selected {
			selected = append(selected, SelectedItem{
				CartID:    item.CartID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
	}
	return selected
}

// RemoveSelectedItems deletes every selected product concurrently and
// re-fetches whatever state the backend ends in. Partial failure is
// not rolled back; the first error is reported after all deletes have
// been attempted.
func (s *Store) RemoveSelectedItems(ctx context.Context) error {
	s.opMu.Lock()
	defer s.opMu.Unlock()

	var ids []int64
	for _, item := range s.SelectedItems() {
		ids = append(ids, item.ProductID)
	}

	var g errgroup.Group
	for _, id := range ids {
		id := id
		g.Go(func() error {
			return s.api.Remove(ctx, id)
		})
	}
	err := g.Wait()

	s.FetchCart(ctx)
	return err
}

// Items returns a copy of the line-item collection.
func (s *Store) Items() []Item {
	s.stateMu.RLock()
	defer s.stateMu.RUnlock()
	items := make([]Item, len(s.items))
	copy(items, s.items)
	return items
}
