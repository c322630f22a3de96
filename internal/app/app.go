// Package app composes the client: configuration, storage, the HTTP
// adapter, the per-entity accessors, and the session and cart stores,
// wired so the adapter's 401 side effect terminates the session.
package app

import (
	"context"
	"fmt"

	"github.com/lumenmarket/storefront-client/internal/api"
	"github.com/lumenmarket/storefront-client/internal/cart"
	"github.com/lumenmarket/storefront-client/internal/routes"
	"github.com/lumenmarket/storefront-client/internal/session"
	"github.com/lumenmarket/storefront-client/internal/transport"
	"github.com/lumenmarket/storefront-client/pkg/config"
	"github.com/lumenmarket/storefront-client/pkg/logger"
	"github.com/lumenmarket/storefront-client/pkg/metrics"
	"github.com/lumenmarket/storefront-client/pkg/storage"
	"github.com/prometheus/client_golang/prometheus"
)

// Hooks is the UI surface the client calls back into: toast-style
// notifications and navigation.
type Hooks interface {
	Notify(ctx context.Context, message string)
	NavigateTo(ctx context.Context, route string)
}

// NopHooks discards all callbacks.
type NopHooks struct{}

func (NopHooks) Notify(context.Context, string)     {}
func (NopHooks) NavigateTo(context.Context, string) {}

// dispatcher adapts the transport's side-effect interface onto the UI
// hooks and the session store. The session field is set after
// construction because the adapter is built before the store.
type dispatcher struct {
	ui      Hooks
	session *session.Store
}

func (d *dispatcher) Notify(ctx context.Context, message string) {
	d.ui.Notify(ctx, message)
}

func (d *dispatcher) SessionExpired(ctx context.Context) {
	if d.session != nil {
		d.session.Terminate(ctx)
	}
}

// App bundles the assembled client.
type App struct {
	Config  *config.Config
	Log     *logger.Logger
	Storage storage.Store

	Client    *transport.Client
	Auth      *api.AuthAPI
	Cart      *api.CartAPI
	Products  *api.ProductsAPI
	Orders    *api.OrdersAPI
	Addresses *api.AddressesAPI

	Session *session.Store
	CartSt  *cart.Store
	Guard   *routes.Guard
}

// Options tunes assembly. Zero value works for production use.
type Options struct {
	// Hooks receives notifications and navigation; nil discards them.
	Hooks Hooks
	// Registry receives request metrics; nil disables them.
	Registry prometheus.Registerer
	// Logger overrides the configured logger; tests only.
	Logger *logger.Logger
	// Store overrides the configured storage backend; tests only.
	Store storage.Store
}

func New(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	ui := opts.Hooks
	if ui == nil {
		ui = NopHooks{}
	}

	log := opts.Logger
	if log == nil {
		log = logger.New(logger.Options{
			ServiceName: "storefront-client",
			Level:       logger.ParseLevel(cfg.App.LogLevel),
			WarnStack:   cfg.App.LogWarnStack,
		})
	}

	store := opts.Store
	if store == nil {
		var err error
		store, err = storage.Open(ctx, cfg.Storage, cfg.Redis)
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
	}

	hooks := &dispatcher{ui: ui}
	client, err := transport.New(transport.Options{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
		Store:   store,
		Hooks:   hooks,
		Logger:  log,
		Metrics: metrics.NewRequestMetrics(opts.Registry),
		Dev:     cfg.App.IsDev(),
	})
	if err != nil {
		return nil, fmt.Errorf("building http adapter: %w", err)
	}

	authAPI := api.NewAuthAPI(client)
	cartAPI := api.NewCartAPI(client)

	sessionStore, err := session.NewStore(session.StoreParams{
		Auth:    authAPI,
		Storage: store,
		Hooks:   ui,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("building session store: %w", err)
	}
	hooks.session = sessionStore

	cartStore, err := cart.NewStore(cart.StoreParams{
		Cart:    cartAPI,
		Storage: store,
		Logger:  log,
	})
	if err != nil {
		return nil, fmt.Errorf("building cart store: %w", err)
	}

	return &App{
		Config:    cfg,
		Log:       log,
		Storage:   store,
		Client:    client,
		Auth:      authAPI,
		Cart:      cartAPI,
		Products:  api.NewProductsAPI(client),
		Orders:    api.NewOrdersAPI(client),
		Addresses: api.NewAddressesAPI(client),
		Session:   sessionStore,
		CartSt:    cartStore,
		Guard:     routes.NewGuard(),
	}, nil
}

// Init restores the persisted session and loads the cart. It succeeds
// even when no session exists; the client simply starts anonymous.
func (a *App) Init(ctx context.Context) {
	a.Session.RestoreFromStorage(ctx)
	a.CartSt.InitCart(ctx)
}

// Login authenticates and reloads the cart for the new identity.
func (a *App) Login(ctx context.Context, username, password string) error {
	if _, err := a.Session.Login(ctx, username, password); err != nil {
		return err
	}
	a.CartSt.InitCart(ctx)
	return nil
}

// Logout ends the session and resets the cart locally.
func (a *App) Logout(ctx context.Context) {
	a.Session.Logout(ctx)
	a.CartSt.InitCart(ctx)
}

// Checkout creates an order from the selected cart items and removes
// them from the cart on success.
func (a *App) Checkout(ctx context.Context, addressID int64, remark string) (*api.Order, error) {
	selected := a.CartSt.SelectedItems()
	if len(selected) == 0 {
		return nil, fmt.Errorf("no items selected")
	}
	input := api.CreateOrderInput{AddressID: addressID, Remark: remark}
	for _, item := range selected {
		input.Items = append(input.Items, api.OrderItemInput{
			CartID:    item.CartID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	order, err := a.Orders.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	if rmErr := a.CartSt.RemoveSelectedItems(ctx); rmErr != nil {
		a.Log.Warn(ctx, "clearing ordered items from cart: "+rmErr.Error())
	}
	return order, nil
}

// Close releases the storage backend.
func (a *App) Close() error {
	return a.Storage.Close()
}
