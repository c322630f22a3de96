package api

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

type CartAPI struct {
	client Doer
}

func NewCartAPI(client Doer) *CartAPI {
	return &CartAPI{client: client}
}

// CartItem mirrors one entry of the /cart/ payload. The backend emits
// the unit price under either "price" or "unit_price" depending on the
// query path, so both are kept and normalized by UnitPrice.
type CartItem struct {
	CartID        int64           `json:"cart_id"`
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Price         decimal.Decimal `json:"price"`
	UnitPriceRaw  decimal.Decimal `json:"unit_price"`
	ImageURL      string          `json:"image_url"`
	StockQuantity int             `json:"stock_quantity"`
	Quantity      int             `json:"quantity"`
	Selected      *bool           `json:"selected,omitempty"`
}

// UnitPrice returns the effective unit price.
func (i CartItem) UnitPrice() decimal.Decimal {
	if !i.Price.IsZero() {
		return i.Price
	}
	return i.UnitPriceRaw
}

type CartPayload struct {
	Items []CartItem `json:"items"`
}

type addToCartRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type updateQuantityRequest struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

func (c *CartAPI) Get(ctx context.Context) (*CartPayload, error) {
	var payload CartPayload
	if err := c.client.Get(ctx, "/cart/", nil, &payload); err != nil {
		return nil, err
	}
	return &payload, nil
}

func (c *CartAPI) Add(ctx context.Context, productID int64, quantity int) error {
	return c.client.Post(ctx, "/cart/add", addToCartRequest{ProductID: productID, Quantity: quantity}, nil)
}

func (c *CartAPI) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	path := fmt.Sprintf("/cart/%d", productID)
	return c.client.Put(ctx, path, updateQuantityRequest{ProductID: productID, Quantity: quantity}, nil)
}

func (c *CartAPI) Remove(ctx context.Context, productID int64) error {
	return c.client.Delete(ctx, fmt.Sprintf("/cart/%d", productID), nil, nil)
}

func (c *CartAPI) Clear(ctx context.Context) error {
	return c.client.Delete(ctx, "/cart/", nil, nil)
}

// BatchRemove removes several products in one request.
func (c *CartAPI) BatchRemove(ctx context.Context, productIDs []int64) error {
	return c.client.Delete(ctx, "/cart/batch", productIDs, nil)
}
