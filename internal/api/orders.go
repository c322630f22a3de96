package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/lumenmarket/storefront-client/pkg/enums"
	"github.com/shopspring/decimal"
)

type OrdersAPI struct {
	client Doer
}

func NewOrdersAPI(client Doer) *OrdersAPI {
	return &OrdersAPI{client: client}
}

type OrderItem struct {
	ProductID   int64           `json:"product_id"`
	ProductName string          `json:"product_name"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
}

type Order struct {
	OrderID     int64             `json:"order_id"`
	Status      enums.OrderStatus `json:"status"`
	TotalAmount decimal.Decimal   `json:"total_amount"`
	CreateTime  string            `json:"create_time"`
	Items       []OrderItem       `json:"items"`
}

// StatusLabel returns the display text for the order status.
func (o Order) StatusLabel() string {
	return o.Status.Label()
}

type OrderPage struct {
	Items    []Order `json:"items"`
	Total    int     `json:"total"`
	Page     int     `json:"page"`
	PageSize int     `json:"page_size"`
}

type ListOrdersParams struct {
	Page     int
	PageSize int
	Status   *enums.OrderStatus
}

func (p ListOrdersParams) query() url.Values {
	query := url.Values{}
	if p.Page > 0 {
		query.Set("page", strconv.Itoa(p.Page))
	}
	if p.PageSize > 0 {
		query.Set("page_size", strconv.Itoa(p.PageSize))
	}
	if p.Status != nil {
		query.Set("status", strconv.Itoa(int(*p.Status)))
	}
	return query
}

// OrderItemInput is the checkout-staging triple handed over from the
// cart's selected items.
type OrderItemInput struct {
	CartID    int64 `json:"cart_id" validate:"required"`
	ProductID int64 `json:"product_id" validate:"required"`
	Quantity  int   `json:"quantity" validate:"required,min=1"`
}

type CreateOrderInput struct {
	Items     []OrderItemInput `json:"items" validate:"required,min=1,dive"`
	AddressID int64            `json:"address_id" validate:"required"`
	Remark    string           `json:"remark,omitempty"`
}

func (o *OrdersAPI) List(ctx context.Context, params ListOrdersParams) (*OrderPage, error) {
	var page OrderPage
	if err := o.client.Get(ctx, "/orders/", params.query(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (o *OrdersAPI) Create(ctx context.Context, input CreateOrderInput) (*Order, error) {
	if err := checkInput(input); err != nil {
		return nil, err
	}
	var order Order
	if err := o.client.Post(ctx, "/orders/", input, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (o *OrdersAPI) Detail(ctx context.Context, orderID int64) (*Order, error) {
	var order Order
	if err := o.client.Get(ctx, fmt.Sprintf("/orders/%d", orderID), nil, &order); err != nil {
		return nil, err
	}
	return &order, nil
}

func (o *OrdersAPI) Pay(ctx context.Context, orderID int64) error {
	return o.client.Post(ctx, fmt.Sprintf("/orders/%d/pay", orderID), nil, nil)
}

func (o *OrdersAPI) Cancel(ctx context.Context, orderID int64) error {
	return o.client.Delete(ctx, fmt.Sprintf("/orders/%d", orderID), nil, nil)
}
