package api

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/shopspring/decimal"
)

type ProductsAPI struct {
	client Doer
}

func NewProductsAPI(client Doer) *ProductsAPI {
	return &ProductsAPI{client: client}
}

type Product struct {
	ProductID     int64           `json:"product_id"`
	ProductName   string          `json:"product_name"`
	Description   string          `json:"description"`
	Price         decimal.Decimal `json:"price"`
	StockQuantity int             `json:"stock_quantity"`
	ImageURL      string          `json:"image_url"`
	CategoryID    int64           `json:"category_id"`
}

type Category struct {
	CategoryID   int64  `json:"category_id"`
	CategoryName string `json:"category_name"`
	ParentID     *int64 `json:"parent_id"`
}

// ProductPage mirrors the paginated /products/ payload.
type ProductPage struct {
	Items      []Product `json:"items"`
	Total      int       `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"page_size"`
	TotalPages int       `json:"total_pages"`
}

// ListProductsParams narrows the catalog listing. Zero values are
// replaced by the backend defaults.
type ListProductsParams struct {
	Page       int
	PageSize   int
	CategoryID int64
	Keyword    string
	Sort       string
}

func (p ListProductsParams) query() url.Values {
	query := url.Values{}
	page := p.Page
	if page <= 0 {
		page = 1
	}
	pageSize := p.PageSize
	if pageSize <= 0 {
		pageSize = 12
	}
	query.Set("page", strconv.Itoa(page))
	query.Set("page_size", strconv.Itoa(pageSize))
	if p.CategoryID > 0 {
		query.Set("category_id", strconv.FormatInt(p.CategoryID, 10))
	}
	if p.Keyword != "" {
		query.Set("keyword", p.Keyword)
	}
	if p.Sort != "" {
		query.Set("sort", p.Sort)
	}
	return query
}

func (p *ProductsAPI) List(ctx context.Context, params ListProductsParams) (*ProductPage, error) {
	var page ProductPage
	if err := p.client.Get(ctx, "/products/", params.query(), &page); err != nil {
		return nil, err
	}
	return &page, nil
}

func (p *ProductsAPI) Detail(ctx context.Context, productID int64) (*Product, error) {
	var product Product
	if err := p.client.Get(ctx, fmt.Sprintf("/products/%d", productID), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

func (p *ProductsAPI) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := p.client.Get(ctx, "/products/categories", nil, &categories); err != nil {
		return nil, err
	}
	return categories, nil
}
