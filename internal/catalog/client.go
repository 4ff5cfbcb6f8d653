// Package catalog exposes the shop's product collections: the paginated item
// listing, the category list, the top-sales block, and product detail lookup.
package catalog

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/bosanoga/storefront/internal/apiclient"
	"github.com/bosanoga/storefront/internal/listing"
)

const (
	itemsEndpoint      = "/api/items"
	categoriesEndpoint = "/api/categories"
	topSalesEndpoint   = "/api/top-sales"
)

// Client fetches catalog collections from the shop API.
type Client struct {
	api     *apiclient.Client
	perPage int
	logger  *zap.Logger
}

// NewClient constructs a catalog client with the given page size expectation.
func NewClient(api *apiclient.Client, perPage int, logger *zap.Logger) *Client {
	if perPage <= 0 {
		perPage = listing.DefaultPerPage
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{api: api, perPage: perPage, logger: logger}
}

// Categories returns the catalog category list.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var categories []Category
	if err := c.api.GetJSON(ctx, categoriesEndpoint, nil, &categories); err != nil {
		return nil, fmt.Errorf("catalog: categories: %w", err)
	}
	return categories, nil
}

// TopSales returns the non-paginated hits listing.
func (c *Client) TopSales(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.api.GetJSON(ctx, topSalesEndpoint, nil, &products); err != nil {
		return nil, fmt.Errorf("catalog: top sales: %w", err)
	}
	return products, nil
}

// ProductByID fetches the full detail record of one product.
func (c *Client) ProductByID(ctx context.Context, id int64) (Product, error) {
	var product Product
	endpoint := itemsEndpoint + "/" + strconv.FormatInt(id, 10)
	if err := c.api.GetJSON(ctx, endpoint, nil, &product); err != nil {
		return Product{}, fmt.Errorf("catalog: product %d: %w", id, err)
	}
	return product, nil
}

// NewItemsPaginator builds the paginated controller for the items listing.
func (c *Client) NewItemsPaginator() *listing.Paginator[Product] {
	return listing.NewPaginator[Product](c.api, itemsEndpoint,
		listing.WithPerPage(c.perPage),
		listing.WithLogger(c.logger.Named("items")),
	)
}

// ListingParams translates a category selection and search query into listing
// parameters. Both keys are always present so they override any stale
// baseline values; empty values are dropped from the query string itself.
func ListingParams(categoryID int64, query string) listing.Params {
	params := listing.Params{"categoryId": "", "q": ""}
	if categoryID != AllCategoryID {
		params["categoryId"] = strconv.FormatInt(categoryID, 10)
	}
	if trimmed := strings.TrimSpace(query); trimmed != "" {
		params["q"] = trimmed
	}
	return params
}
