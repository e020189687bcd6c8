package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/bilguunDash/online-shopping-sub000/kvstore"
)

// Product is a catalog item as served by the storefront API.
type Product struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Price       float64 `json:"price"`
	ImageURL    string  `json:"imageUrl"`
	Category    string  `json:"category,omitempty"`
	Description string  `json:"description,omitempty"`
	Stock       int     `json:"stock,omitempty"`
}

// Products lists the whole catalog. Works anonymously.
func (c *Client) Products(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.do(ctx, http.MethodGet, "/items", nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// Product fetches a single catalog item.
func (c *Client) Product(ctx context.Context, id int64) (*Product, error) {
	var product Product
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/items/%d", id), nil, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// ProductsByCategory lists catalog items in one category.
func (c *Client) ProductsByCategory(ctx context.Context, category string) ([]Product, error) {
	var products []Product
	path := "/items/category/" + url.PathEscape(category)
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

// SearchProducts queries the catalog by free text.
func (c *Client) SearchProducts(ctx context.Context, query string) ([]Product, error) {
	var products []Product
	path := "/items/search?q=" + url.QueryEscape(query)
	if err := c.do(ctx, http.MethodGet, path, nil, &products); err != nil {
		return nil, err
	}
	return products, nil
}

const imageCachePrefix = "productImage:"

// ImageCache persists product image data per product so repeat renders skip
// the download. Entries share the same durable storage as the rest of the
// client state.
type ImageCache struct {
	storage kvstore.Store
}

func NewImageCache(storage kvstore.Store) *ImageCache {
	return &ImageCache{storage: storage}
}

// Get returns the cached image data for the product, if any.
func (ic *ImageCache) Get(ctx context.Context, productID int64) (string, bool) {
	data, err := ic.storage.Get(ctx, imageCacheKey(productID))
	if err != nil {
		return "", false
	}
	return data, true
}

// Put caches image data for the product.
func (ic *ImageCache) Put(ctx context.Context, productID int64, data string) error {
	return errors.Wrap(ic.storage.Set(ctx, imageCacheKey(productID), data), "caching product image")
}

// Forget drops the cached image for the product.
func (ic *ImageCache) Forget(ctx context.Context, productID int64) error {
	return errors.Wrap(ic.storage.Delete(ctx, imageCacheKey(productID)), "dropping cached product image")
}

func imageCacheKey(productID int64) string {
	return fmt.Sprintf("%s%d", imageCachePrefix, productID)
}
