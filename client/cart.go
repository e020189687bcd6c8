package client

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bilguunDash/online-shopping-sub000/collection"
	clienterrors "github.com/bilguunDash/online-shopping-sub000/internal/errors"
)

// EnsureCart makes sure the authenticated user has a server-side cart. The
// operation is idempotent by contract: the server answers 409 when the cart
// already exists, which is success here. Any other failure is returned, not
// swallowed.
func (c *Client) EnsureCart(ctx context.Context) error {
	err := c.do(ctx, http.MethodPost, "/cart/create", nil, nil)
	if clienterrors.Is(err, clienterrors.ErrConflict) {
		return nil
	}
	return err
}

// cartItemRequest is the payload for adding or updating a cart line.
type cartItemRequest struct {
	ProductID int64 `json:"productId"`
	Quantity  int   `json:"quantity"`
}

// AddCartItem puts quantity units of the product into the server-side cart.
// A 400 from the server typically means out of stock and surfaces inline.
func (c *Client) AddCartItem(ctx context.Context, productID int64, quantity int) (*MessageResponse, error) {
	if quantity <= 0 {
		quantity = 1
	}
	var resp MessageResponse
	err := c.do(ctx, http.MethodPost, "/cart/items", cartItemRequest{ProductID: productID, Quantity: quantity}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateCartItem sets the quantity of an existing cart line.
func (c *Client) UpdateCartItem(ctx context.Context, productID int64, quantity int) (*MessageResponse, error) {
	var resp MessageResponse
	path := fmt.Sprintf("/cart/items/%d", productID)
	err := c.do(ctx, http.MethodPut, path, cartItemRequest{ProductID: productID, Quantity: quantity}, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// RemoveCartItem deletes a cart line.
func (c *Client) RemoveCartItem(ctx context.Context, productID int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/cart/items/%d", productID), nil, nil)
}

// CartItems returns the server-side cart contents. Entries pass through the
// same identity canonicalization as the local mirror, so lines keyed by "id"
// and by "productId" come back indistinguishable.
func (c *Client) CartItems(ctx context.Context) ([]collection.Entry, error) {
	var entries []collection.Entry
	if err := c.do(ctx, http.MethodGet, "/cart/items", nil, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}
