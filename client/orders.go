package client

import (
	"context"
	"net/http"
	"time"
)

// Order is one placed order as returned by the order endpoints.
type Order struct {
	ID        int64     `json:"id"`
	Total     float64   `json:"total"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// CreateOrder turns the server-side cart into an order. Stock conflicts come
// back as 400 and surface inline to the caller.
func (c *Client) CreateOrder(ctx context.Context) (*MessageResponse, error) {
	var resp MessageResponse
	if err := c.do(ctx, http.MethodPost, "/order", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Orders lists the authenticated user's orders.
func (c *Client) Orders(ctx context.Context) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/order/history", nil, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}
