// Package checkout handles order submission and the persisted order-form
// draft. Submission is a single POST; the flow around it is strictly linear:
// idle, submitting, then either cleared on success or back to idle with the
// error surfaced.
package checkout

import (
	"context"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"

	"github.com/bosanoga/storefront/internal/apiclient"
	"github.com/bosanoga/storefront/internal/cart"
)

const (
	orderEndpoint     = "/api/order"
	idempotencyHeader = "Idempotency-Key"
)

// Owner is the checkout contact block of an order.
type Owner struct {
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// OrderRequest is the wire payload of an order submission.
type OrderRequest struct {
	Owner Owner       `json:"owner"`
	Items []cart.Item `json:"items"`
}

// Client submits orders against the shop API.
type Client struct {
	api    *apiclient.Client
	newKey func() string
}

// NewClient constructs an order submission client.
func NewClient(api *apiclient.Client) *Client {
	return &Client{
		api:    api,
		newKey: func() string { return ulid.Make().String() },
	}
}

// SubmitOrder posts the order. A 2xx response with no body (204 included) is
// success; error responses surface the server-provided message.
func (c *Client) SubmitOrder(ctx context.Context, req OrderRequest) error {
	if err := c.api.PostJSON(ctx, orderEndpoint, req, nil,
		apiclient.WithHeader(idempotencyHeader, c.newKey()),
	); err != nil {
		return fmt.Errorf("checkout: submit order: %w", err)
	}
	return nil
}

func normalizeOwner(owner Owner) Owner {
	owner.Phone = strings.TrimSpace(owner.Phone)
	owner.Address = strings.TrimSpace(owner.Address)
	return owner
}
