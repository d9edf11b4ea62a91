package client

import (
	"context"
	"net/http"
	"net/url"
	"time"
)

// CartAPI is the server-side cart the local cart is mirrored to.
type CartAPI struct {
	*Client
}

func NewCartAPI(baseURL string, timeout time.Duration, opts ...Option) *CartAPI {
	return &CartAPI{Client: New("cart-api", baseURL, timeout, opts...)}
}

type cartQuantity struct {
	ProductID string `json:"productId,omitempty"`
	Quantity  int    `json:"quantity"`
}

func (c *CartAPI) AddItem(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, http.MethodPost, "/cart", cartQuantity{ProductID: productID, Quantity: quantity}, nil)
}

func (c *CartAPI) RemoveQuantity(ctx context.Context, productID string, quantity int) error {
	return c.do(ctx, http.MethodPost, "/cart/"+url.PathEscape(productID)+"/remove", cartQuantity{Quantity: quantity}, nil)
}

func (c *CartAPI) RemoveItem(ctx context.Context, productID string) error {
	return c.do(ctx, http.MethodDelete, "/cart/"+url.PathEscape(productID), nil, nil)
}
