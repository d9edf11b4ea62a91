package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

type OrderItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequest struct {
	UserID        string      `json:"userId"`
	TotalAmount   float64     `json:"totalAmount"`
	TransactionID string      `json:"transactionId"`
	OrderItems    []OrderItem `json:"orderItems"`
}

type CreateOrderResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type Delivery struct {
	TrackingNumber string    `json:"trackingNumber"`
	Carrier        string    `json:"carrier"`
	Status         string    `json:"status"`
	Region         string    `json:"region,omitempty"`
	Town           string    `json:"town,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type Order struct {
	ID            string      `json:"id"`
	UserID        string      `json:"userId"`
	TotalAmount   float64     `json:"totalAmount"`
	TransactionID string      `json:"transactionId"`
	OrderItems    []OrderItem `json:"orderItems"`
	Status        string      `json:"status"`
	Delivery      []Delivery  `json:"delivery"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

type OrdersClient struct {
	*Client
}

func NewOrdersClient(baseURL string, timeout time.Duration, opts ...Option) *OrdersClient {
	return &OrdersClient{Client: New("orders-api", baseURL, timeout, opts...)}
}

func (c *OrdersClient) CreateOrder(ctx context.Context, req CreateOrderRequest) (*CreateOrderResponse, error) {
	var resp CreateOrderResponse
	if err := c.do(ctx, http.MethodPost, "/orders", req, &resp); err != nil {
		return nil, err
	}
	if resp.ID == "" {
		return nil, &APIError{Service: c.name, Message: "order created without id", kind: ErrUnavailable}
	}
	return &resp, nil
}

// ListUserOrders fills in the fields older order records leave out.
func (c *OrdersClient) ListUserOrders(ctx context.Context, userID string) ([]Order, error) {
	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/orders/user/"+url.PathEscape(userID), nil, &orders); err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range orders {
		o := &orders[i]
		if o.Status == "" {
			o.Status = "pending"
		}
		if o.OrderItems == nil {
			o.OrderItems = []OrderItem{}
		}
		if o.Delivery == nil {
			o.Delivery = []Delivery{}
		}
		if o.CreatedAt.IsZero() {
			o.CreatedAt = now
		}
	}
	if orders == nil {
		orders = []Order{}
	}
	return orders, nil
}

func (c *OrdersClient) TrackOrder(ctx context.Context, orderID, trackingNumber string) (*Delivery, error) {
	var d Delivery
	path := fmt.Sprintf("/orders/%s/track/%s", url.PathEscape(orderID), url.PathEscape(trackingNumber))
	if err := c.do(ctx, http.MethodGet, path, nil, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
