package client

import (
	"context"
	"net/http"
	"time"

	"github.com/fjod/storefront/internal/payment"
)

type PaymentsClient struct {
	*Client
}

func NewPaymentsClient(baseURL string, timeout time.Duration, opts ...Option) *PaymentsClient {
	return &PaymentsClient{Client: New("payments-api", baseURL, timeout, opts...)}
}

// Initiate returns the gateway's answer. A declined payment is a response,
// not an error.
func (c *PaymentsClient) Initiate(ctx context.Context, req payment.Request) (*payment.Response, error) {
	var resp payment.Response
	if err := c.do(ctx, http.MethodPost, "/payments", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}
