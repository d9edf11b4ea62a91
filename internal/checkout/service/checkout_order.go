package service

import (
	"context"
	"errors"

	d "github.com/fjod/storefront/internal/checkout/domain"
	"github.com/fjod/storefront/internal/client"
)

var (
	errNotAuthenticated = errors.New("checkout requires an authenticated session")
	errEmptyCart        = errors.New("cart is empty, nothing to checkout")
)

func (s *CheckoutServiceImpl) createOrder(ctx context.Context, attempt *d.Attempt, req d.CheckoutRequest) error {
	if err := attempt.Transition(d.CheckoutStatusCreatingOrder, s.now()); err != nil {
		return err
	}
	attempt.TransactionID = req.TransactionID

	orderCtx, cancel := context.WithTimeout(ctx, s.order.timeout)
	defer cancel()

	items := make([]client.OrderItem, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, client.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	resp, err := s.order.orderClient.CreateOrder(orderCtx, client.CreateOrderRequest{
		UserID:        req.UserID,
		TotalAmount:   req.TotalAmount.InexactFloat64(),
		TransactionID: req.TransactionID,
		OrderItems:    items,
	})
	if err != nil {
		return err
	}

	attempt.OrderID = resp.ID
	return nil
}
