package service

import (
	"context"
	"fmt"

	d "github.com/fjod/storefront/internal/checkout/domain"
	"github.com/shopspring/decimal"
)

func (s *CheckoutServiceImpl) processPayment(ctx context.Context, attempt *d.Attempt, req d.CheckoutRequest, in Input) error {
	if err := attempt.Transition(d.CheckoutStatusAwaitingPayment, s.now()); err != nil {
		return err
	}

	payReq, err := s.payment.adapter.Build(in.Method, attempt.OrderID, req.TotalAmount, in.Billing, in.Delivery)
	if err != nil {
		return err
	}

	payCtx, cancel := context.WithTimeout(ctx, s.payment.timeout)
	defer cancel()

	resp, err := s.payment.paymentClient.Initiate(payCtx, payReq)
	if err != nil {
		return err
	}

	outcome := s.payment.adapter.Interpret(*resp)
	attempt.PaymentID = outcome.TransactionID
	attempt.PaymentStatus = outcome.Status
	if !outcome.Accepted() {
		return fmt.Errorf("%w: %s", ErrPaymentDeclined, outcome.Message)
	}
	return nil
}

// checkAmount makes sure the gateway would be asked for exactly the cart
// total. A total the gateway cannot represent is refused before any order
// exists.
func (s *CheckoutServiceImpl) checkAmount(total decimal.Decimal, in Input) error {
	payReq, err := s.payment.adapter.Build(in.Method, "", total, in.Billing, in.Delivery)
	if err != nil {
		return err
	}
	if charged := decimal.NewFromFloat(payReq.Amount); !charged.Equal(total) {
		return fmt.Errorf("%w: cart total %s, payment %s", ErrAmountMismatch, total, charged)
	}
	return nil
}
