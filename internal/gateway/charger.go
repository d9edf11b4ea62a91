package gateway

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"

	"github.com/fjod/storefront/internal/payment"
)

var ErrCardDeclined = errors.New("card declined")

// Charge is what a card processor made of one payment.
type Charge struct {
	ID     string
	Status payment.Status
}

type CardCharger interface {
	Charge(ctx context.Context, req payment.Request) (Charge, error)
}

// StripeCharger opens a PaymentIntent per card payment. The card itself is
// confirmed client-side, so a fresh intent reports pending.
type StripeCharger struct {
	currency  string
	newIntent func(*stripe.PaymentIntentParams) (*stripe.PaymentIntent, error)
}

func NewStripeCharger(secretKey, currency string) *StripeCharger {
	stripe.Key = secretKey
	return &StripeCharger{
		currency:  strings.ToLower(currency),
		newIntent: paymentintent.New,
	}
}

func (s *StripeCharger) Charge(ctx context.Context, req payment.Request) (Charge, error) {
	if err := ctx.Err(); err != nil {
		return Charge{}, err
	}

	cents := decimal.NewFromFloat(req.Amount).Shift(2).Round(0).IntPart()
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(cents),
		Currency: stripe.String(s.currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
		Description: stripe.String("Order " + req.OrderID),
	}
	params.AddMetadata("order_id", req.OrderID)
	if req.BillingAddress != nil && req.BillingAddress.Email != "" {
		params.ReceiptEmail = stripe.String(req.BillingAddress.Email)
	}

	intent, err := s.newIntent(params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) && stripeErr.Type == stripe.ErrorTypeCard {
			return Charge{}, fmt.Errorf("%w: %s", ErrCardDeclined, stripeErr.Msg)
		}
		return Charge{}, fmt.Errorf("create payment intent: %w", err)
	}

	return Charge{ID: intent.ID, Status: intentStatus(intent.Status)}, nil
}

func intentStatus(s stripe.PaymentIntentStatus) payment.Status {
	switch s {
	case stripe.PaymentIntentStatusSucceeded:
		return payment.StatusCompleted
	case stripe.PaymentIntentStatusCanceled:
		return payment.StatusFailed
	default:
		return payment.StatusPending
	}
}
