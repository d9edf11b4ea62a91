package payment

import (
	"fmt"

	"github.com/shopspring/decimal"
)

type Adapter struct {
	countryPrefix string
}

func NewAdapter(countryPrefix string) *Adapter {
	if countryPrefix == "" {
		countryPrefix = DefaultCountryPrefix
	}
	return &Adapter{countryPrefix: countryPrefix}
}

// Validate checks what can be checked without a gateway round trip.
func (a *Adapter) Validate(m Method) error {
	switch m := m.(type) {
	case Mpesa:
		phone := NormalizePhone(m.Phone, a.countryPrefix)
		if !ValidCanonical(phone, a.countryPrefix) {
			return fmt.Errorf("%w: phone number %q", ErrInvalidDetails, phone)
		}
		return nil
	case CreditCard, PayPal:
		return nil
	case nil:
		return fmt.Errorf("%w: no payment method", ErrInvalidDetails)
	default:
		return fmt.Errorf("%w: %T", ErrUnknownMethod, m)
	}
}

// Build shapes one payment request. The amount is rounded to cents, the
// precision the gateway works in.
func (a *Adapter) Build(m Method, orderID string, amount decimal.Decimal, billing *BillingAddress, delivery *DeliveryDetails) (Request, error) {
	if err := a.Validate(m); err != nil {
		return Request{}, err
	}

	req := Request{
		OrderID:         orderID,
		PaymentMethod:   m.Name(),
		Amount:          amount.Round(2).InexactFloat64(),
		BillingAddress:  billing,
		DeliveryDetails: delivery,
	}
	switch m := m.(type) {
	case Mpesa:
		req.PhoneNo = NormalizePhone(m.Phone, a.countryPrefix)
	case CreditCard:
		card := m
		req.Card = &card
	}
	return req, nil
}

type Outcome struct {
	Success       bool
	TransactionID string
	Status        Status
	Message       string
}

// Accepted is true once the gateway has taken the payment, including
// mobile-money pushes still waiting on the customer.
func (o Outcome) Accepted() bool {
	return o.Success && o.Status != StatusFailed
}

func (a *Adapter) Interpret(resp Response) Outcome {
	status := resp.Status
	switch status {
	case StatusPending, StatusCompleted, StatusFailed:
	default:
		if resp.Success {
			status = StatusCompleted
		} else {
			status = StatusFailed
		}
	}
	if !resp.Success {
		status = StatusFailed
	}

	return Outcome{
		Success:       resp.Success,
		TransactionID: resp.TransactionID,
		Status:        status,
		Message:       resp.Message,
	}
}
