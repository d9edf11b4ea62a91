package service

import (
	"context"
	"errors"

	d "github.com/fjod/storefront/internal/checkout/domain"
	"github.com/fjod/storefront/internal/client"
	"github.com/fjod/storefront/internal/payment"
)

var (
	ErrAmountMismatch  = errors.New("payment amount does not match order total")
	ErrPaymentDeclined = errors.New("payment declined")
)

// reasonFor folds an error from a checkout step into the closed reason set.
// rejected is what a 4xx from that step's upstream means.
func reasonFor(err error, rejected d.FailureReason) d.FailureReason {
	switch {
	case err == nil:
		return d.ReasonNone
	case errors.Is(err, client.ErrAuthenticationRequired):
		return d.ReasonAuthenticationRequired
	case errors.Is(err, client.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return d.ReasonTimeout
	case errors.Is(err, client.ErrUnavailable):
		return d.ReasonUnavailable
	case errors.Is(err, client.ErrRejected):
		return rejected
	case errors.Is(err, ErrPaymentDeclined):
		return d.ReasonPaymentDeclined
	case errors.Is(err, ErrAmountMismatch):
		return d.ReasonAmountMismatch
	case errors.Is(err, payment.ErrInvalidDetails), errors.Is(err, payment.ErrUnknownMethod):
		return d.ReasonInvalidPaymentDetails
	default:
		return d.ReasonInternal
	}
}
