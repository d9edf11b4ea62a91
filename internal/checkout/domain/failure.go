package domain

type FailureReason string

const (
	ReasonNone                   FailureReason = ""
	ReasonNotAuthenticated       FailureReason = "NOT_AUTHENTICATED"
	ReasonEmptyCart              FailureReason = "EMPTY_CART"
	ReasonAmountMismatch         FailureReason = "AMOUNT_MISMATCH"
	ReasonInvalidPaymentDetails  FailureReason = "INVALID_PAYMENT_DETAILS"
	ReasonAuthenticationRequired FailureReason = "AUTHENTICATION_REQUIRED"
	ReasonOrderRejected          FailureReason = "ORDER_REJECTED"
	ReasonPaymentDeclined        FailureReason = "PAYMENT_DECLINED"
	ReasonTimeout                FailureReason = "TIMEOUT"
	ReasonUnavailable            FailureReason = "UNAVAILABLE"
	ReasonInternal               FailureReason = "INTERNAL"
)

var reasonMessages = map[FailureReason]string{
	ReasonNotAuthenticated:       "Please sign in to check out.",
	ReasonEmptyCart:              "Your cart is empty.",
	ReasonAmountMismatch:         "The payment amount did not match your order. Nothing was charged.",
	ReasonInvalidPaymentDetails:  "Please check your payment details.",
	ReasonAuthenticationRequired: "Your session has expired. Please sign in again.",
	ReasonOrderRejected:          "We could not place your order.",
	ReasonPaymentDeclined:        "Payment failed. Please try again.",
	ReasonTimeout:                "The request took too long. Please try again.",
	ReasonUnavailable:            "The service is temporarily unavailable. Please try again.",
	ReasonInternal:               "Something went wrong. Please try again.",
}

// Retryable reasons are worth a fresh attempt with the same input.
func (r FailureReason) Retryable() bool {
	return r == ReasonTimeout || r == ReasonUnavailable
}

func (r FailureReason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return ""
}

// Redirect tells the caller where the user should go next. The checkout
// itself never navigates.
type Redirect string

const (
	RedirectNone  Redirect = "NONE"
	RedirectLogin Redirect = "LOGIN"
	RedirectCart  Redirect = "CART"
)

func (r FailureReason) Redirect() Redirect {
	switch r {
	case ReasonNotAuthenticated, ReasonAuthenticationRequired:
		return RedirectLogin
	case ReasonEmptyCart:
		return RedirectCart
	default:
		return RedirectNone
	}
}
