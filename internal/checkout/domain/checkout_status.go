package domain

type CheckoutStatus string

const (
	CheckoutStatusIdle            CheckoutStatus = "IDLE"
	CheckoutStatusValidating      CheckoutStatus = "VALIDATING"
	CheckoutStatusCreatingOrder   CheckoutStatus = "CREATING_ORDER"
	CheckoutStatusAwaitingPayment CheckoutStatus = "AWAITING_PAYMENT"
	CheckoutStatusSucceeded       CheckoutStatus = "SUCCEEDED"
	CheckoutStatusFailed          CheckoutStatus = "FAILED"
)

func (s CheckoutStatus) IsTerminal() bool {
	return s == CheckoutStatusSucceeded || s == CheckoutStatusFailed
}

// String representation (for logging)
func (s CheckoutStatus) String() string {
	return string(s)
}

var transitions = map[CheckoutStatus][]CheckoutStatus{
	CheckoutStatusIdle:            {CheckoutStatusValidating},
	CheckoutStatusValidating:      {CheckoutStatusCreatingOrder, CheckoutStatusFailed},
	CheckoutStatusCreatingOrder:   {CheckoutStatusAwaitingPayment, CheckoutStatusFailed},
	CheckoutStatusAwaitingPayment: {CheckoutStatusSucceeded, CheckoutStatusFailed},
}

// CanTransitionTo reports whether an attempt in from may move to to.
// Terminal statuses have no way out.
func CanTransitionTo(from, to CheckoutStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}
