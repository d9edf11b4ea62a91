package domain

import (
	"errors"
	"fmt"
	"time"

	cart "github.com/fjod/storefront/internal/cart/domain"
	"github.com/fjod/storefront/internal/payment"
)

var ErrIllegalTransition = errors.New("illegal transition of checkout status")

type Transition struct {
	Status CheckoutStatus `json:"status"`
	At     time.Time      `json:"at"`
}

// Attempt is one run of the checkout state machine over one snapshot.
type Attempt struct {
	ID            string
	UserID        string
	Status        CheckoutStatus
	History       []Transition
	Snapshot      cart.Snapshot
	OrderID       string
	TransactionID string
	PaymentID     string
	PaymentStatus payment.Status
	Reason        FailureReason
	Warning       string
	StartedAt     time.Time
	FinishedAt    time.Time
}

func NewAttempt(id, userID string, at time.Time) *Attempt {
	return &Attempt{
		ID:        id,
		UserID:    userID,
		Status:    CheckoutStatusIdle,
		History:   []Transition{{Status: CheckoutStatusIdle, At: at}},
		StartedAt: at,
	}
}

func (a *Attempt) Transition(to CheckoutStatus, at time.Time) error {
	if !CanTransitionTo(a.Status, to) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, a.Status, to)
	}
	a.Status = to
	a.History = append(a.History, Transition{Status: to, At: at})
	if to.IsTerminal() {
		a.FinishedAt = at
	}
	return nil
}

// Fail ends the attempt with reason. It is a no-op on a finished attempt.
func (a *Attempt) Fail(reason FailureReason, at time.Time) {
	if a.Status.IsTerminal() {
		return
	}
	if a.Status == CheckoutStatusIdle {
		// IDLE has no direct edge to FAILED
		a.Status = CheckoutStatusValidating
		a.History = append(a.History, Transition{Status: CheckoutStatusValidating, At: at})
	}
	a.Reason = reason
	_ = a.Transition(CheckoutStatusFailed, at)
}

func (a *Attempt) Duration() time.Duration {
	if a.FinishedAt.IsZero() {
		return 0
	}
	return a.FinishedAt.Sub(a.StartedAt)
}

func (a *Attempt) Result() *Result {
	r := &Result{
		AttemptID:     a.ID,
		Status:        a.Status,
		OrderID:       a.OrderID,
		TransactionID: a.PaymentID,
		PaymentStatus: a.PaymentStatus,
		Reason:        a.Reason,
		Retryable:     a.Reason.Retryable(),
		Redirect:      a.Reason.Redirect(),
		Warning:       a.Warning,
		Message:       a.Reason.Message(),
	}
	if r.Status == CheckoutStatusSucceeded {
		r.Message = "Payment successful!"
	}
	return r
}
