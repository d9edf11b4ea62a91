package service

import (
	"context"
	"strings"
	"time"

	d "github.com/fjod/storefront/internal/checkout/domain"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/notify"
)

const (
	warnCartNotCleared = "Your order was placed but the cart could not be emptied."
	warnNotNotified    = "Payment successful! Email confirmation failed."
)

// complete settles a paid attempt. Nothing after the payment can undo
// SUCCEEDED; follow-up failures become warnings.
func (s *CheckoutServiceImpl) complete(ctx context.Context, attempt *d.Attempt, c Cart, in Input) error {
	if err := attempt.Transition(d.CheckoutStatusSucceeded, s.now()); err != nil {
		return err
	}

	if err := c.Clear(ctx); err != nil {
		logger.Printf(ctx, "checkout %s: failed to clear cart: %v", attempt.ID, err)
		attempt.Warning = warnCartNotCleared
	}

	if err := s.notify(ctx, attempt, in); err != nil {
		logger.Printf(ctx, "checkout %s: confirmation for order %s failed: %v", attempt.ID, attempt.OrderID, err)
		if attempt.Warning == "" {
			attempt.Warning = warnNotNotified
		}
	}
	return nil
}

func (s *CheckoutServiceImpl) notify(ctx context.Context, attempt *d.Attempt, in Input) error {
	if s.notification == nil || s.notification.notifier == nil {
		return nil
	}

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.notification.timeout)
	defer cancel()
	return s.notification.notifier.OrderConfirmed(notifyCtx, confirmationFor(attempt, in, s.now()))
}

func confirmationFor(attempt *d.Attempt, in Input, at time.Time) notify.Confirmation {
	snap := attempt.Snapshot
	items := make([]notify.ConfirmationItem, 0, len(snap.Lines))
	for _, l := range snap.Lines {
		items = append(items, notify.ConfirmationItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPriceCurrent.StringFixed(2),
		})
	}

	c := notify.Confirmation{
		OrderID:       attempt.OrderID,
		TransactionID: attempt.PaymentID,
		UserID:        attempt.UserID,
		Items:         items,
		Subtotal:      snap.Subtotal.StringFixed(2),
		Shipping:      snap.Shipping.StringFixed(2),
		Total:         snap.Total.StringFixed(2),
		ConfirmedAt:   at,
	}
	if in.Billing != nil {
		c.Email = in.Billing.Email
		c.CustomerName = strings.TrimSpace(in.Billing.FirstName + " " + in.Billing.LastName)
	}
	if in.Delivery != nil {
		c.Region = in.Delivery.Region
		c.Town = in.Delivery.Town
	}
	return c
}
