package service

import (
	"context"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	d "github.com/fjod/storefront/internal/checkout/domain"
	"github.com/fjod/storefront/internal/client"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/session"
)

var tracer = otel.Tracer("github.com/fjod/storefront/internal/checkout/service")

func newUUID() string {
	return uuid.NewString()
}

// Checkout runs one attempt to a terminal status. Order creation always
// resolves before payment starts, and the cart is only cleared after the
// gateway accepted the payment.
func (s *CheckoutServiceImpl) Checkout(ctx context.Context, sess session.Session, c Cart, in Input) *d.Result {
	userID := ""
	if sess.IsAuthenticated() {
		userID = sess.Principal.ID
	}
	attempt := d.NewAttempt(s.newID(), userID, s.now())

	ctx, span := tracer.Start(ctx, "checkout")
	span.SetAttributes(attribute.String("checkout.attempt_id", attempt.ID))
	defer span.End()
	defer s.finish(ctx, attempt)

	if err := s.validate(attempt, sess, c, in); err != nil {
		return attempt.Result()
	}

	// Once the order is requested the attempt runs to a terminal status even
	// if the caller goes away; only the per-step timeouts bound it.
	ctx = client.WithToken(context.WithoutCancel(ctx), sess.Token)
	req := d.NewCheckoutRequest(userID, "tx_"+s.newID(), attempt.Snapshot)

	if err := s.createOrder(ctx, attempt, req); err != nil {
		logger.Printf(ctx, "checkout %s: order creation failed: %v", attempt.ID, err)
		s.fail(attempt, reasonFor(err, d.ReasonOrderRejected))
		return attempt.Result()
	}

	if err := s.processPayment(ctx, attempt, req, in); err != nil {
		logger.Printf(ctx, "checkout %s: payment for order %s failed: %v", attempt.ID, attempt.OrderID, err)
		s.fail(attempt, reasonFor(err, d.ReasonPaymentDeclined))
		return attempt.Result()
	}

	if err := s.complete(ctx, attempt, c, in); err != nil {
		logger.Printf(ctx, "checkout %s: %v", attempt.ID, err)
		s.fail(attempt, reasonFor(err, d.ReasonInternal))
	}
	return attempt.Result()
}

func (s *CheckoutServiceImpl) validate(attempt *d.Attempt, sess session.Session, c Cart, in Input) error {
	if err := attempt.Transition(d.CheckoutStatusValidating, s.now()); err != nil {
		s.fail(attempt, d.ReasonInternal)
		return err
	}

	if !sess.IsAuthenticated() {
		s.fail(attempt, d.ReasonNotAuthenticated)
		return errNotAuthenticated
	}

	attempt.Snapshot = c.Snapshot()
	if attempt.Snapshot.IsEmpty() {
		s.fail(attempt, d.ReasonEmptyCart)
		return errEmptyCart
	}

	if err := s.payment.adapter.Validate(in.Method); err != nil {
		s.fail(attempt, d.ReasonInvalidPaymentDetails)
		return err
	}

	if err := s.checkAmount(attempt.Snapshot.Total, in); err != nil {
		s.fail(attempt, reasonFor(err, d.ReasonInternal))
		return err
	}
	return nil
}

func (s *CheckoutServiceImpl) fail(attempt *d.Attempt, reason d.FailureReason) {
	attempt.Fail(reason, s.now())
}

func (s *CheckoutServiceImpl) finish(ctx context.Context, attempt *d.Attempt) {
	if !attempt.Status.IsTerminal() {
		// a step returned without settling the attempt
		s.fail(attempt, d.ReasonInternal)
	}
	if s.metrics != nil {
		s.metrics.Observe(attempt.Status.String(), string(attempt.Reason), attempt.Duration())
	}
	if attempt.UserID != "" {
		s.attempts.Add(attempt.UserID, attempt.Result())
	}
	logger.Printf(ctx, "checkout %s for user %q finished: status=%s reason=%s order=%s",
		attempt.ID, attempt.UserID, attempt.Status, attempt.Reason, attempt.OrderID)
}

// Attempt returns a finished attempt of userID.
func (s *CheckoutServiceImpl) Attempt(attemptID, userID string) (*d.Result, bool) {
	return s.attempts.Get(attemptID, userID)
}
