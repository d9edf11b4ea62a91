package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	d "github.com/fjod/storefront/internal/checkout/domain"
	checkoutservice "github.com/fjod/storefront/internal/checkout/service"
	"github.com/fjod/storefront/internal/payment"
	"github.com/fjod/storefront/internal/session"
)

type CheckoutHandler struct {
	checkout checkoutservice.CheckoutService
	carts    CartOpener
	timeout  time.Duration
}

func NewCheckoutHandler(checkout checkoutservice.CheckoutService, carts CartOpener, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		carts:    carts,
		timeout:  timeout,
	}
}

type CheckoutRequestDTO struct {
	PaymentMethod   string                   `json:"payment_method"`
	Payment         payment.MethodFields     `json:"payment"`
	BillingAddress  *payment.BillingAddress  `json:"billing_address,omitempty"`
	DeliveryDetails *payment.DeliveryDetails `json:"delivery_details,omitempty"`
}

// POST /api/v1/checkout
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CheckoutRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	method, err := payment.ParseMethod(req.PaymentMethod, req.Payment)
	if err != nil {
		code := string(d.ReasonInvalidPaymentDetails)
		if errors.Is(err, payment.ErrUnknownMethod) {
			respondError(w, http.StatusBadRequest, code, "unsupported payment method")
			return
		}
		respondError(w, http.StatusBadRequest, code, err.Error())
		return
	}

	sess := session.FromContext(ctx)
	// an anonymous attempt stops at validation and never touches the cart
	store, err := cartFor(ctx, h.carts, sess, sess.IsAuthenticated())
	if err != nil {
		respondError(w, http.StatusServiceUnavailable, string(d.ReasonUnavailable), "the cart is temporarily unavailable")
		return
	}

	result := h.checkout.Checkout(ctx, sess, store, checkoutservice.Input{
		Method:   method,
		Billing:  req.BillingAddress,
		Delivery: req.DeliveryDetails,
	})
	respondJSON(w, statusForResult(result), result)
}

// GET /api/v1/checkout/{attempt_id}
func (h *CheckoutHandler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	result, ok := h.checkout.Attempt(chi.URLParam(r, "attempt_id"), sess.Principal.ID)
	if !ok {
		respondError(w, http.StatusNotFound, "not_found", "checkout attempt not found")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// statusForResult picks the HTTP status of a finished attempt. The body is
// always the full result; navigation is left to the caller.
func statusForResult(r *d.Result) int {
	if r.Succeeded() {
		return http.StatusCreated
	}
	switch r.Reason {
	case d.ReasonNotAuthenticated, d.ReasonAuthenticationRequired:
		return http.StatusUnauthorized
	case d.ReasonEmptyCart, d.ReasonAmountMismatch:
		return http.StatusConflict
	case d.ReasonInvalidPaymentDetails, d.ReasonOrderRejected:
		return http.StatusUnprocessableEntity
	case d.ReasonPaymentDeclined:
		return http.StatusPaymentRequired
	case d.ReasonTimeout:
		return http.StatusGatewayTimeout
	case d.ReasonUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
