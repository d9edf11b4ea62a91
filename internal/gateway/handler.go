// Package gateway serves the payment API: mobile money and PayPal are
// simulated, cards go through Stripe when a key is configured.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fjod/storefront/internal/payment"
)

type PaymentsHandler struct {
	status        StatusSource
	cards         CardCharger
	countryPrefix string
	timeout       time.Duration
}

type Option func(*PaymentsHandler)

// WithCardCharger routes card payments to c instead of the simulator.
func WithCardCharger(c CardCharger) Option {
	return func(h *PaymentsHandler) { h.cards = c }
}

func NewPaymentsHandler(status StatusSource, timeout time.Duration, opts ...Option) *PaymentsHandler {
	h := &PaymentsHandler{
		status:        status,
		countryPrefix: payment.DefaultCountryPrefix,
		timeout:       timeout,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *PaymentsHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Post("/payments", h.Initiate)
	return r
}

// POST /payments
func (h *PaymentsHandler) Initiate(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req payment.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, failed("invalid JSON body"))
		return
	}
	if msg := h.validate(req); msg != "" {
		respondJSON(w, http.StatusBadRequest, failed(msg))
		return
	}

	if req.PaymentMethod == payment.MethodCreditCard && h.cards != nil {
		h.chargeCard(ctx, w, req)
		return
	}

	decision := h.status.GetStatus()
	if !decision.Approved {
		log.Printf("payment for order %s declined: %s", req.OrderID, decision.Reason)
		respondJSON(w, http.StatusOK, failed("Payment declined: "+decision.Reason))
		return
	}

	resp := payment.Response{
		Success:       true,
		TransactionID: "TXN-" + uuid.NewString(),
		Status:        payment.StatusCompleted,
		Message:       "Payment completed",
	}
	if req.PaymentMethod == payment.MethodMpesa {
		// STK push: the customer still has to confirm on the handset
		resp.Status = payment.StatusPending
		resp.Message = "STK push sent to " + req.PhoneNo
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *PaymentsHandler) chargeCard(ctx context.Context, w http.ResponseWriter, req payment.Request) {
	charge, err := h.cards.Charge(ctx, req)
	switch {
	case errors.Is(err, ErrCardDeclined):
		respondJSON(w, http.StatusOK, failed(err.Error()))
		return
	case errors.Is(err, context.DeadlineExceeded):
		respondJSON(w, http.StatusGatewayTimeout, failed("card processor timed out"))
		return
	case err != nil:
		log.Printf("card payment for order %s failed: %v", req.OrderID, err)
		respondJSON(w, http.StatusBadGateway, failed("card processor unavailable"))
		return
	}

	respondJSON(w, http.StatusOK, payment.Response{
		Success:       charge.Status != payment.StatusFailed,
		TransactionID: charge.ID,
		Status:        charge.Status,
		Message:       "Card payment " + string(charge.Status),
	})
}

func (h *PaymentsHandler) validate(req payment.Request) string {
	if req.OrderID == "" {
		return "orderId is required"
	}
	if req.Amount <= 0 {
		return "amount must be positive"
	}
	switch req.PaymentMethod {
	case payment.MethodMpesa:
		if !payment.ValidCanonical(req.PhoneNo, h.countryPrefix) {
			return "phoneNo must be a valid mobile number"
		}
	case payment.MethodCreditCard:
		if req.Card == nil || req.Card.Number == "" {
			return "card details are required"
		}
	case payment.MethodPayPal:
	default:
		return "unsupported payment method"
	}
	return ""
}

func failed(msg string) payment.Response {
	return payment.Response{Success: false, Status: payment.StatusFailed, Message: msg}
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}
