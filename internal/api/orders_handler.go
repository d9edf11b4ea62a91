package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/storefront/internal/client"
	"github.com/fjod/storefront/internal/session"
)

type OrdersReader interface {
	ListUserOrders(ctx context.Context, userID string) ([]client.Order, error)
	TrackOrder(ctx context.Context, orderID, trackingNumber string) (*client.Delivery, error)
}

type OrdersHandler struct {
	orders  OrdersReader
	timeout time.Duration
}

func NewOrdersHandler(orders OrdersReader, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		orders:  orders,
		timeout: timeout,
	}
}

// GET /api/v1/orders
func (h *OrdersHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	sess := session.FromContext(ctx)
	orders, err := h.orders.ListUserOrders(client.WithToken(ctx, sess.Token), sess.Principal.ID)
	if err != nil {
		handleClientError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, orders)
}

// GET /api/v1/orders/{order_id}/track/{tracking_number}
func (h *OrdersHandler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	orderID := chi.URLParam(r, "order_id")
	trackingNumber := chi.URLParam(r, "tracking_number")
	if orderID == "" || trackingNumber == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "order_id and tracking_number are required")
		return
	}

	sess := session.FromContext(ctx)
	delivery, err := h.orders.TrackOrder(client.WithToken(ctx, sess.Token), orderID, trackingNumber)
	if err != nil {
		handleClientError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, delivery)
}
