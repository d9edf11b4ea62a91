// Package api serves the order API the storefront checkout talks to.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/orders/domain"
	"github.com/fjod/storefront/internal/orders/repository"
	"github.com/fjod/storefront/internal/session"
)

type TokenVerifier interface {
	Verify(token string) (*session.Principal, error)
}

type OrdersHandler struct {
	repo     repository.OrderRepository
	verifier TokenVerifier
	timeout  time.Duration
	now      func() time.Time
}

// NewOrdersHandler builds the handler. A nil verifier leaves the API open,
// which is how local and test deployments run it.
func NewOrdersHandler(repo repository.OrderRepository, verifier TokenVerifier, timeout time.Duration) *OrdersHandler {
	return &OrdersHandler{
		repo:     repo,
		verifier: verifier,
		timeout:  timeout,
		now:      time.Now,
	}
}

type OrderItemDTO struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CreateOrderRequestDTO struct {
	UserID        string         `json:"userId"`
	TotalAmount   float64        `json:"totalAmount"`
	TransactionID string         `json:"transactionId"`
	OrderItems    []OrderItemDTO `json:"orderItems"`
}

type CreateOrderResponseDTO struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

type DeliveryDTO struct {
	TrackingNumber string    `json:"trackingNumber"`
	Carrier        string    `json:"carrier"`
	Status         string    `json:"status"`
	Region         string    `json:"region,omitempty"`
	Town           string    `json:"town,omitempty"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

type OrderResponseDTO struct {
	ID            string         `json:"id"`
	UserID        string         `json:"userId"`
	TotalAmount   float64        `json:"totalAmount"`
	TransactionID string         `json:"transactionId"`
	OrderItems    []OrderItemDTO `json:"orderItems"`
	Status        string         `json:"status"`
	Delivery      []DeliveryDTO  `json:"delivery"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (h *OrdersHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(h.authenticate)
	r.Route("/orders", func(r chi.Router) {
		r.Post("/", h.CreateOrder)
		r.Get("/user/{user_id}", h.ListUserOrders)
		r.Get("/{order_id}", h.GetOrder)
		r.Get("/{order_id}/track/{tracking_number}", h.TrackOrder)
		r.Post("/{order_id}/delivery", h.AddDelivery)
	})
	return r
}

// POST /orders
func (h *OrdersHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CreateOrderRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if !h.mayActFor(r.Context(), req.UserID) {
		respondError(w, http.StatusForbidden, "forbidden", "cannot place orders for another user")
		return
	}

	items := make([]domain.OrderItem, 0, len(req.OrderItems))
	for _, it := range req.OrderItems {
		items = append(items, domain.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	order, err := domain.NewOrder(req.UserID, decimal.NewFromFloat(req.TotalAmount), req.TransactionID, items, h.now().UTC())
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order", err.Error())
		return
	}

	if err := h.repo.CreateOrder(ctx, order); err != nil {
		handleRepoError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, CreateOrderResponseDTO{ID: order.ID.String(), Status: string(order.Status)})
}

// GET /orders/user/{user_id}
func (h *OrdersHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := chi.URLParam(r, "user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "missing_user_id", "user_id is required")
		return
	}
	if !h.mayActFor(r.Context(), userID) {
		respondError(w, http.StatusForbidden, "forbidden", "cannot list orders of another user")
		return
	}

	orders, err := h.repo.ListOrdersByUserID(ctx, userID)
	if err != nil {
		handleRepoError(w, err)
		return
	}

	dtos := make([]OrderResponseDTO, 0, len(orders))
	for _, o := range orders {
		dtos = append(dtos, convertOrder(o))
	}
	respondJSON(w, http.StatusOK, dtos)
}

// GET /orders/{order_id}
func (h *OrdersHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, convertOrder(order))
}

// GET /orders/{order_id}/track/{tracking_number}
func (h *OrdersHandler) TrackOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOrder(w, r)
	if !ok {
		return
	}

	delivery, found := order.Shipment(chi.URLParam(r, "tracking_number"))
	if !found {
		respondError(w, http.StatusNotFound, "not_found", "no delivery with this tracking number")
		return
	}
	respondJSON(w, http.StatusOK, convertDelivery(delivery))
}

// POST /orders/{order_id}/delivery
func (h *OrdersHandler) AddDelivery(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if h.verifier != nil && !session.FromContext(r.Context()).IsAdmin() {
		respondError(w, http.StatusForbidden, "forbidden", "admin role required")
		return
	}
	id, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a uuid")
		return
	}

	var req DeliveryDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.TrackingNumber == "" || req.Carrier == "" {
		respondError(w, http.StatusBadRequest, "invalid_delivery", "trackingNumber and carrier are required")
		return
	}
	if req.Status == "" {
		req.Status = "in_transit"
	}

	order, err := h.repo.AddDelivery(ctx, id, domain.Delivery{
		TrackingNumber: req.TrackingNumber,
		Carrier:        req.Carrier,
		Status:         req.Status,
		Region:         req.Region,
		Town:           req.Town,
		UpdatedAt:      h.now().UTC(),
	})
	if err != nil {
		handleRepoError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, convertOrder(order))
}

func (h *OrdersHandler) loadOrder(w http.ResponseWriter, r *http.Request) (*domain.Order, bool) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	id, err := uuid.Parse(chi.URLParam(r, "order_id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_order_id", "order_id must be a uuid")
		return nil, false
	}

	order, err := h.repo.GetOrderByID(ctx, id)
	if err != nil {
		handleRepoError(w, err)
		return nil, false
	}
	// someone else's order looks the same as a missing one
	if !h.mayActFor(r.Context(), order.UserID) {
		respondError(w, http.StatusNotFound, "not_found", repository.ErrOrderNotFound.Error())
		return nil, false
	}
	return order, true
}

func (h *OrdersHandler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.verifier == nil {
			next.ServeHTTP(w, r)
			return
		}

		token, found := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !found || token == "" {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "missing bearer token")
			return
		}
		principal, err := h.verifier.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "unauthenticated", "invalid or expired token")
			return
		}

		ctx := session.WithSession(r.Context(), session.Session{Principal: principal, Token: token})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (h *OrdersHandler) mayActFor(ctx context.Context, userID string) bool {
	if h.verifier == nil {
		return true
	}
	sess := session.FromContext(ctx)
	return sess.IsAdmin() || (sess.IsAuthenticated() && sess.Principal.ID == userID)
}

func handleRepoError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, repository.ErrDuplicateTransaction):
		respondError(w, http.StatusConflict, "already_exists", err.Error())
	case errors.Is(err, repository.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		respondError(w, http.StatusGatewayTimeout, "timeout", "database timed out")
	default:
		log.Printf("orders: %v", err)
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func convertOrder(o *domain.Order) OrderResponseDTO {
	items := make([]OrderItemDTO, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemDTO{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	deliveries := make([]DeliveryDTO, 0, len(o.Delivery))
	for _, d := range o.Delivery {
		deliveries = append(deliveries, convertDelivery(d))
	}

	return OrderResponseDTO{
		ID:            o.ID.String(),
		UserID:        o.UserID,
		TotalAmount:   o.TotalAmount.InexactFloat64(),
		TransactionID: o.TransactionID,
		OrderItems:    items,
		Status:        string(o.Status),
		Delivery:      deliveries,
		CreatedAt:     o.CreatedAt,
		UpdatedAt:     o.UpdatedAt,
	}
}

func convertDelivery(d domain.Delivery) DeliveryDTO {
	return DeliveryDTO{
		TrackingNumber: d.TrackingNumber,
		Carrier:        d.Carrier,
		Status:         d.Status,
		Region:         d.Region,
		Town:           d.Town,
		UpdatedAt:      d.UpdatedAt,
	}
}
