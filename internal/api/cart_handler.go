package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/cart/domain"
	cartservice "github.com/fjod/storefront/internal/cart/service"
	"github.com/fjod/storefront/internal/client"
	"github.com/fjod/storefront/internal/logger"
	"github.com/fjod/storefront/internal/session"
)

const maxLineQuantity = 99

// CartOpener hands out carts by owner. *cartservice.Registry satisfies it.
type CartOpener interface {
	Open(ctx context.Context, ownerID string) (*cartservice.CartStore, error)
	View(ctx context.Context, ownerID string) (*cartservice.CartStore, error)
	Adopt(ctx context.Context, guestID, ownerID string) (*cartservice.CartStore, error)
}

// cartFor resolves the cart of the caller. A signed-in caller still sending
// its guest cart id gets the guest lines merged into its own cart. Readers
// get a view so that browsing does not keep stores alive.
func cartFor(ctx context.Context, carts CartOpener, sess session.Session, write bool) (*cartservice.CartStore, error) {
	if sess.IsAuthenticated() && sess.CartID != "" {
		return carts.Adopt(ctx, sess.GuestOwnerID(), sess.OwnerID())
	}
	if write {
		return carts.Open(ctx, sess.OwnerID())
	}
	return carts.View(ctx, sess.OwnerID())
}

type CartHandler struct {
	carts   CartOpener
	syncer  *cartservice.Syncer
	timeout time.Duration
}

func NewCartHandler(carts CartOpener, syncer *cartservice.Syncer, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		syncer:  syncer,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID     string           `json:"product_id"`
	Name          string           `json:"name"`
	UnitPrice     decimal.Decimal  `json:"unit_price"`
	PreviousPrice *decimal.Decimal `json:"previous_price,omitempty"`
	ImageURL      string           `json:"image_url"`
	Quantity      int              `json:"quantity"`
}

type QuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type CartLineDTO struct {
	ProductID     string  `json:"product_id"`
	Name          string  `json:"name"`
	UnitPrice     string  `json:"unit_price"`
	PreviousPrice *string `json:"previous_price,omitempty"`
	Quantity      int     `json:"quantity"`
	ImageURL      string  `json:"image_url"`
	LineTotal     string  `json:"line_total"`
}

type CartResponseDTO struct {
	OwnerID   string        `json:"owner_id"`
	Lines     []CartLineDTO `json:"lines"`
	ItemCount int           `json:"item_count"`
	Subtotal  string        `json:"subtotal"`
	Shipping  string        `json:"shipping"`
	Total     string        `json:"total"`
}

// GET /api/v1/cart
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.open(ctx, w, false)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, convertSnapshot(store.Snapshot()))
}

// POST /api/v1/cart/items
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 || req.Quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}
	if req.UnitPrice.IsNegative() || (req.PreviousPrice != nil && req.PreviousPrice.IsNegative()) {
		respondError(w, http.StatusBadRequest, "invalid_price", "prices cannot be negative")
		return
	}
	if !wholeCents(req.UnitPrice) || (req.PreviousPrice != nil && !wholeCents(*req.PreviousPrice)) {
		respondError(w, http.StatusBadRequest, "invalid_price", "prices are limited to 2 decimal places")
		return
	}

	store, ok := h.open(ctx, w, true)
	if !ok {
		return
	}
	line := domain.CartLine{
		ProductID:         req.ProductID,
		Name:              req.Name,
		UnitPriceCurrent:  req.UnitPrice,
		UnitPricePrevious: req.PreviousPrice,
		ImageURL:          req.ImageURL,
	}
	if err := h.syncer.AddItem(withToken(ctx), store, line, req.Quantity); err != nil {
		logger.Printf(ctx, "add %s to cart %s: %v", req.ProductID, store.OwnerID(), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not update the cart")
		return
	}

	respondJSON(w, http.StatusCreated, convertSnapshot(store.Snapshot()))
}

// POST /api/v1/cart/items/{product_id}/subtract
func (h *CartHandler) SubtractItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	req := QuantityRequestDTO{Quantity: 1}
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
			return
		}
	}
	if req.Quantity <= 0 || req.Quantity > maxLineQuantity {
		respondError(w, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	store, ok := h.open(ctx, w, true)
	if !ok {
		return
	}
	if _, found := store.Line(productID); !found {
		respondError(w, http.StatusNotFound, "not_found", "product is not in the cart")
		return
	}
	if _, err := h.syncer.SubtractItem(withToken(ctx), store, productID, req.Quantity); err != nil {
		logger.Printf(ctx, "subtract %s from cart %s: %v", productID, store.OwnerID(), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not update the cart")
		return
	}

	respondJSON(w, http.StatusOK, convertSnapshot(store.Snapshot()))
}

// DELETE /api/v1/cart/items/{product_id}
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	productID := chi.URLParam(r, "product_id")
	store, ok := h.open(ctx, w, true)
	if !ok {
		return
	}
	_, found, err := h.syncer.RemoveItem(withToken(ctx), store, productID)
	if err != nil {
		logger.Printf(ctx, "remove %s from cart %s: %v", productID, store.OwnerID(), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not update the cart")
		return
	}
	if !found {
		respondError(w, http.StatusNotFound, "not_found", "product is not in the cart")
		return
	}

	respondJSON(w, http.StatusOK, convertSnapshot(store.Snapshot()))
}

// DELETE /api/v1/cart
func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	store, ok := h.open(ctx, w, true)
	if !ok {
		return
	}
	if err := store.Clear(ctx); err != nil {
		logger.Printf(ctx, "clear cart %s: %v", store.OwnerID(), err)
		respondError(w, http.StatusInternalServerError, "internal_error", "could not clear the cart")
		return
	}

	respondJSON(w, http.StatusOK, convertSnapshot(store.Snapshot()))
}

func (h *CartHandler) open(ctx context.Context, w http.ResponseWriter, write bool) (*cartservice.CartStore, bool) {
	sess := session.FromContext(ctx)
	owner := sess.OwnerID()
	if owner == "" {
		respondError(w, http.StatusBadRequest, "missing_cart_id", "X-Cart-ID header is required")
		return nil, false
	}
	store, err := cartFor(ctx, h.carts, sess, write)
	if err != nil {
		logger.Printf(ctx, "open cart %s: %v", owner, err)
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "the cart is temporarily unavailable")
		return nil, false
	}
	return store, true
}

func wholeCents(p decimal.Decimal) bool {
	return p.Equal(p.Round(2))
}

// withToken lets background cart sync act as the caller.
func withToken(ctx context.Context) context.Context {
	if token := session.FromContext(ctx).Token; token != "" {
		return client.WithToken(ctx, token)
	}
	return ctx
}

func convertSnapshot(s domain.Snapshot) CartResponseDTO {
	lines := make([]CartLineDTO, 0, len(s.Lines))
	for _, l := range s.Lines {
		dto := CartLineDTO{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPriceCurrent.StringFixed(2),
			Quantity:  l.Quantity,
			ImageURL:  l.ImageURL,
			LineTotal: l.LineTotal().StringFixed(2),
		}
		if l.UnitPricePrevious != nil {
			prev := l.UnitPricePrevious.StringFixed(2)
			dto.PreviousPrice = &prev
		}
		lines = append(lines, dto)
	}

	return CartResponseDTO{
		OwnerID:   s.OwnerID,
		Lines:     lines,
		ItemCount: s.ItemCount,
		Subtotal:  s.Subtotal.StringFixed(2),
		Shipping:  s.Shipping.StringFixed(2),
		Total:     s.Total.StringFixed(2),
	}
}
