// Package api is the storefront HTTP surface: cart, checkout, order history
// and admin image upload.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/storefront/internal/metrics"
)

type Handlers struct {
	Cart     *CartHandler
	Checkout *CheckoutHandler
	Orders   *OrdersHandler
	Admin    *AdminHandler
}

type RouterConfig struct {
	Verifier       TokenVerifier
	RequestTimeout time.Duration
	MaxBodySize    int64
	Metrics        *metrics.ServerMetrics
	Gatherer       prometheus.Gatherer
}

func NewRouter(h Handlers, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	if cfg.MaxBodySize > 0 {
		r.Use(MaxBodySize(cfg.MaxBodySize))
	}
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(cfg.Gatherer))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.Verifier))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Cart.GetCart)
			r.Delete("/", h.Cart.ClearCart)
			r.Post("/items", h.Cart.AddItem)
			r.Post("/items/{product_id}/subtract", h.Cart.SubtractItem)
			r.Delete("/items/{product_id}", h.Cart.RemoveItem)
		})

		r.Post("/checkout", h.Checkout.Checkout)
		r.With(RequireUser).Get("/checkout/{attempt_id}", h.Checkout.GetAttempt)

		r.Route("/orders", func(r chi.Router) {
			r.Use(RequireUser)
			r.Get("/", h.Orders.ListOrders)
			r.Get("/{order_id}/track/{tracking_number}", h.Orders.TrackOrder)
		})

		r.With(RequireAdmin).Post("/admin/images", h.Admin.UploadImage)
	})

	return otelhttp.NewHandler(r, "storefront")
}
