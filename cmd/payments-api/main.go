package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/gateway"
	"github.com/fjod/storefront/internal/metrics"
)

func main() {
	log.Println("payments-api starting...")
	config.Load()
	cfg := config.LoadPayments()

	var opts []gateway.Option
	if cfg.StripeSecretKey != "" {
		opts = append(opts, gateway.WithCardCharger(gateway.NewStripeCharger(cfg.StripeSecretKey, cfg.Currency)))
		log.Println("Card payments go through Stripe")
	} else {
		log.Println("STRIPE_SECRET_KEY not set, card payments are simulated")
	}
	handler := gateway.NewPaymentsHandler(gateway.RandomStatus{SuccessRate: cfg.SuccessRate}, 15*time.Second, opts...)

	reg := prometheus.NewRegistry()
	serverMetrics := metrics.NewServerMetrics(reg, "payments-api")

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(serverMetrics.Middleware)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Handle("/metrics", metrics.Handler(reg))
	r.Mount("/", handler.Routes())

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      otelhttp.NewHandler(r, "payments-api"),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 20 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Payments API listening on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to serve: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down payments API...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Payments API forced to shutdown: %v", err)
	}
	log.Println("Payments API stopped")
}
