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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/fjod/storefront/internal/api"
	"github.com/fjod/storefront/internal/auth"
	"github.com/fjod/storefront/internal/cart/cache"
	"github.com/fjod/storefront/internal/cart/repository"
	cartservice "github.com/fjod/storefront/internal/cart/service"
	checkoutservice "github.com/fjod/storefront/internal/checkout/service"
	"github.com/fjod/storefront/internal/client"
	"github.com/fjod/storefront/internal/config"
	"github.com/fjod/storefront/internal/media"
	"github.com/fjod/storefront/internal/metrics"
	"github.com/fjod/storefront/internal/notify"
	"github.com/fjod/storefront/internal/payment"
)

func main() {
	config.Load()
	cfg := config.LoadStorefront()
	ctx := context.Background()

	shipping, err := decimal.NewFromString(cfg.ShippingFee)
	if err != nil {
		log.Fatalf("Invalid SHIPPING_FEE %q: %v", cfg.ShippingFee, err)
	}

	repo := openCartRepository(ctx, cfg)
	defer repo.Close()

	var cartCache cache.CartCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		defer redisClient.Close()
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Fatalf("Redis connection failed: %v", err)
		}
		log.Printf("Redis ping succeeded")
		cartCache = cache.NewRedisCache(redisClient)
	}

	registry := cartservice.NewRegistry(repo, cartCache, cartservice.WithShipping(shipping))

	var remote cartservice.Remote
	if cfg.CartAPIURL != "" {
		remote = client.NewCartAPI(cfg.CartAPIURL, cfg.UpstreamTimeout)
		log.Printf("Cart changes mirrored to %s", cfg.CartAPIURL)
	}
	syncer := cartservice.NewSyncer(remote, cfg.UpstreamTimeout, nil)

	var notifier notify.Notifier = notify.LogNotifier{}
	if len(cfg.KafkaBrokers) > 0 {
		kafkaNotifier := notify.NewKafkaNotifier(cfg.ConfirmationTopic, cfg.KafkaBrokers...)
		defer kafkaNotifier.Close()
		notifier = kafkaNotifier
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	checkout := checkoutservice.NewCheckoutService(
		checkoutservice.NewOrderHandler(client.NewOrdersClient(cfg.OrdersAPIURL, cfg.UpstreamTimeout), cfg.UpstreamTimeout),
		checkoutservice.NewPaymentHandler(
			client.NewPaymentsClient(cfg.PaymentsAPIURL, cfg.UpstreamTimeout),
			payment.NewAdapter(cfg.CountryPrefix),
			cfg.UpstreamTimeout,
		),
		checkoutservice.NewNotificationHandler(notifier, cfg.NotifyTimeout),
		checkoutservice.WithMetrics(metrics.NewCheckoutMetrics(reg)),
	)

	var images api.ImageUploader
	if cfg.MinioEndpoint != "" {
		uploader, err := media.NewMinioUploader(cfg.MinioEndpoint, cfg.MinioAccessKey, cfg.MinioSecretKey, cfg.MinioBucket, cfg.MinioSecure)
		if err != nil {
			log.Fatalf("Failed to set up MinIO: %v", err)
		}
		if err := uploader.EnsureBucket(ctx); err != nil {
			log.Fatalf("Failed to prepare bucket: %v", err)
		}
		images = uploader
	}

	if cfg.JWTSecret == "" {
		log.Println("JWT_SECRET is not set, every bearer token will be refused")
	}

	router := api.NewRouter(api.Handlers{
		Cart:     api.NewCartHandler(registry, syncer, cfg.RequestTimeout),
		Checkout: api.NewCheckoutHandler(checkout, registry, cfg.RequestTimeout),
		Orders:   api.NewOrdersHandler(client.NewOrdersClient(cfg.OrdersAPIURL, cfg.UpstreamTimeout), cfg.RequestTimeout),
		Admin:    api.NewAdminHandler(images, cfg.MaxRequestBodySize, cfg.RequestTimeout),
	}, api.RouterConfig{
		Verifier:       auth.NewVerifier(cfg.JWTSecret),
		RequestTimeout: cfg.RequestTimeout,
		MaxBodySize:    cfg.MaxRequestBodySize,
		Metrics:        metrics.NewServerMetrics(reg, "storefront"),
		Gatherer:       reg,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Storefront starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server forced to shutdown: %v", err)
	}
	syncer.Wait()

	log.Println("server exited")
}

func openCartRepository(ctx context.Context, cfg *config.Storefront) repository.CartRepository {
	switch cfg.CartStore {
	case "mongo":
		db, err := repository.ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect to MongoDB: %v", err)
		}
		repo := repository.NewMongoRepository(db)
		if err := repo.CreateIndexes(ctx); err != nil {
			log.Fatalf("Failed to create cart indexes: %v", err)
		}
		log.Printf("Connected to MongoDB at %s", cfg.MongoURI)
		return repo
	case "sqlite", "":
		repo, err := repository.NewSQLiteRepository(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open SQLite: %v", err)
		}
		if err := repo.RunMigrations(cfg.MigrationsPath); err != nil {
			log.Fatalf("Failed to run migrations: %v", err)
		}
		log.Println("Cart database migrations completed")
		return repo
	default:
		log.Fatalf("Unknown CART_STORE %q (want sqlite or mongo)", cfg.CartStore)
		return nil
	}
}
