package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Load reads .env into the process environment when the file exists.
// Variables already set in the environment win.
func Load() {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("no .env file found, using process environment")
		return
	}
	log.Println(".env loaded")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("invalid %s=%q, using %s", key, raw, defaultValue)
		return defaultValue
	}
	return v
}

func getList(key, defaultValue string) []string {
	parts := strings.Split(getEnv(key, defaultValue), ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

type Storefront struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	UpstreamTimeout    time.Duration
	NotifyTimeout      time.Duration
	ShutdownTimeout    time.Duration
	MaxRequestBodySize int64
	JWTSecret          string

	CartStore      string // sqlite or mongo
	SQLitePath     string
	MigrationsPath string
	MongoURI       string
	MongoDatabase  string
	RedisAddr      string
	RedisPassword  string
	ShippingFee    string

	OrdersAPIURL   string
	PaymentsAPIURL string
	CartAPIURL     string
	CountryPrefix  string

	KafkaBrokers      []string
	ConfirmationTopic string

	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioSecure    bool
}

func LoadStorefront() *Storefront {
	return &Storefront{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		UpstreamTimeout:    getDuration("UPSTREAM_TIMEOUT", 10*time.Second),
		NotifyTimeout:      getDuration("NOTIFY_TIMEOUT", 3*time.Second),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxRequestBodySize: int64(getInt("MAX_REQUEST_BODY_BYTES", 10<<20)),
		JWTSecret:          getEnv("JWT_SECRET", ""),

		CartStore:      getEnv("CART_STORE", "sqlite"),
		SQLitePath:     getEnv("SQLITE_PATH", "./storefront.db"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/cart/repository/migrations"),
		MongoURI:       getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase:  getEnv("MONGO_DATABASE", "storefront"),
		RedisAddr:      getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		ShippingFee:    getEnv("SHIPPING_FEE", "9.99"),

		OrdersAPIURL:   getEnv("ORDERS_API_URL", "http://localhost:8081"),
		PaymentsAPIURL: getEnv("PAYMENTS_API_URL", "http://localhost:8082"),
		CartAPIURL:     getEnv("CART_API_URL", ""),
		CountryPrefix:  getEnv("PHONE_COUNTRY_PREFIX", "254"),

		KafkaBrokers:      getList("KAFKA_BROKERS", "localhost:9092"),
		ConfirmationTopic: getEnv("CONFIRMATION_TOPIC", "order-confirmations"),

		MinioEndpoint:  getEnv("MINIO_ENDPOINT", ""),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioBucket:    getEnv("MINIO_BUCKET", "product-images"),
		MinioSecure:    getEnv("MINIO_SECURE", "false") == "true",
	}
}

type Orders struct {
	HTTPPort        string
	ShutdownTimeout time.Duration
	DBHost          string
	DBPort          int
	DBUser          string
	DBPassword      string
	DBName          string
	MigrationsPath  string
	// JWTSecret, when set, makes every route require a bearer token.
	JWTSecret string
}

func LoadOrders() *Orders {
	return &Orders{
		HTTPPort:        getEnv("HTTP_PORT", "8081"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          getInt("DB_PORT", 5432),
		DBUser:          getEnv("DB_USER", "postgres"),
		DBPassword:      getEnv("DB_PASSWORD", "postgres"),
		DBName:          getEnv("DB_NAME", "storefront"),
		MigrationsPath:  getEnv("MIGRATIONS_PATH", "./internal/orders/repository/migrations"),
		JWTSecret:       getEnv("JWT_SECRET", ""),
	}
}

type Payments struct {
	HTTPPort        string
	ShutdownTimeout time.Duration
	StripeSecretKey string
	Currency        string
	SuccessRate     int
}

func LoadPayments() *Payments {
	return &Payments{
		HTTPPort:        getEnv("HTTP_PORT", "8082"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		StripeSecretKey: getEnv("STRIPE_SECRET_KEY", ""),
		Currency:        getEnv("PAYMENT_CURRENCY", "kes"),
		SuccessRate:     getInt("SIMULATED_SUCCESS_RATE", 95),
	}
}

type Notifier struct {
	KafkaBrokers      []string
	ConfirmationTopic string
	ConsumerGroup     string
	SMTPHost          string
	SMTPPort          int
	SMTPUsername      string
	SMTPPassword      string
	MailFrom          string
	StoreName         string
}

func LoadNotifier() *Notifier {
	return &Notifier{
		KafkaBrokers:      getList("KAFKA_BROKERS", "localhost:9092"),
		ConfirmationTopic: getEnv("CONFIRMATION_TOPIC", "order-confirmations"),
		ConsumerGroup:     getEnv("CONSUMER_GROUP", "notifier"),
		SMTPHost:          getEnv("SMTP_HOST", "localhost"),
		SMTPPort:          getInt("SMTP_PORT", 587),
		SMTPUsername:      getEnv("SMTP_USERNAME", ""),
		SMTPPassword:      getEnv("SMTP_PASSWORD", ""),
		MailFrom:          getEnv("MAIL_FROM", "noreply@storefront.local"),
		StoreName:         getEnv("STORE_NAME", "Vice Queen Industries"),
	}
}
