package config

import (
	"fmt"
	"os"
	"time"
)

type Config struct {
	Port string
	Env  string

	// Staging
	StagingTokenSecret string
	StagingTTL         time.Duration

	// Checkout session store
	RedisURL   string
	SessionTTL time.Duration

	// External collaborators
	OrderServiceURL   string
	CartServiceURL    string
	PaymentGatewayURL string
	PaymentAPIKey     string
	PaymentAPISecret  string
	SchedulerURL      string
	AuthServiceURL    string
	HTTPTimeout       time.Duration

	// Service account for callback-time order patches
	ServiceAccountID     string
	ServiceAccountSecret string

	// Scheduled transitions
	PublicBaseURL     string
	ReferenceTimezone string
	ShippingDelay     time.Duration
	DeliveryDelay     time.Duration

	// Events
	KafkaBrokers     string
	OrderEventsTopic string

	// Redirect targets handed back to the purchase UI
	PaymentRedirectURL  string
	CompleteRedirectURL string

	// Metrics
	CloudWatchEnabled   bool
	CloudWatchNamespace string
}

func LoadConfig() (*Config, error) {
	cfg := &Config{
		Port: getEnv("PORT", "8087"),
		Env:  getEnv("APP_ENV", "development"),

		StagingTokenSecret: os.Getenv("STAGING_TOKEN_SECRET"),
		StagingTTL:         getDuration("STAGING_TTL", time.Hour),

		RedisURL:   getEnv("REDIS_URL", "redis://redis:6379"),
		SessionTTL: getDuration("SESSION_TTL", 72*time.Hour),

		OrderServiceURL:   getEnv("ORDER_SERVICE_URL", "http://order-service:8083"),
		CartServiceURL:    getEnv("CART_SERVICE_URL", "http://cart-service:8086"),
		PaymentGatewayURL: os.Getenv("PAYMENT_GATEWAY_URL"),
		PaymentAPIKey:     os.Getenv("PAYMENT_API_KEY"),
		PaymentAPISecret:  os.Getenv("PAYMENT_API_SECRET"),
		SchedulerURL:      os.Getenv("SCHEDULER_URL"),
		AuthServiceURL:    getEnv("AUTH_SERVICE_URL", "http://auth-service:8081"),
		HTTPTimeout:       getDuration("HTTP_TIMEOUT", 10*time.Second),

		ServiceAccountID:     os.Getenv("SERVICE_ACCOUNT_ID"),
		ServiceAccountSecret: os.Getenv("SERVICE_ACCOUNT_SECRET"),

		PublicBaseURL:     os.Getenv("PUBLIC_BASE_URL"),
		ReferenceTimezone: getEnv("REFERENCE_TIMEZONE", "Asia/Seoul"),
		ShippingDelay:     getDuration("SHIPPING_DELAY", 24*time.Hour),
		DeliveryDelay:     getDuration("DELIVERY_DELAY", 48*time.Hour),

		KafkaBrokers:     getEnv("KAFKA_BROKERS", "localhost:9092"),
		OrderEventsTopic: getEnv("ORDER_EVENTS_TOPIC", "order.events"),

		PaymentRedirectURL:  getEnv("PAYMENT_REDIRECT_URL", "/payments/checkout"),
		CompleteRedirectURL: getEnv("COMPLETE_REDIRECT_URL", "/orders/complete"),

		CloudWatchEnabled:   os.Getenv("CLOUDWATCH_ENABLED") == "true",
		CloudWatchNamespace: getEnv("CLOUDWATCH_NAMESPACE", "GreenMart/Checkout"),
	}

	if cfg.StagingTokenSecret == "" {
		return nil, fmt.Errorf("STAGING_TOKEN_SECRET is required")
	}
	if cfg.PaymentGatewayURL == "" || cfg.PaymentAPIKey == "" || cfg.PaymentAPISecret == "" {
		return nil, fmt.Errorf("payment gateway config incomplete")
	}
	if cfg.SchedulerURL == "" {
		return nil, fmt.Errorf("SCHEDULER_URL is required")
	}
	if cfg.PublicBaseURL == "" {
		return nil, fmt.Errorf("PUBLIC_BASE_URL is required for scheduler callbacks")
	}
	if cfg.ServiceAccountID == "" || cfg.ServiceAccountSecret == "" {
		return nil, fmt.Errorf("service account config incomplete")
	}
	if _, err := time.LoadLocation(cfg.ReferenceTimezone); err != nil {
		return nil, fmt.Errorf("invalid REFERENCE_TIMEZONE %q: %w", cfg.ReferenceTimezone, err)
	}
	return cfg, nil
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getDuration(key string, fallback time.Duration) time.Duration {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return fallback
	}
	return d
}
