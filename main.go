package main

import (
	"context"
	"log"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/greenmart/checkout-service/clients"
	"github.com/greenmart/checkout-service/config"
	"github.com/greenmart/checkout-service/controllers"
	"github.com/greenmart/checkout-service/database"
	"github.com/greenmart/checkout-service/kafka"
	"github.com/greenmart/checkout-service/logger"
	"github.com/greenmart/checkout-service/metrics"
	"github.com/greenmart/checkout-service/middleware"
	"github.com/greenmart/checkout-service/routes"
	"github.com/greenmart/checkout-service/services"
	"github.com/greenmart/checkout-service/staging"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("[CheckoutService] Failed to load config: ", err)
	}

	zlog := logger.Initialize(cfg.Env)
	defer zlog.Sync()

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		zlog.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	sessions := database.NewSessionRepository(redisClient, cfg.SessionTTL)

	metricsClient, err := metrics.NewClient(context.Background(), cfg.CloudWatchNamespace, cfg.CloudWatchEnabled)
	if err != nil {
		zlog.Warn("CloudWatch metrics unavailable", zap.Error(err))
		metricsClient, _ = metrics.NewClient(context.Background(), "", false)
	}

	producer := kafka.NewOrderEventProducer(strings.Split(cfg.KafkaBrokers, ","), cfg.OrderEventsTopic, zlog)
	defer producer.Close()

	tokens := staging.NewTokenStore(cfg.StagingTokenSecret, cfg.StagingTTL)
	orderClient := clients.NewOrderClient(cfg.OrderServiceURL, cfg.HTTPTimeout)
	cartClient := clients.NewCartClient(cfg.CartServiceURL, cfg.HTTPTimeout)
	paymentClient := clients.NewPaymentClient(cfg.PaymentGatewayURL, cfg.PaymentAPIKey, cfg.PaymentAPISecret, cfg.HTTPTimeout)
	schedulerClient := clients.NewSchedulerClient(cfg.SchedulerURL, cfg.HTTPTimeout)
	serviceAccount := clients.NewServiceAccount(cfg.AuthServiceURL, cfg.ServiceAccountID, cfg.ServiceAccountSecret, cfg.HTTPTimeout)

	// Validated in config.LoadConfig.
	location, _ := time.LoadLocation(cfg.ReferenceTimezone)

	transitionService := services.NewTransitionService(
		schedulerClient, orderClient, serviceAccount, producer,
		cfg.PublicBaseURL, location, cfg.ShippingDelay, cfg.DeliveryDelay, zlog,
	)
	checkoutService := services.NewCheckoutService(
		tokens, orderClient, cartClient, sessions, producer,
		cfg.PaymentRedirectURL, zlog,
	)
	paymentService := services.NewPaymentService(
		paymentClient, orderClient, cartClient, sessions, transitionService,
		serviceAccount, producer, cfg.CompleteRedirectURL, zlog,
	)

	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(zlog))
	r.Use(middleware.MetricsMiddleware(metricsClient, "checkout-service"))

	routes.Register(
		r,
		controllers.NewCheckoutController(checkoutService, metricsClient, cfg.StagingTTL),
		controllers.NewPaymentController(paymentService, metricsClient),
		controllers.NewTransitionController(transitionService, metricsClient),
	)

	zlog.Info("Checkout service listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		zlog.Fatal("Server failed", zap.Error(err))
	}
}
