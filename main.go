package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"

	"thelocals/config"
	"thelocals/cron"
	"thelocals/database"
	bookingRepoPkg "thelocals/database/repository/booking"
	providerRepoPkg "thelocals/database/repository/provider"
	"thelocals/feed"
	"thelocals/handlers"
	"thelocals/projector"
	"thelocals/routes"
	"thelocals/services/booking"
	"thelocals/services/notification"
	"thelocals/utils"
)

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()

	database.InitDB()
	utils.InitRedis()
	utils.FirebaseInit()
	stripe.Key = config.AppConfig.StripeKey

	// Repositories.
	bookingRepo := bookingRepoPkg.NewMongoBookingRepo()
	provRepo := providerRepoPkg.NewMongoProviderRepo()
	{
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := bookingRepo.EnsureIndexes(ctx); err != nil {
			logger.Sugar().Fatalf("main: failed to create booking indexes: %v", err)
		}
		if err := provRepo.EnsureIndexes(ctx); err != nil {
			logger.Sugar().Fatalf("main: failed to create provider indexes: %v", err)
		}
		cancel()
	}

	// Background queue client.
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})
	defer asynqClient.Close()

	// Services.
	matchingService := &booking.DefaultMatchingService{
		ProviderRepo: provRepo,
		CacheClient:  utils.GetCacheClient(),
	}
	notificationService := notification.NewFCMNotificationService(utils.GetCacheClient(), logger)
	feedPublisher := feed.NewPublisher(utils.GetFeedClient(), logger)
	otpStore := booking.NewRedisOTPStore()

	bookingService := &booking.DefaultBookingService{
		Repo:        bookingRepo,
		MatchingSvc: matchingService,
		Payments:    booking.NewPaymentHandler(logger),
		Notifier:    notificationService,
		FeedPub:     feedPublisher,
		Expiry:      booking.NewExpiryScheduler(asynqClient, logger),
		OTP:         otpStore,
		Logger:      logger,
	}

	// Live-view projectors, fed by the Redis change feed.
	feedSubscriber := feed.NewSubscriber(utils.GetFeedClient(), logger)
	registry := projector.NewRegistry(
		handlers.NewProjectorDeps(bookingService, feedSubscriber, otpStore), logger)

	// Expiry worker.
	cron.InitExpiryWorker(bookingService)

	// HTTP surface.
	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())

	handlers.RegisterValidations()
	handlerBundle := handlers.NewHandlerBundle(bookingService, notificationService, registry, logger)
	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Sugar().Info("main: server is shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Sugar().Fatalf("main: server forced to shutdown: %v", err)
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
