package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/threadline-io/threadline-backend/api/routes"
	"github.com/threadline-io/threadline-backend/internal/auth"
	cartsvc "github.com/threadline-io/threadline-backend/internal/cart"
	checkoutsvc "github.com/threadline-io/threadline-backend/internal/checkout"
	"github.com/threadline-io/threadline-backend/internal/notifications"
	ordersvc "github.com/threadline-io/threadline-backend/internal/orders"
	productsvc "github.com/threadline-io/threadline-backend/internal/products"
	"github.com/threadline-io/threadline-backend/internal/users"
	"github.com/threadline-io/threadline-backend/pkg/config"
	"github.com/threadline-io/threadline-backend/pkg/db"
	"github.com/threadline-io/threadline-backend/pkg/logger"
	"github.com/threadline-io/threadline-backend/pkg/metrics"
	"github.com/threadline-io/threadline-backend/pkg/migrate"
	"github.com/threadline-io/threadline-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	checkoutMetrics := metrics.NewCheckoutMetrics(registry)
	mailer := notifications.NewMailer(cfg.Mail, logg)

	usersRepo := users.NewRepository(dbClient.DB())
	productsRepo := productsvc.NewRepository(dbClient.DB())
	cartRepo := cartsvc.NewRepository(dbClient.DB())
	ordersRepo := ordersvc.NewRepository(dbClient.DB())

	authService, err := auth.NewService(auth.ServiceParams{
		UserRepo:  usersRepo,
		Sessions:  redisClient,
		JWTConfig: cfg.JWT,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	registerService, err := auth.NewRegisterService(auth.RegisterServiceParams{
		TxRunner:        dbClient,
		UserRepoFactory: auth.DefaultUserRepoFactory,
		OTPStore:        redisClient,
		Mailer:          mailer,
		Sessions:        redisClient,
		PasswordConfig:  cfg.Password,
		OTPConfig:       cfg.OTP,
		JWTConfig:       cfg.JWT,
		Logger:          logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create register service", err)
		os.Exit(1)
	}

	resetService, err := auth.NewPasswordResetService(auth.PasswordResetServiceParams{
		TxRunner:        dbClient,
		UserRepoFactory: auth.DefaultResetUserRepoFactory,
		OTPStore:        redisClient,
		Mailer:          mailer,
		PasswordConfig:  cfg.Password,
		OTPConfig:       cfg.OTP,
		Logger:          logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create reset service", err)
		os.Exit(1)
	}

	productService, err := productsvc.NewService(productsvc.ServiceParams{
		Repo:   productsRepo,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create product service", err)
		os.Exit(1)
	}

	cartService, err := cartsvc.NewService(cartsvc.ServiceParams{
		Repo:     cartRepo,
		TxRunner: dbClient,
		Products: productsRepo,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cart service", err)
		os.Exit(1)
	}

	orderService, err := ordersvc.NewService(ordersvc.ServiceParams{
		Repo:     ordersRepo,
		TxRunner: dbClient,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create order service", err)
		os.Exit(1)
	}

	checkoutService, err := checkoutsvc.NewService(checkoutsvc.ServiceParams{
		TxRunner:  dbClient,
		CartRepo:  cartRepo,
		OrderRepo: ordersRepo,
		Products:  productsRepo,
		Users:     usersRepo,
		Mailer:    mailer,
		Metrics:   checkoutMetrics,
		Logger:    logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create checkout service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:   cfg,
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Metrics:  registry,
			Users:    usersRepo,
			Auth:     authService,
			Register: registerService,
			Reset:    resetService,
			Products: productService,
			Cart:     cartService,
			Checkout: checkoutService,
			Orders:   orderService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
