package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/fjod/go_shop/internal/catalog"
	"github.com/fjod/go_shop/internal/consumer"
	"github.com/fjod/go_shop/internal/esewa"
	h "github.com/fjod/go_shop/internal/http"
	"github.com/fjod/go_shop/internal/identity"
	"github.com/fjod/go_shop/internal/notifier"
	"github.com/fjod/go_shop/internal/publisher"
	"github.com/fjod/go_shop/internal/repository"
	"github.com/fjod/go_shop/internal/service"
)

type Config struct {
	HTTPPort        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	AdminToken      string

	DB repository.Credentials

	RedisAddr    string
	KafkaBrokers []string

	Esewa esewa.Config
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:        getEnv("HTTP_PORT", "8080"),
		RequestTimeout:  30 * time.Second,
		ShutdownTimeout: 10 * time.Second,
		AdminToken:      getEnv("ADMIN_TOKEN", ""),
		DB: repository.Credentials{
			Host:              getEnv("DB_HOST", "localhost"),
			Port:              getEnvInt("DB_PORT", 5432),
			User:              getEnv("DB_USER", "shop"),
			Password:          getEnv("DB_PASSWORD", "shop"),
			DBName:            getEnv("DB_NAME", "shop"),
			MigrationsDirPath: getEnv("MIGRATIONS_DIR", "internal/repository/migrations"),
		},
		RedisAddr:    getEnv("REDIS_ADDR", "localhost:6379"),
		KafkaBrokers: strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		Esewa: esewa.Config{
			MerchantCode: getEnv("ESEWA_MERCHANT_CODE", "EPAYTEST"),
			SecretKey:    getEnv("ESEWA_SECRET_KEY", ""),
			VerifyURL:    getEnv("ESEWA_VERIFY_URL", "https://rc.esewa.com.np/api/epay/transaction/status/"),
			SuccessURL:   getEnv("ESEWA_SUCCESS_URL", "http://localhost:8080/api/v1/payments/esewa/callback"),
			FailureURL:   getEnv("ESEWA_FAILURE_URL", "http://localhost:8080/api/v1/payments/esewa/callback"),
			Timeout:      10 * time.Second,
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

func main() {
	cfg := loadConfig()

	repo, err := repository.NewRepository(&cfg.DB)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer repo.Close()

	if err := repo.RunMigrations(&cfg.DB); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer redisClient.Close()

	cat := catalog.NewService(repo, catalog.NewRedisCache(redisClient))
	gateway := esewa.NewClient(cfg.Esewa)

	cartSvc := service.NewCartService(repo, cat)
	placementSvc := service.NewPlacementService(repo)
	orderSvc := service.NewOrderService(repo)
	paymentSvc := service.NewPaymentService(repo, gateway)

	cartHandler := h.NewCartHandler(cartSvc, cfg.RequestTimeout)
	ordersHandler := h.NewOrdersHandler(placementSvc, orderSvc, cfg.RequestTimeout)
	paymentsHandler := h.NewPaymentsHandler(paymentSvc, cfg.RequestTimeout)

	authMiddleware := h.AuthMiddleware(identity.NewStaticProvider())

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(middleware.Compress(5))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.Post("/profile", cartHandler.EnsureProfile)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.GetCart)
				r.Post("/items", cartHandler.AddItem)
				r.Put("/items/{product_id}", cartHandler.UpdateQuantity)
				r.Delete("/items/{product_id}", cartHandler.RemoveItem)
			})

			r.Route("/orders", func(r chi.Router) {
				r.Post("/", ordersHandler.PlaceOrder)
				r.Get("/", ordersHandler.ListOrders)
				r.Get("/{order_id}", ordersHandler.GetOrder)
				r.Patch("/{order_id}/cancel", ordersHandler.CancelOrder)
				r.Post("/{order_id}/payment-mode", ordersHandler.SelectPaymentMode)
			})

			r.Post("/payments/esewa/initiate", paymentsHandler.Initiate)
		})

		// Provider callback and customer retries; confirmation is
		// idempotent and keyed by the stored transaction reference.
		r.Post("/payments/esewa/confirm/{order_id}", paymentsHandler.Confirm)

		r.Group(func(r chi.Router) {
			r.Use(h.AdminAuthMiddleware(cfg.AdminToken))
			r.Post("/admin/orders/{order_id}/cash-paid", ordersHandler.MarkCashPaid)
		})
	})

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()

	poller := publisher.NewOutboxPoller(repo, cfg.KafkaBrokers...)
	go poller.Run(workerCtx)

	eventsConsumer := consumer.NewConsumer(notifier.NewLogNotifier(), cfg.KafkaBrokers...)
	defer eventsConsumer.Close()
	go eventsConsumer.Run(workerCtx)

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("shop backend starting on :%s", cfg.HTTPPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down server...")
	stopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("server exited")
}
