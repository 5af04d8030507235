package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-storefront/internal/admin"
	admin_api "ms-storefront/internal/admin/api"
	"ms-storefront/internal/auth"
	"ms-storefront/internal/cache"
	"ms-storefront/internal/config"
	"ms-storefront/internal/courier"
	"ms-storefront/internal/database/migrations"
	"ms-storefront/internal/delivery"
	"ms-storefront/internal/geo"
	"ms-storefront/internal/kafka"
	"ms-storefront/internal/logger"
	"ms-storefront/internal/notify"
	"ms-storefront/internal/order"
	order_api "ms-storefront/internal/order/api"
	order_db "ms-storefront/internal/order/db"
	"ms-storefront/internal/payment"
	"ms-storefront/internal/storefront"
	storefront_api "ms-storefront/internal/storefront/api"
	storefront_db "ms-storefront/internal/storefront/db"
)

func connectPostgres(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Attempting to connect to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err != nil {
			log.Error("DATABASE", fmt.Sprintf("Failed to open PostgreSQL: %v", err))
			time.Sleep(2 * time.Second)
			continue
		}

		err = sqldb.Ping()
		if err == nil {
			break
		}

		log.Error("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)

	log.Info("DATABASE", "PostgreSQL connection successful")
	return bun.NewDB(sqldb, pgdialect.New())
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Storefront Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	} else {
		log.Info("CONFIG", "Loaded environment variables from .env file")
	}

	cfg := config.Load()

	bunDB := connectPostgres(cfg.Database, log)
	defer bunDB.Close()

	migrationOpts := migrations.DefaultOptions()
	if dir := os.Getenv("MIGRATIONS_DIR"); dir != "" {
		migrationOpts.MigrationsDir = dir
	}
	if migrationOpts.AutoMigrate {
		runner := migrations.NewRunner(bunDB, migrationOpts)
		if err := runner.RunMigrations(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		runner.Close()
	}

	// Redis is an accelerator, not a dependency: the storefront serves
	// settings straight from Postgres when it is unavailable.
	var redisClient *redis.Client
	if client, err := cache.InitializeClient(cfg.Redis.Addr, log); err == nil {
		redisClient = client
		defer redisClient.Close()
	} else {
		log.Warn("CACHE", fmt.Sprintf("Running without Redis settings cache: %v", err))
	}
	settingsCache := cache.NewSettingsCache(redisClient, cfg.Redis.SettingsTTL, log)

	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		if err := kafka.EnsureTopicsExist(cfg.Kafka.Brokers, []string{
			cfg.Kafka.Topics.OrderCreated,
			cfg.Kafka.Topics.DeliveryUpdated,
		}); err != nil {
			log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
		}
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topics.OrderCreated, cfg.Kafka.Topics.DeliveryUpdated)
		defer producer.Close()
		log.Info("KAFKA", "Kafka producer initialized successfully")
	} else {
		log.Warn("KAFKA", "Kafka disabled, order events will not be streamed")
	}

	geocoder := geo.NewGeocoder(cfg.Geocoder)
	swyft := courier.NewSwyft(cfg.Swyft, cfg.Store, geocoder)
	velox := courier.NewVelox(cfg.Velox, cfg.Store)
	policy := delivery.NewPolicy(swyft, velox, cfg.Store.DefaultFee, log)

	gateway := payment.NewGateway(cfg.Payment)
	notifier := notify.NewWhatsApp(cfg.WhatsApp)

	orderDB := &order_db.DB{Bun: bunDB}
	storefrontDB := &storefront_db.DB{Bun: bunDB}

	var orderEvents order.KafkaPublisher
	var adminEvents admin.KafkaPublisher
	if producer != nil {
		orderEvents = producer
		adminEvents = producer
	}

	orderService := order.NewOrderService(orderDB, gateway, notifier, orderEvents, policy, log)
	storefrontService := storefront.NewStorefrontService(storefrontDB, settingsCache, log)
	adminService := admin.NewAdminService(orderDB, notifier, adminEvents, settingsCache, log)

	orderHandler := &order_api.Handler{OrderService: orderService}
	paymentHandler := &order_api.PaymentHandler{Gateway: gateway, KeyID: cfg.Payment.KeyID}
	storefrontHandler := &storefront_api.Handler{Service: storefrontService}
	adminHandler := &admin_api.Handler{AdminService: adminService}

	log.Info("HTTP", "Setting up router and middleware")
	r := chi.NewRouter()

	// --- Public Routes ---
	r.Route("/api", func(r chi.Router) {
		r.Get("/products", storefrontHandler.Products)
		r.Get("/offers/active", storefrontHandler.Offers)
		r.Get("/settings/store-status", storefrontHandler.StoreStatus)
		r.Get("/settings/platform-fee", storefrontHandler.PlatformFee)
		r.Get("/settings/surge-fee", storefrontHandler.SurgeFee)
		r.Post("/cart/validate-coupon", storefrontHandler.ValidateCoupon)
		r.Post("/delivery/calculate-fee", orderHandler.CalculateFee)
		r.Post("/payment/create-order", paymentHandler.CreateOrder)
		r.Post("/payment/verify", paymentHandler.VerifyPayment)
		r.Post("/delivery/velox/webhook", orderHandler.VeloxWebhook)
		r.Get("/orders/{orderId}/tracking-qr", orderHandler.TrackingQR)
	})
	log.Info("ROUTER", "Public storefront endpoints registered under /api")

	// --- Protected Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.Middleware())

		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/finalize-payment", orderHandler.FinalizeOrder)
			r.Get("/my-orders", orderHandler.MyOrders)
			r.Get("/{orderId}", orderHandler.GetOrder)
		})
		r.Route("/api/addresses", func(r chi.Router) {
			r.Get("/", storefrontHandler.MyAddresses)
			r.Post("/", storefrontHandler.AddAddress)
		})
	})
	log.Info("ROUTER", "Order and address routes registered under /api")

	// --- Admin Routes ---
	r.Group(func(r chi.Router) {
		r.Use(auth.AdminOnly(cfg.Server.AdminKey))

		r.Route("/api/admin", func(r chi.Router) {
			r.Get("/settings/delivery-mode", adminHandler.GetDeliveryMode)
			r.Put("/settings/delivery-mode", adminHandler.SetDeliveryMode)
			r.Put("/settings", adminHandler.SetSetting)
			r.Get("/orders/pending", adminHandler.PendingOrders)
			r.Post("/orders/{orderId}/manual-book", adminHandler.ManualBook)
		})
	})
	log.Info("ROUTER", "Admin routes registered under /api/admin")

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("HTTP", fmt.Sprintf("Storefront Service listening on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP", fmt.Sprintf("Server failed: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("APP", "Shutting down, waiting for in-flight dispatches")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP", fmt.Sprintf("Graceful shutdown failed: %v", err))
	}
	orderService.Wait()
	log.Info("APP", "Storefront Service stopped")
}
