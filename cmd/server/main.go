package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"

	"proxydesk/internal/handler"
	"proxydesk/internal/inventory"
	"proxydesk/internal/ledger"
	"proxydesk/internal/middleware"
	"proxydesk/internal/orders"
	"proxydesk/internal/pricing"
	"proxydesk/internal/rates"
	"proxydesk/internal/repository/postgres"
	"proxydesk/internal/stats"
	"proxydesk/pkg/config"
	"proxydesk/pkg/logger"
	"proxydesk/pkg/validator"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New("proxydesk-admin")

	if err := cfg.ValidateCore(); err != nil {
		log.Fatal("Invalid configuration", map[string]interface{}{"error": err.Error()})
	}

	log.Info("Starting admin service", map[string]interface{}{
		"port": cfg.Server.Port,
	})

	// Database connection
	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal("Failed to connect to database", map[string]interface{}{
			"error": err.Error(),
		})
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	db.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.Database.ConnMaxLifetime)

	log.Info("Database connected", nil)

	// Redis connection
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.URL,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Redis connected", nil)

	// Repositories
	pricingRepo := postgres.NewPricingRepository(db)
	ratesRepo := postgres.NewRatesRepository(db)
	inventoryRepo := postgres.NewInventoryRepository(db)
	ledgerRepo := postgres.NewLedgerRepository(db)
	ordersRepo := postgres.NewOrdersRepository(db)

	// Services
	pricingService := pricing.NewService(pricingRepo, log)

	quoteProviders := []rates.QuoteProvider{
		rates.NewOpenERAPIProvider(cfg.Market.ProviderURL),
	}
	quoteCache := rates.NewRedisQuoteCache(redisClient)
	ratesService := rates.NewService(ratesRepo, quoteProviders, quoteCache,
		cfg.Market.FetchTimeout, cfg.Market.QuoteTTL, log)

	inventoryService := inventory.NewService(inventoryRepo, log)
	ledgerService := ledger.NewService(ledgerRepo, ratesService, log)
	ordersService := orders.NewService(ordersRepo, pricingService, inventoryService, log)
	statsService := stats.NewService(inventoryService, ordersService, ledgerService)

	// Handlers
	val := validator.New()
	pricingHandler := handler.NewPricingHandler(pricingService, val, log)
	ratesHandler := handler.NewRatesHandler(ratesService, val, log)
	inventoryHandler := handler.NewInventoryHandler(inventoryService, val, log)
	ledgerHandler := handler.NewLedgerHandler(ledgerService, val, log)
	ordersHandler := handler.NewOrdersHandler(ordersService, val, log)
	statsHandler := handler.NewStatsHandler(statsService, log)
	systemHandler := handler.NewSystemHandler(db, redisClient, log)

	// Router
	r := mux.NewRouter()

	r.Use(middleware.CORS)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.Recovery(log))
	r.Use(middleware.CorrelationID)
	r.Use(middleware.NewLoggingMiddleware(log).Log)
	r.Use(middleware.NewRateLimiter(redisClient, 150, time.Minute).Limit)

	authMW := middleware.NewAuthMiddleware(cfg.JWT.Secret)
	idemMW := middleware.NewIdempotencyMiddleware(redisClient, 24*time.Hour)

	// Probes (no auth)
	r.HandleFunc("/health", systemHandler.Health).Methods("GET")
	r.HandleFunc("/ready", systemHandler.Ready).Methods("GET")

	// Admin API
	admin := r.PathPrefix("/api/v1/admin").Subrouter()
	admin.Use(authMW.Authenticate)
	admin.Use(authMW.RequireAdmin)
	admin.Use(middleware.NewRateLimiter(redisClient, 60, time.Minute).Limit)

	admin.HandleFunc("/pricing/tiers", pricingHandler.ListTiers).Methods("GET")
	admin.HandleFunc("/pricing/tiers/{quantity}", pricingHandler.UpdateTierPrice).Methods("PUT")
	admin.HandleFunc("/pricing/resolve", pricingHandler.ResolvePrice).Methods("GET")

	admin.HandleFunc("/rates", ratesHandler.ListRates).Methods("GET")
	admin.HandleFunc("/rates/convert", ratesHandler.Convert).Methods("POST")
	admin.HandleFunc("/rates/live/{currency}", ratesHandler.LiveQuote).Methods("GET")
	admin.HandleFunc("/rates/{currency}", ratesHandler.GetRate).Methods("GET")
	admin.HandleFunc("/rates/{currency}", ratesHandler.SetRate).Methods("PUT")

	admin.HandleFunc("/credentials/bulk", inventoryHandler.BulkInsert).Methods("POST")
	admin.HandleFunc("/credentials/allocate", inventoryHandler.Allocate).Methods("POST")
	admin.HandleFunc("/credentials/stats", inventoryHandler.Stats).Methods("GET")
	admin.HandleFunc("/credentials", inventoryHandler.List).Methods("GET")
	admin.HandleFunc("/credentials/{id}", inventoryHandler.Get).Methods("GET")
	admin.HandleFunc("/credentials/{id}/release", inventoryHandler.Release).Methods("POST")
	admin.HandleFunc("/credentials/{id}", inventoryHandler.Delete).Methods("DELETE")

	admin.HandleFunc("/transactions", ledgerHandler.List).Methods("GET")
	admin.HandleFunc("/transactions/totals", ledgerHandler.Totals).Methods("GET")
	admin.HandleFunc("/transactions/{id}", ledgerHandler.Get).Methods("GET")
	admin.HandleFunc("/transactions/{id}/approve", ledgerHandler.Approve).Methods("POST")
	admin.HandleFunc("/transactions/{id}/disapprove", ledgerHandler.Disapprove).Methods("POST")
	admin.HandleFunc("/transactions/{id}/amount", ledgerHandler.CorrectAmount).Methods("PUT")
	admin.HandleFunc("/transactions/{id}", ledgerHandler.Delete).Methods("DELETE")

	admin.HandleFunc("/stats", statsHandler.Snapshot).Methods("GET")
	admin.HandleFunc("/stats/stream", statsHandler.Stream).Methods("GET")

	// Intake and settlement routes are idempotency-gated: the payment
	// collaborator and the console both retry on flaky networks.
	writes := admin.PathPrefix("").Subrouter()
	writes.Use(idemMW.Require)
	writes.HandleFunc("/transactions", ledgerHandler.Record).Methods("POST")
	writes.HandleFunc("/orders", ordersHandler.Place).Methods("POST")

	admin.HandleFunc("/orders", ordersHandler.List).Methods("GET")
	admin.HandleFunc("/orders/totals", ordersHandler.Totals).Methods("GET")
	admin.HandleFunc("/orders/{id}", ordersHandler.Get).Methods("GET")
	admin.HandleFunc("/orders/{id}/release", ordersHandler.Release).Methods("POST")

	// Server
	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Admin service started", map[string]interface{}{
			"address": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down admin service...", nil)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Admin service forced to shutdown", map[string]interface{}{
			"error": err.Error(),
		})
	}

	log.Info("Admin service stopped gracefully", nil)
}
