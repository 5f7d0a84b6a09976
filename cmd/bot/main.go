package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/OttoOtter-hub/TyreTerra/internal/bot"
	"github.com/OttoOtter-hub/TyreTerra/internal/cache"
	"github.com/OttoOtter-hub/TyreTerra/internal/config"
	"github.com/OttoOtter-hub/TyreTerra/internal/conversation"
	"github.com/OttoOtter-hub/TyreTerra/internal/export"
	"github.com/OttoOtter-hub/TyreTerra/internal/handler"
	"github.com/OttoOtter-hub/TyreTerra/internal/middleware"
	"github.com/OttoOtter-hub/TyreTerra/internal/notify"
	"github.com/OttoOtter-hub/TyreTerra/internal/ratelimit"
	"github.com/OttoOtter-hub/TyreTerra/internal/repository"
	"github.com/OttoOtter-hub/TyreTerra/internal/router"
	"github.com/OttoOtter-hub/TyreTerra/internal/search"
	"github.com/OttoOtter-hub/TyreTerra/internal/service"
	"github.com/OttoOtter-hub/TyreTerra/internal/transport"

	"github.com/redis/go-redis/v9"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("Starting TyreTerra bot...")

	// Load configuration
	cfg := config.MustLoad()
	log.Printf("Environment: %s", cfg.App.Environment)

	// Initialize record store based on config
	var store repository.Store
	var err error
	switch cfg.Store.Type {
	case "mysql":
		store, err = repository.NewMySQLStore(cfg.Store.MySQLDSN())
		if err != nil {
			log.Fatalf("Failed to initialize MySQL: %v", err)
		}
		log.Println("MySQL store initialized")
	case "postgres", "postgresql":
		store, err = repository.NewPostgresStore(cfg.Store.PostgresDSN())
		if err != nil {
			log.Fatalf("Failed to initialize PostgreSQL: %v", err)
		}
		log.Println("PostgreSQL store initialized")
	default: // sqlite
		store, err = repository.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			log.Fatalf("Failed to initialize SQLite: %v", err)
		}
		log.Println("SQLite store initialized")
	}
	defer store.Close()

	// Initialize Redis client when any component wants it
	var redisClient *redis.Client
	if cfg.Cache.Type == "redis" || cfg.RateLimit.Backend == "redis" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(ctx).Err(); err != nil {
			log.Printf("Warning: Redis connection failed: %v", err)
			redisClient = nil
		} else {
			log.Println("Redis client initialized")
		}
		cancel()
	}

	// Initialize cache (degrades to memory when Redis is unavailable)
	var appCache cache.Cache
	if cfg.Cache.Type == "redis" && redisClient != nil {
		redisCache, err := cache.NewRedisCache(cache.RedisConfig{
			Addr:     cfg.Cache.RedisAddress(),
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		if err != nil {
			log.Printf("Warning: Redis cache initialization failed: %v", err)
			appCache = cache.NewMemoryCache()
		} else {
			appCache = redisCache
		}
	} else {
		appCache = cache.NewMemoryCache()
		log.Println("Memory cache initialized")
	}
	defer appCache.Close()

	// Initialize rate limiter
	var limiter ratelimit.Limiter
	if cfg.RateLimit.Backend == "redis" && redisClient != nil {
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
		log.Println("Redis rate limiter initialized")
	} else {
		limiter = ratelimit.NewMemoryLimiter(cfg.RateLimit.MaxRequests, cfg.RateLimit.Window)
	}

	// Initialize export writer and sweeper
	exporter, err := export.NewWriter(cfg.Bot.TempDir)
	if err != nil {
		log.Fatalf("Failed to initialize export writer: %v", err)
	}
	sweeper := export.NewSweeper(cfg.Bot.TempDir, export.SweeperConfig{
		Interval: cfg.Sweep.Interval,
		MaxAge:   cfg.Sweep.MaxAge,
	})
	sweeper.Start()
	defer sweeper.Stop()

	// Initialize transport
	var tr transport.Transport
	if cfg.Bot.GatewayURL != "" {
		tr = transport.NewHTTPCallback(cfg.Bot.GatewayURL, cfg.Bot.GatewayToken)
		log.Printf("HTTP gateway transport initialized: %s", cfg.Bot.GatewayURL)
	} else {
		tr = transport.NewMemory()
		log.Println("Warning: GATEWAY_URL not set, outbound messages stay in memory")
	}

	// Initialize services
	logger := log.Default()
	notifier := notify.NewNotifier(store, tr, logger)
	searcher := search.NewService(store, logger)
	accountService := service.NewAccountService(store, store, logger)
	stockService := service.NewStockService(store, notifier, appCache, exporter,
		cfg.Bot.MaxStockItems, cfg.Bot.ExportTTL, logger)
	adminService := service.NewAdminService(store, exporter, appCache, sweeper, logger)

	// Initialize conversation engine and bot router
	engine := conversation.NewEngine(cfg.Bot.CancelToken)
	botRouter := bot.NewRouter(engine, limiter, accountService, stockService,
		adminService, searcher, exporter, tr, cfg.App.IsAdmin, cfg.Bot.MaxStockItems, logger)

	// Initialize HTTP handlers
	healthHandler := handler.New(store)
	updateHandler := handler.NewUpdateHandler(botRouter)
	adminHandler := handler.NewAdminHandler(adminService)

	r := router.New(router.Config{
		Handler:            healthHandler,
		UpdateHandler:      updateHandler,
		AdminHandler:       adminHandler,
		AdminKeyMiddleware: middleware.NewAdminKey(cfg.App.AdminKey),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Printf("Server listening on %s", cfg.Server.Address())
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	log.Println("Server stopped")
}
