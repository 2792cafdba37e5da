package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	cartapp "github.com/storefront/backend/internal/application/cart"
	catalogapp "github.com/storefront/backend/internal/application/catalog"
	orderapp "github.com/storefront/backend/internal/application/order"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/stream"
	"github.com/storefront/backend/internal/interfaces/http/handler"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
	"github.com/storefront/backend/internal/interfaces/http/router"
	"github.com/storefront/backend/internal/notify"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Storefront Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))

	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected")

	// Repositories. The product repository is wrapped with a Redis cache
	// when Redis is reachable; otherwise it is used directly.
	productRepo := persistence.NewGormProductRepository(db.DB)
	orderRepo := persistence.NewGormOrderRepository(db.DB)

	var productLookup catalog.ProductRepository = productRepo
	if redisClient, err := cache.NewRedisClient(cfg.Redis); err != nil {
		log.Warn("Redis unavailable, product cache disabled", zap.Error(err))
	} else {
		defer func() {
			_ = redisClient.Close()
		}()
		productLookup = cache.NewCachingProductRepository(productRepo, redisClient,
			cache.WithCacheLogger(log),
			cache.WithTTL(cfg.Redis.TTL),
		)
		log.Info("Product cache enabled", zap.Duration("ttl", cfg.Redis.TTL))
	}

	cartService := cartapp.NewService(cart.NewSessions(), productLookup, orderRepo)
	productService := catalogapp.NewProductService(productLookup)
	orderService := orderapp.NewService(orderRepo)

	// Order change-stream: LISTEN on the orders channel and fan out to
	// connected admin clients through the hub.
	listener, err := stream.NewOrderListener(cfg.Database.DSN(), stream.Config{
		Channel:      cfg.Notify.Channel,
		MinReconnect: cfg.Notify.MinReconnect,
		MaxReconnect: cfg.Notify.MaxReconnect,
	}, log)
	if err != nil {
		log.Fatal("Failed to start order listener", zap.Error(err))
	}

	hub := notify.NewHub(listener,
		notify.WithLogger(log),
		notify.WithSubscriberBuffer(cfg.Notify.SubscriberBuffer),
	)

	hubCtx, stopHub := context.WithCancel(context.Background())
	defer stopHub()
	go func() {
		if err := hub.Run(hubCtx); err != nil {
			log.Error("Notification hub stopped", zap.Error(err))
		}
	}()

	// HTTP engine and middleware
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Fatal("Invalid trusted proxies", zap.Error(err))
		}
	}

	corsCfg := middleware.DefaultCORSConfig()
	corsCfg.AllowOrigins = cfg.HTTP.CORSAllowOrigins

	engine.Use(
		middleware.RequestID(),
		logger.GinMiddleware(log),
		logger.Recovery(log),
		middleware.Secure(),
		middleware.CORSWithConfig(corsCfg),
	)

	r := router.NewRouter(engine)
	r.Register(handler.NewCartHandler(cartService)).
		Register(handler.NewProductHandler(productService)).
		Register(handler.NewOrderHandler(orderService)).
		Register(handler.NewOrderStreamHandler(hub,
			handler.WithStreamLogger(log),
			handler.WithStreamHeartbeat(cfg.Notify.SSEHeartbeat),
			handler.WithStreamMaxClients(cfg.Notify.SSEMaxClients),
		)).
		Register(handler.NewSystemHandler(db))
	r.Setup()

	srv := &http.Server{
		Addr:         ":" + cfg.App.Port,
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	stopHub()
	log.Info("Server exited gracefully")
}
