package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"tripease/aggregator"
	"tripease/cache"
	"tripease/config"
	"tripease/database"
	"tripease/fallback"
	"tripease/handlers"
	"tripease/logger"
	"tripease/metrics"
	"tripease/middleware"
	"tripease/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl := logger.New(cfg.Logging.Level, cfg.Logging.Format)
	defer func() { _ = zl.Sync() }()
	appLog := logger.NewZapAdapter(zl).With(map[string]interface{}{
		"service":     cfg.App.Name,
		"environment": cfg.App.Environment,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database is optional; without it searches are not audited and PDFs are off.
	var store handlers.Store
	if cfg.Database.Enabled {
		db, err := database.Open(ctx, cfg.Database, appLog)
		if err != nil {
			appLog.Error("Database unavailable, continuing without persistence", map[string]interface{}{
				"error": err.Error(),
			})
		} else {
			defer func() { _ = db.Close() }()
			store = db
		}
	}

	respCache := cache.NewFromConfig(cfg.Redis, appLog)
	defer func() { _ = respCache.Close() }()
	if respCache.Enabled() {
		if err := respCache.Ping(ctx); err != nil {
			appLog.Warn("Redis not reachable, responses will not be cached until it is", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	httpClient := services.NewHTTPClient(cfg.Aggregation.AdapterTimeout)
	breaker := services.BreakerSettings{
		Failures: cfg.Aggregation.BreakerFailures,
		Cooldown: cfg.Aggregation.BreakerCooldown,
	}
	aggOpts := []aggregator.Option{
		aggregator.WithAdapterTimeout(cfg.Aggregation.AdapterTimeout),
		aggregator.WithObserver(metrics.Observer{}),
		aggregator.WithLogger(appLog.With(map[string]interface{}{"component": "aggregator"})),
	}

	deps := handlers.Deps{
		Images: handlers.Pipeline[services.Image]{
			Aggregator: aggregator.New[services.Image](fallback.Images(), aggOpts...),
			Adapters:   services.WrapAll(services.ImageAdapters(cfg.Providers, httpClient), breaker, appLog),
		},
		Places: handlers.Pipeline[services.Place]{
			Aggregator: aggregator.New[services.Place](fallback.Places(), aggOpts...),
			Adapters:   services.WrapAll(services.PlaceAdapters(cfg.Providers, httpClient), breaker, appLog),
		},
		Buses: handlers.Pipeline[services.BusTrip]{
			Aggregator: aggregator.New[services.BusTrip](fallback.Buses(), aggOpts...),
			Adapters:   services.WrapAll(services.BusAdapters(cfg.Providers, httpClient), breaker, appLog),
		},
		Activities: handlers.Pipeline[services.Activity]{
			Aggregator: aggregator.New[services.Activity](fallback.Activities(), aggOpts...),
			Adapters:   services.WrapAll(services.ActivityAdapters(cfg.Providers, httpClient), breaker, appLog),
		},
		Store:       store,
		Cache:       respCache,
		Limits:      cfg.Aggregation,
		ServiceName: cfg.App.Name,
		Logger:      appLog,
	}

	flow := services.NewHuggingFaceFlow(cfg.AI, services.NewHTTPClient(cfg.AI.Timeout))
	if flow.Configured() {
		deps.Flow = flow
	} else {
		appLog.Warn("HUGGINGFACE_API_KEY not set, itineraries use fallback text", nil)
	}

	appLog.Info("Providers configured", map[string]interface{}{
		"images":     len(deps.Images.Adapters),
		"places":     len(deps.Places.Adapters),
		"buses":      len(deps.Buses.Adapters),
		"activities": len(deps.Activities.Adapters),
	})

	if cfg.App.GinMode != "" {
		gin.SetMode(cfg.App.GinMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(appLog))

	// ClientIP keys the rate limiter, so only configured proxies may forward it.
	if err := middleware.TrustProxies(r, cfg.App.TrustedProxies); err != nil {
		appLog.WithError(err).Error("Invalid TRUSTED_PROXIES, trusting no proxy", map[string]interface{}{
			"trusted_proxies": cfg.App.TrustedProxies,
		})
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.App.FrontendURLs,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	limiter := middleware.NewLimiter(cfg.RateLimit.Requests, cfg.RateLimit.Window)
	defer limiter.Close()

	api := r.Group("/api")
	api.Use(middleware.RateLimit(limiter))
	handlers.New(deps).Register(api)

	srv := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Info("TripEase backend starting", map[string]interface{}{"port": cfg.App.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLog.Error("Server failed", map[string]interface{}{"error": err.Error()})
			stop()
		}
	}()

	<-ctx.Done()
	appLog.Info("Shutting down", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Error("Graceful shutdown failed", map[string]interface{}{"error": err.Error()})
	}
}
